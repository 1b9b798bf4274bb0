package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	orcherrors "github.com/orchestra/orchestra/pkg/errors"
)

// chatMessage is one entry of a generic OpenAI-compatible chat-completions
// body.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// bearerTokenTransport adds an Authorization header to every request.
type bearerTokenTransport struct {
	base  http.RoundTripper
	token string
}

func (t *bearerTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(req)
}

// HTTPInvoker sends a generic OpenAI-compatible chat-completions request to
// a remote provider, authenticated via KeyStore-sourced bearer tokens.
type HTTPInvoker struct {
	Endpoint string
	Provider string
	Keys     KeyStore
	Client   *http.Client
}

// NewHTTPInvoker builds an HTTPInvoker for endpoint, sourcing its bearer
// token from keys under provider.
func NewHTTPInvoker(endpoint, provider string, keys KeyStore) *HTTPInvoker {
	base := http.DefaultTransport
	return &HTTPInvoker{
		Endpoint: endpoint,
		Provider: provider,
		Keys:     keys,
		Client:   &http.Client{Transport: base},
	}
}

// Invoke POSTs a chat-completions body and returns the first choice's
// message content. Non-2xx responses are classified as BackendFailure.
func (h *HTTPInvoker) Invoke(ctx context.Context, modelName, prompt string, temperature float64, maxTokens int, timeout time.Duration) (string, error) {
	token, ok := h.Keys.Get(h.Provider)
	if !ok {
		return "", orcherrors.NewNotAvailable("invoker.HTTP.Invoke", fmt.Errorf("no credential for provider %q", h.Provider))
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body, err := json.Marshal(chatRequest{
		Model:       modelName,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", orcherrors.NewInternal("invoker.HTTP.Invoke", err)
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", orcherrors.NewInternal("invoker.HTTP.Invoke", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := *h.Client
	client.Transport = &bearerTokenTransport{base: h.Client.Transport, token: token}

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", orcherrors.NewBackendFailure("invoker.HTTP.Invoke", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", orcherrors.NewBackendFailure("invoker.HTTP.Invoke", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", orcherrors.NewBackendFailure("invoker.HTTP.Invoke",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", orcherrors.NewShape("invoker.HTTP.Invoke", err)
	}
	if len(parsed.Choices) == 0 {
		return "", orcherrors.NewShape("invoker.HTTP.Invoke", fmt.Errorf("no choices in response"))
	}

	return parsed.Choices[0].Message.Content, nil
}
