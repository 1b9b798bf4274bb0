package invoker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orcherrors "github.com/orchestra/orchestra/pkg/errors"
)

func TestSubprocessInvoker_RunsCommandAndReadsStdout(t *testing.T) {
	inv := NewSubprocessInvoker("echo", "hello")
	out, err := inv.Invoke(context.Background(), "model", "ignored", 0.2, 128, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hello model", out)
}

func TestSubprocessInvoker_NonZeroExitIsBackendFailure(t *testing.T) {
	inv := NewSubprocessInvoker("false")
	_, err := inv.Invoke(context.Background(), "model", "x", 0.2, 128, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, orcherrors.ErrBackendFailure)
}

type memKeys struct{ tokens map[string]string }

func (m memKeys) Get(provider string) (string, bool) { v, ok := m.tokens[provider]; return v, ok }
func (m memKeys) Has(provider string) bool           { _, ok := m.tokens[provider]; return ok }

func TestHTTPInvoker_SendsBearerAndParsesChoice(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi there"}}]}`))
	}))
	defer srv.Close()

	inv := NewHTTPInvoker(srv.URL, "providerA", memKeys{tokens: map[string]string{"providerA": "secret-token"}})
	out, err := inv.Invoke(context.Background(), "gpt-x", "hello", 0.2, 256, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestHTTPInvoker_MissingCredentialIsNotAvailable(t *testing.T) {
	inv := NewHTTPInvoker("http://unused", "providerB", memKeys{tokens: map[string]string{}})
	_, err := inv.Invoke(context.Background(), "m", "p", 0.2, 128, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, orcherrors.ErrNotAvailable)
}

func TestHTTPInvoker_NonTwoXXIsBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	inv := NewHTTPInvoker(srv.URL, "providerA", memKeys{tokens: map[string]string{"providerA": "t"}})
	_, err := inv.Invoke(context.Background(), "m", "p", 0.2, 128, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, orcherrors.ErrBackendFailure)
}
