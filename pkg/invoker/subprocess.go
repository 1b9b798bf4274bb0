package invoker

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	orcherrors "github.com/orchestra/orchestra/pkg/errors"
)

// SubprocessInvoker runs a configured local-daemon command per invocation,
// writing prompt to stdin and reading stdout.
type SubprocessInvoker struct {
	// Command is the daemon binary, e.g. "ollama".
	Command string
	// BaseArgs are prepended before the model-specific run arguments, e.g.
	// []string{"run"}.
	BaseArgs []string
}

// NewSubprocessInvoker builds a SubprocessInvoker for command with the
// given base arguments.
func NewSubprocessInvoker(command string, baseArgs ...string) *SubprocessInvoker {
	return &SubprocessInvoker{Command: command, BaseArgs: baseArgs}
}

// Invoke spawns the configured command with modelName appended to BaseArgs,
// writes prompt to stdin, and returns trimmed stdout. Non-zero exit or
// context deadline is classified as BackendFailure.
func (s *SubprocessInvoker) Invoke(ctx context.Context, modelName, prompt string, temperature float64, maxTokens int, timeout time.Duration) (string, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	args := append(append([]string{}, s.BaseArgs...), modelName)
	cmd := exec.CommandContext(runCtx, s.Command, args...)
	cmd.Stdin = bytes.NewBufferString(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return "", orcherrors.NewBackendFailure("invoker.Subprocess.Invoke", runCtx.Err())
	}
	if err != nil {
		return "", orcherrors.NewBackendFailure("invoker.Subprocess.Invoke", err)
	}

	return string(bytes.TrimSpace(stdout.Bytes())), nil
}
