package modelfactory

import (
	"context"
	"os/exec"

	orcherrors "github.com/orchestra/orchestra/pkg/errors"
)

// SubprocessLoader performs load/unload mechanics by shelling out to the
// configured local-daemon commands, mirroring pkg/invoker.SubprocessInvoker's
// exec.CommandContext shape but for the daemon's pull/stop verbs instead of
// its run verb.
type SubprocessLoader struct {
	Command    string
	LoadArgs   []string // e.g. []string{"pull"}
	UnloadArgs []string // e.g. []string{"stop"}
}

// NewSubprocessLoader builds a SubprocessLoader for command with the given
// load/unload verb arguments.
func NewSubprocessLoader(command string, loadArgs, unloadArgs []string) *SubprocessLoader {
	return &SubprocessLoader{Command: command, LoadArgs: loadArgs, UnloadArgs: unloadArgs}
}

func (s *SubprocessLoader) run(ctx context.Context, verbArgs []string, name, op string) error {
	args := append(append([]string{}, verbArgs...), name)
	cmd := exec.CommandContext(ctx, s.Command, args...)
	if err := cmd.Run(); err != nil {
		return orcherrors.NewBackendFailure(op, err)
	}
	return nil
}

// Load shells out to the daemon's load verb for name.
func (s *SubprocessLoader) Load(ctx context.Context, name string) error {
	return s.run(ctx, s.LoadArgs, name, "modelfactory.SubprocessLoader.Load")
}

// Unload shells out to the daemon's unload verb for name.
func (s *SubprocessLoader) Unload(ctx context.Context, name string) error {
	return s.run(ctx, s.UnloadArgs, name, "modelfactory.SubprocessLoader.Unload")
}
