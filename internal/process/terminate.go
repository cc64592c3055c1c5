package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/smazurov/sidecarhost/internal/logging"
)

// KillOutcome is the result of a broad-match termination.
type KillOutcome int

const (
	// KillTerminated means at least one matching process was signalled.
	KillTerminated KillOutcome = iota
	// KillNotFound means no process matched. This is the normal case when
	// the tracked child was the only instance.
	KillNotFound
)

func (o KillOutcome) String() string {
	switch o {
	case KillTerminated:
		return "terminated"
	case KillNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Runner executes an external command and reports its exit code and output.
// A non-nil error means the command could not be run at all.
type Runner func(ctx context.Context, name string, args ...string) (int, []byte, error)

// Signaler force-kills a single process by pid.
type Signaler func(pid int) error

// NameKiller terminates processes by name using the platform tools. The
// calling process and its parent are never killed, even when their command
// lines contain the name.
type NameKiller struct {
	run    Runner
	signal Signaler
	logger logging.Logger
}

// NewNameKiller returns a NameKiller that runs the real platform tools.
func NewNameKiller(logger logging.Logger) *NameKiller {
	return NewNameKillerWithRunner(runCommand, nil, logger)
}

// NewNameKillerWithRunner returns a NameKiller that executes commands through
// run and kills matched pids through signal. A nil signal sends SIGKILL.
func NewNameKillerWithRunner(run Runner, signal Signaler, logger logging.Logger) *NameKiller {
	if signal == nil {
		signal = killPID
	}
	return &NameKiller{run: run, signal: signal, logger: logger}
}

// KillByName force-terminates every process matching name.
func (k *NameKiller) KillByName(ctx context.Context, name string) (KillOutcome, error) {
	if name == "" {
		return KillNotFound, errors.New("empty process name")
	}
	return k.killMatching(ctx, name)
}

func toolFailed(tool string, code int, out []byte) error {
	return fmt.Errorf("%s exited with code %d: %s", tool, code, bytes.TrimSpace(out))
}

func runCommand(ctx context.Context, name string, args ...string) (int, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return 0, out, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), out, nil
	}
	return -1, out, err
}
