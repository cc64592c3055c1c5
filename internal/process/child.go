package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/smazurov/sidecarhost/internal/logging"
	"github.com/sourcegraph/conc"
)

// Handle is the part of a running child the supervisor needs to terminate it.
type Handle interface {
	PID() int
	Kill() error
}

// StreamReader consumes one output stream of the child until EOF.
type StreamReader func(r io.Reader)

// Options describes how to start a child process.
type Options struct {
	Path   string
	Args   []string
	Dir    string
	Env    []string
	Stdout StreamReader // nil discards the stream
	Stderr StreamReader // nil discards the stream
	Logger logging.Logger
}

// Child is a spawned subprocess.
type Child struct {
	cmd    *exec.Cmd
	pid    int
	logger logging.Logger

	done     chan struct{}
	exitCode int
	err      error

	killOnce sync.Once
	killErr  error
}

// Spawn starts the executable described by opts. The returned Child is
// already running; its readers run until the streams close.
func Spawn(opts Options) (*Child, error) {
	if opts.Path == "" {
		return nil, errors.New("empty executable path")
	}

	cmd := exec.Command(opts.Path, opts.Args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	cmd.SysProcAttr = sysProcAttr()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", opts.Path, err)
	}

	c := &Child{
		cmd:    cmd,
		pid:    cmd.Process.Pid,
		logger: opts.Logger,
		done:   make(chan struct{}),
	}
	if c.logger != nil {
		c.logger.Info("Process started", "pid", c.pid, "path", opts.Path, "args", opts.Args)
	}

	var readers conc.WaitGroup
	readers.Go(func() { drain(stdout, opts.Stdout) })
	readers.Go(func() { drain(stderr, opts.Stderr) })

	// Wait must not run before the pipes are fully read.
	go func() {
		readers.Wait()
		c.err = cmd.Wait()
		c.exitCode = exitCodeFromError(c.err)
		if c.logger != nil {
			c.logger.Info("Process exited", "pid", c.pid, "exit_code", c.exitCode)
		}
		close(c.done)
	}()

	return c, nil
}

func drain(r io.Reader, read StreamReader) {
	if read == nil {
		_, _ = io.Copy(io.Discard, r)
		return
	}
	read(r)
	// Keep the pipe drained if the reader stopped early.
	_, _ = io.Copy(io.Discard, r)
}

// PID returns the operating system process id.
func (c *Child) PID() int {
	return c.pid
}

// Kill terminates the child and its process group. Later calls return the
// result of the first. Killing a child that already exited returns
// os.ErrProcessDone.
func (c *Child) Kill() error {
	c.killOnce.Do(func() {
		select {
		case <-c.done:
			c.killErr = os.ErrProcessDone
			return
		default:
		}
		c.killErr = killTree(c.cmd.Process)
		if c.logger != nil {
			if c.killErr != nil {
				c.logger.Warn("Failed to kill process", "pid", c.pid, "error", c.killErr)
			} else {
				c.logger.Info("Killed process", "pid", c.pid)
			}
		}
	})
	return c.killErr
}

// Done is closed after both output streams ended and the child was reaped.
func (c *Child) Done() <-chan struct{} {
	return c.done
}

// ExitCode is valid after Done is closed. It is -1 when the child was
// killed by a signal.
func (c *Child) ExitCode() int {
	<-c.done
	return c.exitCode
}

// Err returns the error from waiting on the child, nil for a clean exit.
// It blocks until Done is closed.
func (c *Child) Err() error {
	<-c.done
	return c.err
}

// exitCodeFromError extracts exit code from process error.
// Returns 0 for nil error, the exit code for ExitError, or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
