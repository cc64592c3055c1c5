package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/smazurov/sidecarhost/internal/events"
	"github.com/smazurov/sidecarhost/internal/logging"
	"github.com/smazurov/sidecarhost/internal/metrics"
	"github.com/smazurov/sidecarhost/internal/process"
)

// Mode selects how the backend is started. It is resolved once at startup.
type Mode int

const (
	// ModeSidecar spawns the bundled backend executable.
	ModeSidecar Mode = iota
	// ModeAttachDev assumes a manually started backend on a fixed port.
	ModeAttachDev
)

func (m Mode) String() string {
	switch m {
	case ModeSidecar:
		return "sidecar"
	case ModeAttachDev:
		return "attach-dev"
	default:
		return "unknown"
	}
}

// ResolveMode picks Sidecar for release builds or when forced, AttachDev otherwise.
func ResolveMode(release, forceSidecar bool) Mode {
	if release || forceSidecar {
		return ModeSidecar
	}
	return ModeAttachDev
}

// Development defaults.
const (
	DefaultSidecarName   = "backend_server"
	DefaultDevPort       = 8000
	DefaultDevReadyDelay = time.Second
)

// ErrClosing is returned by Launch when shutdown began before the child
// could be recorded. The child has been killed.
var ErrClosing = errors.New("shutdown in progress")

// Options configures a Supervisor.
type Options struct {
	Mode          Mode
	SidecarName   string
	SidecarPath   string
	SidecarArgs   []string
	DevPort       uint16
	DevReadyDelay time.Duration
	Events        Publisher
	Logger        logging.Logger
	// OutputLogger receives the child's stdout and stderr lines.
	OutputLogger logging.Logger
}

// Supervisor starts the backend and tracks its child process.
type Supervisor struct {
	opts  Options
	state *State
}

// NewSupervisor creates a supervisor that records into state.
func NewSupervisor(state *State, opts Options) *Supervisor {
	if opts.SidecarName == "" {
		opts.SidecarName = DefaultSidecarName
	}
	if opts.DevPort == 0 {
		opts.DevPort = DefaultDevPort
	}
	if opts.OutputLogger == nil {
		opts.OutputLogger = opts.Logger
	}
	return &Supervisor{opts: opts, state: state}
}

// Mode returns the launch mode.
func (s *Supervisor) Mode() Mode {
	return s.opts.Mode
}

// Launch starts the backend according to the mode. It does not block on the
// backend becoming ready. A spawn failure is logged, published and returned;
// there is no retry.
func (s *Supervisor) Launch(ctx context.Context) error {
	s.opts.Logger.Info("Launching backend", "mode", s.opts.Mode.String())
	if s.opts.Mode == ModeAttachDev {
		s.attachDev(ctx)
		return nil
	}
	return s.spawnSidecar()
}

func (s *Supervisor) attachDev(ctx context.Context) {
	port := s.opts.DevPort
	s.state.SetPort(port)
	metrics.SetBackendPort(port)

	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.opts.DevReadyDelay):
		}
		s.opts.Logger.Info("Dev mode: announcing backend", "port", port)
		s.opts.Events.Publish(events.BackendReadyEvent{
			Port:      port,
			Mode:      ModeAttachDev.String(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}()
}

func (s *Supervisor) spawnSidecar() error {
	path, err := process.ResolveExecutable(s.opts.SidecarName, s.opts.SidecarPath)
	if err != nil {
		return s.spawnFailed(err)
	}

	reader := NewHandshakeReader(s.state, s.opts.Events, ModeSidecar, s.opts.Logger, s.opts.OutputLogger)
	child, err := process.Spawn(process.Options{
		Path:   path,
		Args:   s.opts.SidecarArgs,
		Stdout: reader.Consume,
		Stderr: ConsumeStderr(s.opts.OutputLogger),
		Logger: s.opts.Logger,
	})
	if err != nil {
		return s.spawnFailed(err)
	}

	if !s.state.SetChild(child, child.Done()) {
		s.opts.Logger.Warn("Shutdown began during spawn, killing backend", "pid", child.PID())
		if err := child.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.opts.Logger.Warn("Failed to kill backend", "pid", child.PID(), "error", err)
		}
		return ErrClosing
	}
	metrics.SetBackendRunning(true)

	go s.watchExit(child)
	return nil
}

func (s *Supervisor) spawnFailed(err error) error {
	s.opts.Logger.Error("Failed to spawn backend server", "name", s.opts.SidecarName, "error", err)
	metrics.RecordSpawnFailure()
	s.opts.Events.Publish(events.BackendSpawnFailedEvent{
		Name:      s.opts.SidecarName,
		Error:     err.Error(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
	return fmt.Errorf("spawn %s: %w", s.opts.SidecarName, err)
}

// watchExit reports the child's exit. It never starts shutdown.
func (s *Supervisor) watchExit(child *process.Child) {
	<-child.Done()

	code := child.ExitCode()
	ev := events.BackendExitedEvent{
		PID:       child.PID(),
		ExitCode:  code,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if err := child.Err(); err != nil {
		ev.Error = err.Error()
	}

	if s.state.Closing() {
		s.opts.Logger.Info("Backend exited during shutdown", "pid", ev.PID, "exit_code", code)
	} else {
		s.opts.Logger.Warn("Backend exited", "pid", ev.PID, "exit_code", code)
	}
	metrics.SetBackendRunning(false)
	metrics.RecordBackendExit(strconv.Itoa(code))
	s.opts.Events.Publish(ev)
}

// QueryPort waits up to timeout for the backend port. See State.QueryPort.
func (s *Supervisor) QueryPort(ctx context.Context, timeout, interval time.Duration) (uint16, bool) {
	return s.state.QueryPort(ctx, timeout, interval)
}

// Status describes the supervisor for the API.
type Status struct {
	Mode      string
	Port      uint16
	PortKnown bool
	PID       int
	Running   bool
	Closing   bool
}

// Status returns the current supervisor status.
func (s *Supervisor) Status() Status {
	snap := s.state.Snapshot()
	return Status{
		Mode:      s.opts.Mode.String(),
		Port:      snap.Port,
		PortKnown: snap.PortKnown,
		PID:       snap.PID,
		Running:   snap.Running,
		Closing:   snap.Closing,
	}
}
