package backend

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/smazurov/sidecarhost/internal/events"
	"github.com/smazurov/sidecarhost/internal/logging"
	"github.com/smazurov/sidecarhost/internal/metrics"
	"github.com/smazurov/sidecarhost/internal/process"
)

// CloseRequest is a pending request to close the host window.
type CloseRequest interface {
	// Source names what asked for the close, e.g. "signal" or "api".
	Source() string
	// PreventClose keeps the window open after the handler returns.
	PreventClose()
}

// Window is the host window being closed.
type Window interface {
	// Close issues a new close request for the window.
	Close() error
}

// NameKiller terminates every process with a given image name.
type NameKiller interface {
	KillByName(ctx context.Context, name string) (process.KillOutcome, error)
}

// Orchestrator terminates the backend when the window is first asked to close.
type Orchestrator struct {
	state  *State
	killer NameKiller
	name   string
	events Publisher
	logger logging.Logger
}

// NewOrchestrator creates an orchestrator that kills the child in state and
// then every process named name.
func NewOrchestrator(state *State, killer NameKiller, name string, pub Publisher, logger logging.Logger) *Orchestrator {
	if name == "" {
		name = DefaultSidecarName
	}
	return &Orchestrator{
		state:  state,
		killer: killer,
		name:   name,
		events: pub,
		logger: logger,
	}
}

// HandleCloseRequested must be called for every close request on win. The
// first request is held open while the backend is terminated, then win is
// closed again; that and any later request pass through untouched.
// Every step is best-effort.
func (o *Orchestrator) HandleCloseRequested(win Window, req CloseRequest) {
	source := req.Source()
	if !o.state.BeginClosing() {
		o.logger.Debug("Close already in progress, allowing window to close", "source", source)
		return
	}

	req.PreventClose()
	o.logger.Info("Window close requested, terminating backend server", "source", source)
	o.events.Publish(events.ShutdownStartedEvent{
		Source:    source,
		Timestamp: time.Now().Format(time.RFC3339),
	})

	o.killChild()
	o.killByName()

	if err := win.Close(); err != nil {
		o.logger.Warn("Failed to close window", "error", err)
		metrics.RecordShutdownStep("close_window", "error")
		return
	}
	metrics.RecordShutdownStep("close_window", "ok")
}

func (o *Orchestrator) killChild() {
	child := o.state.TakeChild()
	if child == nil {
		metrics.RecordShutdownStep("kill_child", "none")
		return
	}

	err := child.Kill()
	switch {
	case err == nil:
		o.logger.Info("Backend server terminated", "pid", child.PID())
		metrics.RecordShutdownStep("kill_child", "ok")
	case errors.Is(err, os.ErrProcessDone):
		o.logger.Info("Backend server had already exited", "pid", child.PID())
		metrics.RecordShutdownStep("kill_child", "exited")
	default:
		o.logger.Warn("Failed to kill backend server", "pid", child.PID(), "error", err)
		metrics.RecordShutdownStep("kill_child", "error")
	}
}

func (o *Orchestrator) killByName() {
	o.logger.Info("Force killing remaining processes", "name", o.name)
	outcome, err := o.killer.KillByName(context.Background(), o.name)
	if err != nil {
		o.logger.Warn("Force kill failed", "name", o.name, "error", err)
		metrics.RecordShutdownStep("kill_by_name", "error")
		return
	}
	if outcome == process.KillNotFound {
		o.logger.Info("No remaining processes found", "name", o.name)
	} else {
		o.logger.Info("Force kill successful", "name", o.name)
	}
	metrics.RecordShutdownStep("kill_by_name", outcome.String())
}
