// Package host models the desktop window that owns the backend's lifetime.
package host

import (
	"errors"
	"sync"

	"github.com/smazurov/sidecarhost/internal/logging"
)

// ErrWindowClosed is returned when acting on a window that already closed.
var ErrWindowClosed = errors.New("window closed")

const requestQueueSize = 8

// CloseRequest is delivered to the close handler for every close attempt.
type CloseRequest struct {
	source    string
	prevented bool
}

// Source names what asked for the close.
func (r *CloseRequest) Source() string {
	return r.source
}

// PreventClose keeps the window open after the handler returns.
func (r *CloseRequest) PreventClose() {
	r.prevented = true
}

// CloseHandler is called on the window's event goroutine, one request at a time.
type CloseHandler func(w *Window, req *CloseRequest)

// Window serializes close requests on a single event goroutine. A request
// the handler does not prevent closes the window.
type Window struct {
	handler  CloseHandler
	logger   logging.Logger
	requests chan string
	done     chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewWindow creates a window. Call Run to start dispatching.
func NewWindow(handler CloseHandler, logger logging.Logger) *Window {
	return &Window{
		handler:  handler,
		logger:   logger,
		requests: make(chan string, requestQueueSize),
		done:     make(chan struct{}),
	}
}

// Run dispatches close requests until the window closes.
func (w *Window) Run() {
	for source := range w.requests {
		req := &CloseRequest{source: source}
		if w.handler != nil {
			w.handler(w, req)
		}
		if req.prevented {
			w.logger.Debug("Close prevented", "source", source)
			continue
		}

		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		w.logger.Info("Window closed", "source", source)
		close(w.done)
		return
	}
}

// RequestClose queues a close request without blocking. It returns false if
// the window is closed or the queue is full.
func (w *Window) RequestClose(source string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	select {
	case w.requests <- source:
		return true
	default:
		w.logger.Warn("Close request dropped, queue full", "source", source)
		return false
	}
}

// Close asks the window to close again. It is safe to call from the close
// handler: the request is queued behind the one being handled.
func (w *Window) Close() error {
	if !w.RequestClose("window") {
		return ErrWindowClosed
	}
	return nil
}

// Done is closed once the window has closed.
func (w *Window) Done() <-chan struct{} {
	return w.done
}
