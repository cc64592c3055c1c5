package backend

import (
	"context"
	"time"

	"github.com/smazurov/sidecarhost/internal/metrics"
)

// Default port query timing.
const (
	DefaultQueryTimeout  = 5 * time.Second
	DefaultQueryInterval = 100 * time.Millisecond
)

// QueryPort returns the port as soon as it is known, polling every interval
// until timeout elapses. ok is false on timeout or when ctx is done; that is
// an expected outcome, not an error. The lock is never held while waiting.
func (s *State) QueryPort(ctx context.Context, timeout, interval time.Duration) (uint16, bool) {
	if port, ok := s.Port(); ok {
		metrics.RecordPortQuery(metrics.QueryImmediate)
		return port, true
	}
	if interval <= 0 {
		interval = DefaultQueryInterval
	}

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		select {
		case <-ctx.Done():
			metrics.RecordPortQuery(metrics.QueryTimeout)
			return 0, false
		case <-time.After(min(interval, remaining)):
		}
		if port, ok := s.Port(); ok {
			metrics.RecordPortQuery(metrics.QueryWaited)
			return port, true
		}
	}

	metrics.RecordPortQuery(metrics.QueryTimeout)
	return 0, false
}
