package backend

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/sidecarhost/internal/events"
	"github.com/smazurov/sidecarhost/internal/process"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// recorder is a synchronous Publisher that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
	ch     chan events.Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan events.Event, 64)}
}

func (r *recorder) Publish(ev events.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.ch <- ev
}

func (r *recorder) ofType(typ uint32) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, ev := range r.events {
		if ev.Type() == typ {
			out = append(out, ev)
		}
	}
	return out
}

// waitFor returns the next event of the given type, failing the test on timeout.
func (r *recorder) waitFor(t *testing.T, typ uint32, timeout time.Duration) events.Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-r.ch:
			if ev.Type() == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timeout waiting for event type %d", typ)
			return nil
		}
	}
}

type fakeHandle struct {
	mu      sync.Mutex
	pid     int
	kills   int
	killErr error
}

func (h *fakeHandle) PID() int { return h.pid }

func (h *fakeHandle) Kill() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.kills++
	return h.killErr
}

func (h *fakeHandle) killCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.kills
}

type fakeKiller struct {
	mu      sync.Mutex
	names   []string
	outcome process.KillOutcome
	err     error
}

func (k *fakeKiller) KillByName(_ context.Context, name string) (process.KillOutcome, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.names = append(k.names, name)
	return k.outcome, k.err
}

func (k *fakeKiller) calls() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.names)
}
