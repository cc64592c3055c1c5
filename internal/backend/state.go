package backend

import (
	"sync"

	"github.com/smazurov/sidecarhost/internal/process"
)

// State is shared by the launcher, the handshake reader, port queries and
// the shutdown orchestrator. All fields are guarded by one mutex; no method
// blocks while holding it.
type State struct {
	mu        sync.Mutex
	port      uint16
	portKnown bool
	child     process.Handle
	closing   bool

	// childPID and childDone describe the last stored child and outlive
	// TakeChild so status stays accurate during shutdown.
	childPID  int
	childDone <-chan struct{}
}

// NewState returns a State with no port, no child and closing unset.
func NewState() *State {
	return &State{}
}

// Port returns the discovered port and whether one is known.
func (s *State) Port() (uint16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port, s.portKnown
}

// SetPort records a discovered port. The last write wins.
func (s *State) SetPort(port uint16) {
	s.mu.Lock()
	s.port = port
	s.portKnown = true
	s.mu.Unlock()
}

// SetChild stores the spawned child and the channel closed when it exits.
// It returns false without storing when shutdown has already begun; the
// caller then owns the child and must kill it.
func (s *State) SetChild(h process.Handle, done <-chan struct{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.child = h
	s.childPID = h.PID()
	s.childDone = done
	return true
}

// TakeChild removes and returns the child, or nil if there is none.
// A given child is returned at most once.
func (s *State) TakeChild() process.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.child
	s.child = nil
	return h
}

// BeginClosing sets the closing flag and reports whether this call was the
// one that set it.
func (s *State) BeginClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.closing = true
	return true
}

// Closing reports whether shutdown has begun.
func (s *State) Closing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Snapshot is a consistent view of State.
type Snapshot struct {
	Port      uint16
	PortKnown bool
	PID       int
	HasChild  bool
	Running   bool
	Closing   bool
}

// Snapshot returns all fields read under a single lock acquisition.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Port:      s.port,
		PortKnown: s.portKnown,
		PID:       s.childPID,
		HasChild:  s.child != nil,
		Closing:   s.closing,
	}
	if s.childDone != nil {
		select {
		case <-s.childDone:
		default:
			snap.Running = true
		}
	}
	return snap
}
