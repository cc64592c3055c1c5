package events

// Event type constants for kelindar/event.
const (
	TypeBackendReady uint32 = iota + 1
	TypeBackendExited
	TypeBackendSpawnFailed
	TypeShutdownStarted
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// BackendReadyEvent announces the port the backend is listening on.
// Listeners must tolerate duplicates: a backend that repeats its
// handshake line produces one event per line.
type BackendReadyEvent struct {
	Port      uint16 `json:"port" example:"54321" doc:"Port the backend server is listening on"`
	Mode      string `json:"mode" example:"sidecar" doc:"Launch mode: sidecar or attach-dev"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for BackendReadyEvent.
func (e BackendReadyEvent) Type() uint32 { return TypeBackendReady }

// BackendExitedEvent is published when the sidecar process exits, for any reason.
type BackendExitedEvent struct {
	PID       int    `json:"pid" example:"12345" doc:"Process ID of the exited backend"`
	ExitCode  int    `json:"exit_code" example:"1" doc:"Exit code, -1 if killed by a signal"`
	Error     string `json:"error,omitempty" doc:"Wait error, if any"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for BackendExitedEvent.
func (e BackendExitedEvent) Type() uint32 { return TypeBackendExited }

// BackendSpawnFailedEvent is published when the sidecar could not be started.
type BackendSpawnFailedEvent struct {
	Name      string `json:"name" example:"backend_server" doc:"Sidecar name"`
	Error     string `json:"error" doc:"Spawn error"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for BackendSpawnFailedEvent.
func (e BackendSpawnFailedEvent) Type() uint32 { return TypeBackendSpawnFailed }

// ShutdownStartedEvent is published once, when the first close request
// starts terminating the backend.
type ShutdownStartedEvent struct {
	Source    string `json:"source" example:"signal" doc:"What asked the window to close"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ShutdownStartedEvent.
func (e ShutdownStartedEvent) Type() uint32 { return TypeShutdownStarted }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"sidecar" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
