// Package metrics provides Prometheus metrics for the backend supervisor.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Handshake line results.
const (
	HandshakeAccepted = "accepted"
	HandshakeRejected = "rejected"
	HandshakeIgnored  = "ignored"
)

// Port query outcomes.
const (
	QueryImmediate = "immediate"
	QueryWaited    = "waited"
	QueryTimeout   = "timeout"
)

var (
	backendPort = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sidecarhost",
		Subsystem: "backend",
		Name:      "port",
		Help:      "Discovered backend port, 0 while unknown",
	})

	backendRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sidecarhost",
		Subsystem: "backend",
		Name:      "running",
		Help:      "1 while a spawned backend child is alive",
	})

	handshakeLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sidecarhost",
		Subsystem: "handshake",
		Name:      "lines_total",
		Help:      "Backend stdout lines by handshake result",
	}, []string{"result"})

	backendExits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sidecarhost",
		Subsystem: "backend",
		Name:      "exits_total",
		Help:      "Backend child exits by exit code",
	}, []string{"code"})

	spawnFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sidecarhost",
		Subsystem: "backend",
		Name:      "spawn_failures_total",
		Help:      "Failed attempts to start the backend",
	})

	shutdownSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sidecarhost",
		Subsystem: "shutdown",
		Name:      "steps_total",
		Help:      "Shutdown orchestrator steps by step and outcome",
	}, []string{"step", "outcome"})

	portQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sidecarhost",
		Subsystem: "query",
		Name:      "port_total",
		Help:      "Port queries by outcome",
	}, []string{"outcome"})

	// Local snapshot for the status endpoint.
	snapshotMu sync.RWMutex
	snapshot   Snapshot
)

// Snapshot holds counter values the API reports without scraping.
type Snapshot struct {
	HandshakeAccepted int `json:"handshake_accepted"`
	HandshakeRejected int `json:"handshake_rejected"`
	Exits             int `json:"exits"`
	SpawnFailures     int `json:"spawn_failures"`
}

// SetBackendPort records the discovered port.
func SetBackendPort(port uint16) {
	backendPort.Set(float64(port))
}

// SetBackendRunning records whether a child is alive.
func SetBackendRunning(running bool) {
	if running {
		backendRunning.Set(1)
		return
	}
	backendRunning.Set(0)
}

// RecordHandshakeLine counts one stdout line by result.
func RecordHandshakeLine(result string) {
	handshakeLines.WithLabelValues(result).Inc()
	switch result {
	case HandshakeAccepted:
		update(func(s *Snapshot) { s.HandshakeAccepted++ })
	case HandshakeRejected:
		update(func(s *Snapshot) { s.HandshakeRejected++ })
	}
}

// RecordBackendExit counts a child exit.
func RecordBackendExit(code string) {
	backendExits.WithLabelValues(code).Inc()
	backendRunning.Set(0)
	update(func(s *Snapshot) { s.Exits++ })
}

// RecordSpawnFailure counts a failed spawn.
func RecordSpawnFailure() {
	spawnFailures.Inc()
	update(func(s *Snapshot) { s.SpawnFailures++ })
}

// RecordShutdownStep counts one orchestrator step.
func RecordShutdownStep(step, outcome string) {
	shutdownSteps.WithLabelValues(step, outcome).Inc()
}

// RecordPortQuery counts a port query by outcome.
func RecordPortQuery(outcome string) {
	portQueries.WithLabelValues(outcome).Inc()
}

// GetSnapshot returns a copy of the local counters.
func GetSnapshot() Snapshot {
	snapshotMu.RLock()
	defer snapshotMu.RUnlock()
	return snapshot
}

func update(fn func(*Snapshot)) {
	snapshotMu.Lock()
	fn(&snapshot)
	snapshotMu.Unlock()
}
