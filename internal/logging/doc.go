// Package logging provides structured logging with per-module log levels.
//
// The system is built on log/slog and routes every record to:
//   - stdout (text or json) when a terminal, pipe, or file is attached
//   - the systemd journal when journald is reachable
//   - an in-memory ring buffer that backs the log console API
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"backend": "debug",
//			"sidecar": "warn",
//		},
//	})
//
// Then fetch module loggers:
//
//	logger := logging.GetLogger("backend")
//	logger.Info("Backend ready", "port", port)
//
// Levels can be changed at runtime with SetLevels, which is what the config
// file watcher calls on reload.
//
// Journal entries are tagged with SYSLOG_IDENTIFIER=sidecarhost:
//
//	journalctl -t sidecarhost -f
//	journalctl -t sidecarhost MODULE=sidecar
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//	backend = "debug"
//	sidecar = "info"
package logging
