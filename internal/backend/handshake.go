package backend

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/smazurov/sidecarhost/internal/events"
	"github.com/smazurov/sidecarhost/internal/logging"
	"github.com/smazurov/sidecarhost/internal/metrics"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// HandshakePrefix starts the line a backend prints once it is listening.
const HandshakePrefix = "PYTHON_BACKEND_PORT:"

// Lines longer than maxLineSize are truncated; the rest of the line is skipped.
const maxLineSize = 1024 * 1024

// Publisher publishes events to the host event bus.
type Publisher interface {
	Publish(ev events.Event)
}

// ParseHandshake extracts the port from a handshake line. Whitespace around
// the number is allowed; anything else after the prefix, or a value outside
// the uint16 range, is rejected.
func ParseHandshake(line string) (uint16, bool) {
	rest, found := strings.CutPrefix(line, HandshakePrefix)
	if !found {
		return 0, false
	}
	port, err := strconv.ParseUint(strings.TrimSpace(rest), 10, 16)
	if err != nil {
		return 0, false
	}
	return uint16(port), true
}

// HandshakeReader consumes a child's stdout, recording the port from every
// valid handshake line and logging everything else.
type HandshakeReader struct {
	state  *State
	events Publisher
	mode   Mode
	logger logging.Logger
	output logging.Logger
}

// NewHandshakeReader creates a reader that writes discovered ports into state.
// Non-handshake lines go to output at the level parsed from the line.
func NewHandshakeReader(state *State, pub Publisher, mode Mode, logger, output logging.Logger) *HandshakeReader {
	return &HandshakeReader{
		state:  state,
		events: pub,
		mode:   mode,
		logger: logger,
		output: output,
	}
}

// Consume reads r line by line until EOF or a read error. Invalid UTF-8 is
// replaced with U+FFFD and overlong lines are truncated; neither ends the loop.
func (h *HandshakeReader) Consume(r io.Reader) {
	err := readLines(r, func(line string, truncated bool) {
		if truncated {
			h.logger.Warn("Truncated overlong backend stdout line", "limit", maxLineSize)
		}
		h.handleLine(line)
	})
	if err != nil {
		h.logger.Warn("Error reading backend stdout", "error", err)
	}
	h.logger.Debug("Backend stdout closed")
}

func (h *HandshakeReader) handleLine(line string) {
	if port, ok := ParseHandshake(line); ok {
		h.state.SetPort(port)
		metrics.RecordHandshakeLine(metrics.HandshakeAccepted)
		metrics.SetBackendPort(port)
		h.logger.Info("Backend sidecar running", "port", port)
		h.events.Publish(events.BackendReadyEvent{
			Port:      port,
			Mode:      h.mode.String(),
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return
	}

	if strings.HasPrefix(line, HandshakePrefix) {
		metrics.RecordHandshakeLine(metrics.HandshakeRejected)
		h.logger.Warn("Ignoring malformed handshake line", "line", line)
		return
	}

	metrics.RecordHandshakeLine(metrics.HandshakeIgnored)
	logLine(h.output, "stdout", line)
}

// ConsumeStderr logs every stderr line. stderr is never scanned for the handshake.
func ConsumeStderr(output logging.Logger) func(io.Reader) {
	return func(r io.Reader) {
		_ = readLines(r, func(line string, _ bool) {
			logLine(output, "stderr", line)
		})
	}
}

// readLines calls fn for every line of r with the line ending removed. A line
// longer than maxLineSize is cut at the limit and reported as truncated.
// It returns nil at EOF.
func readLines(r io.Reader, fn func(line string, truncated bool)) error {
	br := bufio.NewReaderSize(transform.NewReader(r, unicode.UTF8.NewDecoder()), 64*1024)
	var line []byte
	truncated := false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if room := maxLineSize - len(line); len(chunk) > room {
			chunk = chunk[:room]
			truncated = true
		}
		line = append(line, chunk...)

		if err != nil {
			if len(line) > 0 {
				fn(string(line), truncated)
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if isPrefix {
			continue
		}
		fn(string(line), truncated)
		line = line[:0]
		truncated = false
	}
}

func logLine(logger logging.Logger, stream, line string) {
	if line == "" {
		return
	}
	level, msg := ParseLogLevel(line)
	switch level {
	case "error":
		logger.Error(msg, "stream", stream)
	case "warning":
		logger.Warn(msg, "stream", stream)
	case "debug":
		logger.Debug(msg, "stream", stream)
	default:
		logger.Info(msg, "stream", stream)
	}
}
