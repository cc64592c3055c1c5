package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// resetState clears package globals between tests.
func resetState() {
	mutex.Lock()
	defer mutex.Unlock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	globalConfig = Config{}
	isInitialized = false
	logBuffer = nil
	logCallback = nil
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"backend": "debug",
			"api":     "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"backend", true, true, true},
		{"api", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()
			ctx := context.Background()

			if got := handler.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("Debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := handler.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("Info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := handler.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("Warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState()

	before := GetLogger("sidecar")
	if before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger created before Initialize should default to info")
	}

	Initialize(Config{Level: "info", Modules: map[string]string{"sidecar": "debug"}})

	// The early logger shares the module LevelVar, so it picks up the override.
	if !before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("early logger should see the debug override after Initialize")
	}
}

func TestSetLevelsUpdatesExistingLoggers(t *testing.T) {
	resetState()
	Initialize(Config{Level: "info"})

	logger := GetLogger("backend")
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled at info level")
	}

	SetLevels(Config{Level: "info", Modules: map[string]string{"backend": "debug"}})
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled after SetLevels")
	}

	SetLevels(Config{Level: "error"})
	if logger.Handler().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be disabled after raising the global level to error")
	}
}

func TestBufferHandlerCapturesEntries(t *testing.T) {
	resetState()
	Initialize(Config{Level: "debug"})

	var mu sync.Mutex
	var seen []LogEntry
	SetLogCallback(func(e LogEntry) {
		mu.Lock()
		seen = append(seen, e)
		mu.Unlock()
	})

	logger := GetLogger("backend")
	logger.Info("Backend ready", "port", 54321, "err", errors.New("boom"))

	entries := GetBuffer().ReadAll()
	if len(entries) == 0 {
		t.Fatal("expected buffered entries")
	}
	last := entries[len(entries)-1]
	if last.Module != "backend" {
		t.Errorf("Module = %q, want backend", last.Module)
	}
	if last.Message != "Backend ready" {
		t.Errorf("Message = %q, want %q", last.Message, "Backend ready")
	}
	if last.Attributes["port"] != int64(54321) {
		t.Errorf("port attr = %v (%T), want 54321", last.Attributes["port"], last.Attributes["port"])
	}
	if last.Attributes["err"] != "boom" {
		t.Errorf("err attr = %v, want boom", last.Attributes["err"])
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 {
		t.Error("callback was not invoked")
	}
}

func TestBufferHandlerGroups(t *testing.T) {
	resetState()
	Initialize(Config{Level: "info"})

	logger := slog.New(NewBufferHandler(slog.LevelInfo)).WithGroup("child")
	logger.Info("exited", "pid", 42)

	entries := GetBuffer().ReadAll()
	last := entries[len(entries)-1]
	if _, ok := last.Attributes["child.pid"]; !ok {
		t.Errorf("expected grouped key child.pid, got %v", last.Attributes)
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(debugHandler, infoHandler)).With("module", "test")
	logger.Debug("debug only message")

	output := buf.String()
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("expected 1 debug message, got %d. Output: %s", count, output)
	}

	logger.Info("info message")
	if count := strings.Count(buf.String(), "info message"); count != 2 {
		t.Errorf("expected info message from both handlers, got %d", count)
	}
}

func TestRingBufferTail(t *testing.T) {
	rb := NewRingBuffer(3)
	for i, msg := range []string{"a", "b", "c", "d"} {
		rb.Write(LogEntry{Message: msg, Timestamp: time.Unix(int64(i), 0)})
	}

	if rb.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", rb.Count())
	}

	all := rb.ReadAll()
	want := []string{"b", "c", "d"}
	for i, e := range all {
		if e.Message != want[i] {
			t.Errorf("ReadAll()[%d] = %q, want %q", i, e.Message, want[i])
		}
	}

	tail := rb.Tail(2)
	if len(tail) != 2 || tail[0].Message != "c" || tail[1].Message != "d" {
		t.Errorf("Tail(2) = %v, want [c d]", tail)
	}
}

func TestFormatLogLine(t *testing.T) {
	entry := LogEntry{
		Timestamp:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:      "warn",
		Module:     "backend",
		Message:    "Force kill failed",
		Attributes: map[string]any{"name": "backend_server", "code": 2},
	}

	got := FormatLogLine(entry)
	want := "2025-01-02T03:04:05Z [WARN] [backend] Force kill failed code=2 name=backend_server"
	if got != want {
		t.Errorf("FormatLogLine() = %q, want %q", got, want)
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			switch {
			case tt.isNil && got != nil:
				t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
			case !tt.isNil && got == nil:
				t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
			case !tt.isNil && *got != tt.want:
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}
