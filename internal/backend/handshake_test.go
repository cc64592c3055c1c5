package backend

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/sidecarhost/internal/events"
)

func TestParseHandshake(t *testing.T) {
	tests := []struct {
		line   string
		want   uint16
		wantOK bool
	}{
		{"PYTHON_BACKEND_PORT:54321", 54321, true},
		{"PYTHON_BACKEND_PORT: 8000 ", 8000, true},
		{"PYTHON_BACKEND_PORT:\t0\n", 0, true},
		{"PYTHON_BACKEND_PORT:65535", 65535, true},
		{"PYTHON_BACKEND_PORT:abc", 0, false},
		{"PYTHON_BACKEND_PORT:99999", 0, false},
		{"PYTHON_BACKEND_PORT:-1", 0, false},
		{"PYTHON_BACKEND_PORT:+80", 0, false},
		{"PYTHON_BACKEND_PORT:", 0, false},
		{"PYTHON_BACKEND_PORT:80 81", 0, false},
		{"BACKEND_PORT:8000", 0, false},
		{" PYTHON_BACKEND_PORT:8000", 0, false},
		{"python_backend_port:8000", 0, false},
		{"INFO:     Uvicorn running on http://127.0.0.1:8000", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseHandshake(tt.line)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseHandshake(%q) = %d, %v; want %d, %v", tt.line, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseHandshakeRoundTripAllPorts(t *testing.T) {
	pads := []string{"", " ", "  ", "\t", " \t "}
	for p := 0; p <= 65535; p++ {
		pre := pads[p%len(pads)]
		post := pads[(p/len(pads))%len(pads)]
		line := fmt.Sprintf("%s%s%d%s", HandshakePrefix, pre, p, post)
		got, ok := ParseHandshake(line)
		if !ok || int(got) != p {
			t.Fatalf("ParseHandshake(%q) = %d, %v; want %d, true", line, got, ok, p)
		}
	}
}

func newTestReader(state *State, pub Publisher) *HandshakeReader {
	return NewHandshakeReader(state, pub, ModeSidecar, testLogger(), testLogger())
}

func TestHandshakeReaderNoiseAroundHandshake(t *testing.T) {
	state := NewState()
	rec := newRecorder()

	input := strings.Join([]string{
		"INFO:     Started server process [1234]",
		"some noise",
		"PYTHON_BACKEND_PORT:54321",
		"INFO:     Application startup complete.",
		"more noise",
	}, "\n") + "\n"
	newTestReader(state, rec).Consume(strings.NewReader(input))

	if port, ok := state.Port(); !ok || port != 54321 {
		t.Errorf("Port() = %d, %v; want 54321, true", port, ok)
	}
	ready := rec.ofType(events.TypeBackendReady)
	if len(ready) != 1 {
		t.Fatalf("got %d ready events, want 1", len(ready))
	}
	ev := ready[0].(events.BackendReadyEvent)
	if ev.Port != 54321 || ev.Mode != "sidecar" {
		t.Errorf("ready event = %+v", ev)
	}
}

func TestHandshakeReaderRejectedLinesKeepPort(t *testing.T) {
	state := NewState()
	state.SetPort(8000)
	rec := newRecorder()

	input := "PYTHON_BACKEND_PORT:abc\nPYTHON_BACKEND_PORT:99999\nBACKEND_PORT:1234\n"
	newTestReader(state, rec).Consume(strings.NewReader(input))

	if port, _ := state.Port(); port != 8000 {
		t.Errorf("Port() = %d, want 8000 unchanged", port)
	}
	if n := len(rec.ofType(events.TypeBackendReady)); n != 0 {
		t.Errorf("got %d ready events, want 0", n)
	}
}

func TestHandshakeReaderRepeatedHandshake(t *testing.T) {
	state := NewState()
	rec := newRecorder()

	input := "PYTHON_BACKEND_PORT:5000\nPYTHON_BACKEND_PORT:6000\n"
	newTestReader(state, rec).Consume(strings.NewReader(input))

	if port, _ := state.Port(); port != 6000 {
		t.Errorf("Port() = %d, want 6000 (last write wins)", port)
	}
	if n := len(rec.ofType(events.TypeBackendReady)); n != 2 {
		t.Errorf("got %d ready events, want 2", n)
	}
}

func TestHandshakeReaderInvalidUTF8(t *testing.T) {
	state := NewState()
	rec := newRecorder()

	input := "caf\xc3\x28 \xff\xfe garbage\r\nPYTHON_BACKEND_PORT:4242\r\n"
	newTestReader(state, rec).Consume(strings.NewReader(input))

	if port, ok := state.Port(); !ok || port != 4242 {
		t.Errorf("Port() = %d, %v; want 4242, true", port, ok)
	}
}

func TestHandshakeReaderEOFWithoutHandshake(t *testing.T) {
	state := NewState()
	rec := newRecorder()

	done := make(chan struct{})
	go func() {
		newTestReader(state, rec).Consume(strings.NewReader("starting\ncrashed\n"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return at EOF")
	}
	if _, ok := state.Port(); ok {
		t.Error("port should stay unknown without a handshake")
	}
}

func TestHandshakeReaderSurvivesOverlongLine(t *testing.T) {
	state := NewState()
	rec := newRecorder()

	input := strings.Repeat("x", 2<<20) + "\nPYTHON_BACKEND_PORT:5555\n"
	newTestReader(state, rec).Consume(strings.NewReader(input))

	if port, ok := state.Port(); !ok || port != 5555 {
		t.Errorf("Port() = %d, %v; want 5555, true", port, ok)
	}
	if ready := rec.ofType(events.TypeBackendReady); len(ready) != 1 {
		t.Errorf("got %d ready events, want 1", len(ready))
	}
}

func TestReadLinesTruncatesAndContinues(t *testing.T) {
	input := "short\r\n" + strings.Repeat("y", maxLineSize+10) + "\nlast"

	type result struct {
		n         int
		truncated bool
	}
	var got []result
	var lines []string
	err := readLines(strings.NewReader(input), func(line string, truncated bool) {
		got = append(got, result{len(line), truncated})
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("readLines: %v", err)
	}
	want := []result{{5, false}, {maxLineSize, true}, {4, false}}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if lines[0] != "short" || lines[2] != "last" {
		t.Errorf("lines = %q, %q", lines[0], lines[2])
	}
}
