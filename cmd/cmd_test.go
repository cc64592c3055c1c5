package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smazurov/sidecarhost/internal/backend"
	"github.com/smazurov/sidecarhost/internal/process"
	"github.com/smazurov/sidecarhost/internal/version"
	"github.com/spf13/cobra"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func missingConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "none.toml")
}

func TestPortCmdPrintsPort(t *testing.T) {
	var gotTimeout, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/backend/port" {
			http.NotFound(w, r)
			return
		}
		gotTimeout = r.URL.Query().Get("timeout")
		gotUser, _, _ = r.BasicAuth()
		port := uint16(54321)
		json.NewEncoder(w).Encode(map[string]any{"port": port, "known": true})
	}))
	defer srv.Close()

	out, err := execute(t, CreatePortCmd(),
		"--config", missingConfig(t),
		"--addr", srv.URL,
		"--timeout", "2s",
		"--auth-username", "admin",
		"--auth-password", "secret",
	)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "54321\n" {
		t.Errorf("output = %q, want 54321", out)
	}
	if gotTimeout != "2s" {
		t.Errorf("timeout query = %q, want 2s", gotTimeout)
	}
	if gotUser != "admin" {
		t.Errorf("basic auth user = %q, want admin", gotUser)
	}
}

func TestPortCmdUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"known": false})
	}))
	defer srv.Close()

	_, err := execute(t, CreatePortCmd(), "--config", missingConfig(t), "--addr", srv.URL, "--timeout", "100ms")
	if !errors.Is(err, ErrPortUnknown) {
		t.Errorf("err = %v, want ErrPortUnknown", err)
	}
}

func TestPortCmdHostError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := execute(t, CreatePortCmd(), "--config", missingConfig(t), "--addr", srv.URL)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v, want 401 error", err)
	}
}

func TestPortCmdInvalidTimeout(t *testing.T) {
	_, err := execute(t, CreatePortCmd(), "--config", missingConfig(t), "--timeout", "soon")
	if err == nil {
		t.Fatal("expected error for invalid timeout")
	}
}

func TestPortURL(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1:8091":         "http://127.0.0.1:8091/api/backend/port?timeout=5s",
		"http://localhost:9000/": "http://localhost:9000/api/backend/port?timeout=5s",
	}
	for addr, want := range tests {
		if got := portURL(addr, 5e9); got != want {
			t.Errorf("portURL(%q) = %q, want %q", addr, got, want)
		}
	}
}

type fakeKiller struct {
	name    string
	outcome process.KillOutcome
	err     error
}

func (f *fakeKiller) KillByName(_ context.Context, name string) (process.KillOutcome, error) {
	f.name = name
	return f.outcome, f.err
}

func TestKillStrayCmd(t *testing.T) {
	killer := &fakeKiller{outcome: process.KillNotFound}
	newKiller := func() backend.NameKiller { return killer }

	out, err := execute(t, CreateKillStrayCmd(newKiller), "--config", missingConfig(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if killer.name != backend.DefaultSidecarName {
		t.Errorf("killed %q, want %q", killer.name, backend.DefaultSidecarName)
	}
	if out != "not_found\n" {
		t.Errorf("output = %q, want not_found", out)
	}
}

func TestKillStrayCmdNameFromEnv(t *testing.T) {
	t.Setenv("SIDECARHOST_SIDECAR_NAME", "api_server")
	killer := &fakeKiller{outcome: process.KillTerminated}

	out, err := execute(t, CreateKillStrayCmd(func() backend.NameKiller { return killer }),
		"--config", missingConfig(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if killer.name != "api_server" || out != "terminated\n" {
		t.Errorf("name = %q, output = %q", killer.name, out)
	}
}

func TestKillStrayCmdFlagBeatsEnv(t *testing.T) {
	t.Setenv("SIDECARHOST_SIDECAR_NAME", "api_server")
	killer := &fakeKiller{outcome: process.KillTerminated}

	_, err := execute(t, CreateKillStrayCmd(func() backend.NameKiller { return killer }),
		"--config", missingConfig(t), "--name", "worker")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if killer.name != "worker" {
		t.Errorf("name = %q, want worker", killer.name)
	}
}

func TestKillStrayCmdError(t *testing.T) {
	killer := &fakeKiller{err: errors.New("pkill exited with code 3")}

	_, err := execute(t, CreateKillStrayCmd(func() backend.NameKiller { return killer }),
		"--config", missingConfig(t))
	if err == nil || !strings.Contains(err.Error(), "code 3") {
		t.Errorf("err = %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, CreateVersionCmd())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out, "sidecarhost "+version.Version) {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, CreateVersionCmd(), "--json")
	if err != nil {
		t.Fatalf("Execute --json: %v", err)
	}
	var info version.Info
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if info.BuildMode != version.BuildMode {
		t.Errorf("BuildMode = %q, want %q", info.BuildMode, version.BuildMode)
	}
}
