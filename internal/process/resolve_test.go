package process

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestTargetTriple(t *testing.T) {
	tests := []struct {
		goos, goarch, want string
	}{
		{"linux", "amd64", "x86_64-unknown-linux-gnu"},
		{"linux", "arm64", "aarch64-unknown-linux-gnu"},
		{"linux", "arm", "armv7-unknown-linux-gnueabihf"},
		{"darwin", "arm64", "aarch64-apple-darwin"},
		{"darwin", "amd64", "x86_64-apple-darwin"},
		{"windows", "amd64", "x86_64-pc-windows-msvc"},
		{"freebsd", "amd64", "x86_64-unknown-freebsd"},
	}
	for _, tt := range tests {
		if got := targetTriple(tt.goos, tt.goarch); got != tt.want {
			t.Errorf("targetTriple(%s, %s) = %q, want %q", tt.goos, tt.goarch, got, tt.want)
		}
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestResolveInPrefersPlainName(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "backend_server"))
	touch(t, filepath.Join(dir, "backend_server-x86_64-unknown-linux-gnu"))

	got, ok := resolveIn(dir, "backend_server", "x86_64-unknown-linux-gnu", "")
	if !ok || got != filepath.Join(dir, "backend_server") {
		t.Errorf("resolveIn = %q, %v", got, ok)
	}
}

func TestResolveInTripleSuffix(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "backend_server-x86_64-pc-windows-msvc.exe"))

	got, ok := resolveIn(dir, "backend_server", "x86_64-pc-windows-msvc", ".exe")
	if !ok || got != filepath.Join(dir, "backend_server-x86_64-pc-windows-msvc.exe") {
		t.Errorf("resolveIn = %q, %v", got, ok)
	}
}

func TestResolveInIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "backend_server"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, ok := resolveIn(dir, "backend_server", "x", ""); ok {
		t.Error("directory should not resolve as executable")
	}
}

func TestResolveExecutableExplicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom_backend")
	touch(t, path)

	got, err := ResolveExecutable("backend_server", path)
	if err != nil || got != path {
		t.Errorf("ResolveExecutable = %q, %v; want %q", got, err, path)
	}

	_, err = ResolveExecutable("backend_server", path+".missing")
	if !errors.Is(err, ErrNotResolved) {
		t.Errorf("missing explicit path error = %v, want ErrNotResolved", err)
	}
}

func TestResolveExecutableNotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := ResolveExecutable("sidecarhost-no-such-backend", "")
	if !errors.Is(err, ErrNotResolved) {
		t.Errorf("error = %v, want ErrNotResolved", err)
	}
}
