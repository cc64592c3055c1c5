//go:build !windows

package backend

import (
	"os"
	"path/filepath"
	"testing"
)

// sidecarScript writes an executable shell script standing in for the backend.
func sidecarScript(t *testing.T, body string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backend_server")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755)
	return path, err
}
