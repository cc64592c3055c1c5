//go:build windows

package backend

import (
	"errors"
	"testing"
)

func sidecarScript(t *testing.T, _ string) (string, error) {
	t.Helper()
	return "", errors.New("shell sidecar scripts require a Unix shell")
}
