//go:build windows

package process

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// taskkill exits 128 when no process has the image name.
const taskkillNotFound = 128

func killPID(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

func broadKillCommand(name string) (string, []string) {
	image := name
	if !strings.HasSuffix(strings.ToLower(image), ".exe") {
		image += ".exe"
	}
	return "taskkill", []string{"/f", "/im", image}
}

// killMatching matches on the image name only, so the host is never a
// candidate unless it shares the sidecar's executable name.
func (k *NameKiller) killMatching(ctx context.Context, name string) (KillOutcome, error) {
	tool, args := broadKillCommand(name)
	code, out, err := k.run(ctx, tool, args...)
	if err != nil {
		return KillNotFound, fmt.Errorf("run %s: %w", tool, err)
	}
	switch code {
	case 0:
		k.logger.Debug("Broad-match kill terminated processes", "tool", tool, "name", name)
		return KillTerminated, nil
	case taskkillNotFound:
		k.logger.Debug("Broad-match kill found no processes", "tool", tool, "name", name)
		return KillNotFound, nil
	default:
		return KillNotFound, toolFailed(tool, code, out)
	}
}
