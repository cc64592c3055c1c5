//go:build !windows

package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// pgrep exits 1 when nothing matched.
const pgrepNotFound = 1

func killPID(pid int) error {
	return unix.Kill(pid, unix.SIGKILL)
}

// killMatching lists candidates with pgrep -f, which matches the full command
// line so interpreted backends started as "python backend_server.py" are
// caught too, then kills each one except this process and its parent.
func (k *NameKiller) killMatching(ctx context.Context, name string) (KillOutcome, error) {
	code, out, err := k.run(ctx, "pgrep", "-f", name)
	if err != nil {
		return KillNotFound, fmt.Errorf("run pgrep: %w", err)
	}
	switch code {
	case 0:
	case pgrepNotFound:
		k.logger.Debug("Broad-match kill found no processes", "name", name)
		return KillNotFound, nil
	default:
		return KillNotFound, toolFailed("pgrep", code, out)
	}

	self, parent := os.Getpid(), os.Getppid()
	var killed []int
	var errs []error
	for _, pid := range parsePIDs(out) {
		if pid == self || pid == parent {
			continue
		}
		if err := k.signal(pid); err != nil {
			if !errors.Is(err, unix.ESRCH) {
				errs = append(errs, fmt.Errorf("kill %d: %w", pid, err))
			}
			continue
		}
		killed = append(killed, pid)
	}

	switch {
	case len(killed) > 0:
		if len(errs) > 0 {
			k.logger.Warn("Some matching processes could not be killed", "name", name, "error", errors.Join(errs...))
		}
		k.logger.Debug("Broad-match kill terminated processes", "name", name, "pids", killed)
		return KillTerminated, nil
	case len(errs) > 0:
		return KillNotFound, errors.Join(errs...)
	default:
		k.logger.Debug("Broad-match kill found only this process", "name", name)
		return KillNotFound, nil
	}
}

// parsePIDs reads one pid per line and skips anything else.
func parsePIDs(out []byte) []int {
	var pids []int
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		pid, err := strconv.Atoi(string(bytes.TrimSpace(scanner.Bytes())))
		if err == nil && pid > 0 {
			pids = append(pids, pid)
		}
	}
	return pids
}
