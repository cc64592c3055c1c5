//go:build !windows

package process

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

func parsePID(s string) (int, error) {
	var pid int
	_, err := fmt.Sscan(strings.TrimSpace(s), &pid)
	return pid, err
}

// processAlive treats zombies as dead where /proc is available.
func processAlive(pid int) bool {
	if data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid)); err == nil {
		if i := strings.LastIndexByte(string(data), ')'); i >= 0 && i+2 < len(data) {
			return data[i+2] != 'Z'
		}
	}
	return unix.Kill(pid, 0) == nil
}
