//go:build windows

package process

import "os"

func killTree(p *os.Process) error {
	return p.Kill()
}
