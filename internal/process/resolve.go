package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrNotResolved is returned when no sidecar executable could be located.
var ErrNotResolved = errors.New("sidecar executable not found")

// ExeSuffix is the executable file extension of the current platform.
func ExeSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

// TargetTriple returns the platform suffix used for bundled sidecar names,
// for example "x86_64-unknown-linux-gnu".
func TargetTriple() string {
	return targetTriple(runtime.GOOS, runtime.GOARCH)
}

func targetTriple(goos, goarch string) string {
	arch := map[string]string{
		"amd64":   "x86_64",
		"arm64":   "aarch64",
		"386":     "i686",
		"arm":     "armv7",
		"riscv64": "riscv64gc",
	}[goarch]
	if arch == "" {
		arch = goarch
	}

	switch goos {
	case "linux":
		if goarch == "arm" {
			return arch + "-unknown-linux-gnueabihf"
		}
		return arch + "-unknown-linux-gnu"
	case "darwin":
		return arch + "-apple-darwin"
	case "windows":
		return arch + "-pc-windows-msvc"
	default:
		return arch + "-unknown-" + goos
	}
}

// ResolveExecutable locates the sidecar binary. An explicit path wins;
// otherwise the directory of the running executable is searched for
// name and name-<target triple>, then PATH.
func ResolveExecutable(name, explicit string) (string, error) {
	if explicit != "" {
		if !isFile(explicit) {
			return "", fmt.Errorf("%w: %s", ErrNotResolved, explicit)
		}
		return explicit, nil
	}

	exe, err := os.Executable()
	if err == nil {
		if resolved, evalErr := filepath.EvalSymlinks(exe); evalErr == nil {
			exe = resolved
		}
		if path, ok := resolveIn(filepath.Dir(exe), name, TargetTriple(), ExeSuffix()); ok {
			return path, nil
		}
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotResolved, name)
	}
	return path, nil
}

func resolveIn(dir, name, triple, suffix string) (string, bool) {
	candidates := []string{
		filepath.Join(dir, name+suffix),
		filepath.Join(dir, name+"-"+triple+suffix),
	}
	for _, c := range candidates {
		if isFile(c) {
			return c, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
