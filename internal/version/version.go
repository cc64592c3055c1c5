package version

import (
	"fmt"
	"runtime"
)

// Build modes accepted in BuildMode.
const (
	BuildModeDebug   = "debug"
	BuildModeRelease = "release"
)

var (
	// Version is the application version, set via ldflags during build.
	Version = "dev"
	// GitCommit is the git commit hash, set via ldflags during build.
	GitCommit = "unknown"
	// BuildDate is the build timestamp, set via ldflags during build.
	BuildDate = "unknown"
	// BuildMode is "release" for packaged builds, set via ldflags:
	//
	//	-ldflags "-X github.com/smazurov/sidecarhost/internal/version.BuildMode=release"
	BuildMode = BuildModeDebug
)

// Info contains version and build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	BuildMode string `json:"build_mode"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns version and build information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		BuildMode: BuildMode,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// IsRelease reports whether this binary was built as a packaged release.
func IsRelease() bool {
	return BuildMode == BuildModeRelease
}

// String returns the application version string.
func String() string {
	return Version
}
