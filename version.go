package pallet

import (
	"fmt"
	"runtime"
)

// Version information, overridable at link time.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// VersionInfo returns the build's version information.
func VersionInfo() Info {
	return Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders the version info on one line.
func (i Info) String() string {
	return fmt.Sprintf("pallet %s (%s, %s, %s)", i.Version, i.GitCommit, i.GoVersion, i.Platform)
}
