// Package version holds the build metadata stamped into the climalight
// binary with -ldflags "-X github.com/smazurov/climalight/internal/version.Version=...".
package version

import (
	"runtime"
)

// devVersion marks a binary built without release ldflags.
const devVersion = "dev"

// Stamped at build time. Unstamped builds report devVersion and "unknown".
var (
	Version   = devVersion
	GitCommit = "unknown"
	BuildDate = "unknown"
	BuildID   = "unknown"
)

// Info is the payload of GET /api/version.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	BuildID   string `json:"build_id"`
	GoVersion string `json:"go_version"`
	Compiler  string `json:"compiler"`
	Platform  string `json:"platform"`
}

func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		BuildID:   BuildID,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// IsDev reports whether v came from an unstamped build. The updater treats
// any published release as newer than a dev build.
func IsDev(v string) bool {
	return v == "" || v == devVersion
}

// String is the version shown by --version and the startup log line. The
// short commit is appended when the build was stamped with one.
func String() string {
	return format(Version, GitCommit)
}

func format(v, commit string) string {
	if commit == "" || commit == "unknown" {
		return v
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return v + " (" + commit + ")"
}
