// FILE: src/internal/version/version.go
package version

import "fmt"

// Build metadata, stamped at link time:
//
//	go build -ldflags "-X logtap/src/internal/version.Version=v1.0.0 ..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String returns the full version line shown by the -version flag and in
// the startup log.
func String() string {
	if Version == "dev" {
		return fmt.Sprintf("dev (commit: %s, built: %s)", GitCommit, BuildTime)
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime)
}

// Short returns only the version tag.
func Short() string {
	return Version
}
