package version

import "fmt"

var (
	// Version is the current application version, set with -ldflags at build time.
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build information for `wheyout version`.
func String() string {
	return fmt.Sprintf("wheyout %s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
