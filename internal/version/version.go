// Package version provides build-time version information.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rideops/fleetsync/internal/version.Version=1.0.0 \
//	                   -X github.com/rideops/fleetsync/internal/version.Commit=$(git rev-parse --short HEAD)"
package version

var (
	// Version is the semantic version of this build.
	Version = "dev"

	// Commit is the git commit hash of this build.
	Commit = "unknown"
)
