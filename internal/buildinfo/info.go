// Package buildinfo carries version data stamped in at link time, e.g.
// -ldflags "-X github.com/tablemoney/moneybot/internal/buildinfo.Version=v1.2.0".
package buildinfo

var (
	// Version will be set via ldflags during build.
	Version = "dev"
	// Commit will be set via ldflags during build.
	Commit = "none"
	// Date will be set via ldflags during build.
	Date = "unknown"
)
