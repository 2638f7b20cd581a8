// Package version is the single source of truth for the sqlembed version.
package version

// Version is the current release version. Overridable at build time:
// go build -ldflags "-X github.com/standardbeagle/sqlembed/internal/version.Version=..."
var Version = "0.2.0"
