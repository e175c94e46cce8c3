// Package version carries the build version, set via ldflags.
package version

// Version is overridden at build time with
// -ldflags "-X github.com/hyperschedule/scrapers/internal/version.Version=...".
var Version = "dev"
