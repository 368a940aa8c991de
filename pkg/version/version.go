// Package version exposes the build version of the cratedocs binary.
package version

// Version is the semantic version of the build. It is overridden at release
// time via -ldflags "-X github.com/cratedocs/cratedocs/pkg/version.Version=...".
//
//nolint:gochecknoglobals // build-time injection target
var Version = "0.1.0-dev"

// GetVersion returns the current build version.
func GetVersion() string {
	return Version
}
