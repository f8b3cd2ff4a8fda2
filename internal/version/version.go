// Package version exposes the daemon's release version, embedded at build
// time from the VERSION file.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var versionContent string

// Get returns the current version with whitespace trimmed.
func Get() string {
	return strings.TrimSpace(versionContent)
}
