// Package version holds build information for apidoc.
package version

import "runtime"

// Set at build time:
//
//	go build -ldflags "-X apidoc/internal/version.Version=0.4.1 -X apidoc/internal/version.Commit=$(git rev-parse HEAD)"
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version with a short commit hash when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line version report printed by `apidoc version`.
func Full() string {
	return "apidoc " + Info() + "\n" +
		"commit:  " + Commit + "\n" +
		"built:   " + BuildDate + "\n" +
		"go:      " + runtime.Version()
}
