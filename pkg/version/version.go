// Package version exposes build information for poly.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	Version   string // Set via ldflags.
	BuildDate string // Set via ldflags.

	Revision  = getRevision()
	GoVersion = runtime.Version()
	GoOS      = runtime.GOOS
	GoArch    = runtime.GOARCH
)

// GetVersion returns the release version, falling back to the VCS revision.
func GetVersion() string {
	if Version != "" {
		return Version
	}

	return Revision
}

// String renders the multi-line build summary printed by `poly --version`.
func String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "poly %s\n", GetVersion())
	fmt.Fprintf(&b, "  revision: %s\n", Revision)

	if BuildDate != "" {
		fmt.Fprintf(&b, "  built:    %s\n", BuildDate)
	}

	fmt.Fprintf(&b, "  go:       %s %s/%s\n", GoVersion, GoOS, GoArch)

	return b.String()
}

func getRevision() string {
	rev := "unknown"

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return rev
	}

	modified := false

	for _, v := range buildInfo.Settings {
		switch v.Key {
		case "vcs.revision":
			rev = v.Value[:min(len(v.Value), 7)]

		case "vcs.modified":
			modified = v.Value == "true"
		}
	}

	if modified {
		return rev + "-dirty"
	}

	return rev
}
