// Package version carries build metadata set via -ldflags.
package version

import "fmt"

var (
    Version   = "dev"
    Commit    = "unknown"
    BuildTime = "unknown"
)

// String formats the build metadata for display.
func String() string {
    return fmt.Sprintf("%s (%s) built %s", Version, Commit, BuildTime)
}

// UserAgent is the outbound User-Agent for this build.
func UserAgent() string {
    return "nsemirror/" + Version
}
