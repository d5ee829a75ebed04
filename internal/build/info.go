// Package build exposes build-time metadata injected via ldflags.
package build

import "fmt"

// Version, Commit, and Branch are stamped by the release build:
//
//	-ldflags "-X github.com/joestump/devhub/internal/build.Version=..."
var (
	Version = "dev"
	Commit  = "unknown"
	Branch  = "unknown"
)

// UserAgent identifies the DevHub client on outgoing requests.
func UserAgent() string {
	return fmt.Sprintf("devhub/%s (%s)", Version, Commit)
}

// String renders the full version line printed by `devhub version`.
func String() string {
	return fmt.Sprintf("devhub %s (commit %s, branch %s)", Version, Commit, Branch)
}
