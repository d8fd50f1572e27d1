// Package version parses and validates release version strings.
//
// A release version is the literal prefix "v" followed by three
// dot-separated numeric components, e.g. "v1.2.3". Each component is
// either "0" or a digit sequence without a leading zero, of any length.
// Pre-release and build-metadata suffixes are rejected.
package version

import (
	"fmt"
	"regexp"

	"github.com/shinji-kodama/release-publisher/internal/model"
)

// Prefix is the literal character every release version starts with.
const Prefix = "v"

// pattern anchors all three components. The last group is closed before
// the end anchor so that trailing text is never accepted.
var pattern = regexp.MustCompile(`^v(0|[1-9][0-9]*)\.(0|[1-9][0-9]*)\.(0|[1-9][0-9]*)$`)

// Version is a validated release version. Obtain one through Parse.
type Version struct {
	raw string
}

// Parse validates s and returns the corresponding Version. Every string
// matching the pattern is accepted; components are never converted to
// numbers, so there is no size limit.
//
// Returns a CLIError with ExitInvalidVersion if s does not match the
// vMAJOR.MINOR.PATCH format.
func Parse(s string) (Version, error) {
	if !pattern.MatchString(s) {
		return Version{}, model.NewCLIError(
			model.ExitInvalidVersion,
			fmt.Sprintf("%q is not a valid version (expected %sMAJOR.MINOR.PATCH without leading zeros)", s, Prefix),
		)
	}
	return Version{raw: s}, nil
}

// String returns the version exactly as it was parsed, which is also the
// tag name used for the release.
func (v Version) String() string {
	return v.raw
}
