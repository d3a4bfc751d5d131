package version

import (
	"regexp"
	"testing"
)

func TestVersionIsSemver(t *testing.T) {
	// MAJOR.MINOR.PATCH with optional prerelease (1.2.3-rc.1) and build
	// metadata (1.2.3+meta).
	semver := regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.]+)?(\+[a-zA-Z0-9.]+)?$`)
	if !semver.MatchString(Version) {
		t.Fatalf("Version=%q does not match semver pattern", Version)
	}
}
