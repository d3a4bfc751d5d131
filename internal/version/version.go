// Package version holds the release version stamped into the decomment binary.
package version

// Version is overridden at release time with -ldflags "-X".
var Version = "0.1.0"
