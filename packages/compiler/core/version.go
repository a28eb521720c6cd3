package core

import (
	"regexp"
	"strings"
)

// Version represents a semantic version
type Version struct {
	Full  string
	Major string
	Minor string
	Patch string
}

// NewVersion creates a new Version from a full version string
func NewVersion(full string) *Version {
	parts := strings.Split(full, ".")
	v := &Version{Full: full}
	if len(parts) > 0 {
		v.Major = parts[0]
	}
	if len(parts) > 1 {
		v.Minor = parts[1]
	}
	if len(parts) > 2 {
		v.Patch = strings.Join(parts[2:], ".")
	}
	return v
}

// VERSION is the version of ngtsc-go. Snapshots record it and are only read back by the same
// major version.
var VERSION = NewVersion("0.3.0")

var v1To18Regexp = regexp.MustCompile(`^([1-9]|1[0-8])\.`)

// StandaloneDefaultForVersion reports whether declarations default to standalone for a given
// framework version: false up to v18, true afterwards and for `0.x` development builds.
func StandaloneDefaultForVersion(version string) bool {
	if version == "" || strings.HasPrefix(version, "0.") {
		return true
	}
	return !v1To18Regexp.MatchString(version)
}
