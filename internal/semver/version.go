// Package semver implements parsing, total ordering, and range evaluation
// for semantic versions as used by the template registry and migration engine.
package semver

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version errors
var (
	ErrInvalidVersion = errors.New("invalid version format")
)

// versionPattern matches MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD] where the
// numeric fields are non-negative integers and prerelease/build are
// dot-separated alphanumeric-or-hyphen identifier sequences.
var versionPattern = regexp.MustCompile(
	`^(\d+)\.(\d+)\.(\d+)` +
		`(?:-([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?` +
		`(?:\+([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?$`)

// Version is an immutable semantic version. Build metadata is carried through
// parsing and formatting but never participates in ordering or equality.
type Version struct {
	major      int
	minor      int
	patch      int
	prerelease string
	build      string
}

// New constructs a version from its components.
func New(major, minor, patch int, prerelease, build string) Version {
	return Version{major: major, minor: minor, patch: patch, prerelease: prerelease, build: build}
}

// Parse parses text in MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD] form.
// Returns ErrInvalidVersion (wrapped with the offending text) on malformed input.
func Parse(text string) (Version, error) {
	m := versionPattern.FindStringSubmatch(text)
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, text)
	}

	major, err := strconv.Atoi(m[1])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, text)
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, text)
	}
	patch, err := strconv.Atoi(m[3])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, text)
	}

	return Version{
		major:      major,
		minor:      minor,
		patch:      patch,
		prerelease: m[4],
		build:      m[5],
	}, nil
}

// MustParse parses text and panics on malformed input. Intended for
// compile-time-constant version strings in registration code and tests.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// Major returns the major component.
func (v Version) Major() int { return v.major }

// Minor returns the minor component.
func (v Version) Minor() int { return v.minor }

// Patch returns the patch component.
func (v Version) Patch() int { return v.patch }

// Prerelease returns the prerelease identifier sequence, or "" for a stable version.
func (v Version) Prerelease() string { return v.prerelease }

// Build returns the build metadata, or "" if absent.
func (v Version) Build() string { return v.build }

// IsStable reports whether the version has no prerelease component.
func (v Version) IsStable() bool { return v.prerelease == "" }

// String renders the version in canonical MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD]
// form. String is the exact inverse of Parse.
func (v Version) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", v.major, v.minor, v.patch)
	if v.prerelease != "" {
		b.WriteByte('-')
		b.WriteString(v.prerelease)
	}
	if v.build != "" {
		b.WriteByte('+')
		b.WriteString(v.build)
	}
	return b.String()
}

// Compare totally orders two versions.
// Returns -1 if v < other, 0 if equal, 1 if v > other.
//
// Major, minor, and patch compare numerically. When all three are equal, a
// version without a prerelease ranks above one with a prerelease. Two
// prereleases compare identifier-by-identifier: numeric identifiers compare
// numerically against each other, any other pairing compares lexicographically,
// and the version that runs out of identifiers first ranks lower.
// Build metadata never participates.
func (v Version) Compare(other Version) int {
	if c := compareInt(v.major, other.major); c != 0 {
		return c
	}
	if c := compareInt(v.minor, other.minor); c != 0 {
		return c
	}
	if c := compareInt(v.patch, other.patch); c != 0 {
		return c
	}

	switch {
	case v.prerelease == "" && other.prerelease == "":
		return 0
	case v.prerelease == "":
		return 1
	case other.prerelease == "":
		return -1
	}
	return comparePrerelease(v.prerelease, other.prerelease)
}

// Equal reports whether v and other compare equal (build metadata ignored).
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// LessThan reports whether v orders strictly before other.
func (v Version) LessThan(other Version) bool {
	return v.Compare(other) < 0
}

// GreaterThan reports whether v orders strictly after other.
func (v Version) GreaterThan(other Version) bool {
	return v.Compare(other) > 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func comparePrerelease(a, b string) int {
	idsA := strings.Split(a, ".")
	idsB := strings.Split(b, ".")

	for i := 0; i < len(idsA) && i < len(idsB); i++ {
		if c := compareIdentifier(idsA[i], idsB[i]); c != 0 {
			return c
		}
	}
	return compareInt(len(idsA), len(idsB))
}

func compareIdentifier(a, b string) int {
	numA, errA := strconv.Atoi(a)
	numB, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return compareInt(numA, numB)
	}
	return strings.Compare(a, b)
}
