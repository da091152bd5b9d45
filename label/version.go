package label

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"
)

// Version represents a Bazel module version.
//
// Format: RELEASE[-PRERELEASE][+BUILD]
//   - RELEASE: dot-separated identifiers, the first of which is numeric
//     (an optional "v" prefix is tolerated, as found in BCR; it makes the
//     identifier alphanumeric, so v1.0 sorts after every 1.x)
//   - PRERELEASE: dot-separated identifiers, hyphens allowed
//   - BUILD: accepted but not retained; it never affects identity or ordering
//
// A 40 character git commit SHA is also accepted as a version.
//
// Version values are comparable with == and may be used as map keys.
// The zero value is EmptyVersion.
type Version struct {
	normalized string
}

// EmptyVersion is the distinguished empty version. It denotes an
// unspecified version (for example a module with a non-registry override)
// and compares higher than every other version.
var EmptyVersion = Version{}

var versionPattern = regexp.MustCompile(
	`^(v?[0-9]+(?:\.[a-zA-Z0-9]*)*)(?:-([a-zA-Z0-9.-]+))?(?:\+[a-zA-Z0-9.-]+)?$`,
)

// commitSHAPattern matches git commit SHAs used as versions (40 hex chars).
var commitSHAPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// ParseVersion parses a version string.
// The empty string parses to EmptyVersion.
func ParseVersion(s string) (Version, error) {
	if s == "" {
		return EmptyVersion, nil
	}
	if commitSHAPattern.MatchString(s) {
		return Version{normalized: s}, nil
	}

	match := versionPattern.FindStringSubmatch(s)
	if match == nil {
		return Version{}, &ParseError{Version: s, Message: "does not match version pattern"}
	}

	release, prerelease := match[1], match[2]
	for _, id := range strings.Split(release, ".") {
		if id == "" {
			return Version{}, &ParseError{Version: s, Message: "release identifier is empty"}
		}
	}
	normalized := release
	if prerelease != "" {
		for _, id := range strings.Split(prerelease, ".") {
			if id == "" {
				return Version{}, &ParseError{Version: s, Message: "prerelease identifier is empty"}
			}
		}
		normalized += "-" + prerelease
	}

	return Version{normalized: normalized}, nil
}

// MustParseVersion parses a version or panics. Use only for constants/tests.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical version text (build metadata removed).
func (v Version) String() string {
	return v.normalized
}

// IsEmpty reports whether v is EmptyVersion.
func (v Version) IsEmpty() bool {
	return v.normalized == ""
}

// IsPrerelease reports whether v carries a prerelease segment.
func (v Version) IsPrerelease() bool {
	_, pre := v.identifiers()
	return len(pre) > 0
}

// Compare compares two versions.
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
// Compare returns 0 exactly when the two values are ==.
//
// Order:
//  1. The empty version sorts last.
//  2. Release identifiers compare lexicographically.
//  3. Prerelease versions sort before the matching release.
//  4. Prerelease identifiers compare lexicographically.
//
// Digits-only identifiers compare numerically; equal numbers spelled
// differently (1 and 01) fall back to their text.
func (v Version) Compare(other Version) int {
	if v.IsEmpty() != other.IsEmpty() {
		if v.IsEmpty() {
			return 1
		}
		return -1
	}
	if v.IsEmpty() {
		return 0
	}

	aRel, aPre := v.identifiers()
	bRel, bPre := other.identifiers()
	if c := compareIdentifierLists(aRel, bRel); c != 0 {
		return c
	}

	if (len(aPre) > 0) != (len(bPre) > 0) {
		if len(aPre) > 0 {
			return -1
		}
		return 1
	}
	return compareIdentifierLists(aPre, bPre)
}

// identifier is one dot-separated segment of a version.
// Digits-only identifiers compare numerically and sort before alphanumeric ones.
type identifier struct {
	digitsOnly bool
	number     uint64
	text       string
}

func parseIdentifier(s string) identifier {
	if s != "" && strings.Trim(s, "0123456789") == "" {
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return identifier{digitsOnly: true, number: n, text: s}
		}
	}
	return identifier{text: s}
}

func (v Version) identifiers() (release, prerelease []identifier) {
	rel, pre, _ := strings.Cut(v.normalized, "-")
	for _, part := range strings.Split(rel, ".") {
		release = append(release, parseIdentifier(part))
	}
	if pre != "" {
		for _, part := range strings.Split(pre, ".") {
			prerelease = append(prerelease, parseIdentifier(part))
		}
	}
	return release, prerelease
}

func compareIdentifiers(a, b identifier) int {
	if a.digitsOnly != b.digitsOnly {
		if a.digitsOnly {
			return -1
		}
		return 1
	}
	if a.digitsOnly {
		if c := cmp.Compare(a.number, b.number); c != 0 {
			return c
		}
	}
	return strings.Compare(a.text, b.text)
}

func compareIdentifierLists(a, b []identifier) int {
	for i := range min(len(a), len(b)) {
		if c := compareIdentifiers(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

// ParseError represents a version parsing error.
type ParseError struct {
	Version string
	Message string
}

func (e *ParseError) Error() string {
	return "bad version " + e.Version + ": " + e.Message
}
