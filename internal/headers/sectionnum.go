// Package headers repairs header hierarchies using dotted section numbers.
package headers

import (
	"regexp"
	"strings"
)

var sectionNumRe = regexp.MustCompile(`^(\d+(?:\.\d+)*)`)

// SectionNumber returns the dotted numeric prefix of a heading,
// e.g. "1.1 Eligibility" -> "1.1".
func SectionNumber(name string) (string, bool) {
	m := sectionNumRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParentSection returns the numeric parent of a section number.
// "N" and "N.0" are top level; "N.M" belongs to "N.0"; deeper numbers drop
// their last component.
func ParentSection(num string) (string, bool) {
	parts := strings.Split(num, ".")
	switch {
	case len(parts) <= 1:
		return "", false
	case len(parts) == 2 && parts[1] == "0":
		return "", false
	case len(parts) == 2:
		return parts[0] + ".0", true
	default:
		return strings.Join(parts[:len(parts)-1], "."), true
	}
}

// AncestorNumbers lists the numeric ancestors of num, root first.
func AncestorNumbers(num string) []string {
	var out []string
	for p, ok := ParentSection(num); ok; p, ok = ParentSection(p) {
		out = append(out, p)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
