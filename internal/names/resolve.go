// Package names resolves display names from an ID block's fixed-size
// name field and classifies/normalizes the external file paths carried
// by Image and Library blocks.
package names

import "strings"

// ResolveIDName strips a leading two-character uppercase type code from
// a raw ID.name value (e.g. "OBCube" -> "Cube"). Names that don't start
// with a type-code pair are returned unchanged.
func ResolveIDName(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	if isUpperLetter(raw[0]) && isUpperLetter(raw[1]) {
		return raw[2:]
	}
	return raw
}

func isUpperLetter(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

// TypeCode returns the two-character type code prefix of a raw ID.name
// value, or an empty string if the name is too short or doesn't carry one.
func TypeCode(raw string) string {
	if len(raw) < 2 || !isUpperLetter(raw[0]) || !isUpperLetter(raw[1]) {
		return ""
	}
	return raw[:2]
}

// EqualFold reports whether two resolved names match case-insensitively,
// used for name-based block resolution.
func EqualFold(a, b string) bool {
	return strings.EqualFold(a, b)
}
