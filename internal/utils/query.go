// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"strconv"
	"strings"
)

// ParseBoolStrict parses a query-string boolean from a fixed set of literal
// tokens. Matching is case-insensitive and surrounding whitespace is
// trimmed.
//
//	true:  "true", "1", "yes"
//	false: "false", "0", "no"
//
// Any other literal reports ok == false so the caller can reject the value.
//
// Example:
//
//	v, ok := utils.ParseBoolStrict(" YES ") // true, true
//	_, ok = utils.ParseBoolStrict("maybe")  // _, false
func ParseBoolStrict(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	default:
		return false, false
	}
}

// AtoiStrict converts a string to an int after trimming surrounding
// whitespace. Unlike strconv.Atoi alone, the ok result makes the
// non-numeric case explicit for callers that must treat it as "no match"
// rather than an error.
func AtoiStrict(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
