package utils

import (
	"unicode"
)

// MaxIdentifierLength bounds group, subject, task and version identifiers.
const MaxIdentifierLength = 64

// IsValidIdentifier checks that s is a non-empty path-safe identifier made of
// letters, digits, '-', '_' and '.', and is not a relative path element.
func IsValidIdentifier(s string) bool {
	if s == "" || len(s) > MaxIdentifierLength || s == "." || s == ".." {
		return false
	}
	for _, char := range s {
		switch {
		case unicode.IsLetter(char), unicode.IsDigit(char):
		case char == '-' || char == '_' || char == '.':
		default:
			return false
		}
	}
	return true
}
