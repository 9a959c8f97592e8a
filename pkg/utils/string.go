package utils

import "strings"

// NormalizeWhitespace replaces multiple whitespace with single space.
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateString cuts str to at most maxRunes runes, marking the cut with "...".
func TruncateString(str string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}

	runes := []rune(str)
	if len(runes) <= maxRunes {
		return str
	}

	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}

	return string(runes[:maxRunes-3]) + "..."
}
