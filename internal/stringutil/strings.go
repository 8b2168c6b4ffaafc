// Package stringutil provides common string manipulation utilities.
package stringutil

import "unicode/utf8"

// RuneLength returns the number of runes in s.
// Shop names are limited by rune count, not byte count, so that
// Chinese names get the same budget as ASCII ones.
func RuneLength(s string) int {
	return utf8.RuneCountInString(s)
}

// TruncateRunes returns s shortened to at most n runes.
// Returns s unchanged when it is already short enough.
//
// Example:
//
//	TruncateRunes("鼎泰豐信義店", 3) returns "鼎泰豐"
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
