// Package strings provides wording helpers for command output.
package strings

import "strconv"

// Pluralize returns singular or plural form based on count.
// Example: Pluralize("file", 1) returns "file", Pluralize("file", 2) returns "files"
func Pluralize(word string, count int64) string {
	if count == 1 {
		return word
	}
	if n := len(word); n > 0 && word[n-1] == 'y' && n > 1 && !isVowel(word[n-2]) {
		return word[:n-1] + "ies"
	}
	return word + "s"
}

// Count returns "1 item", "3 items" and so on.
func Count(count int64, word string) string {
	return strconv.FormatInt(count, 10) + " " + Pluralize(word, count)
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
