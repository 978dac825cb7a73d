package domain

import "regexp"

var verseKeyPattern = regexp.MustCompile(`^\d+:\d+$`)

// ValidVerseKey reports whether key has the "<chapter>:<verse>" shape.
func ValidVerseKey(key string) bool {
	return verseKeyPattern.MatchString(key)
}

// ValidateVerseKey returns an InvalidInput error for malformed keys.
func ValidateVerseKey(key string) error {
	if !ValidVerseKey(key) {
		return InvalidInput("Invalid verse key format")
	}
	return nil
}
