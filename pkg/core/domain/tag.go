package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Tag is a label a user attaches to a single verse.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	VerseKey  string    `json:"verse_key"`
	TagText   string    `json:"tag_text"`
	IsPublic  bool      `json:"is_public"`
	Votes     int       `json:"votes"` // Denormalized sum of vote_type
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TagGroup is a set of public tags sharing the same text.
type TagGroup struct {
	TagText    string `json:"tag_text"`
	TotalVotes int    `json:"total_votes"`
	Tags       []Tag  `json:"tags"`
}

const (
	MinTagLength = 2
	MaxTagLength = 50
)

// NormalizeTag lower-cases s, drops everything that is not a letter, digit,
// mark, underscore, hyphen or whitespace, collapses whitespace runs to a single
// space, trims, and truncates to MaxTagLength characters.
//
// Removing characters can expose new composition or case mappings, so the pass
// is repeated until the text stops changing; this keeps
// NormalizeTag(NormalizeTag(s)) == NormalizeTag(s).
func NormalizeTag(s string) string {
	for range 8 {
		next := normalizeOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func normalizeOnce(s string) string {
	// A Caser holds state, so each call gets its own.
	s = cases.Lower(language.Und).String(norm.NFKC.String(s))

	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
			return r
		case r == '_' || r == '-':
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, s)

	s = strings.Join(strings.Fields(s), " ")

	if utf8.RuneCountInString(s) > MaxTagLength {
		s = string([]rune(s)[:MaxTagLength])
		s = strings.TrimRight(s, " ")
	}
	return s
}

// ValidTag reports whether raw normalizes to an acceptable tag.
func ValidTag(raw string) bool {
	n := utf8.RuneCountInString(NormalizeTag(raw))
	return n >= MinTagLength && n <= MaxTagLength
}
