package domain

import (
	"time"
	"unicode/utf8"
)

// Collection is a named, ordered group of verses owned by one user.
type Collection struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	IsPublic    bool              `json:"is_public"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	VerseCount  int               `json:"verse_count"`
	Verses      []CollectionVerse `json:"verses,omitempty"` // Populated when fetching full collection details
}

// CollectionVerse is the membership of a verse in a collection.
type CollectionVerse struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collection_id"`
	VerseKey     string    `json:"verse_key"`
	Position     int       `json:"position"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
}

// CollectionRef is the short form used to show which collections hold a verse.
type CollectionRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

const (
	MinCollectionName = 2
	MaxCollectionName = 100
	MaxDescription    = 500
	MaxNotes          = 500
)

// ValidateCollectionName checks an already trimmed name.
func ValidateCollectionName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinCollectionName {
		return InvalidInput("Collection name must be at least 2 characters")
	}
	if n > MaxCollectionName {
		return InvalidInput("Collection name is too long (max 100 characters)")
	}
	return nil
}

// ValidateDescription checks an already trimmed description.
func ValidateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescription {
		return InvalidInput("Description is too long (max 500 characters)")
	}
	return nil
}

// ValidateNotes checks an already trimmed verse note.
func ValidateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > MaxNotes {
		return InvalidInput("Notes are too long (max 500 characters)")
	}
	return nil
}
