package domain

import "time"

// Snapshot is a full dump of the store used by the export/import commands.
type Snapshot struct {
	ExportedAt       time.Time         `json:"exported_at"`
	Users            []ExportUser      `json:"users"`
	Tags             []Tag             `json:"tags"`
	Votes            []Vote            `json:"votes"`
	Collections      []Collection      `json:"collections"`
	CollectionVerses []CollectionVerse `json:"collection_verses"`
}

// ExportUser carries the password hash, which User never serializes.
type ExportUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RestoreStats counts what an import inserted and skipped.
type RestoreStats struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}
