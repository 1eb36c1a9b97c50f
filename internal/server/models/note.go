package models

import "time"

// NoteRecord is the server's metadata for one note path of a user.
// A tombstone has IsDeleted set and an empty ContentHash.
type NoteRecord struct {
	UserID      string
	Path        string
	ContentHash string
	ModifiedAt  time.Time
	SyncedAt    time.Time
	IsDeleted   bool
}
