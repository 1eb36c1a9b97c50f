package models

import "time"

// AttachmentRecord is the server's metadata for one attachment path.
// Tombstones carry Size 0 and no MimeType.
type AttachmentRecord struct {
	UserID      string
	Path        string
	ContentHash string
	Size        int64
	MimeType    *string
	ModifiedAt  time.Time
	SyncedAt    time.Time
	IsDeleted   bool
}
