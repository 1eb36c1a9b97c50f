// Package reconcile decides, path by path, whether a client must push, pull
// or resolve a conflict. It is pure: callers load the server records and the
// client snapshot into memory and the functions here only compare them.
package reconcile

import (
	"time"

	"github.com/dmitrijs2005/vaultsync/internal/timex"
)

// Note is the metadata of one note, as held by the server or reported by a
// client. An empty ContentHash on a deleted note marks a tombstone.
type Note struct {
	Path        string
	ContentHash string
	ModifiedAt  time.Time
	IsDeleted   bool
}

// Attachment is the metadata of one binary attachment.
type Attachment struct {
	Path        string
	ContentHash string
	Size        int64
	MimeType    string
	ModifiedAt  time.Time
	IsDeleted   bool
}

// PathSet is a set of record paths.
type PathSet map[string]struct{}

// Has reports whether p is in the set. A nil set contains nothing.
func (s PathSet) Has(p string) bool {
	_, ok := s[p]
	return ok
}

// ChangedSince returns the paths of server notes modified strictly after
// lastSync. A nil lastSync means the client has never synced, so every
// record counts as changed.
func ChangedSince(server []Note, lastSync *time.Time) PathSet {
	changed := make(PathSet, len(server))
	var cursor time.Time
	if lastSync != nil {
		cursor = timex.Normalize(*lastSync)
	}
	for _, s := range server {
		if lastSync == nil || timex.Normalize(s.ModifiedAt).After(cursor) {
			changed[s.Path] = struct{}{}
		}
	}
	return changed
}

// NoteVerdict lists what a client must do with its notes.
type NoteVerdict struct {
	ToPush    []string
	ToPull    []Note
	Conflicts []Note
}

// AttachmentVerdict lists what a client must do with its attachments.
type AttachmentVerdict struct {
	ToPush []string
	ToPull []Attachment
}
