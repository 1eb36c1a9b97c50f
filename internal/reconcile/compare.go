package reconcile

import (
	"time"

	"github.com/dmitrijs2005/vaultsync/internal/timex"
)

// Reason explains why a path landed in a comparison bucket.
type Reason string

const (
	ReasonNotOnServer  Reason = "not_on_server"
	ReasonClientNewer  Reason = "client_newer"
	ReasonServerNewer  Reason = "server_newer"
	ReasonNotOnClient  Reason = "not_on_client"
	ReasonBothModified Reason = "both_modified"
)

// PushItem is a note the client should upload.
type PushItem struct {
	Path           string
	Reason         Reason
	ClientModified time.Time
}

// PullItem is a note the client should download.
type PullItem struct {
	Path           string
	Reason         Reason
	ServerModified time.Time
	ClientModified *time.Time // nil for server-only notes
}

// ConflictItem is a note changed on both sides with equal timestamps.
type ConflictItem struct {
	Path           string
	Reason         Reason
	ClientHash     string
	ServerHash     string
	ClientModified time.Time
	ServerModified time.Time
}

// DeletedItem is a client note the server holds as a tombstone.
type DeletedItem struct {
	Path      string
	DeletedAt time.Time
}

// Summary counts the buckets of a Comparison. TotalServer counts live
// server notes only.
type Summary struct {
	TotalClient     int
	TotalServer     int
	ToPush          int
	ToPull          int
	Conflicts       int
	Identical       int
	DeletedOnServer int
}

// Comparison is a full partition of a client's notes against the server.
type Comparison struct {
	Summary         Summary
	ToPush          []PushItem
	ToPull          []PullItem
	Conflicts       []ConflictItem
	DeletedOnServer []DeletedItem
}

// Compare places every client note into exactly one bucket and adds live
// server-only notes to ToPull. Unlike Notes it ignores the last-sync cursor
// and the client's deletion flags; it is a diagnostic view.
func Compare(server []Note, client []Note) Comparison {
	byPath := make(map[string]Note, len(server))
	live := 0
	for _, s := range server {
		byPath[s.Path] = s
		if !s.IsDeleted {
			live++
		}
	}

	cmp := Comparison{
		ToPush:          []PushItem{},
		ToPull:          []PullItem{},
		Conflicts:       []ConflictItem{},
		DeletedOnServer: []DeletedItem{},
	}
	known := make(PathSet, len(client))

	for _, c := range client {
		known[c.Path] = struct{}{}

		s, ok := byPath[c.Path]
		if !ok {
			cmp.ToPush = append(cmp.ToPush, PushItem{Path: c.Path, Reason: ReasonNotOnServer, ClientModified: c.ModifiedAt})
			continue
		}
		if s.IsDeleted {
			cmp.DeletedOnServer = append(cmp.DeletedOnServer, DeletedItem{Path: s.Path, DeletedAt: s.ModifiedAt})
			continue
		}

		ct := timex.Normalize(c.ModifiedAt)
		st := timex.Normalize(s.ModifiedAt)

		switch {
		case s.ContentHash == c.ContentHash:
			cmp.Summary.Identical++
		case ct.After(st):
			cmp.ToPush = append(cmp.ToPush, PushItem{Path: c.Path, Reason: ReasonClientNewer, ClientModified: c.ModifiedAt})
		case st.After(ct):
			clientModified := c.ModifiedAt
			cmp.ToPull = append(cmp.ToPull, PullItem{
				Path:           s.Path,
				Reason:         ReasonServerNewer,
				ServerModified: s.ModifiedAt,
				ClientModified: &clientModified,
			})
		default:
			cmp.Conflicts = append(cmp.Conflicts, ConflictItem{
				Path:           c.Path,
				Reason:         ReasonBothModified,
				ClientHash:     c.ContentHash,
				ServerHash:     s.ContentHash,
				ClientModified: c.ModifiedAt,
				ServerModified: s.ModifiedAt,
			})
		}
	}

	for _, s := range server {
		if known.Has(s.Path) || s.IsDeleted {
			continue
		}
		cmp.ToPull = append(cmp.ToPull, PullItem{Path: s.Path, Reason: ReasonNotOnClient, ServerModified: s.ModifiedAt})
	}

	cmp.Summary.TotalClient = len(client)
	cmp.Summary.TotalServer = live
	cmp.Summary.ToPush = len(cmp.ToPush)
	cmp.Summary.ToPull = len(cmp.ToPull)
	cmp.Summary.Conflicts = len(cmp.Conflicts)
	cmp.Summary.DeletedOnServer = len(cmp.DeletedOnServer)

	return cmp
}
