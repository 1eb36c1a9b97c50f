package reconcile

import "github.com/dmitrijs2005/vaultsync/internal/timex"

// Notes reconciles the client's note snapshot against the complete set of
// server notes for the same user. changed holds the server paths touched
// since the client's last sync; it only gates the "server is newer" pull.
//
// The client must enumerate every path it knows: a server path missing
// from client is treated as unknown to the device and offered in full.
func Notes(server []Note, changed PathSet, client []Note) NoteVerdict {
	byPath := make(map[string]Note, len(server))
	for _, s := range server {
		byPath[s.Path] = s
	}

	v := NoteVerdict{
		ToPush:    []string{},
		ToPull:    []Note{},
		Conflicts: []Note{},
	}
	known := make(PathSet, len(client))

	for _, c := range client {
		known[c.Path] = struct{}{}

		s, ok := byPath[c.Path]
		switch decideNote(c, s, ok, changed) {
		case actionPush:
			v.ToPush = append(v.ToPush, c.Path)
		case actionPull:
			v.ToPull = append(v.ToPull, s)
		case actionConflict:
			v.Conflicts = append(v.Conflicts, s)
		}
	}

	for _, s := range server {
		if known.Has(s.Path) || s.IsDeleted {
			continue
		}
		v.ToPull = append(v.ToPull, s)
	}

	return v
}

type action int

const (
	actionNone action = iota
	actionPush
	actionPull
	actionConflict
)

// decideNote applies the note rules in order; the first match wins.
func decideNote(c, s Note, onServer bool, changed PathSet) action {
	if !onServer {
		return actionPush
	}

	ct := timex.Normalize(c.ModifiedAt)
	st := timex.Normalize(s.ModifiedAt)

	if c.IsDeleted {
		if s.IsDeleted {
			return actionNone
		}
		if !ct.Before(st) {
			return actionPush
		}
		return actionConflict
	}

	if s.IsDeleted {
		// Tombstones propagate regardless of the last-sync cursor.
		if ct.After(st) {
			return actionPush
		}
		return actionPull
	}

	switch {
	case s.ContentHash == c.ContentHash:
		return actionNone
	case ct.After(st):
		return actionPush
	case st.After(ct):
		if changed.Has(s.Path) {
			return actionPull
		}
		return actionNone
	default:
		return actionConflict
	}
}
