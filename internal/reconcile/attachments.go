package reconcile

// Attachments reconciles attachment metadata. Attachments have no conflict
// category: on any hash mismatch the server copy wins. Server tombstones the
// client never mentioned are skipped, the same as for notes.
func Attachments(server []Attachment, client []Attachment) AttachmentVerdict {
	byPath := make(map[string]Attachment, len(server))
	for _, s := range server {
		byPath[s.Path] = s
	}

	v := AttachmentVerdict{
		ToPush: []string{},
		ToPull: []Attachment{},
	}
	known := make(PathSet, len(client))

	for _, c := range client {
		known[c.Path] = struct{}{}

		s, ok := byPath[c.Path]
		switch {
		case !ok:
			v.ToPush = append(v.ToPush, c.Path)
		case s.ContentHash != c.ContentHash:
			v.ToPull = append(v.ToPull, s)
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
