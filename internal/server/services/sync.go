package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultsync/internal/logging"
	"github.com/dmitrijs2005/vaultsync/internal/reconcile"
	"github.com/dmitrijs2005/vaultsync/internal/server/config"
	"github.com/dmitrijs2005/vaultsync/internal/server/models"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vaultsync/internal/vaultpath"
)

// SyncRequest is a client's metadata snapshot. It must list every path the
// client knows about.
type SyncRequest struct {
	LastSync    *time.Time
	Notes       []reconcile.Note
	Attachments []reconcile.Attachment
}

// SyncResult tells a client what to push and pull. Paths the client sent
// are echoed in its own spelling.
type SyncResult struct {
	ServerTime  time.Time
	Notes       reconcile.NoteVerdict
	Attachments reconcile.AttachmentVerdict
}

// SyncService compares client snapshots with the server records.
type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validator   vaultpath.Validator
	log         logging.Logger
	now         func() time.Time
}

// NewSyncService builds a SyncService. cfg supplies the path depth limit
// used to match client paths with stored ones.
func NewSyncService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *SyncService {
	return &SyncService{
		db:          db,
		repomanager: m,
		validator:   vaultpath.NewValidator(cfg.MaxPathDepth),
		log:         log.With("module", "sync"),
		now:         utcNow,
	}
}

// Sync loads the user's complete record sets and reconciles the snapshot
// against them.
func (s *SyncService) Sync(ctx context.Context, userID string, req SyncRequest) (*SyncResult, error) {
	serverTime := s.now()

	noteRecs, err := s.repomanager.Notes(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading notes: %w", err)
	}
	attRecs, err := s.repomanager.Attachments(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading attachments: %w", err)
	}

	clientNotes, noteNames := canonicalize(s.validator, req.Notes, func(n *reconcile.Note) *string { return &n.Path })
	clientAtts, attNames := canonicalize(s.validator, req.Attachments, func(a *reconcile.Attachment) *string { return &a.Path })

	serverNotes := notesFromRecords(noteRecs)
	changed := reconcile.ChangedSince(serverNotes, req.LastSync)

	res := &SyncResult{
		ServerTime:  serverTime,
		Notes:       reconcile.Notes(serverNotes, changed, clientNotes),
		Attachments: reconcile.Attachments(attachmentsFromRecords(attRecs), clientAtts),
	}
	res.Notes.ToPush = noteNames.clientPaths(res.Notes.ToPush)
	for i := range res.Notes.ToPull {
		res.Notes.ToPull[i].Path = noteNames.client(res.Notes.ToPull[i].Path)
	}
	for i := range res.Notes.Conflicts {
		res.Notes.Conflicts[i].Path = noteNames.client(res.Notes.Conflicts[i].Path)
	}
	res.Attachments.ToPush = attNames.clientPaths(res.Attachments.ToPush)
	for i := range res.Attachments.ToPull {
		res.Attachments.ToPull[i].Path = attNames.client(res.Attachments.ToPull[i].Path)
	}

	s.log.Info(ctx, "sync",
		"user_id", userID,
		"client_notes", len(req.Notes),
		"client_attachments", len(req.Attachments),
		"server_notes", len(noteRecs),
		"server_attachments", len(attRecs),
		"notes_to_push", len(res.Notes.ToPush),
		"notes_to_pull", len(res.Notes.ToPull),
		"conflicts", len(res.Notes.Conflicts),
		"attachments_to_push", len(res.Attachments.ToPush),
		"attachments_to_pull", len(res.Attachments.ToPull),
	)

	return res, nil
}

func notesFromRecords(recs []models.NoteRecord) []reconcile.Note {
	out := make([]reconcile.Note, 0, len(recs))
	for _, r := range recs {
		out = append(out, reconcile.Note{
			Path:        r.Path,
			ContentHash: r.ContentHash,
			ModifiedAt:  r.ModifiedAt,
			IsDeleted:   r.IsDeleted,
		})
	}
	return out
}

func attachmentsFromRecords(recs []models.AttachmentRecord) []reconcile.Attachment {
	out := make([]reconcile.Attachment, 0, len(recs))
	for _, r := range recs {
		a := reconcile.Attachment{
			Path:        r.Path,
			ContentHash: r.ContentHash,
			Size:        r.Size,
			ModifiedAt:  r.ModifiedAt,
			IsDeleted:   r.IsDeleted,
		}
		if r.MimeType != nil {
			a.MimeType = *r.MimeType
		}
		out = append(out, a)
	}
	return out
}
