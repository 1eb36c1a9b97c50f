package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/vaultsync/internal/blob"
	"github.com/dmitrijs2005/vaultsync/internal/common"
	"github.com/dmitrijs2005/vaultsync/internal/dbx"
	"github.com/dmitrijs2005/vaultsync/internal/logging"
	"github.com/dmitrijs2005/vaultsync/internal/server/config"
	"github.com/dmitrijs2005/vaultsync/internal/server/models"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vaultsync/internal/timex"
	"github.com/dmitrijs2005/vaultsync/internal/vaultpath"
)

// NoteContent is a note with its full text, as pushed or pulled.
type NoteContent struct {
	Path        string
	Content     string
	ContentHash string
	ModifiedAt  time.Time
	IsDeleted   bool
}

// NoteService moves note content between clients and the blob store and
// keeps the note records in step.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	validator   vaultpath.Validator
	log         logging.Logger
	now         func() time.Time
}

// NewNoteService builds a NoteService. blobs should already be namespaced
// for notes.
func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, cfg *config.Config, log logging.Logger) *NoteService {
	return &NoteService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		validator:   vaultpath.NewValidator(cfg.MaxPathDepth),
		log:         log.With("module", "notes"),
		now:         utcNow,
	}
}

// Push stores every item in its own transaction. A failing item never
// affects the others.
func (s *NoteService) Push(ctx context.Context, userID string, items []NoteContent) []ItemResult {
	results := make([]ItemResult, 0, len(items))
	for _, item := range items {
		err := s.pushOne(ctx, userID, item)
		if err != nil {
			s.log.Warn(ctx, "note push failed", "user_id", userID, "path", item.Path, "error", err)
		}
		results = append(results, ItemResult{Path: item.Path, Err: err})
	}
	return results
}

func (s *NoteService) pushOne(ctx context.Context, userID string, item NoteContent) error {
	path, err := s.validator.Clean(item.Path)
	if err != nil {
		return err
	}

	rec := &models.NoteRecord{
		UserID:     userID,
		Path:       path,
		ModifiedAt: timex.Normalize(item.ModifiedAt),
		SyncedAt:   s.now(),
		IsDeleted:  item.IsDeleted,
	}

	data := []byte(item.Content)
	if !item.IsDeleted {
		rec.ContentHash = blob.Digest(data)
		if item.ContentHash != "" && item.ContentHash != rec.ContentHash {
			s.log.Debug(ctx, "client hash differs from stored digest",
				"path", path, "client_hash", item.ContentHash, "digest", rec.ContentHash)
		}
	}

	// The record is written first so that a failed blob write rolls it back.
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Notes(tx).Upsert(ctx, rec); err != nil {
			return err
		}
		return applyBlob(ctx, s.blobs, userID, path, data, rec.IsDeleted, rec.ContentHash)
	})
}

// Pull returns the requested notes under the paths the client asked for.
// Invalid paths, unknown records and live records whose blob is missing are
// omitted; tombstones come back with empty content.
func (s *NoteService) Pull(ctx context.Context, userID string, paths []string) ([]NoteContent, error) {
	repo := s.repomanager.Notes(s.db)
	out := make([]NoteContent, 0, len(paths))

	for _, p := range paths {
		path, err := s.validator.Clean(p)
		if err != nil {
			s.log.Debug(ctx, "pull skipped invalid path", "path", p, "error", err)
			continue
		}

		rec, err := repo.Get(ctx, userID, path)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				continue
			}
			return nil, err
		}

		if rec.IsDeleted {
			out = append(out, NoteContent{Path: p, ModifiedAt: rec.ModifiedAt, IsDeleted: true})
			continue
		}

		data, err := s.blobs.Read(ctx, userID, rec.Path)
		if err != nil {
			s.log.Warn(ctx, "note content unavailable", "user_id", userID, "path", rec.Path, "error", err)
			continue
		}

		out = append(out, NoteContent{
			Path:        p,
			Content:     string(data),
			ContentHash: rec.ContentHash,
			ModifiedAt:  rec.ModifiedAt,
		})
	}

	return out, nil
}
