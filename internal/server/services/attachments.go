package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
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

// AttachmentContent is an attachment with its bytes in standard base64.
type AttachmentContent struct {
	Path          string
	ContentBase64 string
	ContentHash   string
	Size          int64
	MimeType      *string
	ModifiedAt    time.Time
	IsDeleted     bool
}

// AttachmentService moves attachment bytes between clients and the blob
// store. Sizes are checked against the configured limit before any storage
// access.
type AttachmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	validator   vaultpath.Validator
	maxSize     int64
	log         logging.Logger
	now         func() time.Time
}

// NewAttachmentService builds an AttachmentService. blobs should already be
// namespaced for attachments.
func NewAttachmentService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, cfg *config.Config, log logging.Logger) *AttachmentService {
	return &AttachmentService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		validator:   vaultpath.NewValidator(cfg.MaxPathDepth),
		maxSize:     cfg.MaxAttachmentSize,
		log:         log.With("module", "attachments"),
		now:         utcNow,
	}
}

// Push stores every attachment in its own transaction.
func (s *AttachmentService) Push(ctx context.Context, userID string, items []AttachmentContent) []ItemResult {
	results := make([]ItemResult, 0, len(items))
	for _, item := range items {
		err := s.pushOne(ctx, userID, item)
		if err != nil {
			s.log.Warn(ctx, "attachment push failed", "user_id", userID, "path", item.Path, "error", err)
		}
		results = append(results, ItemResult{Path: item.Path, Err: err})
	}
	return results
}

func (s *AttachmentService) pushOne(ctx context.Context, userID string, item AttachmentContent) error {
	path, err := s.validator.Clean(item.Path)
	if err != nil {
		return err
	}

	if item.Size > s.maxSize {
		return fmt.Errorf("%w: declared %d bytes, limit %d", common.ErrAttachmentTooLarge, item.Size, s.maxSize)
	}

	rec := &models.AttachmentRecord{
		UserID:     userID,
		Path:       path,
		ModifiedAt: timex.Normalize(item.ModifiedAt),
		SyncedAt:   s.now(),
		IsDeleted:  item.IsDeleted,
	}

	var data []byte
	if !item.IsDeleted {
		data, err = base64.StdEncoding.DecodeString(item.ContentBase64)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrInvalidContent, err)
		}
		if int64(len(data)) > s.maxSize {
			return fmt.Errorf("%w: decoded %d bytes, limit %d", common.ErrAttachmentTooLarge, len(data), s.maxSize)
		}

		rec.ContentHash = blob.Digest(data)
		rec.Size = int64(len(data))
		rec.MimeType = item.MimeType
		if item.ContentHash != "" && item.ContentHash != rec.ContentHash {
			s.log.Debug(ctx, "client hash differs from stored digest",
				"path", path, "client_hash", item.ContentHash, "digest", rec.ContentHash)
		}
	}

	// The record is written first so that a failed blob write rolls it back.
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Attachments(tx).Upsert(ctx, rec); err != nil {
			return err
		}
		return applyBlob(ctx, s.blobs, userID, path, data, rec.IsDeleted, rec.ContentHash)
	})
}

// Pull returns the requested attachments base64 encoded, with the same
// omission rules as notes.
func (s *AttachmentService) Pull(ctx context.Context, userID string, paths []string) ([]AttachmentContent, error) {
	repo := s.repomanager.Attachments(s.db)
	out := make([]AttachmentContent, 0, len(paths))

	for _, p := range paths {
		path, err := s.validator.Clean(p)
		if err != nil {
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
			out = append(out, AttachmentContent{Path: p, ModifiedAt: rec.ModifiedAt, IsDeleted: true})
			continue
		}

		data, err := s.blobs.Read(ctx, userID, rec.Path)
		if err != nil {
			s.log.Warn(ctx, "attachment content unavailable", "user_id", userID, "path", rec.Path, "error", err)
			continue
		}

		out = append(out, AttachmentContent{
			Path:          p,
			ContentBase64: base64.StdEncoding.EncodeToString(data),
			ContentHash:   rec.ContentHash,
			Size:          rec.Size,
			MimeType:      rec.MimeType,
			ModifiedAt:    rec.ModifiedAt,
		})
	}

	return out, nil
}
