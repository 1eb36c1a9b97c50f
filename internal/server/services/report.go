package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultsync/internal/blob"
	"github.com/dmitrijs2005/vaultsync/internal/common"
	"github.com/dmitrijs2005/vaultsync/internal/logging"
	"github.com/dmitrijs2005/vaultsync/internal/reconcile"
	"github.com/dmitrijs2005/vaultsync/internal/server/config"
	"github.com/dmitrijs2005/vaultsync/internal/server/models"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/notes"
	"github.com/dmitrijs2005/vaultsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vaultsync/internal/vaultpath"
)

const (
	DefaultPageSize      = 50
	MaxPageSize          = 200
	listedAttachmentsCap = 100
)

// ListQuery selects one page of the user's notes.
type ListQuery struct {
	Page           int
	PageSize       int
	IncludeDeleted bool
	PathFilter     string
	ModifiedAfter  *time.Time
	ModifiedBefore *time.Time
}

// Validate checks page bounds; failures wrap common.ErrorValidation.
func (q ListQuery) Validate() error {
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1", common.ErrorValidation)
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page_size must be between 1 and %d", common.ErrorValidation, MaxPageSize)
	}
	return nil
}

// AttachmentRef is an attachment a note links to, resolved against the
// user's attachment records.
type AttachmentRef struct {
	Path      string
	Exists    bool
	SizeBytes *int64
}

// SyncedNote is a note record enriched for the listing view. SizeBytes is
// zero for tombstones.
type SyncedNote struct {
	models.NoteRecord
	SizeBytes             int64
	ReferencedAttachments []AttachmentRef
}

// Listing is one page of notes plus up to 100 attachment records.
type Listing struct {
	TotalCount  int
	Page        int
	PageSize    int
	TotalPages  int
	Notes       []SyncedNote
	Attachments []models.AttachmentRecord
}

// CompareResult is a comparison stamped with the server clock.
type CompareResult struct {
	ServerTime time.Time
	reconcile.Comparison
}

// ReportService serves the read-only diagnostic views.
type ReportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notes       blob.Store
	validator   vaultpath.Validator
	log         logging.Logger
	now         func() time.Time
}

// NewReportService builds a ReportService. notesBlobs should already be
// namespaced for notes.
func NewReportService(db *sql.DB, m repomanager.RepositoryManager, notesBlobs blob.Store, cfg *config.Config, log logging.Logger) *ReportService {
	return &ReportService{
		db:          db,
		repomanager: m,
		notes:       notesBlobs,
		validator:   vaultpath.NewValidator(cfg.MaxPathDepth),
		log:         log.With("module", "report"),
		now:         utcNow,
	}
}

// Compare partitions the client's notes against the server without any
// last-sync filtering.
func (s *ReportService) Compare(ctx context.Context, userID string, client []reconcile.Note) (*CompareResult, error) {
	serverTime := s.now()

	recs, err := s.repomanager.Notes(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading notes: %w", err)
	}

	canonical, names := canonicalize(s.validator, client, func(n *reconcile.Note) *string { return &n.Path })
	cmp := reconcile.Compare(notesFromRecords(recs), canonical)

	for i := range cmp.ToPush {
		cmp.ToPush[i].Path = names.client(cmp.ToPush[i].Path)
	}
	for i := range cmp.ToPull {
		cmp.ToPull[i].Path = names.client(cmp.ToPull[i].Path)
	}
	for i := range cmp.Conflicts {
		cmp.Conflicts[i].Path = names.client(cmp.Conflicts[i].Path)
	}
	for i := range cmp.DeletedOnServer {
		cmp.DeletedOnServer[i].Path = names.client(cmp.DeletedOnServer[i].Path)
	}

	return &CompareResult{ServerTime: serverTime, Comparison: cmp}, nil
}

// ListSynced returns one page of the user's notes ordered by path, each
// live note enriched with its blob size and the attachments it references.
func (s *ReportService) ListSynced(ctx context.Context, userID string, q ListQuery) (*Listing, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	recs, total, err := s.repomanager.Notes(s.db).List(ctx, userID, notes.Filter{
		PathPrefix:     q.PathFilter,
		ModifiedAfter:  q.ModifiedAfter,
		ModifiedBefore: q.ModifiedBefore,
		IncludeDeleted: q.IncludeDeleted,
		Limit:          q.PageSize,
		Offset:         (q.Page - 1) * q.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing notes: %w", err)
	}

	attRepo := s.repomanager.Attachments(s.db)
	allAtts, err := attRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading attachments: %w", err)
	}
	known := make(map[string]models.AttachmentRecord, len(allAtts))
	for _, a := range allAtts {
		if a.IsDeleted && !q.IncludeDeleted {
			continue
		}
		known[a.Path] = a
	}

	listing := &Listing{
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages(total, q.PageSize),
		Notes:      make([]SyncedNote, 0, len(recs)),
	}

	for _, rec := range recs {
		listing.Notes = append(listing.Notes, s.describe(ctx, rec, known))
	}

	listing.Attachments, err = attRepo.List(ctx, userID, q.IncludeDeleted, listedAttachmentsCap)
	if err != nil {
		return nil, fmt.Errorf("error listing attachments: %w", err)
	}

	return listing, nil
}

func (s *ReportService) describe(ctx context.Context, rec models.NoteRecord, known map[string]models.AttachmentRecord) SyncedNote {
	n := SyncedNote{NoteRecord: rec, ReferencedAttachments: []AttachmentRef{}}
	if rec.IsDeleted {
		return n
	}

	if size, err := s.notes.Size(ctx, rec.UserID, rec.Path); err == nil {
		n.SizeBytes = size
	}

	data, err := s.notes.Read(ctx, rec.UserID, rec.Path)
	if err != nil {
		s.log.Warn(ctx, "note content unavailable for listing", "path", rec.Path, "error", err)
		return n
	}

	for _, ref := range vaultpath.AttachmentReferences(string(data)) {
		r := AttachmentRef{Path: ref}
		if a, ok := known[ref]; ok {
			size := a.Size
			r.Exists = true
			r.SizeBytes = &size
		}
		n.ReferencedAttachments = append(n.ReferencedAttachments, r)
	}
	return n
}

func totalPages(total, pageSize int) int {
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
