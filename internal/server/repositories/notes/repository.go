// Package notes persists note metadata records, one per (user, path).
package notes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/vaultsync/internal/server/models"
)

// Filter narrows a paginated listing.
type Filter struct {
	PathPrefix     string
	ModifiedAfter  *time.Time
	ModifiedBefore *time.Time
	IncludeDeleted bool
	Limit          int
	Offset         int
}

type Repository interface {
	// ListByUser returns every record of the user, tombstones included,
	// ordered by path.
	ListByUser(ctx context.Context, userID string) ([]models.NoteRecord, error)
	// Get returns common.ErrorNotFound when the path has no record.
	Get(ctx context.Context, userID, path string) (*models.NoteRecord, error)
	// Upsert inserts or replaces the record for (UserID, Path).
	Upsert(ctx context.Context, rec *models.NoteRecord) error
	// List returns one page of records matching f and the total match count.
	List(ctx context.Context, userID string, f Filter) ([]models.NoteRecord, int, error)
	DeleteAllForUser(ctx context.Context, userID string) error
}
