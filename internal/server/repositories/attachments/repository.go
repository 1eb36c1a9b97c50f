// Package attachments persists attachment metadata records.
package attachments

import (
	"context"

	"github.com/dmitrijs2005/vaultsync/internal/server/models"
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]models.AttachmentRecord, error)
	Get(ctx context.Context, userID, path string) (*models.AttachmentRecord, error)
	Upsert(ctx context.Context, rec *models.AttachmentRecord) error
	// List returns at most limit records ordered by path.
	List(ctx context.Context, userID string, includeDeleted bool, limit int) ([]models.AttachmentRecord, error)
	DeleteAllForUser(ctx context.Context, userID string) error
}
