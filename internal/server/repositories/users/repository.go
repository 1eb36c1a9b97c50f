// Package users declares and implements persistence of user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/vaultsync/internal/server/models"
)

type Repository interface {
	// Create inserts user. A taken username or email yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
