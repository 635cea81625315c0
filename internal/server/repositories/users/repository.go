package users

import (
	"context"

	"github.com/dmitrijs2005/cityfix/internal/server/models"
)

// Repository persists users. Lookups by email are case-insensitive.
type Repository interface {
	// Create inserts user and fills CreatedAt. A duplicate email yields
	// common.ErrConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}
