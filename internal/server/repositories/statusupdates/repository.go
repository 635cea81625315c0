package statusupdates

import (
	"context"

	"github.com/dmitrijs2005/cityfix/internal/server/models"
)

// Repository is the append-only store of issue status changes.
type Repository interface {
	Append(ctx context.Context, update *models.StatusUpdate) error
	// ListByIssue returns records oldest first.
	ListByIssue(ctx context.Context, issueID string) ([]*models.StatusUpdate, error)
	DeleteByIssue(ctx context.Context, issueID string) (int64, error)
}
