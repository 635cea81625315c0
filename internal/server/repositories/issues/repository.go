package issues

import (
	"context"

	"github.com/dmitrijs2005/cityfix/internal/server/models"
)

// Repository persists issues. Mutating calls are expected to run on a
// transactional dbx.DBTX together with the matching status update.
type Repository interface {
	Insert(ctx context.Context, issue *models.Issue) error
	// Get returns the issue with reporter name and email.
	Get(ctx context.Context, id string) (*models.Issue, error)
	// GetForUpdate locks the issue row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Issue, error)
	Update(ctx context.Context, issue *models.Issue) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.IssueFilter, limit, offset int) ([]*models.Issue, error)
	CountByStatus(ctx context.Context) (models.StatusCounts, error)
}
