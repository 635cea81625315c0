package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cityfix/internal/common"
	"github.com/dmitrijs2005/cityfix/internal/dbx"
	"github.com/dmitrijs2005/cityfix/internal/logging"
	"github.com/dmitrijs2005/cityfix/internal/server/auth"
	"github.com/dmitrijs2005/cityfix/internal/server/events"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
	"github.com/dmitrijs2005/cityfix/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	creationComment = "Issue created"

	DefaultPageSize = 10
	MaxPageSize     = 100
)

// NewIssue is the input of CreateIssue.
type NewIssue struct {
	Title       string
	Description string
	Category    models.Category
	Location    models.Location
	ImageRef    *string
}

// StatusChange is the input of UpdateStatus. Nil Comment and
// ResolutionImageRef keep the values already stored on the issue.
type StatusChange struct {
	Status             models.Status
	Comment            *string
	ResolutionImageRef *string
}

// IssueService owns issue status. Every mutation writes the issue and its
// audit record in one transaction.
type IssueService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	audit       *AuditTrail
	publisher   events.Publisher
	logger      logging.Logger
	now         func() time.Time
	newID       func() string
}

func NewIssueService(db *sql.DB, m repomanager.RepositoryManager, audit *AuditTrail, publisher events.Publisher, logger logging.Logger) *IssueService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &IssueService{
		db:          db,
		repomanager: m,
		audit:       audit,
		publisher:   publisher,
		logger:      logger.With("module", "issues"),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// CreateIssue stores a Pending issue owned by p together with its creation
// record.
func (s *IssueService) CreateIssue(ctx context.Context, p auth.Principal, in NewIssue) (*models.Issue, error) {
	if p.ID == "" {
		return nil, common.ErrUnauthenticated
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: title and description are required", common.ErrValidation)
	}
	category, err := models.ParseCategory(string(in.Category))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	now := s.now().UTC()
	issue := &models.Issue{
		ID:          s.newID(),
		OwnerID:     p.ID,
		Title:       in.Title,
		Description: in.Description,
		Category:    category,
		Status:      models.StatusPending,
		Location:    in.Location,
		ImageRef:    in.ImageRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Issues(tx).Insert(ctx, issue); err != nil {
			return err
		}
		comment := creationComment
		_, err := s.audit.Record(ctx, tx, issue.ID, nil, models.StatusPending, &comment)
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "create issue failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "issue created", "issue_id", issue.ID, "owner_id", p.ID, "category", string(issue.Category))
	return s.reload(ctx, issue), nil
}

// reload re-reads a just-committed issue to pick up reporter details, falling
// back to the in-memory copy.
func (s *IssueService) reload(ctx context.Context, issue *models.Issue) *models.Issue {
	fresh, err := s.repomanager.Issues(s.db).Get(ctx, issue.ID)
	if err != nil {
		s.logger.Warn(ctx, "reload issue failed", "issue_id", issue.ID, "error", err)
		return issue
	}
	return fresh
}

// GetIssue returns the issue with its reporter details.
func (s *IssueService) GetIssue(ctx context.Context, id string) (*models.Issue, error) {
	issue, err := s.repomanager.Issues(s.db).Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}
	return issue, nil
}

// UpdateStatus moves the issue to change.Status. Only authorities may do so.
// The row is locked for the duration of the transaction so concurrent
// updates serialize and each audit record names the status it replaced.
func (s *IssueService) UpdateStatus(ctx context.Context, p auth.Principal, issueID string, change StatusChange) (*models.Issue, error) {
	if !p.IsAuthority() {
		return nil, common.ErrForbidden
	}
	if !change.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrValidation, change.Status)
	}

	var (
		oldStatus models.Status
		updated   *models.Issue
	)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Issues(tx)

		issue, err := repo.GetForUpdate(ctx, issueID)
		if err != nil {
			return err
		}
		oldStatus = issue.Status

		issue.Status = change.Status
		if change.Comment != nil {
			issue.ResolutionComment = change.Comment
		}
		if change.ResolutionImageRef != nil {
			issue.ResolutionImageRef = change.ResolutionImageRef
		}
		issue.UpdatedAt = s.now().UTC()

		if err := repo.Update(ctx, issue); err != nil {
			return err
		}
		updated = issue

		prev := oldStatus
		_, err = s.audit.Record(ctx, tx, issueID, &prev, change.Status, change.Comment)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "update status failed", "issue_id", issueID, "error", err)
		return nil, common.ErrorInternal
	}

	if change.Status.Precedes(oldStatus) {
		s.logger.Warn(ctx, "regressive status transition",
			"issue_id", issueID, "from", string(oldStatus), "to", string(change.Status), "actor_id", p.ID)
	}
	s.logger.Info(ctx, "issue status changed",
		"issue_id", issueID, "from", string(oldStatus), "to", string(change.Status), "actor_id", p.ID)

	ev := models.StatusEvent{
		IssueID:    issueID,
		OldStatus:  oldStatus,
		NewStatus:  change.Status,
		ActorID:    p.ID,
		Comment:    change.Comment,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.PublishStatusChange(ctx, ev); err != nil {
		s.logger.Warn(ctx, "publish status event failed", "issue_id", issueID, "error", err)
	}

	return s.reload(ctx, updated), nil
}

// DeleteIssue removes the issue and its whole history. Authorities may delete
// any issue, citizens only their own.
func (s *IssueService) DeleteIssue(ctx context.Context, p auth.Principal, issueID string) error {
	if p.ID == "" {
		return common.ErrUnauthenticated
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Issues(tx)

		issue, err := repo.GetForUpdate(ctx, issueID)
		if err != nil {
			return err
		}
		if !p.IsAuthority() && issue.OwnerID != p.ID {
			return common.ErrForbidden
		}

		if _, err := s.repomanager.StatusUpdates(tx).DeleteByIssue(ctx, issueID); err != nil {
			return err
		}
		return repo.Delete(ctx, issueID)
	})
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorNotFound):
		return common.ErrorNotFound
	case errors.Is(err, common.ErrForbidden):
		return common.ErrForbidden
	default:
		s.logger.Error(ctx, "delete issue failed", "issue_id", issueID, "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "issue deleted", "issue_id", issueID, "actor_id", p.ID)
	return nil
}

// NormalizePage clamps page to >= 1 and pageSize to 1..MaxPageSize, using
// DefaultPageSize when pageSize is not positive.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// ListIssues returns one page of issues matching filter, newest first.
func (s *IssueService) ListIssues(ctx context.Context, filter models.IssueFilter, page, pageSize int) ([]*models.Issue, error) {
	page, pageSize = NormalizePage(page, pageSize)

	items, err := s.repomanager.Issues(s.db).List(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return items, nil
}

// History returns the audit trail of issueID.
func (s *IssueService) History(ctx context.Context, issueID string) ([]*models.StatusUpdate, error) {
	return s.audit.History(ctx, issueID)
}

// Analytics counts issues per status.
func (s *IssueService) Analytics(ctx context.Context) (models.StatusCounts, error) {
	counts, err := s.repomanager.Issues(s.db).CountByStatus(ctx)
	if err != nil {
		return models.StatusCounts{}, fmt.Errorf("count issues: %w", err)
	}
	return counts, nil
}
