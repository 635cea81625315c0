package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cityfix/internal/common"
	"github.com/dmitrijs2005/cityfix/internal/dbx"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
	"github.com/dmitrijs2005/cityfix/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// AuditTrail is the append-only history of issue status changes. Records are
// written only through Record, inside the transaction of the change they
// document.
type AuditTrail struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
	newID       func() string
}

func NewAuditTrail(db *sql.DB, m repomanager.RepositoryManager) *AuditTrail {
	return &AuditTrail{
		db:          db,
		repomanager: m,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Record appends a status change on tx. oldStatus is nil only for the record
// written when the issue is created.
func (a *AuditTrail) Record(ctx context.Context, tx dbx.DBTX, issueID string, oldStatus *models.Status, newStatus models.Status, comment *string) (*models.StatusUpdate, error) {
	update := &models.StatusUpdate{
		ID:        a.newID(),
		IssueID:   issueID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Comment:   comment,
		CreatedAt: a.now().UTC(),
	}

	if err := a.repomanager.StatusUpdates(tx).Append(ctx, update); err != nil {
		return nil, fmt.Errorf("append status update: %w", err)
	}
	return update, nil
}

// History returns the status changes of issueID oldest first. An unknown
// issue is common.ErrorNotFound.
func (a *AuditTrail) History(ctx context.Context, issueID string) ([]*models.StatusUpdate, error) {
	if _, err := a.repomanager.Issues(a.db).Get(ctx, issueID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}

	updates, err := a.repomanager.StatusUpdates(a.db).ListByIssue(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("list status updates: %w", err)
	}
	return updates, nil
}
