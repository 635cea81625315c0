// Package statusupdates provides the PostgreSQL-backed audit trail of issue
// status changes.
package statusupdates

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/cityfix/internal/dbx"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, u *models.StatusUpdate) error {
	query := `
		INSERT INTO status_updates (id, issue_id, old_status, new_status, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	var oldStatus *string
	if u.OldStatus != nil {
		s := string(*u.OldStatus)
		oldStatus = &s
	}

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.IssueID, oldStatus, string(u.NewStatus), u.Comment, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByIssue(ctx context.Context, issueID string) ([]*models.StatusUpdate, error) {
	query := `
		SELECT id, issue_id, old_status, new_status, comment, created_at
		FROM status_updates
		WHERE issue_id = $1
		ORDER BY created_at ASC, seq ASC`

	rows, err := r.db.QueryContext(ctx, query, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to select status updates: %w", err)
	}
	defer rows.Close()

	result := []*models.StatusUpdate{}
	for rows.Next() {
		var (
			item               models.StatusUpdate
			oldStatus, comment sql.NullString
			newStatus          string
		)
		if err := rows.Scan(&item.ID, &item.IssueID, &oldStatus, &newStatus, &comment, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status update: %w", err)
		}
		if oldStatus.Valid {
			s := models.Status(oldStatus.String)
			item.OldStatus = &s
		}
		item.NewStatus = models.Status(newStatus)
		if comment.Valid {
			c := comment.String
			item.Comment = &c
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) DeleteByIssue(ctx context.Context, issueID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM status_updates WHERE issue_id = $1`, issueID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
