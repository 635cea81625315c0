// Package issues provides the PostgreSQL-backed issue repository.
package issues

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cityfix/internal/common"
	"github.com/dmitrijs2005/cityfix/internal/dbx"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
)

const issueColumns = `i.id, i.owner_id, i.title, i.description, i.category, i.status,
		i.latitude, i.longitude, i.image_ref, i.resolution_comment, i.resolution_image_ref,
		i.created_at, i.updated_at`

// PostgresRepository implements issue storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, issue *models.Issue) error {
	query := `
		INSERT INTO issues (id, owner_id, title, description, category, status,
			latitude, longitude, image_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		issue.ID, issue.OwnerID, issue.Title, issue.Description, string(issue.Category), string(issue.Status),
		issue.Location.Latitude, issue.Location.Longitude, issue.ImageRef, issue.CreatedAt, issue.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get loads an issue with its reporter. An id that is not a uuid cannot name
// an issue and is common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Issue, error) {
	query := `SELECT ` + issueColumns + `, u.name, u.email
		FROM issues i JOIN users u ON u.id = i.owner_id
		WHERE i.id = $1`

	issue, err := scanIssue(r.db.QueryRowContext(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidTextRepresentation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return issue, nil
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Issue, error) {
	query := `SELECT ` + issueColumns + `
		FROM issues i
		WHERE i.id = $1
		FOR UPDATE`

	issue, err := scanIssue(r.db.QueryRowContext(ctx, query, id), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidTextRepresentation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return issue, nil
}

// Update writes the mutable fields: status, resolution details and updated_at.
func (r *PostgresRepository) Update(ctx context.Context, issue *models.Issue) error {
	query := `
		UPDATE issues
		SET status = $2, resolution_comment = $3, resolution_image_ref = $4, updated_at = $5
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		issue.ID, string(issue.Status), issue.ResolutionComment, issue.ResolutionImageRef, issue.UpdatedAt)
	if err != nil {
		if dbx.IsInvalidTextRepresentation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM issues WHERE id = $1`, id)
	if err != nil {
		if dbx.IsInvalidTextRepresentation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// List returns issues matching every non-nil filter field, newest first.
// Search is a case-insensitive substring match on title or description.
func (r *PostgresRepository) List(ctx context.Context, filter models.IssueFilter, limit, offset int) ([]*models.Issue, error) {
	var (
		query      strings.Builder
		conditions []string
		args       []any
	)
	argID := 1

	query.WriteString(`SELECT ` + issueColumns + `, u.name, u.email
		FROM issues i JOIN users u ON u.id = i.owner_id`)

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", argID))
		args = append(args, string(*filter.Status))
		argID++
	}
	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("i.category = $%d", argID))
		args = append(args, string(*filter.Category))
		argID++
	}
	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(i.title ILIKE $%d OR i.description ILIKE $%d)", argID, argID))
		args = append(args, "%"+escapeLike(*filter.Search)+"%")
		argID++
	}

	if len(conditions) > 0 {
		query.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	query.WriteString(fmt.Sprintf(" ORDER BY i.created_at DESC, i.id LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select issues: %w", err)
	}
	defer rows.Close()

	result := []*models.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows, true)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		result = append(result, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	var counts models.StatusCounts

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM issues GROUP BY status`)
	if err != nil {
		return counts, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return counts, fmt.Errorf("scan count: %w", err)
		}
		counts.Total += n
		switch models.Status(status) {
		case models.StatusPending:
			counts.Pending = n
		case models.StatusProcessing:
			counts.Processing = n
		case models.StatusCompleted:
			counts.Completed = n
		}
	}
	if err := rows.Err(); err != nil {
		return counts, fmt.Errorf("rows error: %w", err)
	}

	return counts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIssue(s scanner, withReporter bool) (*models.Issue, error) {
	var (
		issue                             models.Issue
		category, status                  string
		imageRef, resComment, resImageRef sql.NullString
	)

	dest := []any{
		&issue.ID, &issue.OwnerID, &issue.Title, &issue.Description, &category, &status,
		&issue.Location.Latitude, &issue.Location.Longitude, &imageRef, &resComment, &resImageRef,
		&issue.CreatedAt, &issue.UpdatedAt,
	}
	if withReporter {
		dest = append(dest, &issue.ReporterName, &issue.ReporterEmail)
	}

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	issue.Category = models.Category(category)
	issue.Status = models.Status(status)
	issue.ImageRef = nullable(imageRef)
	issue.ResolutionComment = nullable(resComment)
	issue.ResolutionImageRef = nullable(resImageRef)

	return &issue, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
