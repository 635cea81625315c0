package issues

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cityfix/internal/common"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	baseColumns = []string{
		"id", "owner_id", "title", "description", "category", "status",
		"latitude", "longitude", "image_ref", "resolution_comment", "resolution_image_ref",
		"created_at", "updated_at",
	}
	joinedColumns = append(append([]string{}, baseColumns...), "name", "email")
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func sampleIssue(now time.Time) *models.Issue {
	img := "issues/abc.jpg"
	return &models.Issue{
		ID:          "i-1",
		OwnerID:     "u-1",
		Title:       "Pothole",
		Description: "Deep pothole on Main street",
		Category:    models.CategoryRoad,
		Status:      models.StatusPending,
		Location:    models.Location{Latitude: 12.5, Longitude: 77.1},
		ImageRef:    &img,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestInsert(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()
	issue := sampleIssue(now)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+issues\s*\(id,\s*owner_id,.*image_ref,\s*created_at,\s*updated_at\)\s*VALUES\s*\(\$1,.*\$11\)$`).
		WithArgs("i-1", "u-1", "Pothole", "Deep pothole on Main street", "Road & Infrastructure", "Pending",
			12.5, 77.1, "issues/abc.jpg", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), issue))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT\s+INTO\s+issues`).WillReturnError(errors.New("db down"))

	err := repo.Insert(context.Background(), sampleIssue(time.Now()))
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestGet_JoinsReporter(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(joinedColumns).
		AddRow("i-1", "u-1", "Pothole", "Deep pothole", "Road & Infrastructure", "Processing",
			12.5, 77.1, nil, "crew sent", nil, now, now, "Alice", "alice@x.com")
	mock.ExpectQuery(`(?s)^SELECT\s+i\.id,.*u\.name,\s*u\.email\s+FROM\s+issues\s+i\s+JOIN\s+users\s+u\s+ON\s+u\.id\s*=\s*i\.owner_id\s+WHERE\s+i\.id\s*=\s*\$1$`).
		WithArgs("i-1").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "i-1")
	require.NoError(t, err)

	assert.Equal(t, models.StatusProcessing, got.Status)
	assert.Equal(t, models.CategoryRoad, got.Category)
	assert.Nil(t, got.ImageRef)
	require.NotNil(t, got.ResolutionComment)
	assert.Equal(t, "crew sent", *got.ResolutionComment)
	assert.Nil(t, got.ResolutionImageRef)
	assert.Equal(t, "Alice", got.ReporterName)
	assert.Equal(t, "alice@x.com", got.ReporterEmail)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+issues\s+i\s+JOIN`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMalformedID_IsNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	badUUID := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}

	mock.ExpectQuery(`FROM\s+issues\s+i\s+JOIN`).WithArgs("abc").WillReturnError(badUUID)
	mock.ExpectQuery(`FOR\s+UPDATE`).WithArgs("abc").WillReturnError(badUUID)
	mock.ExpectExec(`^UPDATE\s+issues`).WillReturnError(badUUID)
	mock.ExpectExec(`^DELETE\s+FROM\s+issues`).WithArgs("abc").WillReturnError(badUUID)

	_, err := repo.Get(context.Background(), "abc")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.GetForUpdate(context.Background(), "abc")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	issue := sampleIssue(time.Now().UTC())
	issue.ID = "abc"
	assert.ErrorIs(t, repo.Update(context.Background(), issue), common.ErrorNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), "abc"), common.ErrorNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUpdate_LocksRow(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(baseColumns).
		AddRow("i-1", "u-1", "Pothole", "Deep pothole", "Sanitation", "Pending",
			1.0, 2.0, "issues/x.png", nil, nil, now, now)
	mock.ExpectQuery(`(?s)FROM\s+issues\s+i\s+WHERE\s+i\.id\s*=\s*\$1\s+FOR\s+UPDATE$`).
		WithArgs("i-1").
		WillReturnRows(rows)
	mock.ExpectQuery(`FOR\s+UPDATE`).WithArgs("gone").WillReturnError(sql.ErrNoRows)

	got, err := repo.GetForUpdate(context.Background(), "i-1")
	require.NoError(t, err)
	require.NotNil(t, got.ImageRef)
	assert.Equal(t, "issues/x.png", *got.ImageRef)
	assert.Empty(t, got.ReporterName)

	_, err = repo.GetForUpdate(context.Background(), "gone")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()
	comment := "fixed"

	issue := sampleIssue(now)
	issue.Status = models.StatusCompleted
	issue.ResolutionComment = &comment

	q := `(?s)^UPDATE\s+issues\s+SET\s+status\s*=\s*\$2,\s*resolution_comment\s*=\s*\$3,\s*resolution_image_ref\s*=\s*\$4,\s*updated_at\s*=\s*\$5\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).
		WithArgs("i-1", "Completed", "fixed", nil, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Update(context.Background(), issue))
	assert.ErrorIs(t, repo.Update(context.Background(), issue), common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `^DELETE\s+FROM\s+issues\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("i-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("i-2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).WithArgs("i-3").WillReturnError(errors.New("boom"))

	require.NoError(t, repo.Delete(context.Background(), "i-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "i-2"), common.ErrorNotFound)
	assert.ErrorContains(t, repo.Delete(context.Background(), "i-3"), "boom")
}

func TestList_NoFilters(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(joinedColumns).
		AddRow("i-2", "u-1", "B", "second", "Other", "Pending", 0.0, 0.0, nil, nil, nil, now, now, "Alice", "a@x.com").
		AddRow("i-1", "u-2", "A", "first", "Other", "Completed", 0.0, 0.0, nil, nil, nil, now.Add(-time.Hour), now, "Bob", "b@x.com")
	mock.ExpectQuery(`(?s)ON\s+u\.id\s*=\s*i\.owner_id\s+ORDER\s+BY\s+i\.created_at\s+DESC,\s*i\.id\s+LIMIT\s+\$1\s+OFFSET\s+\$2$`).
		WithArgs(10, 20).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), models.IssueFilter{}, 10, 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "i-2", got[0].ID)
	assert.Equal(t, "Bob", got[1].ReporterName)
}

func TestList_AllFiltersAreAnded(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	status := models.StatusPending
	category := models.CategoryWater
	search := "50%_off"

	mock.ExpectQuery(`(?s)WHERE\s+i\.status\s*=\s*\$1\s+AND\s+i\.category\s*=\s*\$2\s+AND\s+\(i\.title\s+ILIKE\s+\$3\s+OR\s+i\.description\s+ILIKE\s+\$3\)\s+ORDER\s+BY\s+i\.created_at\s+DESC,\s*i\.id\s+LIMIT\s+\$4\s+OFFSET\s+\$5$`).
		WithArgs("Pending", "Water & Drainage", `%50\%\_off%`, 5, 0).
		WillReturnRows(sqlmock.NewRows(joinedColumns))

	got, err := repo.List(context.Background(), models.IssueFilter{Status: &status, Category: &category, Search: &search}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestList_SearchOnly(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	search := "Leak"

	mock.ExpectQuery(`(?s)WHERE\s+\(i\.title\s+ILIKE\s+\$1\s+OR\s+i\.description\s+ILIKE\s+\$1\)\s+ORDER`).
		WithArgs("%Leak%", 10, 0).
		WillReturnRows(sqlmock.NewRows(joinedColumns))

	_, err := repo.List(context.Background(), models.IssueFilter{Search: &search}, 10, 0)
	require.NoError(t, err)
}

func TestList_QueryError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+issues`).WillReturnError(errors.New("db err"))

	_, err := repo.List(context.Background(), models.IssueFilter{}, 10, 0)
	assert.ErrorContains(t, err, "failed to select issues")
}

func TestCountByStatus(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("Pending", int64(3)).
		AddRow("Processing", int64(2)).
		AddRow("Completed", int64(5))
	mock.ExpectQuery(`^SELECT\s+status,\s*COUNT\(\*\)\s+FROM\s+issues\s+GROUP\s+BY\s+status$`).WillReturnRows(rows)

	got, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCounts{Total: 10, Pending: 3, Processing: 2, Completed: 5}, got)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
