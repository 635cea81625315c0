package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/cityfix/internal/common"
	"github.com/dmitrijs2005/cityfix/internal/dbx"
	"github.com/dmitrijs2005/cityfix/internal/logging"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
	"github.com/dmitrijs2005/cityfix/internal/server/repositories/issues"
	"github.com/dmitrijs2005/cityfix/internal/server/repositories/statusupdates"
	"github.com/dmitrijs2005/cityfix/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func strPtr(s string) *string { return &s }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
}

// Now advances one second per call so records get distinct timestamps.
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// --- users ---

type fakeUsersRepo struct {
	byID    map[string]*models.User
	findErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, common.ErrConflict
		}
	}
	cp := *u
	cp.CreatedAt = time.Now()
	f.byID[u.ID] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

// --- issues ---

type fakeIssuesRepo struct {
	users *fakeUsersRepo
	items map[string]*models.Issue

	insertErr error
	updateErr error
	countErr  error

	lastFilter models.IssueFilter
	lastLimit  int
	lastOffset int
}

func (f *fakeIssuesRepo) Insert(ctx context.Context, issue *models.Issue) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	cp := *issue
	f.items[issue.ID] = &cp
	return nil
}

func (f *fakeIssuesRepo) get(id string) (*models.Issue, error) {
	i, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *i
	return &cp, nil
}

func (f *fakeIssuesRepo) Get(ctx context.Context, id string) (*models.Issue, error) {
	issue, err := f.get(id)
	if err != nil {
		return nil, err
	}
	if u, ok := f.users.byID[issue.OwnerID]; ok {
		issue.ReporterName, issue.ReporterEmail = u.Name, u.Email
	}
	return issue, nil
}

func (f *fakeIssuesRepo) GetForUpdate(ctx context.Context, id string) (*models.Issue, error) {
	return f.get(id)
}

func (f *fakeIssuesRepo) Update(ctx context.Context, issue *models.Issue) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.items[issue.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *issue
	f.items[issue.ID] = &cp
	return nil
}

func (f *fakeIssuesRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeIssuesRepo) List(ctx context.Context, filter models.IssueFilter, limit, offset int) ([]*models.Issue, error) {
	f.lastFilter, f.lastLimit, f.lastOffset = filter, limit, offset

	var out []*models.Issue
	for _, i := range f.items {
		cp := *i
		out = append(out, &cp)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if offset >= len(out) {
		return []*models.Issue{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeIssuesRepo) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	if f.countErr != nil {
		return models.StatusCounts{}, f.countErr
	}
	var c models.StatusCounts
	for _, i := range f.items {
		c.Total++
		switch i.Status {
		case models.StatusPending:
			c.Pending++
		case models.StatusProcessing:
			c.Processing++
		case models.StatusCompleted:
			c.Completed++
		}
	}
	return c, nil
}

// --- status updates ---

type fakeUpdatesRepo struct {
	items     []*models.StatusUpdate
	appendErr error
}

func (f *fakeUpdatesRepo) Append(ctx context.Context, u *models.StatusUpdate) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	cp := *u
	f.items = append(f.items, &cp)
	return nil
}

func (f *fakeUpdatesRepo) ListByIssue(ctx context.Context, issueID string) ([]*models.StatusUpdate, error) {
	out := []*models.StatusUpdate{}
	for _, u := range f.items {
		if u.IssueID == issueID {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeUpdatesRepo) DeleteByIssue(ctx context.Context, issueID string) (int64, error) {
	var (
		kept []*models.StatusUpdate
		n    int64
	)
	for _, u := range f.items {
		if u.IssueID == issueID {
			n++
			continue
		}
		kept = append(kept, u)
	}
	f.items = kept
	return n, nil
}

// --- manager ---

type fakeRepoManager struct {
	users   *fakeUsersRepo
	issues  *fakeIssuesRepo
	updates *fakeUpdatesRepo

	// handles records whether mutating repositories were bound to a transaction.
	handles []dbx.DBTX
}

func newFakeRepoManager() *fakeRepoManager {
	u := newFakeUsersRepo()
	return &fakeRepoManager{
		users:   u,
		issues:  &fakeIssuesRepo{users: u, items: map[string]*models.Issue{}},
		updates: &fakeUpdatesRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository          { return m.users }

func (m *fakeRepoManager) Issues(db dbx.DBTX) issues.Repository {
	m.handles = append(m.handles, db)
	return m.issues
}

func (m *fakeRepoManager) StatusUpdates(db dbx.DBTX) statusupdates.Repository {
	m.handles = append(m.handles, db)
	return m.updates
}

func (m *fakeRepoManager) txHandles() int {
	n := 0
	for _, h := range m.handles {
		if _, ok := h.(*sql.Tx); ok {
			n++
		}
	}
	return n
}

// --- logger ---

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, logEntry{level: level, msg: msg})
}

func (l *recordingLogger) Debug(ctx context.Context, msg string, args ...any) { l.add("debug", msg) }
func (l *recordingLogger) Info(ctx context.Context, msg string, args ...any)  { l.add("info", msg) }
func (l *recordingLogger) Warn(ctx context.Context, msg string, args ...any)  { l.add("warn", msg) }
func (l *recordingLogger) Error(ctx context.Context, msg string, args ...any) { l.add("error", msg) }
func (l *recordingLogger) With(args ...any) logging.Logger                    { return l }

func (l *recordingLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range *l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}
