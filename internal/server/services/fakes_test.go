package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/kabyedict/internal/common"
	"github.com/dmitrijs2005/kabyedict/internal/dbx"
	"github.com/dmitrijs2005/kabyedict/internal/server/config"
	"github.com/dmitrijs2005/kabyedict/internal/server/models"
	"github.com/dmitrijs2005/kabyedict/internal/server/query"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/entries"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/repomanager"
)

// -------- test fakes --------

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeEntriesRepo is an in-memory entries.Repository.
type fakeEntriesRepo struct {
	entries.Repository
	rows   map[int64]*models.Entry
	nextID int64

	// legacy simulates a table without validation columns.
	legacy bool

	createErr error
	updateErr error
	listErr   error

	listCriteria []entries.Criteria
	deleted      []int64
}

func newFakeEntriesRepo(rows ...*models.Entry) *fakeEntriesRepo {
	f := &fakeEntriesRepo{rows: map[int64]*models.Entry{}, nextID: 1}
	for _, e := range rows {
		f.rows[e.ID] = clone(e)
		if e.ID >= f.nextID {
			f.nextID = e.ID + 1
		}
	}
	return f
}

func clone(e *models.Entry) *models.Entry {
	c := *e
	if e.Validation != nil {
		v := *e.Validation
		c.Validation = &v
	}
	return &c
}

func (f *fakeEntriesRepo) Create(ctx context.Context, e *models.Entry) error {
	if f.createErr != nil {
		return f.createErr
	}
	e.ID = f.nextID
	f.nextID++
	f.rows[e.ID] = clone(e)
	return nil
}

func (f *fakeEntriesRepo) Update(ctx context.Context, e *models.Entry) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.rows[e.ID]; !ok {
		return fmt.Errorf("entry %d: %w", e.ID, common.ErrorNotFound)
	}
	f.rows[e.ID] = clone(e)
	return nil
}

func (f *fakeEntriesRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return fmt.Errorf("entry %d: %w", id, common.ErrorNotFound)
	}
	delete(f.rows, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeEntriesRepo) GetByID(ctx context.Context, id int64) (*models.Entry, error) {
	e, ok := f.rows[id]
	if !ok {
		return nil, fmt.Errorf("entry %d: %w", id, common.ErrorNotFound)
	}
	return clone(e), nil
}

func (f *fakeEntriesRepo) ExistsHeadword(ctx context.Context, headword string, excludeID int64) (bool, error) {
	for id, e := range f.rows {
		if id != excludeID && query.Key(e.Headword) == query.Key(headword) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEntriesRepo) List(ctx context.Context, c entries.Criteria) ([]*models.Entry, error) {
	f.listCriteria = append(f.listCriteria, c)
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Entry, 0, len(f.rows))
	for id := int64(1); id < f.nextID; id++ {
		if e, ok := f.rows[id]; ok {
			out = append(out, clone(e))
		}
	}
	return out, nil
}

func (f *fakeEntriesRepo) Schema() entries.Schema {
	return entries.Schema{Validation: !f.legacy}
}

func (f *fakeEntriesRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.rows)), nil
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	e *fakeEntriesRepo
}

func (m *fakeRepoManager) Entries(db dbx.DBTX) entries.Repository { return m.e }

// fakeImageStore records calls and hands out sequential URLs.
type fakeImageStore struct {
	uploadErr error
	deleteErr error

	uploads []string
	deletes []string
}

func (f *fakeImageStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	url := fmt.Sprintf("https://img.example/%d%s", len(f.uploads)+1, map[string]string{
		"image/png": ".png", "image/gif": ".gif",
	}[contentType])
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeImageStore) Delete(ctx context.Context, url string) error {
	f.deletes = append(f.deletes, url)
	return f.deleteErr
}

// -------- helpers --------

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	orig := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = orig })
}
