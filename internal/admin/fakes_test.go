package admin

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/urfave/cli/v2"

	"github.com/dmitrijs2005/kabyedict/internal/dbx"
	"github.com/dmitrijs2005/kabyedict/internal/server/models"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/entries"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/repomanager"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeRepo is an in-memory entries.Repository.
type fakeRepo struct {
	entries.Repository
	rows   map[int64]*models.Entry
	nextID int64

	insertErr  error
	resetCalls int
	cleared    bool
}

func newFakeRepo(rows ...*models.Entry) *fakeRepo {
	r := &fakeRepo{rows: map[int64]*models.Entry{}, nextID: 1}
	for _, e := range rows {
		r.rows[e.ID] = e
		if e.ID >= r.nextID {
			r.nextID = e.ID + 1
		}
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, e *models.Entry) error {
	e.ID = r.nextID
	r.nextID++
	r.rows[e.ID] = e
	return nil
}

func (r *fakeRepo) Insert(_ context.Context, e *models.Entry) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.rows[e.ID] = e
	return nil
}

func (r *fakeRepo) ExistsPair(_ context.Context, headword, translation string) (bool, error) {
	for _, e := range r.rows {
		if e.Headword == headword && e.Translation == translation {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) DeleteAll(context.Context) error {
	r.rows = map[int64]*models.Entry{}
	r.cleared = true
	return nil
}

func (r *fakeRepo) ResetSequence(context.Context) error {
	r.resetCalls++
	r.nextID = 1
	for id := range r.rows {
		if id >= r.nextID {
			r.nextID = id + 1
		}
	}
	return nil
}

func (r *fakeRepo) List(context.Context, entries.Criteria) ([]*models.Entry, error) {
	out := make([]*models.Entry, 0, len(r.rows))
	for _, e := range r.rows {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeManager struct {
	repo        *fakeRepo
	migrated    bool
	migrateErr  error
	schemaCalls int
}

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error {
	m.migrated = true
	return m.migrateErr
}

func (m *fakeManager) DetectSchema(context.Context, dbx.DBTX) (entries.Schema, error) {
	m.schemaCalls++
	return entries.Schema{Validation: true}, nil
}

func (m *fakeManager) Entries(dbx.DBTX) entries.Repository { return m.repo }

// newSQLMockDB returns a sqlmock database closed at the end of the test.
func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// stubSession points openDB and newManager at a sqlmock database and m.
func stubSession(t *testing.T, m *fakeManager) sqlmock.Sqlmock {
	t.Helper()
	db, mock := newSQLMockDB(t)

	oldOpen, oldManager := openDB, newManager
	openDB = func(string) (*sql.DB, error) { return db, nil }
	newManager = func(*sql.DB) (repomanager.RepositoryManager, error) { return m, nil }
	t.Cleanup(func() { openDB, newManager = oldOpen, oldManager })
	return mock
}

func stubTerminal(t *testing.T, isTerminal bool) {
	t.Helper()
	old := stdinIsTerminal
	stdinIsTerminal = func() bool { return isTerminal }
	t.Cleanup(func() { stdinIsTerminal = old })
}

// runApp runs dictctl with args and returns its outputs.
func runApp(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer

	app := NewApp()
	app.Reader = bytes.NewBufferString(stdin)
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.RunContext(context.Background(), append([]string{"dictctl"}, args...))
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
