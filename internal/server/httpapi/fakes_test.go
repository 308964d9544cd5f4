package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/kabyedict/internal/common"
	"github.com/dmitrijs2005/kabyedict/internal/server/models"
	"github.com/dmitrijs2005/kabyedict/internal/server/query"
	"github.com/dmitrijs2005/kabyedict/internal/server/reviewers"
	"github.com/dmitrijs2005/kabyedict/internal/server/services"
	"github.com/dmitrijs2005/kabyedict/internal/server/stats"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEntries struct {
	err error

	created     []models.EntryFields
	createdImg  []*services.Image
	updatedID   int64
	updated     models.EntryFields
	removeImage bool
	deleted     []int64
	filter      query.Filter

	entries []*models.Entry
	count   int64
}

func (f *fakeEntries) Create(ctx context.Context, fields models.EntryFields, img *services.Image) (*models.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, fields)
	f.createdImg = append(f.createdImg, img)
	e := &models.Entry{ID: 1}
	fields.ApplyTo(e)
	return e, nil
}

func (f *fakeEntries) Update(ctx context.Context, id int64, fields models.EntryFields, img *services.Image, removeImage bool) (*models.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updatedID, f.updated, f.removeImage = id, fields, removeImage
	e := &models.Entry{ID: id}
	fields.ApplyTo(e)
	return e, nil
}

func (f *fakeEntries) Delete(ctx context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeEntries) Get(ctx context.Context, id int64) (*models.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("entry %d: %w", id, common.ErrorNotFound)
}

func (f *fakeEntries) List(ctx context.Context, fl query.Filter) ([]*models.Entry, error) {
	f.filter = fl
	return f.entries, f.err
}

func (f *fakeEntries) Count(ctx context.Context) (int64, error) {
	return f.count, f.err
}

type fakeValidation struct {
	err error

	id       int64
	req      services.ValidateRequest
	reviewer string
	filter   query.Filter
	summary  stats.StatusSummary
}

func (f *fakeValidation) Validate(ctx context.Context, id int64, req services.ValidateRequest) (*models.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.id, f.req = id, req
	return &models.Entry{ID: id, Validation: &models.Validation{Status: req.Status, Reviewer: req.Reviewer}}, nil
}

func (f *fakeValidation) Queue(ctx context.Context, reviewer string, fl query.Filter) ([]*models.Entry, error) {
	f.reviewer, f.filter = reviewer, fl
	return nil, f.err
}

func (f *fakeValidation) Summary(ctx context.Context) (stats.StatusSummary, error) {
	return f.summary, f.err
}

func (f *fakeValidation) Reviewers() []reviewers.Reviewer {
	return reviewers.Defaults()
}

type fakeStatistics struct {
	report stats.Report
	err    error
}

func (f *fakeStatistics) Report(ctx context.Context) (stats.Report, error) {
	return f.report, f.err
}

func newTestServer(es *fakeEntries, vs *fakeValidation, ss *fakeStatistics) *HTTPServer {
	if es == nil {
		es = &fakeEntries{}
	}
	if vs == nil {
		vs = &fakeValidation{}
	}
	if ss == nil {
		ss = &fakeStatistics{}
	}
	s := NewHTTPServer("127.0.0.1:0", nil, es, vs, ss, Options{CORSOrigins: []string{"*"}})
	s.now = func() time.Time { return time.Date(2025, 5, 1, 20, 0, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *HTTPServer, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func serve(s *HTTPServer, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}
