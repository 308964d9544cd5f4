package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/kabyedict/internal/common"
	"github.com/dmitrijs2005/kabyedict/internal/server/models"
	"github.com/dmitrijs2005/kabyedict/internal/server/query"
	"github.com/dmitrijs2005/kabyedict/internal/server/stats"
)

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	return m
}

func TestCreateEntry_JSON(t *testing.T) {
	es := &fakeEntries{}
	s := newTestServer(es, nil, nil)

	w := do(t, s, http.MethodPost, "/api/entries", "application/json",
		`{"headword":"ɛsɔ","translation":"Dieu","notes":{"x":1},"variants":["ɛssɔ"],"usage_notes":"l'eau & le feu, a < b"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, es.created, 1)
	f := es.created[0]
	assert.Equal(t, "ɛsɔ", *f.Headword)
	assert.Equal(t, []string{"ɛssɔ"}, *f.Variants)
	assert.Equal(t, "l'eau & le feu, a < b", *f.UsageNotes, "text is passed on unchanged")
	assert.Nil(t, f.Category)
	assert.Nil(t, es.createdImg[0])

	body := decode(t, w.Body.Bytes())
	assert.Equal(t, true, body["success"])
}

func TestCreateEntry_RefusesMarkup(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "angle bracket notation", body: `{"headword":"x <y: z","translation":"t"}`, field: `"headword"`},
		{name: "tag in list", body: `{"headword":"ɛsɔ","translation":"Dieu","variants":["ɛssɔ","<i>ɛsɔɔ</i>"]}`, field: `"variants[1]"`},
		{name: "nested expression", body: `{"headword":"a","translation":"b","expressions":[{"expression":"kʊ́ <kʊ>","translation":"c"}]}`, field: `"expressions[0].expression"`},
		{name: "escaped entity", body: `{"headword":"a","translation":"R&amp;D"}`, field: `"translation"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			es := &fakeEntries{}
			s := newTestServer(es, nil, nil)

			w := do(t, s, http.MethodPost, "/api/entries", "application/json", tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Empty(t, es.created, "nothing is stored")
			body := decode(t, w.Body.Bytes())
			assert.Contains(t, body["detail"], tt.field)
		})
	}
}

func TestCreateEntry_Multipart(t *testing.T) {
	es := &fakeEntries{}
	s := newTestServer(es, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("mot_kabye", " kpaɣ "))
	require.NoError(t, mw.WriteField("traduction_francaise", "fort"))
	require.NoError(t, mw.WriteField("variantes_orthographiques", "kpaɣɣ, , kpaa"))
	require.NoError(t, mw.WriteField("sens_multiple", "solide; robuste"))
	require.NoError(t, mw.WriteField("expressions_associees", "kpaɣ təə: très fort\nsans deux points"))
	fw, err := mw.CreateFormFile("image", "kpa.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := do(t, s, http.MethodPost, "/api/entries", mw.FormDataContentType(), buf.String())

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	f := es.created[0]
	assert.Equal(t, " kpaɣ ", *f.Headword, "trimming happens in the merge")
	assert.Equal(t, []string{"kpaɣɣ", "kpaa"}, *f.Variants)
	assert.Equal(t, []string{"solide", "robuste"}, *f.Senses)
	assert.Equal(t, []models.Expression{{Expression: "kpaɣ təə", Translation: "très fort"}}, *f.Expressions)
	assert.Nil(t, f.Synonyms, "absent form fields stay unset")
	require.NotNil(t, es.createdImg[0])
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), es.createdImg[0].Data)
}

func TestCreateEntry_MultipartRefusesMarkup(t *testing.T) {
	es := &fakeEntries{}
	s := newTestServer(es, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("mot_kabye", "kʊ́"))
	require.NoError(t, mw.WriteField("traduction_francaise", "x <y: z"))
	require.NoError(t, mw.Close())

	w := do(t, s, http.MethodPost, "/api/entries", mw.FormDataContentType(), buf.String())

	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Empty(t, es.created)
	assert.Contains(t, decode(t, w.Body.Bytes())["detail"], `"traduction_francaise"`)
}

func TestCreateEntry_BodyLimit(t *testing.T) {
	es := &fakeEntries{}
	s := NewHTTPServer("127.0.0.1:0", nil, es, &fakeValidation{}, &fakeStatistics{}, Options{MaxImageSize: 1 << 10})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("mot_kabye", "a"))
	require.NoError(t, mw.WriteField("traduction_francaise", "b"))
	fw, err := mw.CreateFormFile("image", "big.png")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte{0}, maxFormMemory+2<<10))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	t.Run("declared length", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/entries", mw.FormDataContentType(), buf.String())
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("streamed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/entries", io.NopCloser(bytes.NewReader(buf.Bytes())))
		req.ContentLength = -1
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := serve(s, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	assert.Empty(t, es.created)
}

func TestCreateEntry_MalformedJSON(t *testing.T) {
	s := newTestServer(nil, nil, nil)
	w := do(t, s, http.MethodPost, "/api/entries", "application/json", `{"headword":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("x: %w", common.ErrorValidation), http.StatusBadRequest},
		{fmt.Errorf("x: %w", common.ErrorDuplicate), http.StatusConflict},
		{fmt.Errorf("x: %w", common.ErrorNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", common.ErrorUnauthorized), http.StatusForbidden},
		{fmt.Errorf("x: %w", common.ErrorStorage), http.StatusBadGateway},
		{fmt.Errorf("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			s := newTestServer(&fakeEntries{err: tt.err}, nil, nil)
			w := do(t, s, http.MethodPost, "/api/entries", "application/json", `{"headword":"a","translation":"b"}`)
			assert.Equal(t, tt.code, w.Code)

			body := decode(t, w.Body.Bytes())
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestUpdateEntry(t *testing.T) {
	es := &fakeEntries{}
	s := newTestServer(es, nil, nil)

	w := do(t, s, http.MethodPut, "/api/entries/12", "application/json", `{"translation":"pierre","remove_image":true}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(12), es.updatedID)
	assert.True(t, es.removeImage)
	assert.Nil(t, es.updated.Headword)
	assert.Equal(t, "pierre", *es.updated.Translation)
}

func TestDeleteAndGetEntry(t *testing.T) {
	es := &fakeEntries{entries: []*models.Entry{{ID: 3, Headword: "sɔɔ", Translation: "pierre"}}}
	s := newTestServer(es, nil, nil)

	w := do(t, s, http.MethodGet, "/api/entries/3", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w.Body.Bytes())
	assert.Equal(t, "sɔɔ", body["headword"])
	assert.Equal(t, []any{}, body["variants"])

	w = do(t, s, http.MethodGet, "/api/entries/4", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/api/entries/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodDelete, "/api/entries/3", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{3}, es.deleted)
}

func TestListEntries_Parameters(t *testing.T) {
	es := &fakeEntries{}
	s := newTestServer(es, nil, nil)

	w := do(t, s, http.MethodGet, "/api/entries?q=fort&champ=francais&initiale=KP&statut=valide", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, query.Filter{Search: "fort", Scope: query.ScopeTranslation, Letter: "kp", Status: models.StatusValidated}, es.filter)

	body := decode(t, w.Body.Bytes())
	assert.Equal(t, []any{}, body["entries"])
	assert.Equal(t, float64(0), body["total"])

	w = do(t, s, http.MethodGet, "/api/entries?scope=everything", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/entries?status=archived", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	es.filter = query.Filter{}
	w = do(t, s, http.MethodGet, "/api/entries?letter=x", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w.Body.Bytes())["detail"], `unknown letter "x"`)
	assert.Equal(t, query.Filter{}, es.filter, "service not called")

	w = do(t, s, http.MethodGet, "/api/entries?status=tous&order=alphabetical", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, query.Filter{Scope: query.ScopeAll, Order: query.OrderAlphabetical}, es.filter)
}

func TestValidateEntry(t *testing.T) {
	vs := &fakeValidation{}
	s := newTestServer(nil, vs, nil)

	w := do(t, s, http.MethodPost, "/api/review/entries/5", "application/json",
		`{"reviewer":"Benjamin","status":"rejete","notes":"too informal","changes":{"category":"nom"}}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(5), vs.id)
	assert.Equal(t, "Benjamin", vs.req.Reviewer)
	assert.Equal(t, models.StatusRejected, vs.req.Status)
	assert.Equal(t, "too informal", vs.req.Notes)
	assert.Equal(t, "nom", *vs.req.Overrides.Category)

	w = do(t, s, http.MethodPost, "/api/review/entries/5", "application/json", `{"reviewer":"Benjamin","status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	vs.err = common.ErrorUnauthorized
	w = do(t, s, http.MethodPost, "/api/review/entries/5", "application/json", `{"reviewer":"Mallory"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReviewQueueAndSummary(t *testing.T) {
	vs := &fakeValidation{summary: stats.StatusSummary{Total: 4, Validated: 1, Pending: 3, PercentValidated: 25}}
	s := newTestServer(nil, vs, nil)

	w := do(t, s, http.MethodGet, "/api/review/entries?validateur=Expert&lettre=%C9%96&statut=en_attente", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Expert", vs.reviewer)
	assert.Equal(t, query.Scope(""), vs.filter.Scope, "the service picks the review scope")
	assert.Equal(t, "ɖ", vs.filter.Letter)
	assert.Equal(t, models.StatusPending, vs.filter.Status)

	w = do(t, s, http.MethodGet, "/api/review/summary", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w.Body.Bytes())
	assert.Equal(t, float64(25), body["percent_validated"])

	w = do(t, s, http.MethodGet, "/api/review/reviewers", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w.Body.Bytes())["reviewers"], 3)
}

func TestHealthAlphabetAndStats(t *testing.T) {
	es := &fakeEntries{count: 42}
	ss := &fakeStatistics{report: stats.Compute([]*models.Entry{{ReviewerName: "A"}})}
	s := newTestServer(es, nil, ss)

	w := do(t, s, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w.Body.Bytes())
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(42), body["total_entries"])

	w = do(t, s, http.MethodGet, "/api/alphabet", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w.Body.Bytes())["letters"], "kp")

	w = do(t, s, http.MethodGet, "/api/stats", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"A"}, decode(t, w.Body.Bytes())["contributors"])

	es.err = fmt.Errorf("db down")
	w = do(t, s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
