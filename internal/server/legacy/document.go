// Package legacy reads the JSON files written by the file-backed version of
// the dictionary and converts their records into entries.
package legacy

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/dmitrijs2005/kabyedict/internal/common"
	"github.com/dmitrijs2005/kabyedict/internal/server/codec"
	"github.com/dmitrijs2005/kabyedict/internal/server/models"
)

// DateLayout is the timestamp format of the file store.
const DateLayout = "2006-01-02 15:04:05"

// DefaultReviewer is recorded when a word has no verifie_par key.
const DefaultReviewer = models.DefaultContributor

// Document is a file store: {"mots": [...], "prochain_id": n}.
type Document struct {
	Words  []Word `json:"mots"`
	NextID int64  `json:"prochain_id"`
}

// Word is one record of the file store. List fields hold whatever the file
// contains (an array, a JSON string or plain text) and go through the list
// codec.
type Word struct {
	ID                 int64           `json:"id"`
	Headword           string          `json:"mot_kabye"`
	Variants           json.RawMessage `json:"variantes_orthographiques"`
	Phonetic           string          `json:"api"`
	Translation        string          `json:"traduction_francaise"`
	Senses             json.RawMessage `json:"sens_multiple"`
	Synonyms           json.RawMessage `json:"synonymes"`
	Category           string          `json:"categorie_grammaticale"`
	Subcategory        string          `json:"sous_categorie"`
	Etymology          string          `json:"origine_mot"`
	Example            string          `json:"exemple_usage"`
	ExampleTranslation string          `json:"traduction_exemple"`
	Expressions        json.RawMessage `json:"expressions_associees"`
	UsageNotes         string          `json:"notes_usage"`
	ImageURL           string          `json:"image_url"`
	ReviewerName       *string         `json:"verifie_par"`
	CreatedAt          string          `json:"date_ajout"`
	UpdatedAt          string          `json:"date_modification"`

	// Present in merged validation exports only.
	Status          string `json:"statut_validation"`
	ValidationNotes string `json:"notes_validation"`
	ValidatedAt     string `json:"date_validation"`
}

// Read decodes a file store. A bare array of words, as produced by the
// validation merge, is accepted too.
func Read(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	doc := &Document{}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &doc.Words)
	} else {
		err = json.Unmarshal(trimmed, doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorMalformedData, err)
	}
	return doc, nil
}

// ToEntry converts w. Missing or unreadable dates fall back to now.
func (w Word) ToEntry(now time.Time) *models.Entry {
	e := &models.Entry{
		ID:                 w.ID,
		Headword:           strings.TrimSpace(w.Headword),
		Variants:           decodeList(w.Variants),
		Phonetic:           strings.TrimSpace(w.Phonetic),
		Translation:        strings.TrimSpace(w.Translation),
		Senses:             decodeList(w.Senses),
		Synonyms:           decodeList(w.Synonyms),
		Category:           strings.TrimSpace(w.Category),
		Subcategory:        strings.TrimSpace(w.Subcategory),
		Etymology:          strings.TrimSpace(w.Etymology),
		Example:            strings.TrimSpace(w.Example),
		ExampleTranslation: strings.TrimSpace(w.ExampleTranslation),
		Expressions:        codec.DecodeExpressions(rawColumn(w.Expressions)),
		UsageNotes:         strings.TrimSpace(w.UsageNotes),
		ImageURL:           strings.TrimSpace(w.ImageURL),
		ReviewerName:       DefaultReviewer,
		CreatedAt:          parseDate(w.CreatedAt, now),
		UpdatedAt:          parseDate(w.UpdatedAt, now),
	}
	if w.ReviewerName != nil {
		e.ReviewerName = strings.TrimSpace(*w.ReviewerName)
	}

	v := &models.Validation{Status: models.StatusPending, Notes: strings.TrimSpace(w.ValidationNotes)}
	if st, ok := models.ParseStatus(w.Status); ok {
		v.Status = st
	}
	if at, ok := ParseDate(w.ValidatedAt); ok {
		v.ValidatedAt = &at
	}
	e.Validation = v
	return e
}

func decodeList(raw json.RawMessage) []string {
	return codec.DecodeList(rawColumn(raw))
}

// rawColumn turns a JSON value into the text a column would hold: strings
// are unquoted, arrays and objects are kept as JSON.
func rawColumn(raw json.RawMessage) sql.NullString {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return sql.NullString{}
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return sql.NullString{String: s, Valid: s != ""}
		}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

// ParseDate reads the file store layout and, failing that, any common
// date format. Blank values are not dates.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(DateLayout, s, time.UTC); err == nil {
		return t, true
	}
	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func parseDate(s string, fallback time.Time) time.Time {
	if t, ok := ParseDate(s); ok {
		return t
	}
	return fallback
}
