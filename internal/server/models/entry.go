// Package models defines the dictionary entry record, its partial-update
// form and the reviewer validation overlay.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// DefaultContributor is recorded for entries submitted without a name.
const DefaultContributor = "Anonyme"

// Expression is an associated expression with its translation.
type Expression struct {
	Expression  string `json:"expression"`
	Translation string `json:"translation"`
}

// Validation is the reviewer-assigned state layered over an entry.
type Validation struct {
	Status      Status     `json:"status"`
	Notes       string     `json:"notes"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	// Reviewer is stored in the legacy reviewer column.
	Reviewer string `json:"reviewer"`
}

// Entry is one dictionary word record.
type Entry struct {
	ID                 int64        `json:"id"`
	Headword           string       `json:"headword"`
	Variants           []string     `json:"variants"`
	Phonetic           string       `json:"phonetic"`
	Translation        string       `json:"translation"`
	Senses             []string     `json:"senses"`
	Synonyms           []string     `json:"synonyms"`
	Category           string       `json:"category"`
	Subcategory        string       `json:"subcategory"`
	Etymology          string       `json:"etymology"`
	Example            string       `json:"example"`
	ExampleTranslation string       `json:"example_translation"`
	Expressions        []Expression `json:"expressions"`
	UsageNotes         string       `json:"usage_notes"`
	ImageURL           string       `json:"image_url"`
	ReviewerName       string       `json:"reviewer_name"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`

	// Validation is nil when the row was read from a table that predates
	// the validation columns.
	Validation *Validation `json:"-"`
}

// ValidationState returns the effective validation overlay. Rows without
// validation columns are reconstructed from the legacy reviewer field:
// a non-empty reviewer means validated, anything else pending.
func (e *Entry) ValidationState() Validation {
	if e.Validation == nil {
		status := StatusPending
		if strings.TrimSpace(e.ReviewerName) != "" {
			status = StatusValidated
		}
		return Validation{Status: status, Reviewer: e.ReviewerName}
	}

	v := *e.Validation
	if v.Status == "" {
		v.Status = StatusPending
	}
	if v.Reviewer == "" {
		v.Reviewer = e.ReviewerName
	}
	return v
}

// LastTouched is the most recent of the creation and modification times.
func (e *Entry) LastTouched() time.Time {
	if e.UpdatedAt.After(e.CreatedAt) {
		return e.UpdatedAt
	}
	return e.CreatedAt
}

// Normalize replaces nil list fields with empty slices so readers never
// see null lists.
func (e *Entry) Normalize() {
	if e.Variants == nil {
		e.Variants = []string{}
	}
	if e.Senses == nil {
		e.Senses = []string{}
	}
	if e.Synonyms == nil {
		e.Synonyms = []string{}
	}
	if e.Expressions == nil {
		e.Expressions = []Expression{}
	}
}

// MarshalJSON renders the entry with its effective validation state.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	e.Normalize()
	return json.Marshal(struct {
		plain
		Validation Validation `json:"validation"`
	}{
		plain:      plain(e),
		Validation: e.ValidationState(),
	})
}
