package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/kabyedict/internal/common"
)

// EntryFields is a partial set of content fields. A nil field is left
// unchanged by ApplyTo; a non-nil field replaces the current value.
type EntryFields struct {
	Headword           *string
	Variants           *[]string
	Phonetic           *string
	Translation        *string
	Senses             *[]string
	Synonyms           *[]string
	Category           *string
	Subcategory        *string
	Etymology          *string
	Example            *string
	ExampleTranslation *string
	Expressions        *[]Expression
	UsageNotes         *string
	ImageURL           *string
	ReviewerName       *string
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// IsEmpty reports whether no field is set.
func (f EntryFields) IsEmpty() bool {
	return f == EntryFields{}
}

// ApplyTo merges the supplied fields over e. Strings are trimmed, list
// items are trimmed and blank items dropped.
func (f EntryFields) ApplyTo(e *Entry) {
	setString(&e.Headword, f.Headword)
	setString(&e.Phonetic, f.Phonetic)
	setString(&e.Translation, f.Translation)
	setString(&e.Category, f.Category)
	setString(&e.Subcategory, f.Subcategory)
	setString(&e.Etymology, f.Etymology)
	setString(&e.Example, f.Example)
	setString(&e.ExampleTranslation, f.ExampleTranslation)
	setString(&e.UsageNotes, f.UsageNotes)
	setString(&e.ImageURL, f.ImageURL)
	setString(&e.ReviewerName, f.ReviewerName)

	if f.Variants != nil {
		e.Variants = CleanList(*f.Variants)
	}
	if f.Senses != nil {
		e.Senses = CleanList(*f.Senses)
	}
	if f.Synonyms != nil {
		e.Synonyms = CleanList(*f.Synonyms)
	}
	if f.Expressions != nil {
		e.Expressions = CleanExpressions(*f.Expressions)
	}
	e.Normalize()
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// CleanList trims items and drops blank ones, keeping order and duplicates.
func CleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// CleanExpressions trims both sides and drops pairs without an expression.
func CleanExpressions(items []Expression) []Expression {
	out := make([]Expression, 0, len(items))
	for _, item := range items {
		item.Expression = strings.TrimSpace(item.Expression)
		item.Translation = strings.TrimSpace(item.Translation)
		if item.Expression != "" {
			out = append(out, item)
		}
	}
	return out
}

// CheckRequired verifies that the headword and the primary translation are
// present.
func CheckRequired(e *Entry) error {
	if strings.TrimSpace(e.Headword) == "" {
		return fmt.Errorf("%w: headword is required", common.ErrorValidation)
	}
	if strings.TrimSpace(e.Translation) == "" {
		return fmt.Errorf("%w: translation is required", common.ErrorValidation)
	}
	return nil
}
