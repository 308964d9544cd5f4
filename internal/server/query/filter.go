// Package query builds filtered and ordered views over dictionary entries.
package query

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/dmitrijs2005/kabyedict/internal/server/models"
)

// Scope selects which fields a search term is matched against.
type Scope string

const (
	ScopeAll         Scope = "all"
	ScopeHeadword    Scope = "headword"
	ScopeTranslation Scope = "translation"
	// ScopeReview matches the fields shown on the review screen.
	ScopeReview Scope = "review"
)

var scopeAliases = map[string]Scope{
	"":            ScopeAll,
	"all":         ScopeAll,
	"tous":        ScopeAll,
	"headword":    ScopeHeadword,
	"kabye":       ScopeHeadword,
	"translation": ScopeTranslation,
	"francais":    ScopeTranslation,
	"review":      ScopeReview,
}

// ParseScope accepts the API names and the French names used by the
// original web form.
func ParseScope(s string) (Scope, bool) {
	scope, ok := scopeAliases[strings.ToLower(strings.TrimSpace(s))]
	return scope, ok
}

// Order is the ordering of a result list.
type Order int

const (
	// OrderRecent sorts by last modification or creation, newest first.
	OrderRecent Order = iota
	// OrderAlphabetical sorts by headword, then creation time.
	OrderAlphabetical
)

// Filter narrows a list of entries. Every unset field is a no-op and set
// fields combine with AND.
type Filter struct {
	Search string
	Scope  Scope
	// Letter is an Alphabet letter. Unknown letters are ignored.
	Letter string
	// Status is empty for any status.
	Status models.Status
	Order  Order
}

// Apply returns the entries matching f in f's order. The input slice is not
// modified; ties keep their input order.
func Apply(entries []*models.Entry, f Filter) []*models.Entry {
	m := newMatcher(f)

	out := make([]*models.Entry, 0, len(entries))
	for _, e := range entries {
		if m.match(e) {
			out = append(out, e)
		}
	}

	switch f.Order {
	case OrderAlphabetical:
		keys := make(map[*models.Entry]string, len(out))
		for _, e := range out {
			keys[e] = m.fold(e.Headword)
		}
		sort.SliceStable(out, func(i, j int) bool {
			ki, kj := keys[out[i]], keys[out[j]]
			if ki != kj {
				return ki < kj
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].LastTouched().After(out[j].LastTouched())
		})
	}
	return out
}

type matcher struct {
	caser  cases.Caser
	term   string
	scope  Scope
	letter string
	status models.Status
}

func newMatcher(f Filter) *matcher {
	m := &matcher{caser: cases.Fold(), scope: f.Scope, status: f.Status}
	m.term = m.fold(strings.TrimSpace(f.Search))
	if l, ok := LookupLetter(f.Letter); ok {
		m.letter = l
	}
	if m.scope == "" {
		m.scope = ScopeAll
	}
	return m
}

func (m *matcher) fold(s string) string {
	return norm.NFC.String(m.caser.String(s))
}

func (m *matcher) match(e *models.Entry) bool {
	if m.letter != "" && !startsWithLetter(m.fold(strings.TrimSpace(e.Headword)), m.letter) {
		return false
	}
	if m.status != "" && e.ValidationState().Status != m.status {
		return false
	}
	if m.term == "" {
		return true
	}
	return m.matchTerm(e)
}

// matchTerm checks fields in order and stops at the first hit.
func (m *matcher) matchTerm(e *models.Entry) bool {
	switch m.scope {
	case ScopeHeadword:
		return m.headwordSide(e)
	case ScopeTranslation:
		return m.translationSide(e)
	case ScopeReview:
		return m.contains(e.Headword) || m.contains(e.Translation) ||
			m.contains(e.Example) || m.contains(e.Phonetic)
	default:
		return m.headwordSide(e) || m.translationSide(e) ||
			m.any(e.Synonyms) || m.contains(e.Category) ||
			m.contains(e.Subcategory) || m.contains(e.UsageNotes)
	}
}

func (m *matcher) headwordSide(e *models.Entry) bool {
	return m.contains(e.Headword) || m.any(e.Variants)
}

func (m *matcher) translationSide(e *models.Entry) bool {
	return m.contains(e.Translation) || m.any(e.Senses)
}

func (m *matcher) contains(s string) bool {
	return s != "" && strings.Contains(m.fold(s), m.term)
}

func (m *matcher) any(items []string) bool {
	for _, s := range items {
		if m.contains(s) {
			return true
		}
	}
	return false
}
