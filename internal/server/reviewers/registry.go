// Package reviewers holds the allow-list of people who may review entries.
// Identity is the reviewer name as sent by the client; there is no
// credential check.
package reviewers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/kabyedict/internal/common"
)

// Reviewer is one allow-list row.
type Reviewer struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}

const (
	RoleExpert    = "expert"
	RoleValidator = "validateur"
)

// Defaults is the allow-list used when the configuration does not supply one.
func Defaults() []Reviewer {
	return []Reviewer{
		{Name: "Benjamin", Role: RoleExpert, FullName: "Benjamin Officiel"},
		{Name: "Expert", Role: RoleExpert, FullName: "Expert Kabyè"},
		{Name: "Test", Role: RoleValidator, FullName: "Testeur"},
	}
}

// Registry answers allow-list lookups. The zero value rejects everyone.
type Registry struct {
	byName map[string]Reviewer
}

// NewRegistry builds a registry from rows. Names are matched exactly after
// trimming surrounding spaces; later rows replace earlier rows with the same
// name.
func NewRegistry(rows []Reviewer) *Registry {
	r := &Registry{byName: make(map[string]Reviewer, len(rows))}
	for _, row := range rows {
		row.Name = strings.TrimSpace(row.Name)
		if row.Name == "" {
			continue
		}
		r.byName[row.Name] = row
	}
	return r
}

// Lookup returns the reviewer registered under name.
func (r *Registry) Lookup(name string) (Reviewer, bool) {
	if r == nil {
		return Reviewer{}, false
	}
	rev, ok := r.byName[strings.TrimSpace(name)]
	return rev, ok
}

// Authorize checks name against the allow-list. A non-empty role must also
// match the registered role.
func (r *Registry) Authorize(name, role string) (Reviewer, error) {
	rev, ok := r.Lookup(name)
	if !ok {
		return Reviewer{}, fmt.Errorf("%w: reviewer %q is not allowed", common.ErrorUnauthorized, name)
	}
	if role != "" && rev.Role != role {
		return Reviewer{}, fmt.Errorf("%w: reviewer %q does not have role %q", common.ErrorUnauthorized, name, role)
	}
	return rev, nil
}

// All returns the registered reviewers sorted by name.
func (r *Registry) All() []Reviewer {
	if r == nil {
		return nil
	}
	out := make([]Reviewer, 0, len(r.byName))
	for _, rev := range r.byName {
		out = append(out, rev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
