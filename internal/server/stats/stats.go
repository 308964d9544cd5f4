// Package stats derives contribution statistics from the entry collection.
// Nothing here is persisted; reports are recomputed on every call.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/kabyedict/internal/server/models"
)

const (
	// UnknownContributor groups entries without a reviewer name.
	UnknownContributor = "Non spécifié"
	// UnknownCategory groups entries without a grammatical category.
	UnknownCategory = "Non spécifiée"

	// ActiveThreshold is the entry count from which a contributor is active.
	ActiveThreshold = 5

	monthLayout = "2006-01"
)

// MonthCount is one step of a contributor timeline.
type MonthCount struct {
	Month      string `json:"month"`
	New        int    `json:"new"`
	Cumulative int    `json:"cumulative"`
}

// Contributor aggregates the entries attributed to one reviewer name.
type Contributor struct {
	Total        int            `json:"total"`
	ByMonth      map[string]int `json:"by_month"`
	LastActivity *time.Time     `json:"last_activity,omitempty"`
	Categories   map[string]int `json:"categories"`
	Timeline     []MonthCount   `json:"timeline"`
}

// Global holds collection-wide totals.
type Global struct {
	Entries            int     `json:"entries"`
	Contributors       int     `json:"contributors"`
	MeanPerContributor float64 `json:"mean_per_contributor"`
	ActiveContributors int     `json:"active_contributors"`
}

// Report is the full statistics view.
type Report struct {
	ByContributor map[string]*Contributor `json:"by_contributor"`
	Global        Global                  `json:"global"`
}

// Compute groups entries by the legacy reviewer field and derives per-month
// and cumulative counts from creation times.
func Compute(entries []*models.Entry) Report {
	by := make(map[string]*Contributor)

	for _, e := range entries {
		name := labelOr(e.ReviewerName, UnknownContributor)
		c, ok := by[name]
		if !ok {
			c = &Contributor{ByMonth: map[string]int{}, Categories: map[string]int{}, Timeline: []MonthCount{}}
			by[name] = c
		}

		c.Total++
		c.Categories[labelOr(e.Category, UnknownCategory)]++

		if e.CreatedAt.IsZero() {
			continue
		}
		c.ByMonth[e.CreatedAt.Format(monthLayout)]++
		if c.LastActivity == nil || e.CreatedAt.After(*c.LastActivity) {
			at := e.CreatedAt
			c.LastActivity = &at
		}
	}

	g := Global{Entries: len(entries), Contributors: len(by)}
	for _, c := range by {
		c.Timeline = timeline(c.ByMonth)
		if c.Total >= ActiveThreshold {
			g.ActiveContributors++
		}
	}
	if g.Contributors > 0 {
		g.MeanPerContributor = float64(g.Entries) / float64(g.Contributors)
	}

	return Report{ByContributor: by, Global: g}
}

func timeline(byMonth map[string]int) []MonthCount {
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]MonthCount, 0, len(months))
	total := 0
	for _, m := range months {
		total += byMonth[m]
		out = append(out, MonthCount{Month: m, New: byMonth[m], Cumulative: total})
	}
	return out
}

func labelOr(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}

// Contributors returns the contributor names of r, largest total first and
// then by name.
func (r Report) Contributors() []string {
	names := make([]string, 0, len(r.ByContributor))
	for n := range r.ByContributor {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		ti, tj := r.ByContributor[names[i]].Total, r.ByContributor[names[j]].Total
		if ti != tj {
			return ti > tj
		}
		return names[i] < names[j]
	})
	return names
}
