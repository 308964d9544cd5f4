package stats

import "github.com/dmitrijs2005/kabyedict/internal/server/models"

// StatusSummary counts entries per validation status.
type StatusSummary struct {
	Total            int     `json:"total"`
	Validated        int     `json:"validated"`
	Pending          int     `json:"pending"`
	NeedsRevision    int     `json:"needs_revision"`
	Rejected         int     `json:"rejected"`
	PercentValidated float64 `json:"percent_validated"`
}

// Summarize counts entries by their effective validation status. Rows read
// without validation columns can only be pending or validated.
func Summarize(entries []*models.Entry) StatusSummary {
	s := StatusSummary{Total: len(entries)}
	for _, e := range entries {
		switch e.ValidationState().Status {
		case models.StatusValidated:
			s.Validated++
		case models.StatusNeedsRevision:
			s.NeedsRevision++
		case models.StatusRejected:
			s.Rejected++
		default:
			s.Pending++
		}
	}
	if s.Total > 0 {
		s.PercentValidated = float64(s.Validated) / float64(s.Total) * 100
	}
	return s
}
