package models

import "strings"

// Status is the review status of an entry.
type Status string

const (
	StatusPending       Status = "pending"
	StatusValidated     Status = "validated"
	StatusNeedsRevision Status = "needs_revision"
	StatusRejected      Status = "rejected"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusValidated, StatusNeedsRevision, StatusRejected}

// stored values predate the English API names and are kept in the column.
var storedStatus = map[Status]string{
	StatusPending:       "en_attente",
	StatusValidated:     "valide",
	StatusNeedsRevision: "a_reviser",
	StatusRejected:      "rejete",
}

// ParseStatus accepts both API names and stored column values.
func ParseStatus(s string) (Status, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for status, stored := range storedStatus {
		if s == string(status) || s == stored {
			return status, true
		}
	}
	return "", false
}

// Stored returns the column value for s. Unknown statuses are stored as pending.
func (s Status) Stored() string {
	if v, ok := storedStatus[s]; ok {
		return v
	}
	return storedStatus[StatusPending]
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := storedStatus[s]
	return ok
}
