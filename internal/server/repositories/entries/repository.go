package entries

import (
	"context"

	"github.com/dmitrijs2005/kabyedict/internal/server/models"
)

// Criteria narrows List at the SQL level. The zero value lists everything.
type Criteria struct {
	// Status is only pushed down when the table has validation columns.
	Status models.Status
}

// Repository is the entry store.
type Repository interface {
	// Create inserts e with a generated id and stores the id in e.
	Create(ctx context.Context, e *models.Entry) error
	// Insert stores e under its own id.
	Insert(ctx context.Context, e *models.Entry) error
	Update(ctx context.Context, e *models.Entry) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Entry, error)
	// ExistsHeadword reports a case-insensitive headword match on any row
	// other than excludeID.
	ExistsHeadword(ctx context.Context, headword string, excludeID int64) (bool, error)
	// ExistsPair reports an exact headword and translation match.
	ExistsPair(ctx context.Context, headword, translation string) (bool, error)
	// List returns matching rows in id order.
	List(ctx context.Context, c Criteria) ([]*models.Entry, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
	// Schema reports whether validation columns are read and written.
	Schema() Schema
	// ResetSequence moves the id sequence past the largest stored id.
	ResetSequence(ctx context.Context) error
}
