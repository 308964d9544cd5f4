package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dmitrijs2005/kabyedict/internal/common"
	"github.com/dmitrijs2005/kabyedict/internal/dbx"
	"github.com/dmitrijs2005/kabyedict/internal/logging"
	"github.com/dmitrijs2005/kabyedict/internal/server/models"
	"github.com/dmitrijs2005/kabyedict/internal/server/query"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/entries"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/kabyedict/internal/server/reviewers"
	"github.com/dmitrijs2005/kabyedict/internal/server/stats"
)

// ValidateRequest is a reviewer decision on one entry.
type ValidateRequest struct {
	Reviewer string
	// Status defaults to validated when empty.
	Status models.Status
	Notes  string
	// Overrides are content corrections applied with the same merge rules
	// as EntryService.Update.
	Overrides models.EntryFields
}

// ValidationService moves entries through the review states on behalf of
// allow-listed reviewers.
type ValidationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	reviewers   *reviewers.Registry
	logger      logging.Logger
}

func NewValidationService(db *sql.DB, m repomanager.RepositoryManager, r *reviewers.Registry, logger logging.Logger) *ValidationService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ValidationService{
		db:          db,
		repomanager: m,
		reviewers:   r,
		logger:      logger.With("module", "validation"),
	}
}

// Validate applies req to the entry with the given id. Content overrides and
// the status change are committed in one transaction. Any status may be
// replaced by any other on a later call. Without validation columns only
// validated can be stored.
func (s *ValidationService) Validate(ctx context.Context, id int64, req ValidateRequest) (*models.Entry, error) {
	ctx, span := tracer.Start(ctx, "Validation.Service.Validate")
	defer span.End()
	span.SetAttributes(attribute.Int64("entry.id", id))

	reviewer, err := s.authorize(ctx, req.Reviewer)
	if err != nil {
		return nil, fail(span, err)
	}

	status := req.Status
	if status == "" {
		status = models.StatusValidated
	}
	if !status.Valid() {
		return nil, fail(span, fmt.Errorf("%w: unknown status %q", common.ErrorValidation, req.Status))
	}
	span.SetAttributes(attribute.String("validation.status", string(status)))

	var validated *models.Entry
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Entries(tx)
		legacy := !repo.Schema().Validation
		if legacy {
			if err := checkLegacyDecision(status, req.Notes); err != nil {
				return err
			}
		}

		e, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		previousHeadword := e.Headword

		req.Overrides.ApplyTo(e)
		if err := models.CheckRequired(e); err != nil {
			return err
		}
		if e.Headword != previousHeadword {
			if err := checkDuplicate(ctx, repo, e.Headword, id); err != nil {
				return err
			}
		}

		at := now()
		e.Validation = &models.Validation{
			Status:      status,
			Notes:       strings.TrimSpace(req.Notes),
			ValidatedAt: &at,
			Reviewer:    reviewer.Name,
		}
		e.ReviewerName = reviewer.Name
		touch(e)

		if err := repo.Update(ctx, e); err != nil {
			return err
		}
		if legacy {
			// only the reviewer column was written
			e.Validation = nil
		}
		validated = e
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}

	s.logger.Info(ctx, "entry reviewed", "id", id, "reviewer", reviewer.Name, "status", status)
	return validated, nil
}

// checkLegacyDecision refuses decisions a table without validation columns
// cannot record. There a filled reviewer column reads back as validated.
func checkLegacyDecision(status models.Status, notes string) error {
	if status != models.StatusValidated {
		return fmt.Errorf("%w: status %q needs the validation columns, run the migrations", common.ErrorValidation, status)
	}
	if strings.TrimSpace(notes) != "" {
		return fmt.Errorf("%w: validation notes need the validation columns, run the migrations", common.ErrorValidation)
	}
	return nil
}

// Queue lists entries for review in alphabetical order. The search scope
// defaults to the fields shown on the review screen.
func (s *ValidationService) Queue(ctx context.Context, reviewer string, f query.Filter) ([]*models.Entry, error) {
	ctx, span := tracer.Start(ctx, "Validation.Service.Queue")
	defer span.End()

	if _, err := s.authorize(ctx, reviewer); err != nil {
		return nil, fail(span, err)
	}

	if f.Scope == "" {
		f.Scope = query.ScopeReview
	}
	f.Order = query.OrderAlphabetical

	all, err := s.repomanager.Entries(s.db).List(ctx, entries.Criteria{Status: f.Status})
	if err != nil {
		return nil, fail(span, err)
	}
	return query.Apply(all, f), nil
}

// Summary counts entries per validation status.
func (s *ValidationService) Summary(ctx context.Context) (stats.StatusSummary, error) {
	ctx, span := tracer.Start(ctx, "Validation.Service.Summary")
	defer span.End()

	all, err := s.repomanager.Entries(s.db).List(ctx, entries.Criteria{})
	if err != nil {
		return stats.StatusSummary{}, fail(span, err)
	}
	return stats.Summarize(all), nil
}

// Reviewers returns the allow-list.
func (s *ValidationService) Reviewers() []reviewers.Reviewer {
	return s.reviewers.All()
}

func (s *ValidationService) authorize(ctx context.Context, name string) (reviewers.Reviewer, error) {
	rev, err := s.reviewers.Authorize(name, "")
	if err != nil {
		s.logger.Warn(ctx, "reviewer rejected", "reviewer", name)
		return reviewers.Reviewer{}, err
	}
	return rev, nil
}
