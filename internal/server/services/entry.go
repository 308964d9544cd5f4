// Package services contains server-side business logic. EntryService owns
// the entry lifecycle, including the image stored alongside an entry.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/kabyedict/internal/common"
	"github.com/dmitrijs2005/kabyedict/internal/dbx"
	"github.com/dmitrijs2005/kabyedict/internal/logging"
	"github.com/dmitrijs2005/kabyedict/internal/server/config"
	"github.com/dmitrijs2005/kabyedict/internal/server/imagestore"
	"github.com/dmitrijs2005/kabyedict/internal/server/models"
	"github.com/dmitrijs2005/kabyedict/internal/server/query"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/entries"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/repomanager"
)

var tracer = otel.Tracer("services")

// now is the service clock. Postgres keeps microseconds.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Image is an uploaded illustration. The content type is sniffed from Data.
type Image struct {
	Data []byte
}

// EntryService provides create, update, delete and read operations on
// dictionary entries.
type EntryService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	images       imagestore.Store
	maxImageSize int64
	logger       logging.Logger
}

// NewEntryService constructs an EntryService. A nil image store disables
// image uploads.
func NewEntryService(db *sql.DB, m repomanager.RepositoryManager, images imagestore.Store,
	cfg *config.Config, logger logging.Logger) *EntryService {
	if images == nil {
		images = imagestore.Disabled{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &EntryService{
		db:           db,
		repomanager:  m,
		images:       images,
		maxImageSize: cfg.MaxImageSize,
		logger:       logger.With("module", "entries"),
	}
}

// Create validates fields, rejects a headword that already exists in any
// letter case, uploads img if given and stores the new entry as pending.
// A missing reviewer name is recorded as models.DefaultContributor. On a
// table without validation columns the returned entry reports the state
// derived from the reviewer column, as a later read would.
func (s *EntryService) Create(ctx context.Context, fields models.EntryFields, img *Image) (*models.Entry, error) {
	ctx, span := tracer.Start(ctx, "Entry.Service.Create")
	defer span.End()

	e := &models.Entry{}
	fields.ApplyTo(e)
	if err := models.CheckRequired(e); err != nil {
		return nil, fail(span, err)
	}
	if strings.TrimSpace(e.ReviewerName) == "" {
		e.ReviewerName = models.DefaultContributor
	}

	contentType, err := s.checkImage(img)
	if err != nil {
		return nil, fail(span, err)
	}

	repo := s.repomanager.Entries(s.db)

	if err := checkDuplicate(ctx, repo, e.Headword, 0); err != nil {
		return nil, fail(span, err)
	}

	var uploaded string
	if img != nil {
		uploaded, err = s.images.Upload(ctx, img.Data, contentType)
		if err != nil {
			return nil, fail(span, err)
		}
		e.ImageURL = uploaded
	}

	t := now()
	e.CreatedAt = t
	e.UpdatedAt = t
	legacy := !repo.Schema().Validation
	if !legacy {
		e.Validation = &models.Validation{Status: models.StatusPending}
	}

	if err := repo.Create(ctx, e); err != nil {
		s.discardImage(ctx, uploaded)
		return nil, fail(span, err)
	}
	if legacy {
		s.logger.Warn(ctx, "entry stored without validation columns, its state follows the reviewer column", "id", e.ID)
	}

	span.SetAttributes(attribute.Int64("entry.id", e.ID))
	s.logger.Info(ctx, "entry created", "id", e.ID, "headword", e.Headword)
	return e, nil
}

// Update merges fields over the stored entry. A new img replaces the current
// image; removeImage clears it. The replaced object is deleted only after
// the row is committed.
func (s *EntryService) Update(ctx context.Context, id int64, fields models.EntryFields, img *Image, removeImage bool) (*models.Entry, error) {
	ctx, span := tracer.Start(ctx, "Entry.Service.Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("entry.id", id))

	contentType, err := s.checkImage(img)
	if err != nil {
		return nil, fail(span, err)
	}

	var updated *models.Entry
	var previousImage, uploaded string

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Entries(tx)

		e, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		previousImage = e.ImageURL
		previousHeadword := e.Headword

		fields.ApplyTo(e)
		if err := models.CheckRequired(e); err != nil {
			return err
		}
		if e.Headword != previousHeadword {
			if err := checkDuplicate(ctx, repo, e.Headword, id); err != nil {
				return err
			}
		}

		if removeImage {
			e.ImageURL = ""
		}
		if img != nil {
			uploaded, err = s.images.Upload(ctx, img.Data, contentType)
			if err != nil {
				return err
			}
			e.ImageURL = uploaded
		}

		touch(e)
		if err := repo.Update(ctx, e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		s.discardImage(ctx, uploaded)
		return nil, fail(span, err)
	}

	if previousImage != "" && previousImage != updated.ImageURL {
		s.discardImage(ctx, previousImage)
	}

	s.logger.Info(ctx, "entry updated", "id", id, "headword", updated.Headword)
	return updated, nil
}

// Delete removes the entry. Its image, if any, is deleted first with exactly
// one store call; a failed image delete is logged and does not keep the row.
func (s *EntryService) Delete(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "Entry.Service.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("entry.id", id))

	repo := s.repomanager.Entries(s.db)

	e, err := repo.GetByID(ctx, id)
	if err != nil {
		return fail(span, err)
	}

	if e.ImageURL != "" {
		if err := s.images.Delete(ctx, e.ImageURL); err != nil {
			s.logger.Warn(ctx, "failed to delete entry image", "id", id, "url", e.ImageURL, "error", err)
		}
	}

	if err := repo.Delete(ctx, id); err != nil {
		return fail(span, err)
	}

	s.logger.Info(ctx, "entry deleted", "id", id, "headword", e.Headword)
	return nil
}

func (s *EntryService) Get(ctx context.Context, id int64) (*models.Entry, error) {
	ctx, span := tracer.Start(ctx, "Entry.Service.Get")
	defer span.End()

	e, err := s.repomanager.Entries(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, fail(span, err)
	}
	return e, nil
}

// List returns the entries matching f, most recently touched first unless
// f asks for another order.
func (s *EntryService) List(ctx context.Context, f query.Filter) ([]*models.Entry, error) {
	ctx, span := tracer.Start(ctx, "Entry.Service.List")
	defer span.End()

	all, err := s.repomanager.Entries(s.db).List(ctx, entries.Criteria{Status: f.Status})
	if err != nil {
		return nil, fail(span, err)
	}

	result := query.Apply(all, f)
	span.SetAttributes(attribute.Int("entries.count", len(result)))
	return result, nil
}

func (s *EntryService) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Entry.Service.Count")
	defer span.End()

	n, err := s.repomanager.Entries(s.db).Count(ctx)
	if err != nil {
		return 0, fail(span, err)
	}
	return n, nil
}

func (s *EntryService) checkImage(img *Image) (string, error) {
	if img == nil {
		return "", nil
	}
	return imagestore.Validate(img.Data, s.maxImageSize)
}

// discardImage removes an object no row refers to any more.
func (s *EntryService) discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		s.logger.Warn(ctx, "failed to delete unreferenced image", "url", url, "error", err)
	}
}

func checkDuplicate(ctx context.Context, repo entries.Repository, headword string, excludeID int64) error {
	exists, err := repo.ExistsHeadword(ctx, headword, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %q", common.ErrorDuplicate, headword)
	}
	return nil
}

// touch moves UpdatedAt strictly past the previous touch time.
func touch(e *models.Entry) {
	prev := e.LastTouched()
	t := now()
	if !t.After(prev) {
		t = prev.Add(time.Microsecond)
	}
	e.UpdatedAt = t
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
