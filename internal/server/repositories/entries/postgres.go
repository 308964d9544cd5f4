// Package entries provides the PostgreSQL-backed entry store over the
// mots_kabye table.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/kabyedict/internal/common"
	"github.com/dmitrijs2005/kabyedict/internal/dbx"
	"github.com/dmitrijs2005/kabyedict/internal/server/codec"
	"github.com/dmitrijs2005/kabyedict/internal/server/models"
	"github.com/dmitrijs2005/kabyedict/internal/server/query"
)

// Schema describes the optional columns present in the table.
type Schema struct {
	// Validation is true once the validation status columns exist.
	Validation bool
}

// contentColumns are written by every insert and update, in this order.
var contentColumns = []string{
	"mot_kabye", "variantes_orthographiques", "api", "traduction_francaise",
	"sens_multiple", "synonymes", "categorie_grammaticale", "sous_categorie",
	"origine_mot", "exemple_usage", "traduction_exemple", "expressions_associees",
	"notes_usage", "image_url", "verifie_par", "date_ajout", "date_modification",
}

var validationColumns = []string{"statut_validation", "notes_validation", "date_validation"}

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db     dbx.DBTX
	schema Schema
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX, schema Schema) *PostgresRepository {
	return &PostgresRepository{db: db, schema: schema}
}

// Schema returns the column set the repository reads and writes.
func (r *PostgresRepository) Schema() Schema {
	return r.schema
}

func (r *PostgresRepository) columns() []string {
	cols := append([]string{}, contentColumns...)
	if r.schema.Validation {
		cols = append(cols, validationColumns...)
	}
	return cols
}

func (r *PostgresRepository) selectList() string {
	return "id, " + strings.Join(r.columns(), ", ")
}

func (r *PostgresRepository) values(e *models.Entry) []any {
	v := []any{
		e.Headword,
		codec.EncodeList(e.Variants),
		nullString(e.Phonetic),
		e.Translation,
		codec.EncodeList(e.Senses),
		codec.EncodeList(e.Synonyms),
		nullString(e.Category),
		nullString(e.Subcategory),
		nullString(e.Etymology),
		nullString(e.Example),
		nullString(e.ExampleTranslation),
		codec.EncodeExpressions(e.Expressions),
		nullString(e.UsageNotes),
		nullString(e.ImageURL),
		nullString(e.ReviewerName),
		nullTime(e.CreatedAt),
		nullTime(e.UpdatedAt),
	}
	if r.schema.Validation {
		var status, notes sql.NullString
		var validatedAt sql.NullTime
		if e.Validation != nil {
			if e.Validation.Status != "" {
				status = sql.NullString{String: e.Validation.Status.Stored(), Valid: true}
			}
			notes = nullString(e.Validation.Notes)
			if e.Validation.ValidatedAt != nil {
				validatedAt = nullTime(*e.Validation.ValidatedAt)
			}
		}
		v = append(v, status, notes, validatedAt)
	}
	return v
}

func placeholders(from, n int) string {
	p := make([]string, n)
	for i := range p {
		p[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(p, ", ")
}

// Create inserts e and stores the generated id in e.ID.
func (r *PostgresRepository) Create(ctx context.Context, e *models.Entry) error {
	cols := r.columns()
	query := fmt.Sprintf(`INSERT INTO mots_kabye (%s) VALUES (%s) RETURNING id`,
		strings.Join(cols, ", "), placeholders(1, len(cols)))

	if err := r.db.QueryRowContext(ctx, query, r.values(e)...).Scan(&e.ID); err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// Insert stores e under e.ID. Used by imports that preserve ids.
func (r *PostgresRepository) Insert(ctx context.Context, e *models.Entry) error {
	cols := r.columns()
	query := fmt.Sprintf(`INSERT INTO mots_kabye (id, %s) VALUES ($1, %s)`,
		strings.Join(cols, ", "), placeholders(2, len(cols)))

	args := append([]any{e.ID}, r.values(e)...)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert entry %d: %w", e.ID, err)
	}
	return nil
}

// Update rewrites every column of the row identified by e.ID.
func (r *PostgresRepository) Update(ctx context.Context, e *models.Entry) error {
	cols := r.columns()
	set := make([]string, len(cols))
	for i, c := range cols {
		set[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	query := fmt.Sprintf(`UPDATE mots_kabye SET %s WHERE id = $%d`, strings.Join(set, ", "), len(cols)+1)

	args := append(r.values(e), e.ID)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update entry %d: %w", e.ID, err)
	}
	return expectOne(res, e.ID)
}

// Delete removes the row with the given id.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mots_kabye WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry %d: %w", id, err)
	}
	return expectOne(res, id)
}

func expectOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("entry %d: %w", id, common.ErrorNotFound)
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// GetByID returns the entry with the given id or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Entry, error) {
	query := fmt.Sprintf(`SELECT %s FROM mots_kabye WHERE id = $1`, r.selectList())

	e, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %d: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %d: %w", id, err)
	}
	return e, nil
}

// ExistsHeadword folds headwords in Go. SQL lower() only lowers what the
// database collation knows, which under C collation excludes ɛ, ɔ and ɖ.
func (r *PostgresRepository) ExistsHeadword(ctx context.Context, headword string, excludeID int64) (bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT mot_kabye FROM mots_kabye WHERE id <> $1`, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check headword: %w", err)
	}
	defer rows.Close()

	key := query.Key(headword)
	for rows.Next() {
		var candidate string
		if err := rows.Scan(&candidate); err != nil {
			return false, fmt.Errorf("failed to check headword: %w", err)
		}
		if query.Key(candidate) == key {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("failed to check headword: %w", err)
	}
	return false, nil
}

func (r *PostgresRepository) ExistsPair(ctx context.Context, headword, translation string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM mots_kabye WHERE mot_kabye = $1 AND traduction_francaise = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, headword, translation).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check entry: %w", err)
	}
	return exists, nil
}

// List returns rows matching c ordered by id.
func (r *PostgresRepository) List(ctx context.Context, c Criteria) ([]*models.Entry, error) {
	query := fmt.Sprintf(`SELECT %s FROM mots_kabye`, r.selectList())
	var args []any

	if r.schema.Validation && c.Status != "" {
		if c.Status == models.StatusPending {
			// unknown stored values read back as pending
			query += ` WHERE (statut_validation IS NULL OR statut_validation NOT IN ($1, $2, $3))`
			args = append(args, models.StatusValidated.Stored(), models.StatusNeedsRevision.Stored(), models.StatusRejected.Stored())
		} else {
			query += ` WHERE statut_validation = $1`
			args = append(args, c.Status.Stored())
		}
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		e, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mots_kabye`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM mots_kabye`); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ResetSequence(ctx context.Context) error {
	query := `SELECT setval(pg_get_serial_sequence('mots_kabye', 'id'), COALESCE((SELECT MAX(id) FROM mots_kabye), 0) + 1, false)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to reset id sequence: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scan(s scanner) (*models.Entry, error) {
	var e models.Entry
	var variants, senses, synonyms, expressions sql.NullString
	var phonetic, category, subcategory, etymology sql.NullString
	var example, exampleTranslation, notes, imageURL, reviewer sql.NullString
	var status, validationNotes sql.NullString
	var createdAt, updatedAt, validatedAt sql.NullTime

	dest := []any{
		&e.ID, &e.Headword, &variants, &phonetic, &e.Translation,
		&senses, &synonyms, &category, &subcategory,
		&etymology, &example, &exampleTranslation, &expressions,
		&notes, &imageURL, &reviewer, &createdAt, &updatedAt,
	}
	if r.schema.Validation {
		dest = append(dest, &status, &validationNotes, &validatedAt)
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	e.Variants = codec.DecodeList(variants)
	e.Senses = codec.DecodeList(senses)
	e.Synonyms = codec.DecodeList(synonyms)
	e.Expressions = codec.DecodeExpressions(expressions)
	e.Phonetic = phonetic.String
	e.Category = category.String
	e.Subcategory = subcategory.String
	e.Etymology = etymology.String
	e.Example = example.String
	e.ExampleTranslation = exampleTranslation.String
	e.UsageNotes = notes.String
	e.ImageURL = imageURL.String
	e.ReviewerName = reviewer.String
	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time

	if r.schema.Validation {
		v := &models.Validation{Notes: validationNotes.String, Reviewer: e.ReviewerName}
		if st, ok := models.ParseStatus(status.String); ok {
			v.Status = st
		}
		if validatedAt.Valid {
			at := validatedAt.Time
			v.ValidatedAt = &at
		}
		e.Validation = v
	}
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
