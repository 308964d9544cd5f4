package admin

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dmitrijs2005/kabyedict/internal/dbx"
	"github.com/dmitrijs2005/kabyedict/internal/logging"
	"github.com/dmitrijs2005/kabyedict/internal/server/legacy"
	"github.com/dmitrijs2005/kabyedict/internal/server/models"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/entries"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/repomanager"
)

var now = func() time.Time { return time.Now().UTC().Truncate(time.Second) }

// ImportOptions controls ImportDocument.
type ImportOptions struct {
	// Replace empties the table first and keeps the ids of the file.
	Replace bool
}

// ImportResult counts what an import did.
type ImportResult struct {
	Imported int
	Skipped  int
	Invalid  int
}

// ImportDocument writes the words of doc in a single transaction. Without
// Replace, words whose headword and translation are already stored are
// skipped and new ids are assigned.
func ImportDocument(ctx context.Context, db *sql.DB, m repomanager.RepositoryManager, doc *legacy.Document, opts ImportOptions, logger logging.Logger) (ImportResult, error) {
	var res ImportResult
	at := now()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res = ImportResult{}
		repo := m.Entries(tx)

		if opts.Replace {
			if err := repo.DeleteAll(ctx); err != nil {
				return err
			}
		}

		var unnumbered []*models.Entry
		for i, w := range doc.Words {
			e := w.ToEntry(at)
			if err := models.CheckRequired(e); err != nil {
				logger.Warn(ctx, "skipping invalid word", "index", i, "id", w.ID, "error", err)
				res.Invalid++
				continue
			}

			if opts.Replace {
				if e.ID <= 0 {
					unnumbered = append(unnumbered, e)
					continue
				}
				if err := repo.Insert(ctx, e); err != nil {
					return err
				}
				res.Imported++
				continue
			}

			exists, err := repo.ExistsPair(ctx, e.Headword, e.Translation)
			if err != nil {
				return err
			}
			if exists {
				logger.Debug(ctx, "word already stored", "headword", e.Headword)
				res.Skipped++
				continue
			}
			if err := createNew(ctx, repo, e); err != nil {
				return err
			}
			res.Imported++
		}

		if !opts.Replace {
			return nil
		}
		if err := repo.ResetSequence(ctx); err != nil {
			return err
		}
		for _, e := range unnumbered {
			if err := createNew(ctx, repo, e); err != nil {
				return err
			}
			res.Imported++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: import failed: %v", ErrDictctl, err)
	}
	return res, nil
}

func createNew(ctx context.Context, repo entries.Repository, e *models.Entry) error {
	e.ID = 0
	return repo.Create(ctx, e)
}

var importCommand = &cli.Command{
	Name:      "import-json",
	Usage:     "import a JSON file store into the database",
	ArgsUsage: "FILE",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "replace",
			Usage: "delete every stored entry first and keep the ids of the file",
		},
		&cli.BoolFlag{
			Name:    "yes",
			Usage:   "do not ask for confirmation",
			Aliases: []string{"y"},
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("%w: expected one file argument", ErrFlagParse)
		}

		f, err := os.Open(c.Args().First())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDictctl, err)
		}
		defer f.Close()

		doc, err := legacy.Read(f)
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", ErrDictctl, c.Args().First(), err)
		}

		replace := c.Bool("replace")
		if replace && !c.Bool("yes") &&
			!confirm(c.App.Reader, c.App.Writer, fmt.Sprintf("Supprimer toutes les entrées et importer %d mots ?", len(doc.Words))) {
			return fmt.Errorf("%w: --replace needs confirmation or --yes", ErrAborted)
		}

		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()

		if _, err := s.manager.DetectSchema(c.Context, s.db); err != nil {
			return err
		}

		res, err := ImportDocument(c.Context, s.db, s.manager, doc, ImportOptions{Replace: replace}, s.logger)
		if err != nil {
			return err
		}

		fmt.Fprintf(c.App.Writer, "%d imported, %d skipped, %d invalid\n", res.Imported, res.Skipped, res.Invalid)
		return nil
	},
}
