package admin

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	"github.com/dmitrijs2005/kabyedict/internal/dbx"
	"github.com/dmitrijs2005/kabyedict/internal/server/models"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/entries"
	"github.com/dmitrijs2005/kabyedict/internal/server/stats"
)

var statsCommand = &cli.Command{
	Name:  "stats",
	Usage: "print contribution and validation statistics",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print the report as JSON",
		},
	},
	Action: func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()

		if _, err := s.manager.DetectSchema(c.Context, s.db); err != nil {
			return err
		}
		var list []*models.Entry
		err = dbx.WithReadTx(c.Context, s.db, func(ctx context.Context, tx dbx.DBTX) error {
			rows, err := s.manager.Entries(tx).List(ctx, entries.Criteria{})
			list = rows
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDictctl, err)
		}

		report := stats.Compute(list)
		summary := stats.Summarize(list)

		if c.Bool("json") {
			return writeJSON(c.App.Writer, struct {
				stats.Report
				Validation stats.StatusSummary `json:"validation"`
			}{report, summary})
		}
		printReport(c.App.Writer, report, summary, now())
		return nil
	},
}

func printReport(w io.Writer, r stats.Report, s stats.StatusSummary, at time.Time) {
	contributors := table.New("Contributeur", "Mots", "Catégories", "Dernière activité").WithWriter(w)
	for _, name := range r.Contributors() {
		c := r.ByContributor[name]
		last := "-"
		if c.LastActivity != nil {
			last = humanize.RelTime(*c.LastActivity, at, "ago", "from now")
		}
		contributors.AddRow(name, humanize.Comma(int64(c.Total)), len(c.Categories), last)
	}
	contributors.Print()
	fmt.Fprintln(w)

	global := table.New("Indicateur", "Valeur").WithWriter(w)
	global.AddRow("Mots", humanize.Comma(int64(r.Global.Entries)))
	global.AddRow("Contributeurs", r.Global.Contributors)
	global.AddRow("Contributeurs actifs", r.Global.ActiveContributors)
	global.AddRow("Moyenne par contributeur", humanize.FormatFloat("#,###.##", r.Global.MeanPerContributor))
	global.AddRow("Validés", s.Validated)
	global.AddRow("En attente", s.Pending)
	global.AddRow("À réviser", s.NeedsRevision)
	global.AddRow("Rejetés", s.Rejected)
	global.AddRow("Taux de validation", fmt.Sprintf("%.1f%%", s.PercentValidated))
	global.Print()
}
