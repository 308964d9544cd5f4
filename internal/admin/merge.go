package admin

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dmitrijs2005/kabyedict/internal/server/legacy"
)

var mergeCommand = &cli.Command{
	Name:      "merge-validation",
	Usage:     "copy validation fields from a validation export onto an entries export",
	ArgsUsage: "ENTRIES VALIDATIONS",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Usage:   "write the merged array to `FILE` instead of standard output",
			Aliases: []string{"o"},
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return fmt.Errorf("%w: expected ENTRIES and VALIDATIONS files", ErrFlagParse)
		}

		entries, err := readRecordsFile(c.Args().Get(0))
		if err != nil {
			return err
		}
		validations, err := readRecordsFile(c.Args().Get(1))
		if err != nil {
			return err
		}

		merged, stats := legacy.MergeValidation(entries, validations)

		out := c.App.Writer
		if path := c.String("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrDictctl, err)
			}
			defer f.Close()
			out = f
		}
		if err := writeJSON(out, merged); err != nil {
			return fmt.Errorf("%w: writing merged records: %v", ErrDictctl, err)
		}

		fmt.Fprintf(c.App.ErrWriter, "%d entries, %d validations, %d merged (%d matched, %d without validation)\n",
			stats.Entries, stats.Validations, stats.Merged, stats.Matched, stats.Missing)
		return nil
	},
}

func readRecordsFile(path string) ([]legacy.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDictctl, err)
	}
	defer f.Close()

	records, err := legacy.ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrDictctl, path, err)
	}
	return records, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
