package admin

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "apply pending schema migrations",
	Action: func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.manager.RunMigrations(c.Context, s.db); err != nil {
			return fmt.Errorf("%w: migrating: %v", ErrDictctl, err)
		}

		schema, err := s.manager.DetectSchema(c.Context, s.db)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "schema up to date (validation columns: %t)\n", schema.Validation)
		return nil
	},
}
