// Package admin implements dictctl, the maintenance command line for the
// dictionary database: schema migrations, legacy JSON imports, validation
// export merges and statistics.
package admin

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/dmitrijs2005/kabyedict/internal/logging"
	"github.com/dmitrijs2005/kabyedict/internal/server/config"
	"github.com/dmitrijs2005/kabyedict/internal/server/repositories/repomanager"
)

const (
	// ExitCodeSuccess is successful error code.
	ExitCodeSuccess int = iota

	// ExitCodeFlagParseError is the exit code for a flag parsing error.
	ExitCodeFlagParseError

	// ExitCodeUnknownError is the exit code for an unknown error.
	ExitCodeUnknownError
)

// ErrDictctl is a parent error for all command errors.
var ErrDictctl = errors.New("dictctl")

// ErrFlagParse is a flag parsing error.
var ErrFlagParse = fmt.Errorf("%w: parsing flags", ErrDictctl)

// ErrAborted is returned when a destructive command is not confirmed.
var ErrAborted = fmt.Errorf("%w: aborted", ErrDictctl)

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}

	newManager = repomanager.NewPostgresRepositoryManager

	stdinIsTerminal = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd()))
	}
)

func defaultDSN() string {
	c := &config.Config{}
	c.LoadDefaults()
	return c.DatabaseDSN
}

// NewApp builds the dictctl command tree.
func NewApp() *cli.App {
	return &cli.App{
		Name:  "dictctl",
		Usage: "Maintain the Kabyè dictionary database.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "PostgreSQL connection `DSN`",
				Aliases: []string{"d"},
				EnvVars: []string{"DATABASE_URL"},
				Value:   defaultDSN(),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log `LEVEL` (debug, info, warn, error)",
				Value: "warn",
			},
		},
		HideHelpCommand: true,
		Commands: []*cli.Command{
			migrateCommand,
			importCommand,
			mergeCommand,
			statsCommand,
		},
	}
}

// Main runs the app with args and returns the process exit code.
func Main(ctx context.Context, args []string) int {
	app := NewApp()
	if err := app.RunContext(ctx, args); err != nil {
		fmt.Fprintf(app.ErrWriter, "%s: %v\n", app.Name, err)
		if errors.Is(err, ErrFlagParse) {
			return ExitCodeFlagParseError
		}
		return ExitCodeUnknownError
	}
	return ExitCodeSuccess
}

func newLogger(c *cli.Context) logging.Logger {
	level := logging.ParseLevel(c.String("log-level"), slog.LevelWarn)
	return logging.NewJSONLogger(c.App.ErrWriter, level).With("module", "dictctl")
}

// session is an open database with its repository manager.
type session struct {
	db      *sql.DB
	manager repomanager.RepositoryManager
	logger  logging.Logger
}

func (s *session) Close() error {
	return s.db.Close()
}

func openSession(c *cli.Context) (*session, error) {
	dsn := c.String("database-url")
	if dsn == "" {
		return nil, fmt.Errorf("%w: --database-url is required", ErrFlagParse)
	}

	db, err := openDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", ErrDictctl, err)
	}
	if err := db.PingContext(c.Context); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: connecting to database: %v", ErrDictctl, err)
	}

	m, err := newManager(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &session{db: db, manager: m, logger: newLogger(c)}, nil
}

// confirm asks a yes/no question on a terminal. Without a terminal the
// answer is no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	if !stdinIsTerminal() {
		return false
	}
	fmt.Fprintf(out, "%s [o/N] ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "o", "oui", "y", "yes":
		return true
	default:
		return false
	}
}
