// Package command provides CLI command definitions for Larder.
package command

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/larderhq/larder-go/internal/core/domain"
	"github.com/larderhq/larder-go/internal/infra/buildinfo"
	"github.com/larderhq/larder-go/internal/core/service"
	"github.com/larderhq/larder-go/internal/storage/cache"
	"github.com/larderhq/larder-go/internal/storage/sqlite"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "larder-cli",
		Usage:   "Larder backup and restore tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ExportCommand(),
			ValidateCommand(),
			ImportCommand(),
			LocalCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Data directory holding the document store and backup cache",
			EnvVars: []string{"LARDER_DATA_DIR"},
			Value:   defaultDataDir(),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable verbose output",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	DataDir string
	Output  string // table, json
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		DataDir: c.String("data-dir"),
		Output:  c.String("output"),
		Verbose: c.Bool("verbose"),
	}
}

// defaultDataDir resolves the default local data directory.
func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".larder")
	}
	return ".larder"
}

// env bundles the local storage a command operates on.
type env struct {
	store *sqlite.Store
	cache *cache.Cache
	svc   *service.BackupService
}

// openEnv opens the document store and backup cache under the data
// directory and wires the backup service over them.
func openEnv(c *cli.Context) (*env, error) {
	flags := ParseGlobalFlags(c)
	if flags.DataDir == "" {
		return nil, fmt.Errorf("data directory required")
	}
	if err := os.MkdirAll(flags.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	logger := newLogger(flags.Verbose)

	store, err := sqlite.Open(filepath.Join(flags.DataDir, "larder.db"))
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}

	ca, err := cache.New(cache.Config{Dir: filepath.Join(flags.DataDir, "backups")}, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open backup cache: %w", err)
	}

	return &env{
		store: store,
		cache: ca,
		svc:   service.NewBackupService(store, ca, logger),
	}, nil
}

// Close releases the storage handles.
func (e *env) Close() {
	e.cache.Close()
	e.store.Close()
}

// newLogger builds the command logger. Quiet unless verbose.
func newLogger(verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// actorFromFlags builds the acting identity for audit fields.
func actorFromFlags(c *cli.Context) domain.Actor {
	return domain.Actor{
		ID:    c.String("actor-id"),
		Label: c.String("actor-label"),
	}
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
