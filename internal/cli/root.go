// Package cli implements the trackr command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/trackr/internal/completion"
	"github.com/randalmurphal/trackr/internal/config"
	"github.com/randalmurphal/trackr/internal/db"
	"github.com/randalmurphal/trackr/internal/db/driver"
	"github.com/randalmurphal/trackr/internal/importer"
)

// app holds global flags and the resources commands share. Resources are
// opened on first use and closed after the command runs.
type app struct {
	cfgFile string
	workDir string
	verbose bool
	quiet   bool
	jsonOut bool

	tc     *config.TrackedConfig
	logger *slog.Logger
	store  *db.DB
}

// Execute builds the command tree and runs it.
func Execute() error {
	root := newRootCmd()
	err := root.Execute()
	if err != nil {
		verbose, _ := root.PersistentFlags().GetBool("verbose")
		PrintError(root.ErrOrStderr(), err, verbose)
	}
	return err
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "trackr",
		Short: "Project and task tracker driven by markdown roadmaps",
		Long: `trackr keeps projects, tasks and kanban boards in a local database
and fills them from markdown roadmap checklists.

Roadmap lines look like:
  - [ ] [P1] Ship the beta due: 2025-06-01 #release

Quick start:
  trackr project create "Website"        Create a project
  trackr roadmap detect --set -p 1       Find and attach a roadmap file
  trackr roadmap sync -p 1               Create tasks from its checklist
  trackr serve                           Start the HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is .trackr/config.yaml)")
	cmd.PersistentFlags().StringVarP(&a.workDir, "dir", "C", "", "working directory (default is the current directory)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "output as JSON")

	cmd.AddCommand(newProjectCmd(a))
	cmd.AddCommand(newTaskCmd(a))
	cmd.AddCommand(newRoadmapCmd(a))
	cmd.AddCommand(newAICmd(a))
	cmd.AddCommand(newBoardCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// init loads configuration and sets up logging.
func (a *app) init(stderr io.Writer) error {
	if a.workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		a.workDir = wd
	}

	tc, err := config.Load(config.LoadOptions{ConfigFile: a.cfgFile, WorkDir: a.workDir})
	if err != nil {
		return err
	}
	if err := tc.Config.Validate(); err != nil {
		return err
	}
	a.tc = tc

	a.logger = newLogger(stderr, tc.Config.Log, a.verbose, a.quiet)
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) config() *config.Config {
	return a.tc.Config
}

// db opens the configured database on first use.
func (a *app) db(ctx context.Context) (*db.DB, error) {
	if a.store != nil {
		return a.store, nil
	}

	cfg := a.config()
	dialect, err := driver.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	dsn := cfg.DatabaseDSN()
	if dialect == driver.DialectSQLite && dsn != ":memory:" && !filepath.IsAbs(dsn) {
		dsn = filepath.Join(a.workDir, dsn)
	}

	store, err := db.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.logger.Debug("database opened", "driver", dialect, "path", store.Path())
	a.store = store
	return store, nil
}

// importer builds the roadmap pipeline over the shared database.
func (a *app) importer(ctx context.Context) (*importer.Service, error) {
	store, err := a.db(ctx)
	if err != nil {
		return nil, err
	}
	cfg := a.config()
	return importer.New(store, importer.Config{
		Roadmap:   a.resolveRoadmapConfig(),
		WorkDir:   a.workDir,
		Completer: completion.NewOrUnavailable(cfg.Completion, a.logger),
		Provider:  cfg.Completion.Provider,
		Timeout:   cfg.Completion.Timeout,
		Logger:    a.logger,
	}), nil
}

// resolveRoadmapConfig anchors relative roadmap paths at the working directory.
func (a *app) resolveRoadmapConfig() config.RoadmapConfig {
	rc := a.config().Roadmap
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(a.workDir, p)
	}
	rc.Path = abs(rc.Path)
	rc.TemplatePath = abs(rc.TemplatePath)
	rc.SearchRoot = abs(rc.SearchRoot)
	return rc
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}
