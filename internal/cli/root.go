// Package cli implements the regrag operator commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/regrag/internal/app"
	"github.com/dgallion1/regrag/internal/config"
)

var version = "dev"

type globals struct {
	verbose bool
	dbPath  string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "regrag",
		Short: "Structure regulatory documents and query them",
		Long: `regrag converts regulatory documents to page-marked markdown, rebuilds their
heading hierarchy, summarizes every section and answers queries with hybrid
semantic and lexical retrieval.

Configuration is read from REGRAG_CONFIG, the environment and .env.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log pipeline progress to stderr")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite database path (overrides DB_PATH)")

	root.AddCommand(
		newIngestCmd(g),
		newQueryCmd(g),
		newDocsCmd(g),
		newShowCmd(g),
		newRmCmd(g),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(1)
	}
}

func (g *globals) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// open loads configuration and wires the application.
func (g *globals) open(cmd *cobra.Command) (*app.App, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cfg, err
	}
	if g.dbPath != "" {
		cfg.DBPath = g.dbPath
	}
	a, err := app.New(cfg, g.logger(cmd.ErrOrStderr()))
	if err != nil {
		return nil, cfg, err
	}
	return a, cfg, nil
}
