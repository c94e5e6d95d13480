package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for labourcheck
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labourcheck",
		Short: "Labour pipeline diagnostic for residential builders",
		Long: `labourcheck runs a short question-by-question diagnostic of a builder's
labour pipeline, scores seven sections from 1 to 9, and produces a report
with an overall score, top recommendations and a labour leak projection.

Reports are stored, emailed and optionally rendered to PDF. A tracked
follow-up link is texted when the builder leaves a phone number.

Configuration is loaded from .labourcheck/config.yaml and secrets from
.labourcheck/.env or the environment (LABOURCHECK_*).`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("home", "", "labourcheck home directory (default: $LABOURCHECK_HOME or ./.labourcheck)")
	cmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.PersistentFlags().String("store-driver", "", "Session store driver: sqlite, mysql, memory")
	cmd.PersistentFlags().String("store-path", "", "SQLite database file")

	cmd.AddCommand(NewTakeCommand())
	cmd.AddCommand(NewScoreCommand())
	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewSessionsCommand())
	cmd.AddCommand(NewCatalogCommand())

	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
