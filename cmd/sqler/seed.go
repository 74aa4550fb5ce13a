package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sqler/sqler/internal/database"
	"github.com/sqler/sqler/internal/demo"
)

var (
	seedDown  bool
	seedSteps int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the classicmodels demo dataset",
	Long: `seed applies the embedded classicmodels scripts and the derived analytic tables
to the configured database, e.g. SQLER_DB_DSN=duckdb:classicmodels.duckdb.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		w := cmd.OutOrStdout()
		if seedDown {
			n, err := demo.NewRunner(db.Dialect).Down(ctx, db.DB, seedSteps)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(w, pterm.Success.Sprintfln("rolled back %d migration(s)", n))
			return nil
		}
		n, err := demo.Seed(ctx, db, logger)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(w, pterm.Success.Sprintfln("applied %d migration(s)", n))
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedDown, "down", false, "roll back instead of applying")
	seedCmd.Flags().IntVar(&seedSteps, "steps", 1, "number of scripts to roll back with --down")
}
