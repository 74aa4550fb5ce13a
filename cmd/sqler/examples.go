package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqler/sqler/internal/app"
)

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Generate example questions from the schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		a, err := app.New(ctx, cfg, logger, app.ModeInteractive)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		set := a.Examples(ctx)
		w := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(w, "Exemples de questions:")
		for _, q := range set.French {
			_, _ = fmt.Fprintf(w, "- %s\n", q)
		}
		_, _ = fmt.Fprintln(w, "\nExample questions:")
		for _, q := range set.English {
			_, _ = fmt.Fprintf(w, "- %s\n", q)
		}
		if !set.Generated {
			logger.Info("model unavailable, printed fallback questions")
		}
		return nil
	},
}
