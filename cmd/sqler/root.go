package main

import (
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sqler/sqler/internal/app"
	"github.com/sqler/sqler/internal/cli"
	"github.com/sqler/sqler/internal/config"
	"github.com/sqler/sqler/internal/observability"
)

var envFile string

// rootCmd starts the interactive session when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:           "sqler",
	Short:         "Ask questions about the classicmodels database in plain language",
	Long:          `sqler turns natural-language questions into SQL, runs them read-only and charts the results.`,
	SilenceUsage:  true,
	SilenceErrors: true,
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

		interactive := isTerminal(os.Stdout)
		var spinner *pterm.SpinnerPrinter
		if interactive {
			spinner, _ = pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Préparation des questions d'exemple...")
		}
		set := a.Examples(ctx)
		if spinner != nil {
			_ = spinner.Stop()
		}

		session := &cli.Session{
			Pipeline: a.Pipeline,
			Examples: set,
			In:       cmd.InOrStdin(),
			Out:      cmd.OutOrStdout(),
			Spinner:  interactive,
			Logger:   logger,
		}
		return session.Run(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file layered under the process environment")
	rootCmd.AddCommand(askCmd, schemaCmd, examplesCmd, serveCmd, seedCmd)
}

// setup loads configuration and builds a logger writing to stderr so that
// command output stays clean on stdout.
func setup() (config.Config, *slog.Logger, error) {
	lookup, err := config.DotEnvLookup(envFile, os.LookupEnv)
	if err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.Load("sqler", lookup)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, observability.NewLogger(cfg, os.Stderr), nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
