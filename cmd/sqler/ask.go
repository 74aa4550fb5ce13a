package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqler/sqler/internal/app"
	"github.com/sqler/sqler/internal/cli"
	"github.com/sqler/sqler/internal/pipeline"
)

var (
	askJSON    bool
	askNoChart bool
	askExport  bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		out := a.Pipeline.Ask(ctx, strings.Join(args, " "), pipeline.Options{
			SkipChart: askNoChart,
			Export:    askExport,
		})

		if askJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(struct {
				pipeline.Outcome
				Message   string `json:"message,omitempty"`
				ChartPath string `json:"chart_path,omitempty"`
			}{out, out.Message(), out.ChartPath}); err != nil {
				return err
			}
		} else {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), cli.Render(out))
		}

		switch out.Status {
		case pipeline.StatusAnswered, pipeline.StatusEmpty:
			return nil
		}
		return errors.New(out.Message())
	},
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the outcome as JSON")
	askCmd.Flags().BoolVar(&askNoChart, "no-chart", false, "skip chart generation")
	askCmd.Flags().BoolVar(&askExport, "export", false, "export the result set as Parquet")
}
