package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sqler/sqler/internal/database"
	"github.com/sqler/sqler/internal/demo"
	"github.com/sqler/sqler/internal/schema"
)

var schemaJSON bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the database schema as the model sees it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		db, err := database.OpenReadOnly(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		sch, err := schema.NewIntrospector(db, demo.MigrationTable).Introspect(ctx)
		if err != nil {
			return err
		}
		if schemaJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(sch)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), sch.Text())
		return err
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaJSON, "json", false, "print tables and columns as JSON")
}
