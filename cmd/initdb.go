package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/firmable/unify/internal/store"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Apply schema migrations",
	Long:  "Applies all pending SQL migrations in lexicographic order, creating the raw, staging and unified tables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := store.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "initdb")
		}

		zap.L().Info("all migrations applied successfully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initdbCmd)
}
