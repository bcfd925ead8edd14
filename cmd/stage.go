package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/firmable/unify/internal/store"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Transform raw tables into the staged matching inputs",
	Long:  "Normalizes names and deduplicates the raw registry and crawl tables into stg_abr_entities and stg_commoncrawl_companies.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		stager := store.NewStager(pool)

		regRows, err := stager.StageRegistry(ctx)
		if err != nil {
			return eris.Wrap(err, "stage")
		}
		crawlRows, err := stager.StageCrawl(ctx)
		if err != nil {
			return eris.Wrap(err, "stage")
		}

		zap.L().Info("staging complete",
			zap.Int64("registry_rows", regRows),
			zap.Int64("crawl_rows", crawlRows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stageCmd)
}
