package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/firmable/unify/internal/ingest"
)

var ingestRegistryCmd = &cobra.Command{
	Use:   "registry <bulk-extract.zip>",
	Short: "Load a registry bulk extract into raw_abr",
	Long:  "Streams every XML file in the bulk extract ZIP and replaces raw_abr with the flattened entities.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		loader := ingest.NewRegistryLoader(pool, cfg.Ingest.BatchSize)
		n, err := loader.LoadZip(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "ingest registry")
		}

		zap.L().Info("registry ingest complete", zap.Int64("rows", n))
		return nil
	},
}

func init() {
	ingestCmd.AddCommand(ingestRegistryCmd)
}
