package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/firmable/unify/internal/ingest"
)

var ingestCDXCmd = &cobra.Command{
	Use:   "cdx <shard.gz>",
	Short: "Load a Common Crawl CDX index shard into raw_commoncrawl",
	Long:  "Replaces raw_commoncrawl with one row per distinct domain from the gzipped CDX shard, deriving candidate company names from domain labels.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		loader := ingest.NewCDXLoader(pool, cfg.Ingest.BatchSize, cfg.Ingest.CrawlBatchID, cfg.Ingest.MaxCDXRecords)
		n, err := loader.LoadShard(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "ingest cdx")
		}

		zap.L().Info("cdx ingest complete", zap.Int64("rows", n))
		return nil
	},
}

func init() {
	ingestCmd.AddCommand(ingestCDXCmd)
}
