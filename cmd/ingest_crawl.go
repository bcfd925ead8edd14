package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/firmable/unify/internal/ingest"
)

var ingestCrawlCmd = &cobra.Command{
	Use:   "crawl <companies.csv>",
	Short: "Load a crawl company export into raw_commoncrawl",
	Long:  "Replaces raw_commoncrawl with the rows of a CSV export carrying at least url and company_name columns.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		loader := ingest.NewCrawlLoader(pool, cfg.Ingest.BatchSize, cfg.Ingest.CrawlBatchID)
		n, err := loader.LoadCSV(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "ingest crawl")
		}

		zap.L().Info("crawl ingest complete", zap.Int64("rows", n))
		return nil
	},
}

func init() {
	ingestCmd.AddCommand(ingestCrawlCmd)
}
