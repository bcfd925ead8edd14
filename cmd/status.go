package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/firmable/unify/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline table counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := storePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		st, err := store.LoadStatus(ctx, pool)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "raw_abr                   %d\n", st.RawRegistry)
		fmt.Fprintf(out, "raw_commoncrawl           %d\n", st.RawCrawl)
		fmt.Fprintf(out, "stg_abr_entities          %d\n", st.StagedRegistry)
		fmt.Fprintf(out, "stg_commoncrawl_companies %d\n", st.StagedCrawl)
		fmt.Fprintf(out, "company_unified           %d\n", st.Unified)
		fmt.Fprintf(out, "company_source_link       %d\n", st.SourceLinks)
		for method, n := range st.MethodCounts {
			fmt.Fprintf(out, "  %-23s %d\n", method, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
