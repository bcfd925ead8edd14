package main

import (
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load source files into the raw tables",
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
