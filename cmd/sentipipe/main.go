package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sentipipe",
	Short: "Sentiment pipeline: load, process, analyze, and serve labeled tweets",
	Long: `sentipipe runs a two-stage sentiment pipeline over labeled tweet records.

load ingests the bootstrap CSV dataset into the raw collection. process
cleans the raw records in parallel and dedup-upserts them into the processed
collection. analyze rolls the processed collection up by time of day, age
group, and their combination. serve exposes the same data over HTTP for
dashboards.

Configuration comes from environment variables: SENTIPIPE_DATA_DIR,
SENTIPIPE_BATCH_SIZE, SENTIPIPE_PARTITIONS, SENTIPIPE_MAX_MEMORY_MB, PORT.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
