package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicktill/sentipipe/pkg/config"
	"github.com/nicktill/sentipipe/pkg/report"
	"github.com/nicktill/sentipipe/pkg/rollup"
	"github.com/nicktill/sentipipe/pkg/server"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Roll the processed collection up by time, age, and age-by-time",
	Long: `Runs the three grouped rollups over the processed collection and prints
their tables, peaks, the youngest-vs-oldest comparison, and the per-age-group
sentiment variation across time periods. Each rollup rebuilds its tallies
from a full snapshot; a failing dimension is reported without hiding the
others.`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := server.LoadConfig()

	db, err := server.OpenStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.AggregateTimeout)
	defer cancel()

	engine := rollup.NewEngine(db.Collection(config.ProcessedCollection))
	analysis := engine.RunAll(ctx)

	report.PrintAnalysis(cmd.OutOrStdout(), analysis)
	return nil
}
