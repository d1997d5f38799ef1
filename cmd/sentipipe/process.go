package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicktill/sentipipe/pkg/config"
	"github.com/nicktill/sentipipe/pkg/ingest"
	"github.com/nicktill/sentipipe/pkg/report"
	"github.com/nicktill/sentipipe/pkg/server"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Clean the raw collection and dedup-upsert into the processed collection",
	Long: `Reads every record in the raw collection, validates it across parallel
partitions (records with empty text or an unknown sentiment label are
dropped), ensures the processed collection's indexes, and bulk-upserts the
survivors keyed by textID. Running it again against unchanged raw data
updates every record and inserts none.`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg := server.LoadConfig()

	db, err := server.OpenStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	raw := db.Collection(config.RawCollection)
	processed := db.Collection(config.ProcessedCollection)

	ctx, cancel := context.WithTimeout(context.Background(), config.WriteTimeout)
	defer cancel()

	proc := ingest.NewProcessor(raw, processed, cfg.Partitions)
	proc.SetBatchSize(cfg.BatchSize)

	diag, writeReport, err := proc.Run(ctx)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	count, err := processed.Count(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to count processed records: %w", err)
	}

	out := cmd.OutOrStdout()
	report.PrintDiagnostics(out, diag)
	report.PrintIngestion(out, writeReport, count)
	return nil
}
