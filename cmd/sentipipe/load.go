package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/nicktill/sentipipe/pkg/config"
	"github.com/nicktill/sentipipe/pkg/export"
	"github.com/nicktill/sentipipe/pkg/server"
)

var loadCmd = &cobra.Command{
	Use:   "load <csv-file>",
	Short: "Load the bootstrap CSV dataset into the raw collection",
	Long: `Reads a header-led CSV file (textID, text, sentiment, Time of Tweet,
Age of User) and upserts its rows into the raw collection as-is, without
cleaning. Re-loading the same file replaces rows instead of duplicating them.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg := server.LoadConfig()

	db, err := server.OpenStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.WriteTimeout)
	defer cancel()

	loader := export.NewLoader(db.Collection(config.RawCollection))
	result, err := loader.LoadCSV(ctx, file)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	for _, rowErr := range result.Errors {
		log.Printf("Skipped malformed row: %s", rowErr)
	}

	cmd.Printf("Loaded %d rows into %q (%d inserted, %d updated, %d skipped)\n",
		result.RecordsRead, config.RawCollection, result.Inserted, result.Updated, result.Skipped)
	return nil
}
