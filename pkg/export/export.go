package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/store"
)

// Exporter handles exporting processed records to various formats
type Exporter struct {
	store store.Store
}

// NewExporter creates a new exporter over the processed collection
func NewExporter(s store.Store) *Exporter {
	return &Exporter{store: s}
}

// ExportOptions configures the export operation
type ExportOptions struct {
	// Exact-match filters on stored fields (nil = everything)
	Sentiment  string
	TimePeriod string
	AgeBracket string

	// Limit number of records (0 = no limit)
	Limit int

	// Format: "json" or "csv"
	Format string
}

func (o ExportOptions) filter() store.Filter {
	f := store.Filter{}
	if o.Sentiment != "" {
		f[record.FieldSentiment] = o.Sentiment
	}
	if o.TimePeriod != "" {
		f[record.FieldTimePeriod] = o.TimePeriod
	}
	if o.AgeBracket != "" {
		f[record.FieldAgeBracket] = o.AgeBracket
	}
	if len(f) == 0 {
		return nil
	}
	return f
}

// ExportResult contains stats about the export
type ExportResult struct {
	RecordsExported int       `json:"records_exported"`
	Format          string    `json:"format"`
	ExportedAt      time.Time `json:"exported_at"`
}

// envelope is the JSON export wrapper. ImportFromJSON reads the same shape
// back, so an export file doubles as a backup.
type envelope struct {
	Metadata struct {
		ExportedAt  time.Time `json:"exported_at"`
		RecordCount int       `json:"record_count"`
		Format      string    `json:"format"`
		Version     string    `json:"version"`
	} `json:"metadata"`
	Records []record.Record `json:"records"`
}

// ExportToJSON exports processed records as JSON to the given writer
func (e *Exporter) ExportToJSON(ctx context.Context, w io.Writer, opts ExportOptions) (*ExportResult, error) {
	records, err := e.store.Find(ctx, store.FindQuery{Filter: opts.filter(), Limit: opts.Limit})
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	var data envelope
	data.Records = records
	data.Metadata.ExportedAt = time.Now()
	data.Metadata.RecordCount = len(records)
	data.Metadata.Format = "json"
	data.Metadata.Version = "1.0"

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}

	return &ExportResult{
		RecordsExported: len(records),
		Format:          "json",
		ExportedAt:      data.Metadata.ExportedAt,
	}, nil
}

// ExportToCSV exports processed records as CSV to the given writer. The
// column set and order match the bootstrap CSV layout, plus the processing
// timestamp.
func (e *Exporter) ExportToCSV(ctx context.Context, w io.Writer, opts ExportOptions) (*ExportResult, error) {
	records, err := e.store.Find(ctx, store.FindQuery{Filter: opts.filter(), Limit: opts.Limit})
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		record.FieldTextID,
		record.FieldText,
		record.FieldSentiment,
		record.FieldTimePeriod,
		record.FieldAgeBracket,
		record.FieldProcessedAt,
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.TextID,
			rec.Text,
			string(rec.Sentiment),
			rec.TimePeriod,
			rec.AgeBracket,
			rec.ProcessedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return &ExportResult{
		RecordsExported: len(records),
		Format:          "csv",
		ExportedAt:      time.Now(),
	}, nil
}
