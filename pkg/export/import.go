package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/nicktill/sentipipe/pkg/ingest"
	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/store"
)

// Importer reads records from bootstrap CSV files or JSON backups and runs
// them through the regular cleaning and upsert path, so imports dedupe
// exactly like live ingestion.
type Importer struct {
	writer     *ingest.Writer
	partitions int
}

// NewImporter creates a new importer writing into the processed collection
func NewImporter(s store.Store, partitions int) *Importer {
	return &Importer{
		writer:     ingest.NewWriter(s),
		partitions: partitions,
	}
}

// ImportResult contains stats about the import operation
type ImportResult struct {
	RecordsRead int                `json:"records_read"`
	Diagnostics ingest.Diagnostics `json:"diagnostics"`
	Report      ingest.WriteReport `json:"report"`
	ImportedAt  time.Time          `json:"imported_at"`
	Errors      []string           `json:"errors,omitempty"`
}

// ReadCSV parses a header-led CSV file into raw records. Columns are matched
// by header name, so column order does not matter; unknown columns are
// ignored. Malformed rows are reported in the second return value, not fatal.
func ReadCSV(r io.Reader) ([]record.Raw, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("empty CSV input")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	if _, ok := cols[record.FieldText]; !ok {
		return nil, nil, fmt.Errorf("CSV header missing %q column", record.FieldText)
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var raws []record.Raw
	var parseErrors []string
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			parseErrors = append(parseErrors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		raws = append(raws, record.Raw{
			TextID:     field(row, record.FieldTextID),
			Text:       field(row, record.FieldText),
			Sentiment:  field(row, record.FieldSentiment),
			TimePeriod: field(row, record.FieldTimePeriod),
			AgeBracket: field(row, record.FieldAgeBracket),
		})
	}

	return raws, parseErrors, nil
}

// ImportFromCSV reads a header-led CSV file and ingests its rows through the
// cleaning and dedup path into the processed collection.
func (im *Importer) ImportFromCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	raws, parseErrors, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	return im.ingestRaws(ctx, raws, parseErrors)
}

// ImportFromJSON imports records from a JSON backup produced by ExportToJSON
func (im *Importer) ImportFromJSON(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var data envelope
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	raws := make([]record.Raw, len(data.Records))
	for i, rec := range data.Records {
		raws[i] = record.Raw{
			TextID:     rec.TextID,
			Text:       rec.Text,
			Sentiment:  string(rec.Sentiment),
			TimePeriod: rec.TimePeriod,
			AgeBracket: rec.AgeBracket,
		}
	}

	return im.ingestRaws(ctx, raws, nil)
}

func (im *Importer) ingestRaws(ctx context.Context, raws []record.Raw, parseErrors []string) (*ImportResult, error) {
	if err := im.writer.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	records, diag := ingest.CleanAll(raws, im.partitions)
	report := im.writer.Write(ctx, records)

	return &ImportResult{
		RecordsRead: len(raws),
		Diagnostics: diag,
		Report:      report,
		ImportedAt:  time.Now(),
		Errors:      parseErrors,
	}, nil
}
