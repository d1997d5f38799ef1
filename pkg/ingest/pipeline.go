package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/store"
)

// Processor runs the full batch pipeline: read the raw collection, clean
// across partitions, ensure indexes, and dedup-upsert into the processed
// collection. Re-running it against unchanged raw data inserts nothing and
// updates everything.
type Processor struct {
	raw        store.Store
	writer     *Writer
	partitions int
}

// NewProcessor creates a processor between the two collections
func NewProcessor(raw, processed store.Store, partitions int) *Processor {
	return &Processor{
		raw:        raw,
		writer:     NewWriter(processed),
		partitions: partitions,
	}
}

// SetBatchSize overrides the upsert batch size
func (p *Processor) SetBatchSize(n int) {
	p.writer.SetBatchSize(n)
}

// Run executes one pipeline pass and returns its cleaning diagnostics and
// write report.
func (p *Processor) Run(ctx context.Context) (Diagnostics, WriteReport, error) {
	docs, err := p.raw.Find(ctx, store.FindQuery{})
	if err != nil {
		return Diagnostics{}, WriteReport{}, fmt.Errorf("failed to read raw collection: %w", err)
	}
	log.Printf("Loaded %d raw records", len(docs))

	raws := make([]record.Raw, len(docs))
	for i, doc := range docs {
		raws[i] = record.Raw{
			TextID:     doc.TextID,
			Text:       doc.Text,
			Sentiment:  string(doc.Sentiment),
			TimePeriod: doc.TimePeriod,
			AgeBracket: doc.AgeBracket,
		}
	}

	records, diag := CleanAll(raws, p.partitions)
	log.Printf("Cleaned %d records across %d partitions (%d dropped)", diag.Kept, p.partitions, diag.Dropped)

	if err := p.writer.EnsureIndexes(ctx); err != nil {
		return diag, WriteReport{}, fmt.Errorf("failed to create indexes: %w", err)
	}

	report := p.writer.Write(ctx, records)
	return diag, report, nil
}
