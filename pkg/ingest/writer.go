package ingest

import (
	"context"
	"log"
	"time"

	"github.com/nicktill/sentipipe/pkg/config"
	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/store"
)

// Writer persists cleaned records into the document store with
// dedup-upsert semantics: one document per textID, last write wins.
type Writer struct {
	store     store.Store
	batchSize int
	now       func() time.Time
}

// WriteReport summarizes one Write call
type WriteReport struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Failed   int `json:"failed"`
}

// NewWriter creates a writer with the default batch size
func NewWriter(s store.Store) *Writer {
	return &Writer{
		store:     s,
		batchSize: config.DefaultBatchSize,
		now:       time.Now,
	}
}

// SetBatchSize overrides the batch size. Values below 1 are ignored.
func (w *Writer) SetBatchSize(n int) {
	if n >= 1 {
		w.batchSize = n
	}
}

// EnsureIndexes creates the uniqueness constraint on textID and the
// supporting indexes the aggregation queries rely on. Indexes that already
// exist are left alone; nothing here is fatal to the pipeline run.
func (w *Writer) EnsureIndexes(ctx context.Context) error {
	indexes := []store.Index{
		{Fields: []string{record.FieldTextID}, Unique: true},
		{Fields: []string{record.FieldTimePeriod}},
		{Fields: []string{record.FieldSentiment}},
		{Fields: []string{record.FieldTimePeriod, record.FieldSentiment}},
	}
	for _, idx := range indexes {
		if err := w.store.CreateIndex(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

// Write upserts records in fixed-size batches. Each batch is one atomic
// store operation; a failed batch counts all of its records as failed and
// processing continues with the next batch. There is no automatic retry and
// no record-level isolation inside a batch.
//
// Calling Write twice with the same input leaves the store unchanged after
// the first call; the second call reports updates instead of inserts.
func (w *Writer) Write(ctx context.Context, records []record.Record) WriteReport {
	var report WriteReport

	for start := 0; start < len(records); start += w.batchSize {
		end := start + w.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		ops := make([]store.UpsertOp, len(batch))
		processedAt := w.now()
		for i, rec := range batch {
			rec.ProcessedAt = processedAt
			ops[i] = store.UpsertOp{Key: rec.TextID, Record: rec}
		}

		result, err := w.store.BulkUpsert(ctx, ops)
		if err != nil {
			report.Failed += len(batch)
			log.Printf("Batch %d failed: %v", start/w.batchSize+1, err)
			continue
		}
		report.Inserted += result.Inserted
		report.Updated += result.Modified
	}

	return report
}
