package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/nicktill/sentipipe/pkg/config"
	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/store"
)

// Loader bulk-loads the bootstrap CSV dataset into the raw collection.
// Rows go in as-is: no cleaning, no sentiment validation, no processing
// timestamp. The process stage reads them back and decides what survives.
type Loader struct {
	store     store.Store
	batchSize int
}

// NewLoader creates a loader writing into the raw collection
func NewLoader(s store.Store) *Loader {
	return &Loader{
		store:     s,
		batchSize: config.DefaultBatchSize,
	}
}

// LoadResult contains stats about the load operation
type LoadResult struct {
	RecordsRead int       `json:"records_read"`
	Inserted    int       `json:"inserted"`
	Updated     int       `json:"updated"`
	Skipped     int       `json:"skipped"`
	LoadedAt    time.Time `json:"loaded_at"`
	Errors      []string  `json:"errors,omitempty"`
}

// LoadCSV reads the bootstrap dataset and upserts its rows keyed by textID.
// Rows without a textID cannot be keyed and are skipped. Re-loading the same
// file replaces existing rows instead of duplicating them.
func (l *Loader) LoadCSV(ctx context.Context, r io.Reader) (*LoadResult, error) {
	raws, parseErrors, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{
		RecordsRead: len(raws),
		LoadedAt:    time.Now(),
		Errors:      parseErrors,
	}

	ops := make([]store.UpsertOp, 0, len(raws))
	for _, raw := range raws {
		if raw.TextID == "" {
			result.Skipped++
			continue
		}
		ops = append(ops, store.UpsertOp{
			Key: raw.TextID,
			Record: record.Record{
				TextID:     raw.TextID,
				Text:       raw.Text,
				Sentiment:  record.Sentiment(raw.Sentiment),
				TimePeriod: raw.TimePeriod,
				AgeBracket: raw.AgeBracket,
			},
		})
	}

	for start := 0; start < len(ops); start += l.batchSize {
		end := start + l.batchSize
		if end > len(ops) {
			end = len(ops)
		}
		res, err := l.store.BulkUpsert(ctx, ops[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to load batch starting at row %d: %w", start, err)
		}
		result.Inserted += res.Inserted
		result.Updated += res.Modified
	}

	return result, nil
}
