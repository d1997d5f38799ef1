package store

import (
	"context"

	"github.com/nicktill/sentipipe/pkg/record"
)

// Store is a collection-scoped document store.
// Implementations: memory (testing), badger (production).
//
// The pipeline depends only on these primitives and treats the store as a
// schemaless key-document service; uniqueness of textID is enforced by the
// backend, not by callers.
type Store interface {
	// Find retrieves documents matching the query
	Find(ctx context.Context, q FindQuery) ([]record.Record, error)

	// BulkUpsert applies all operations atomically. Each operation inserts
	// a new document when its key is absent and replaces the mutable fields
	// when it is present.
	BulkUpsert(ctx context.Context, ops []UpsertOp) (*BulkResult, error)

	// CreateIndex registers an index. Re-creating an identical index is a
	// benign no-op, never an error.
	CreateIndex(ctx context.Context, idx Index) error

	// Count returns the number of documents matching the filter
	Count(ctx context.Context, f Filter) (int64, error)
}

// DB owns the backing database and hands out collection handles. It is
// explicitly constructed and closed by the caller; there is no package-level
// connection.
type DB interface {
	Collection(name string) Store
	Close() error
}

// Filter matches documents by exact field equality. A nil or empty filter
// matches everything.
type Filter map[string]string

// Matches reports whether the record satisfies every filter condition.
func (f Filter) Matches(r record.Record) bool {
	for field, want := range f {
		got, ok := r.Field(field)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// FindQuery specifies what documents to retrieve
type FindQuery struct {
	// Exact-match conditions (optional)
	Filter Filter

	// Fields to keep in the result. Empty = all fields. Projection clears
	// the fields not listed; textID is always kept.
	Projection []string

	// Limit number of results (0 = no limit)
	Limit int
}

// UpsertOp is a single keyed upsert operation
type UpsertOp struct {
	// Key is the unique document key (textID)
	Key string

	// Record holds the new field values
	Record record.Record
}

// BulkResult reports what a bulk upsert did
type BulkResult struct {
	// Documents created
	Inserted int

	// Existing documents whose fields were replaced
	Modified int
}

// Index describes a supporting index over document fields
type Index struct {
	// Fields in key order
	Fields []string

	// Unique enforces one document per key value
	Unique bool
}

// ApplyProjection returns a copy of r with only the projected fields kept.
// textID always survives so callers can still key results. An empty
// projection keeps everything.
func ApplyProjection(r record.Record, fields []string) record.Record {
	if len(fields) == 0 {
		return r
	}
	out := record.Record{TextID: r.TextID}
	for _, f := range fields {
		switch f {
		case record.FieldText:
			out.Text = r.Text
		case record.FieldSentiment:
			out.Sentiment = r.Sentiment
		case record.FieldTimePeriod:
			out.TimePeriod = r.TimePeriod
		case record.FieldAgeBracket:
			out.AgeBracket = r.AgeBracket
		case record.FieldProcessedAt:
			out.ProcessedAt = r.ProcessedAt
		}
	}
	return out
}

// Name returns the canonical index name derived from its fields.
func (i Index) Name() string {
	name := ""
	for n, f := range i.Fields {
		if n > 0 {
			name += "_"
		}
		name += f
	}
	if i.Unique {
		name += "_unique"
	}
	return name
}
