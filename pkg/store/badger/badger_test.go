package badger

import (
	"context"
	"os"
	"testing"

	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/store"
)

func testRecords() []store.UpsertOp {
	recs := []record.Record{
		{TextID: "t1", Text: "good day", Sentiment: record.Positive, TimePeriod: "morning", AgeBracket: "21-30"},
		{TextID: "t2", Text: "awful day", Sentiment: record.Negative, TimePeriod: "night", AgeBracket: "46-60"},
		{TextID: "t3", Text: "a day", Sentiment: record.Neutral, TimePeriod: "morning", AgeBracket: "70-100"},
	}
	ops := make([]store.UpsertOp, len(recs))
	for i, r := range recs {
		ops[i] = store.UpsertOp{Key: r.TextID, Record: r}
	}
	return ops
}

func TestBadgerStore_UpsertAndFind(t *testing.T) {
	// Use in-memory mode for tests
	db, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	col := db.Collection("processed_sentiment_data")
	ctx := context.Background()

	result, err := col.BulkUpsert(ctx, testRecords())
	if err != nil {
		t.Fatalf("BulkUpsert failed: %v", err)
	}
	if result.Inserted != 3 || result.Modified != 0 {
		t.Errorf("Expected 3 inserts, got %+v", result)
	}

	docs, err := col.Find(ctx, store.FindQuery{})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(docs) != 3 {
		t.Errorf("Expected 3 documents, got %d", len(docs))
	}
}

func TestBadgerStore_UpsertIsIdempotent(t *testing.T) {
	db, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	col := db.Collection("processed_sentiment_data")
	ctx := context.Background()
	ops := testRecords()

	if _, err := col.BulkUpsert(ctx, ops); err != nil {
		t.Fatalf("first BulkUpsert failed: %v", err)
	}
	second, err := col.BulkUpsert(ctx, ops)
	if err != nil {
		t.Fatalf("second BulkUpsert failed: %v", err)
	}

	if second.Inserted != 0 {
		t.Errorf("Second identical upsert reported %d inserts, want 0", second.Inserted)
	}
	if second.Modified != len(ops) {
		t.Errorf("Second identical upsert reported %d updates, want %d", second.Modified, len(ops))
	}

	n, err := col.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 documents after repeated upsert, got %d", n)
	}
}

func TestBadgerStore_IndexScanMatchesFullScan(t *testing.T) {
	db, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	col := db.Collection("processed_sentiment_data")
	ctx := context.Background()

	// Full scan answers the filter before any index exists.
	if _, err := col.BulkUpsert(ctx, testRecords()); err != nil {
		t.Fatalf("BulkUpsert failed: %v", err)
	}
	before, err := col.Find(ctx, store.FindQuery{Filter: store.Filter{record.FieldTimePeriod: "morning"}})
	if err != nil {
		t.Fatalf("Find before index failed: %v", err)
	}

	// Index creation backfills existing documents.
	idx := store.Index{Fields: []string{record.FieldTimePeriod}}
	if err := col.CreateIndex(ctx, idx); err != nil {
		t.Fatalf("CreateIndex failed: %v", err)
	}
	after, err := col.Find(ctx, store.FindQuery{Filter: store.Filter{record.FieldTimePeriod: "morning"}})
	if err != nil {
		t.Fatalf("Find after index failed: %v", err)
	}

	if len(before) != 2 || len(after) != 2 {
		t.Errorf("Expected 2 morning documents before and after indexing, got %d and %d", len(before), len(after))
	}
}

func TestBadgerStore_IndexEntriesFollowUpdates(t *testing.T) {
	db, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	col := db.Collection("processed_sentiment_data")
	ctx := context.Background()

	idx := store.Index{Fields: []string{record.FieldSentiment}}
	if err := col.CreateIndex(ctx, idx); err != nil {
		t.Fatalf("CreateIndex failed: %v", err)
	}

	first := record.Record{TextID: "t1", Text: "good", Sentiment: record.Positive, TimePeriod: "morning"}
	if _, err := col.BulkUpsert(ctx, []store.UpsertOp{{Key: "t1", Record: first}}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// Re-labeling the record must move its index entry, not duplicate it.
	second := first
	second.Sentiment = record.Negative
	if _, err := col.BulkUpsert(ctx, []store.UpsertOp{{Key: "t1", Record: second}}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	positives, err := col.Count(ctx, store.Filter{record.FieldSentiment: "positive"})
	if err != nil {
		t.Fatalf("Count positives failed: %v", err)
	}
	negatives, err := col.Count(ctx, store.Filter{record.FieldSentiment: "negative"})
	if err != nil {
		t.Fatalf("Count negatives failed: %v", err)
	}

	if positives != 0 || negatives != 1 {
		t.Errorf("Index entries stale after update: positives=%d negatives=%d", positives, negatives)
	}
}

func TestBadgerStore_CreateIndexTwiceIsBenign(t *testing.T) {
	db, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	col := db.Collection("processed_sentiment_data")
	ctx := context.Background()

	idx := store.Index{Fields: []string{record.FieldTimePeriod, record.FieldSentiment}}
	if err := col.CreateIndex(ctx, idx); err != nil {
		t.Fatalf("CreateIndex failed: %v", err)
	}
	if err := col.CreateIndex(ctx, idx); err != nil {
		t.Fatalf("repeated CreateIndex should be a no-op, got: %v", err)
	}
}

func TestBadgerStore_Persistence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "sentipipe-badger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()

	// Write with first instance
	{
		db, err := Open(Config{Path: tmpDir})
		if err != nil {
			t.Fatalf("Failed to open database: %v", err)
		}
		col := db.Collection("processed_sentiment_data")
		if _, err := col.BulkUpsert(ctx, testRecords()); err != nil {
			t.Fatalf("BulkUpsert failed: %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}

	// Read with second instance
	{
		db, err := Open(Config{Path: tmpDir})
		if err != nil {
			t.Fatalf("Failed to reopen database: %v", err)
		}
		defer db.Close()

		n, err := db.Collection("processed_sentiment_data").Count(ctx, nil)
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if n != 3 {
			t.Errorf("Expected 3 documents after reopen, got %d", n)
		}
	}
}
