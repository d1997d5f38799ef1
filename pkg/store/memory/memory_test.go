package memory

import (
	"context"
	"testing"

	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/store"
)

func seedRecords() []store.UpsertOp {
	recs := []record.Record{
		{TextID: "t1", Text: "good", Sentiment: record.Positive, TimePeriod: "morning", AgeBracket: "21-30"},
		{TextID: "t2", Text: "bad", Sentiment: record.Negative, TimePeriod: "night", AgeBracket: "46-60"},
		{TextID: "t3", Text: "meh", Sentiment: record.Neutral, TimePeriod: "morning", AgeBracket: "70-100"},
	}
	ops := make([]store.UpsertOp, len(recs))
	for i, r := range recs {
		ops[i] = store.UpsertOp{Key: r.TextID, Record: r}
	}
	return ops
}

func TestMemoryStore_UpsertAndFind(t *testing.T) {
	db := New()
	defer db.Close()

	col := db.Collection("processed_sentiment_data")
	ctx := context.Background()

	result, err := col.BulkUpsert(ctx, seedRecords())
	if err != nil {
		t.Fatalf("BulkUpsert failed: %v", err)
	}
	if result.Inserted != 3 || result.Modified != 0 {
		t.Errorf("Expected 3 inserts, got %+v", result)
	}

	docs, err := col.Find(ctx, store.FindQuery{
		Filter: store.Filter{record.FieldTimePeriod: "morning"},
	})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("Expected 2 morning documents, got %d", len(docs))
	}
}

func TestMemoryStore_UpsertReplacesExisting(t *testing.T) {
	db := New()
	defer db.Close()

	col := db.Collection("processed_sentiment_data")
	ctx := context.Background()

	first := record.Record{TextID: "t1", Text: "good", Sentiment: record.Positive, TimePeriod: "morning"}
	second := record.Record{TextID: "t1", Text: "bad", Sentiment: record.Negative, TimePeriod: "night"}

	if _, err := col.BulkUpsert(ctx, []store.UpsertOp{{Key: "t1", Record: first}}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	result, err := col.BulkUpsert(ctx, []store.UpsertOp{{Key: "t1", Record: second}})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if result.Inserted != 0 || result.Modified != 1 {
		t.Errorf("Expected pure update, got %+v", result)
	}

	n, err := col.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected exactly one document for t1, got %d", n)
	}

	docs, err := col.Find(ctx, store.FindQuery{Filter: store.Filter{record.FieldTextID: "t1"}})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(docs) != 1 || docs[0].Sentiment != record.Negative {
		t.Errorf("Expected last write to win, got %+v", docs)
	}
}

func TestMemoryStore_Projection(t *testing.T) {
	db := New()
	defer db.Close()

	col := db.Collection("processed_sentiment_data")
	ctx := context.Background()

	if _, err := col.BulkUpsert(ctx, seedRecords()); err != nil {
		t.Fatalf("BulkUpsert failed: %v", err)
	}

	docs, err := col.Find(ctx, store.FindQuery{
		Projection: []string{record.FieldSentiment},
	})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	for _, doc := range docs {
		if doc.Text != "" {
			t.Errorf("Projection leaked text field: %+v", doc)
		}
		if doc.TextID == "" || doc.Sentiment == "" {
			t.Errorf("Projection dropped requested fields: %+v", doc)
		}
	}
}

func TestMemoryStore_CountWithFilter(t *testing.T) {
	db := New()
	defer db.Close()

	col := db.Collection("processed_sentiment_data")
	ctx := context.Background()

	if _, err := col.BulkUpsert(ctx, seedRecords()); err != nil {
		t.Fatalf("BulkUpsert failed: %v", err)
	}

	n, err := col.Count(ctx, store.Filter{record.FieldSentiment: "positive"})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 positive document, got %d", n)
	}
}

func TestMemoryStore_CreateIndexIdempotent(t *testing.T) {
	db := New()
	defer db.Close()

	col := db.Collection("processed_sentiment_data").(*Collection)
	ctx := context.Background()

	idx := store.Index{Fields: []string{record.FieldTimePeriod}}
	if err := col.CreateIndex(ctx, idx); err != nil {
		t.Fatalf("CreateIndex failed: %v", err)
	}
	// Second creation must be benign
	if err := col.CreateIndex(ctx, idx); err != nil {
		t.Fatalf("repeated CreateIndex should not fail: %v", err)
	}
	if got := col.Indexes(); len(got) != 1 {
		t.Errorf("Expected 1 registered index, got %v", got)
	}
}

func TestMemoryStore_CollectionsAreIsolated(t *testing.T) {
	db := New()
	defer db.Close()

	ctx := context.Background()
	raw := db.Collection("collection_1")
	processed := db.Collection("processed_sentiment_data")

	if _, err := raw.BulkUpsert(ctx, seedRecords()); err != nil {
		t.Fatalf("BulkUpsert failed: %v", err)
	}

	n, err := processed.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected empty processed collection, got %d documents", n)
	}
}
