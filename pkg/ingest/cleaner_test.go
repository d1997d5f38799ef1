package ingest

import (
	"fmt"
	"testing"

	"github.com/nicktill/sentipipe/pkg/record"
)

func TestCleanAll_DropsInvalidRecords(t *testing.T) {
	raws := []record.Raw{
		{TextID: "t1", Text: "good", Sentiment: "positive"},
		{TextID: "t2", Text: "", Sentiment: "negative"},
		{TextID: "t3", Text: "fine", Sentiment: ""},
		{TextID: "t4", Text: "ok", Sentiment: "neutral"},
	}

	cleaned, diag := CleanAll(raws, 2)

	if len(cleaned) != 2 {
		t.Fatalf("kept %d records, want 2", len(cleaned))
	}
	if diag.Input != 4 || diag.Kept != 2 || diag.Dropped != 2 {
		t.Errorf("diagnostics = %+v", diag)
	}
}

func TestCleanAll_NullCountsCoverFullInput(t *testing.T) {
	raws := []record.Raw{
		{TextID: "t1", Text: "good", Sentiment: "positive", TimePeriod: "morning", AgeBracket: "21-30"},
		{TextID: "", Text: "", Sentiment: "negative"},
	}

	_, diag := CleanAll(raws, 1)

	// Counted before filtering: the dropped record's nulls still show up.
	if diag.NullCounts[record.FieldTextID] != 1 {
		t.Errorf("textID nulls = %d, want 1", diag.NullCounts[record.FieldTextID])
	}
	if diag.NullCounts[record.FieldText] != 1 {
		t.Errorf("text nulls = %d, want 1", diag.NullCounts[record.FieldText])
	}
	if diag.NullCounts[record.FieldTimePeriod] != 1 {
		t.Errorf("time period nulls = %d, want 1", diag.NullCounts[record.FieldTimePeriod])
	}
}

func TestCleanAll_SentimentDistribution(t *testing.T) {
	raws := []record.Raw{
		{TextID: "t1", Text: "a", Sentiment: "positive"},
		{TextID: "t2", Text: "b", Sentiment: "positive"},
		{TextID: "t3", Text: "c", Sentiment: "neutral"},
	}

	_, diag := CleanAll(raws, 1)

	if diag.Sentiments[record.Positive] != 2 || diag.Sentiments[record.Neutral] != 1 {
		t.Errorf("sentiment distribution = %+v", diag.Sentiments)
	}
}

func TestCleanAll_PartitionCountDoesNotChangeResult(t *testing.T) {
	var raws []record.Raw
	for i := 0; i < 100; i++ {
		sentiment := "positive"
		if i%3 == 0 {
			sentiment = "" // rejected
		}
		raws = append(raws, record.Raw{
			TextID:    fmt.Sprintf("t%d", i),
			Text:      "text",
			Sentiment: sentiment,
		})
	}

	for _, partitions := range []int{1, 4, 8, 200} {
		cleaned, diag := CleanAll(raws, partitions)
		if len(cleaned) != 66 {
			t.Errorf("partitions=%d: kept %d, want 66", partitions, len(cleaned))
		}
		if diag.Dropped != 34 {
			t.Errorf("partitions=%d: dropped %d, want 34", partitions, diag.Dropped)
		}
	}
}

func TestCleanAll_EmptyInput(t *testing.T) {
	cleaned, diag := CleanAll(nil, 8)
	if len(cleaned) != 0 {
		t.Errorf("cleaned = %v", cleaned)
	}
	if diag.Input != 0 || diag.Dropped != 0 {
		t.Errorf("diagnostics = %+v", diag)
	}
}
