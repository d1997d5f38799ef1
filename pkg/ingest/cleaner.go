package ingest

import (
	"sync"

	"github.com/nicktill/sentipipe/pkg/record"
)

// Diagnostics summarizes what the cleaning step saw. The null counts cover
// the full input before filtering and exist for reporting only; nothing
// downstream consumes them.
type Diagnostics struct {
	Input      int                    `json:"input"`
	Kept       int                    `json:"kept"`
	Dropped    int                    `json:"dropped"`
	NullCounts map[string]int         `json:"null_counts"`
	Sentiments map[record.Sentiment]int `json:"sentiments"`
}

// CleanAll validates raw records across a fixed number of partitions. The
// partitions are an opaque parallel map: no ordering guarantee between them
// and no shared mutable state. Rejected records are dropped, never erred.
func CleanAll(raws []record.Raw, partitions int) ([]record.Record, Diagnostics) {
	if partitions < 1 {
		partitions = 1
	}
	if partitions > len(raws) {
		partitions = len(raws)
	}

	diag := Diagnostics{
		Input:      len(raws),
		NullCounts: countNulls(raws),
		Sentiments: make(map[record.Sentiment]int),
	}
	if len(raws) == 0 {
		return nil, diag
	}

	results := make([][]record.Record, partitions)
	chunk := (len(raws) + partitions - 1) / partitions

	var wg sync.WaitGroup
	for p := 0; p < partitions; p++ {
		start := p * chunk
		end := start + chunk
		if end > len(raws) {
			end = len(raws)
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(p int, part []record.Raw) {
			defer wg.Done()
			kept := make([]record.Record, 0, len(part))
			for _, raw := range part {
				if rec, ok := record.Clean(raw); ok {
					kept = append(kept, rec)
				}
			}
			results[p] = kept
		}(p, raws[start:end])
	}
	wg.Wait()

	var cleaned []record.Record
	for _, part := range results {
		cleaned = append(cleaned, part...)
	}

	diag.Kept = len(cleaned)
	diag.Dropped = diag.Input - diag.Kept
	for _, rec := range cleaned {
		diag.Sentiments[rec.Sentiment]++
	}
	return cleaned, diag
}

// countNulls tallies missing values per source column over the whole batch
func countNulls(raws []record.Raw) map[string]int {
	nulls := map[string]int{
		record.FieldTextID:     0,
		record.FieldText:       0,
		record.FieldSentiment:  0,
		record.FieldTimePeriod: 0,
		record.FieldAgeBracket: 0,
	}
	for _, raw := range raws {
		if raw.TextID == "" {
			nulls[record.FieldTextID]++
		}
		if raw.Text == "" {
			nulls[record.FieldText]++
		}
		if raw.Sentiment == "" {
			nulls[record.FieldSentiment]++
		}
		if raw.TimePeriod == "" {
			nulls[record.FieldTimePeriod]++
		}
		if raw.AgeBracket == "" {
			nulls[record.FieldAgeBracket]++
		}
	}
	return nulls
}
