package rollup

import (
	"math"
	"testing"

	"github.com/nicktill/sentipipe/pkg/record"
)

func TestComputeStats_PercentageClosure(t *testing.T) {
	tallies := []SentimentTally{
		{record.Positive: 1, record.Negative: 1, record.Neutral: 1},
		{record.Positive: 7},
		{record.Positive: 3, record.Negative: 14},
		{record.Positive: 13, record.Negative: 17, record.Neutral: 19},
	}
	for _, tally := range tallies {
		stats, ok := ComputeStats(tally)
		if !ok {
			t.Fatalf("unexpected empty stats for %v", tally)
		}
		sum := stats.PositivePct + stats.NegativePct + stats.NeutralPct
		if math.Abs(sum-100.0) > 1e-6 {
			t.Errorf("percentages for %v sum to %v, want 100", tally, sum)
		}
	}
}

func TestComputeStats_EmptyTally(t *testing.T) {
	if _, ok := ComputeStats(SentimentTally{}); ok {
		t.Error("empty tally must not produce stats")
	}
	if _, ok := ComputeStats(nil); ok {
		t.Error("nil tally must not produce stats")
	}
}

func TestTable_ExcludesEmptyGroups(t *testing.T) {
	tally := Tally{
		"morning": {record.Positive: 2},
		"night":   {},
		"noon":    {record.Negative: 1},
	}
	table := Table(tally)

	if len(table) != 2 {
		t.Fatalf("table has %d rows, want 2", len(table))
	}
	// Ascending by key, zero-total key absent rather than zero-filled.
	if table[0].Key != "morning" || table[1].Key != "noon" {
		t.Errorf("table keys = %q, %q", table[0].Key, table[1].Key)
	}
}

func TestPeaks_IndependentMaxima(t *testing.T) {
	list := []KeyedStats{
		{Key: "morning", Stats: Stats{Positive: 8, Negative: 1, Neutral: 1, Total: 10, PositivePct: 80, NegativePct: 10, NeutralPct: 10}},
		{Key: "night", Stats: Stats{Positive: 10, Negative: 30, Neutral: 10, Total: 50, PositivePct: 20, NegativePct: 60, NeutralPct: 20}},
	}

	peaks := Peaks(list)
	if peaks == nil {
		t.Fatal("expected peaks for a non-empty list")
	}
	if peaks.MostPositive.Key != "morning" {
		t.Errorf("most positive = %q, want morning", peaks.MostPositive.Key)
	}
	if peaks.MostNegative.Key != "night" {
		t.Errorf("most negative = %q, want night", peaks.MostNegative.Key)
	}
	if peaks.MostActive.Key != "night" {
		t.Errorf("most active = %q, want night", peaks.MostActive.Key)
	}
}

func TestPeaks_EmptyList(t *testing.T) {
	if Peaks(nil) != nil {
		t.Error("peaks over an empty list must be nil, not zero-filled")
	}
}

func TestPeaks_TieBreaksOnKey(t *testing.T) {
	// Equal metrics: the lower key must win, regardless of list order.
	list := []KeyedStats{
		{Key: "noon", Stats: Stats{Positive: 5, Total: 10, PositivePct: 50}},
		{Key: "morning", Stats: Stats{Positive: 5, Total: 10, PositivePct: 50}},
	}
	peaks := Peaks(list)
	if peaks.MostPositive.Key != "morning" {
		t.Errorf("tie broke to %q, want morning", peaks.MostPositive.Key)
	}
	if peaks.MostActive.Key != "morning" {
		t.Errorf("active tie broke to %q, want morning", peaks.MostActive.Key)
	}
}

func TestVariations_RequiresTwoPeriods(t *testing.T) {
	nested := NestedTally{
		"0-30": {
			"morning": {record.Positive: 8, record.Negative: 2},
			"night":   {record.Positive: 2, record.Negative: 8},
		},
		"31-60": {
			"noon": {record.Positive: 5},
		},
	}

	vars := Variations(nested)
	if len(vars) != 1 {
		t.Fatalf("got %d variations, want 1 (single-period groups omitted)", len(vars))
	}

	v := vars[0]
	if v.AgeGroup != "0-30" {
		t.Errorf("age group = %q", v.AgeGroup)
	}
	if v.MostPositiveAt != "morning" || v.LeastPositiveAt != "night" {
		t.Errorf("variation endpoints = %q / %q", v.MostPositiveAt, v.LeastPositiveAt)
	}
	if math.Abs(v.Spread-60.0) > 1e-6 {
		t.Errorf("spread = %v, want 60", v.Spread)
	}
}

func TestVariations_SkipsEmptyPeriods(t *testing.T) {
	// A period with zero counts contributes no table row, so a group with
	// one real period and one empty one has nothing to compare.
	nested := NestedTally{
		"0-30": {
			"morning": {record.Positive: 4},
			"night":   {},
		},
	}
	if vars := Variations(nested); len(vars) != 0 {
		t.Errorf("expected no variations, got %+v", vars)
	}
}

func TestCompareYoungestOldest(t *testing.T) {
	tally := Tally{
		"0-30":   {record.Positive: 6, record.Negative: 4},
		"61-100": {record.Positive: 4, record.Negative: 6},
	}

	cmp, ok := CompareYoungestOldest(tally)
	if !ok {
		t.Fatal("expected comparison when both groups have data")
	}
	if math.Abs(cmp.PositiveDiff-20.0) > 1e-6 {
		t.Errorf("positive diff = %v, want 20", cmp.PositiveDiff)
	}
	if math.Abs(cmp.NegativeDiff+20.0) > 1e-6 {
		t.Errorf("negative diff = %v, want -20", cmp.NegativeDiff)
	}

	if _, ok := CompareYoungestOldest(Tally{"0-30": {record.Positive: 1}}); ok {
		t.Error("comparison requires both ends of the age range")
	}
}
