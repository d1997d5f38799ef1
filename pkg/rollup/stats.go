package rollup

import (
	"sort"

	"github.com/nicktill/sentipipe/pkg/record"
)

// Stats is the percentage breakdown for one grouping key. It only exists for
// keys with at least one counted document; callers get an explicit ok=false
// instead of a zero-filled value.
type Stats struct {
	Positive    int     `json:"positive_count"`
	Negative    int     `json:"negative_count"`
	Neutral     int     `json:"neutral_count"`
	Total       int     `json:"total"`
	PositivePct float64 `json:"positive_pct"`
	NegativePct float64 `json:"negative_pct"`
	NeutralPct  float64 `json:"neutral_pct"`
}

// ComputeStats derives counts and percentages from a tally. ok is false iff
// the tally is empty; percentages of a non-empty tally sum to 100 within
// floating-point tolerance.
func ComputeStats(t SentimentTally) (Stats, bool) {
	s := Stats{
		Positive: t[record.Positive],
		Negative: t[record.Negative],
		Neutral:  t[record.Neutral],
	}
	s.Total = s.Positive + s.Negative + s.Neutral
	if s.Total == 0 {
		return Stats{}, false
	}

	s.PositivePct = float64(s.Positive) / float64(s.Total) * 100
	s.NegativePct = float64(s.Negative) / float64(s.Total) * 100
	s.NeutralPct = float64(s.Neutral) / float64(s.Total) * 100
	return s, true
}

// KeyedStats pairs a grouping key with its stats
type KeyedStats struct {
	Key string `json:"key"`
	Stats
}

// Table flattens a tally into keyed stats, sorted ascending by key. Keys
// whose tally is empty are silently excluded, never reported as zero rows.
func Table(t Tally) []KeyedStats {
	list := make([]KeyedStats, 0, len(t))
	for key, tally := range t {
		if stats, ok := ComputeStats(tally); ok {
			list = append(list, KeyedStats{Key: key, Stats: stats})
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Key < list[j].Key
	})
	return list
}

// PeakSet holds the four independent extremum winners over a stats list.
// The winners may be the same key or four different keys; there is no joint
// ranking.
type PeakSet struct {
	MostPositive KeyedStats `json:"most_positive"`
	MostNegative KeyedStats `json:"most_negative"`
	MostNeutral  KeyedStats `json:"most_neutral"`
	MostActive   KeyedStats `json:"most_active"`
}

// Peaks selects the four maxima in a single pass. Returns nil iff the list
// is empty. Ties are broken deterministically: higher metric first, then
// lower key.
func Peaks(list []KeyedStats) *PeakSet {
	if len(list) == 0 {
		return nil
	}
	return &PeakSet{
		MostPositive: maxBy(list, func(s KeyedStats) float64 { return s.PositivePct }),
		MostNegative: maxBy(list, func(s KeyedStats) float64 { return s.NegativePct }),
		MostNeutral:  maxBy(list, func(s KeyedStats) float64 { return s.NeutralPct }),
		MostActive:   maxBy(list, func(s KeyedStats) float64 { return float64(s.Total) }),
	}
}

func maxBy(list []KeyedStats, metric func(KeyedStats) float64) KeyedStats {
	best := list[0]
	for _, s := range list[1:] {
		m, bm := metric(s), metric(best)
		if m > bm || (m == bm && s.Key < best.Key) {
			best = s
		}
	}
	return best
}

func minBy(list []KeyedStats, metric func(KeyedStats) float64) KeyedStats {
	best := list[0]
	for _, s := range list[1:] {
		m, bm := metric(s), metric(best)
		if m < bm || (m == bm && s.Key < best.Key) {
			best = s
		}
	}
	return best
}

// Variation reports how much an age group's positive sentiment swings across
// time periods.
type Variation struct {
	AgeGroup         string  `json:"age_group"`
	MostPositiveAt   string  `json:"most_positive_at"`
	MostPositivePct  float64 `json:"most_positive_pct"`
	LeastPositiveAt  string  `json:"least_positive_at"`
	LeastPositivePct float64 `json:"least_positive_pct"`
	Spread           float64 `json:"spread"`
}

// Variations computes, per age group, the time periods with maximum and
// minimum positive share and their difference. Groups with fewer than two
// time periods holding data are omitted: a single period has no variation
// to report.
func Variations(n NestedTally) []Variation {
	groups := make([]string, 0, len(n))
	for g := range n {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var out []Variation
	for _, g := range groups {
		table := Table(n[g])
		if len(table) < 2 {
			continue
		}
		high := maxBy(table, func(s KeyedStats) float64 { return s.PositivePct })
		low := minBy(table, func(s KeyedStats) float64 { return s.PositivePct })
		out = append(out, Variation{
			AgeGroup:         g,
			MostPositiveAt:   high.Key,
			MostPositivePct:  high.PositivePct,
			LeastPositiveAt:  low.Key,
			LeastPositivePct: low.PositivePct,
			Spread:           high.PositivePct - low.PositivePct,
		})
	}
	return out
}

// AgeComparison contrasts the youngest and oldest age groups
type AgeComparison struct {
	PositiveDiff float64 `json:"positive_diff"`
	NegativeDiff float64 `json:"negative_diff"`
}

// CompareYoungestOldest reports the sentiment gap between the 0-30 and
// 61-100 groups. ok is false unless both groups have data.
func CompareYoungestOldest(t Tally) (AgeComparison, bool) {
	young, okY := ComputeStats(t["0-30"])
	old, okO := ComputeStats(t["61-100"])
	if !okY || !okO {
		return AgeComparison{}, false
	}
	return AgeComparison{
		PositiveDiff: young.PositivePct - old.PositivePct,
		NegativeDiff: young.NegativePct - old.NegativePct,
	}, true
}
