package rollup

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/store"
)

// Row is one flat grouped-count result: the grouping keys (without
// sentiment), the sentiment label, and the document count.
type Row struct {
	Keys      []string
	Sentiment record.Sentiment
	Count     int
}

// SentimentTally counts documents by sentiment label for one grouping key
type SentimentTally map[record.Sentiment]int

// Total sums all labels in the tally
func (t SentimentTally) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// Tally is the nested result of a 2-key scheme: primary key -> sentiment counts
type Tally map[string]SentimentTally

// NestedTally is the result of the 3-key scheme: age group -> time period ->
// sentiment counts
type NestedTally map[string]Tally

// Result is a folded aggregation for one scheme. Exactly one of Groups or
// Nested is populated, decided by the scheme's arity.
type Result struct {
	Scheme Scheme
	Groups Tally       // arity 2
	Nested NestedTally // arity 3
}

// Engine issues grouped-count queries against the processed collection and
// folds the flat results into nested tallies. Every aggregation run rebuilds
// its tallies from a full snapshot; nothing is merged incrementally.
type Engine struct {
	store store.Store
}

// NewEngine creates an aggregation engine
func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// Aggregate runs one scheme's grouped count. Rows come back totally ordered
// by the grouping-key tuple, then sentiment; the ordering only serves
// diagnostic determinism, the fold does not depend on it.
//
// There is no partial-failure mode: either the full flat result is returned
// or the whole call fails.
func (e *Engine) Aggregate(ctx context.Context, scheme Scheme) ([]Row, error) {
	docs, err := e.store.Find(ctx, store.FindQuery{
		Projection: []string{record.FieldSentiment, record.FieldTimePeriod, record.FieldAgeBracket},
	})
	if err != nil {
		return nil, fmt.Errorf("%s aggregation failed: %w", scheme, err)
	}

	type groupKey struct {
		primary   string
		secondary string
		sentiment record.Sentiment
	}
	counts := make(map[groupKey]int)

	for _, doc := range docs {
		var key groupKey
		key.sentiment = doc.Sentiment

		// The age coarsening applies before grouping: the group key holds
		// the derived value, not the raw bracket.
		switch scheme {
		case ByTime:
			key.primary = doc.TimePeriod
		case ByAge:
			key.primary = AgeGroup(doc.AgeBracket)
		case ByAgeTime:
			key.primary = AgeGroup(doc.AgeBracket)
			key.secondary = doc.TimePeriod
		default:
			return nil, fmt.Errorf("unknown scheme %d", int(scheme))
		}
		counts[key]++
	}

	rows := make([]Row, 0, len(counts))
	for key, count := range counts {
		keys := []string{key.primary}
		if scheme.Arity() == 3 {
			keys = append(keys, key.secondary)
		}
		rows = append(rows, Row{Keys: keys, Sentiment: key.sentiment, Count: count})
	}

	sort.Slice(rows, func(i, j int) bool {
		for k := range rows[i].Keys {
			if rows[i].Keys[k] != rows[j].Keys[k] {
				return rows[i].Keys[k] < rows[j].Keys[k]
			}
		}
		return rows[i].Sentiment < rows[j].Sentiment
	})

	return rows, nil
}

// Fold builds the nested tally for a scheme from its flat rows. Row arity is
// validated against the scheme before any counting happens; a mismatch is an
// error, not a misroute.
func Fold(scheme Scheme, rows []Row) (*Result, error) {
	wantKeys := scheme.Arity() - 1
	for _, row := range rows {
		if len(row.Keys) != wantKeys {
			return nil, fmt.Errorf("%s fold: row has %d grouping keys, want %d", scheme, len(row.Keys), wantKeys)
		}
	}

	result := &Result{Scheme: scheme}
	switch scheme.Arity() {
	case 2:
		result.Groups = make(Tally)
		for _, row := range rows {
			primary := row.Keys[0]
			if result.Groups[primary] == nil {
				result.Groups[primary] = make(SentimentTally)
			}
			result.Groups[primary][row.Sentiment] = row.Count
		}
	case 3:
		result.Nested = make(NestedTally)
		for _, row := range rows {
			primary, secondary := row.Keys[0], row.Keys[1]
			if result.Nested[primary] == nil {
				result.Nested[primary] = make(Tally)
			}
			if result.Nested[primary][secondary] == nil {
				result.Nested[primary][secondary] = make(SentimentTally)
			}
			result.Nested[primary][secondary][row.Sentiment] = row.Count
		}
	}
	return result, nil
}

// Run aggregates and folds one scheme
func (e *Engine) Run(ctx context.Context, scheme Scheme) (*Result, error) {
	rows, err := e.Aggregate(ctx, scheme)
	if err != nil {
		return nil, err
	}
	return Fold(scheme, rows)
}

// Dimension is one scheme's outcome inside a full analysis run. A failed
// query surfaces here as Err; it never aborts the other dimensions.
type Dimension struct {
	Scheme Scheme
	Result *Result
	Err    error
}

// Empty reports whether the dimension produced no data at all. A failed
// dimension is not empty: its error is reported separately.
func (d Dimension) Empty() bool {
	if d.Err != nil || d.Result == nil {
		return false
	}
	return len(d.Result.Groups) == 0 && len(d.Result.Nested) == 0
}

// Analysis holds the outcome of all three schemes
type Analysis struct {
	Time    Dimension
	Age     Dimension
	AgeTime Dimension
}

// RunAll runs the three schemes concurrently. Aggregation is read-only, so
// the queries do not interfere; each failure stays isolated to its own
// dimension.
func (e *Engine) RunAll(ctx context.Context) Analysis {
	dims := [3]Dimension{
		{Scheme: ByTime},
		{Scheme: ByAge},
		{Scheme: ByAgeTime},
	}

	var wg sync.WaitGroup
	for i := range dims {
		wg.Add(1)
		go func(d *Dimension) {
			defer wg.Done()
			d.Result, d.Err = e.Run(ctx, d.Scheme)
		}(&dims[i])
	}
	wg.Wait()

	return Analysis{Time: dims[0], Age: dims[1], AgeTime: dims[2]}
}
