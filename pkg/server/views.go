package server

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/nicktill/sentipipe/pkg/httpx"
	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/rollup"
	"github.com/nicktill/sentipipe/pkg/store"
)

// baseTimeOrder is the canonical chart ordering for time-of-day values.
// Values outside this list are appended sorted, not rejected.
var baseTimeOrder = []string{
	"late night",
	"early morning",
	"morning",
	"noon",
	"afternoon",
	"evening",
	"night",
}

// presentationAgeGroups coarsens raw age brackets for charting. Unlike the
// engine-side rollup, unmapped brackets pass through unchanged here so new
// upstream brackets show up in the dashboard instead of collapsing into a
// catch-all bucket.
var presentationAgeGroups = map[string]string{
	"0-20":   "0-30",
	"21-30":  "0-30",
	"31-45":  "31-60",
	"46-60":  "31-60",
	"60-70":  "61-100",
	"70-100": "61-100",
}

// NormalizeTimePeriod canonicalizes a stored time-of-day value for display
func NormalizeTimePeriod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// PresentationAgeGroup maps a raw age bracket to its display group,
// passing unknown brackets through unchanged.
func PresentationAgeGroup(bracket string) string {
	if group, ok := presentationAgeGroups[bracket]; ok {
		return group
	}
	return bracket
}

// TimePeriodOrder returns the present time periods in canonical chart order:
// the base ordering first, then any values outside it sorted alphabetically.
func TimePeriodOrder(present map[string]bool) []string {
	order := make([]string, 0, len(present))
	seen := make(map[string]bool, len(present))
	for _, p := range baseTimeOrder {
		if present[p] {
			order = append(order, p)
			seen[p] = true
		}
	}
	var extras []string
	for p := range present {
		if !seen[p] {
			extras = append(extras, p)
		}
	}
	sort.Strings(extras)
	return append(order, extras...)
}

// IntensityScore collapses a cell's sentiment mix into one chartable number
// in [-1, 1]: +1 all positive, -1 all negative, 0 balanced or all neutral.
func IntensityScore(s rollup.Stats) float64 {
	return (s.PositivePct - s.NegativePct) / 100
}

// viewRow is one record reduced to its chartable dimensions
type viewRow struct {
	sentiment   record.Sentiment
	timePeriod  string
	ageGroup    string
	processedAt time.Time
}

// ViewHandler serves the dashboard-facing read API. It aggregates directly
// from the processed collection with presentation-side policies, which
// deliberately differ from the batch rollup (passthrough age mapping,
// normalized time values).
type ViewHandler struct {
	store store.Store
}

// NewViewHandler creates a view handler over the processed collection
func NewViewHandler(s store.Store) *ViewHandler {
	return &ViewHandler{store: s}
}

// fetch loads the chartable projection of the processed collection. Rows
// missing any charted dimension are dropped.
func (v *ViewHandler) fetch(ctx context.Context) ([]viewRow, error) {
	docs, err := v.store.Find(ctx, store.FindQuery{
		Projection: []string{
			record.FieldSentiment,
			record.FieldTimePeriod,
			record.FieldAgeBracket,
			record.FieldProcessedAt,
		},
	})
	if err != nil {
		return nil, err
	}

	rows := make([]viewRow, 0, len(docs))
	for _, d := range docs {
		if d.Sentiment == "" || d.TimePeriod == "" || d.AgeBracket == "" {
			continue
		}
		rows = append(rows, viewRow{
			sentiment:   record.Sentiment(strings.ToLower(string(d.Sentiment))),
			timePeriod:  NormalizeTimePeriod(d.TimePeriod),
			ageGroup:    PresentationAgeGroup(d.AgeBracket),
			processedAt: d.ProcessedAt,
		})
	}
	return rows, nil
}

// ViewCell is one table row in a rollup response
type ViewCell struct {
	rollup.KeyedStats
	Intensity float64 `json:"intensity"`
}

func cells(t rollup.Tally, order []string) []ViewCell {
	byKey := make(map[string]rollup.KeyedStats)
	for _, ks := range rollup.Table(t) {
		byKey[ks.Key] = ks
	}

	out := make([]ViewCell, 0, len(byKey))
	for _, key := range order {
		ks, ok := byKey[key]
		if !ok {
			continue
		}
		out = append(out, ViewCell{KeyedStats: ks, Intensity: IntensityScore(ks.Stats)})
	}
	return out
}

func sortedKeys(t rollup.Tally) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// OverviewResponse is the overall sentiment mix
type OverviewResponse struct {
	Total  int                          `json:"total"`
	Counts map[record.Sentiment]int     `json:"counts"`
	Shares map[record.Sentiment]float64 `json:"shares"`
}

// HandleOverview handles GET /v1/overview
func (v *ViewHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	rows, err := v.fetch(r.Context())
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	resp := OverviewResponse{
		Counts: make(map[record.Sentiment]int),
		Shares: make(map[record.Sentiment]float64),
	}
	for _, row := range rows {
		resp.Counts[row.sentiment]++
		resp.Total++
	}
	for s, n := range resp.Counts {
		resp.Shares[s] = float64(n) / float64(resp.Total) * 100
	}

	httpx.RespondJSON(w, http.StatusOK, resp)
}

// RollupResponse is a one-dimension rollup table with its peaks
type RollupResponse struct {
	Rows  []ViewCell      `json:"rows"`
	Peaks *rollup.PeakSet `json:"peaks,omitempty"`
}

// HandleRollupTime handles GET /v1/rollup/time
func (v *ViewHandler) HandleRollupTime(w http.ResponseWriter, r *http.Request) {
	rows, err := v.fetch(r.Context())
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	tally := rollup.Tally{}
	present := make(map[string]bool)
	for _, row := range rows {
		if tally[row.timePeriod] == nil {
			tally[row.timePeriod] = rollup.SentimentTally{}
		}
		tally[row.timePeriod][row.sentiment]++
		present[row.timePeriod] = true
	}

	httpx.RespondJSON(w, http.StatusOK, RollupResponse{
		Rows:  cells(tally, TimePeriodOrder(present)),
		Peaks: rollup.Peaks(rollup.Table(tally)),
	})
}

// HandleRollupAge handles GET /v1/rollup/age
func (v *ViewHandler) HandleRollupAge(w http.ResponseWriter, r *http.Request) {
	rows, err := v.fetch(r.Context())
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	tally := rollup.Tally{}
	for _, row := range rows {
		if tally[row.ageGroup] == nil {
			tally[row.ageGroup] = rollup.SentimentTally{}
		}
		tally[row.ageGroup][row.sentiment]++
	}

	httpx.RespondJSON(w, http.StatusOK, RollupResponse{
		Rows:  cells(tally, sortedKeys(tally)),
		Peaks: rollup.Peaks(rollup.Table(tally)),
	})
}

// AgeTimeResponse is the nested age-by-time rollup with its variations
type AgeTimeResponse struct {
	Groups     map[string][]ViewCell `json:"groups"`
	Variations []rollup.Variation    `json:"variations,omitempty"`
}

// HandleRollupAgeTime handles GET /v1/rollup/age-time
func (v *ViewHandler) HandleRollupAgeTime(w http.ResponseWriter, r *http.Request) {
	rows, err := v.fetch(r.Context())
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	nested := rollup.NestedTally{}
	present := make(map[string]bool)
	for _, row := range rows {
		if nested[row.ageGroup] == nil {
			nested[row.ageGroup] = rollup.Tally{}
		}
		if nested[row.ageGroup][row.timePeriod] == nil {
			nested[row.ageGroup][row.timePeriod] = rollup.SentimentTally{}
		}
		nested[row.ageGroup][row.timePeriod][row.sentiment]++
		present[row.timePeriod] = true
	}

	order := TimePeriodOrder(present)
	resp := AgeTimeResponse{
		Groups:     make(map[string][]ViewCell, len(nested)),
		Variations: rollup.Variations(nested),
	}
	for group, tally := range nested {
		resp.Groups[group] = cells(tally, order)
	}

	httpx.RespondJSON(w, http.StatusOK, resp)
}

// ThroughputBucket is one 5-minute ingestion window
type ThroughputBucket struct {
	Start  time.Time                `json:"start"`
	Counts map[record.Sentiment]int `json:"counts"`
}

// HandleThroughput handles GET /v1/throughput: processed-record counts per
// sentiment in 5-minute buckets of the processing timestamp.
func (v *ViewHandler) HandleThroughput(w http.ResponseWriter, r *http.Request) {
	rows, err := v.fetch(r.Context())
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	buckets := make(map[time.Time]map[record.Sentiment]int)
	for _, row := range rows {
		if row.processedAt.IsZero() {
			continue
		}
		start := row.processedAt.Truncate(5 * time.Minute)
		if buckets[start] == nil {
			buckets[start] = make(map[record.Sentiment]int)
		}
		buckets[start][row.sentiment]++
	}

	out := make([]ThroughputBucket, 0, len(buckets))
	for start, counts := range buckets {
		out = append(out, ThroughputBucket{Start: start, Counts: counts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })

	httpx.RespondJSON(w, http.StatusOK, out)
}
