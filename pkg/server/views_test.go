package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nicktill/sentipipe/pkg/config"
	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/rollup"
	"github.com/nicktill/sentipipe/pkg/store"
	"github.com/nicktill/sentipipe/pkg/store/memory"
)

func newViewHandler(t *testing.T, recs []record.Record) *ViewHandler {
	t.Helper()
	db := memory.New()
	t.Cleanup(func() { db.Close() })
	col := db.Collection(config.ProcessedCollection)

	ops := make([]store.UpsertOp, len(recs))
	for i, r := range recs {
		ops[i] = store.UpsertOp{Key: r.TextID, Record: r}
	}
	_, err := col.BulkUpsert(context.Background(), ops)
	require.NoError(t, err)
	return NewViewHandler(col)
}

func TestPresentationAgeGroup(t *testing.T) {
	require.Equal(t, "0-30", PresentationAgeGroup("0-20"))
	require.Equal(t, "0-30", PresentationAgeGroup("21-30"))
	require.Equal(t, "31-60", PresentationAgeGroup("46-60"))
	require.Equal(t, "61-100", PresentationAgeGroup("70-100"))

	// unmapped brackets pass through, unlike the batch rollup
	require.Equal(t, "18-25", PresentationAgeGroup("18-25"))
}

func TestTimePeriodOrder(t *testing.T) {
	present := map[string]bool{
		"night":       true,
		"morning":     true,
		"dusk":        true,
		"late night":  true,
		"brunch time": true,
	}
	require.Equal(t,
		[]string{"late night", "morning", "night", "brunch time", "dusk"},
		TimePeriodOrder(present))
}

func TestHandleOverview(t *testing.T) {
	handler := newViewHandler(t, []record.Record{
		{TextID: "t1", Text: "a", Sentiment: "positive", TimePeriod: "morning", AgeBracket: "0-20"},
		{TextID: "t2", Text: "b", Sentiment: "positive", TimePeriod: "noon", AgeBracket: "21-30"},
		{TextID: "t3", Text: "c", Sentiment: "negative", TimePeriod: "night", AgeBracket: "46-60"},
		{TextID: "t4", Text: "d", Sentiment: "neutral", TimePeriod: "night"}, // no age: excluded
	})

	rr := httptest.NewRecorder()
	handler.HandleOverview(rr, httptest.NewRequest(http.MethodGet, "/v1/overview", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp OverviewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Total)
	require.Equal(t, 2, resp.Counts[record.Positive])
	require.Equal(t, 1, resp.Counts[record.Negative])
	require.InDelta(t, 66.666, resp.Shares[record.Positive], 0.01)
}

func TestHandleRollupTimeOrdersCanonically(t *testing.T) {
	handler := newViewHandler(t, []record.Record{
		{TextID: "t1", Text: "a", Sentiment: "positive", TimePeriod: "Night ", AgeBracket: "0-20"},
		{TextID: "t2", Text: "b", Sentiment: "negative", TimePeriod: "morning", AgeBracket: "21-30"},
		{TextID: "t3", Text: "c", Sentiment: "neutral", TimePeriod: "late night", AgeBracket: "46-60"},
	})

	rr := httptest.NewRecorder()
	handler.HandleRollupTime(rr, httptest.NewRequest(http.MethodGet, "/v1/rollup/time", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp RollupResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 3)

	// "Night " was normalized and sorted into canonical chart order
	require.Equal(t, "late night", resp.Rows[0].Key)
	require.Equal(t, "morning", resp.Rows[1].Key)
	require.Equal(t, "night", resp.Rows[2].Key)
	require.NotNil(t, resp.Peaks)
	require.Equal(t, "night", resp.Peaks.MostPositive.Key)
}

func TestHandleRollupAgePassthrough(t *testing.T) {
	handler := newViewHandler(t, []record.Record{
		{TextID: "t1", Text: "a", Sentiment: "positive", TimePeriod: "morning", AgeBracket: "0-20"},
		{TextID: "t2", Text: "b", Sentiment: "negative", TimePeriod: "noon", AgeBracket: "21-30"},
		{TextID: "t3", Text: "c", Sentiment: "neutral", TimePeriod: "night", AgeBracket: "18-25"},
	})

	rr := httptest.NewRecorder()
	handler.HandleRollupAge(rr, httptest.NewRequest(http.MethodGet, "/v1/rollup/age", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp RollupResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Rows, 2)

	// 0-20 and 21-30 merge; the unmapped bracket survives as-is
	require.Equal(t, "0-30", resp.Rows[0].Key)
	require.Equal(t, 2, resp.Rows[0].Total)
	require.Equal(t, "18-25", resp.Rows[1].Key)
}

func TestHandleRollupAgeTime(t *testing.T) {
	handler := newViewHandler(t, []record.Record{
		{TextID: "t1", Text: "a", Sentiment: "positive", TimePeriod: "morning", AgeBracket: "0-20"},
		{TextID: "t2", Text: "b", Sentiment: "positive", TimePeriod: "morning", AgeBracket: "21-30"},
		{TextID: "t3", Text: "c", Sentiment: "negative", TimePeriod: "night", AgeBracket: "0-20"},
	})

	rr := httptest.NewRecorder()
	handler.HandleRollupAgeTime(rr, httptest.NewRequest(http.MethodGet, "/v1/rollup/age-time", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp AgeTimeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Contains(t, resp.Groups, "0-30")
	require.Len(t, resp.Groups["0-30"], 2)

	morning := resp.Groups["0-30"][0]
	require.Equal(t, "morning", morning.Key)
	require.InDelta(t, 1.0, morning.Intensity, 1e-9)

	require.Len(t, resp.Variations, 1)
	require.Equal(t, "0-30", resp.Variations[0].AgeGroup)
	require.Equal(t, "morning", resp.Variations[0].MostPositiveAt)
}

func TestHandleThroughputBuckets(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	handler := newViewHandler(t, []record.Record{
		{TextID: "t1", Text: "a", Sentiment: "positive", TimePeriod: "morning", AgeBracket: "0-20", ProcessedAt: base.Add(1 * time.Minute)},
		{TextID: "t2", Text: "b", Sentiment: "negative", TimePeriod: "noon", AgeBracket: "21-30", ProcessedAt: base.Add(2 * time.Minute)},
		{TextID: "t3", Text: "c", Sentiment: "positive", TimePeriod: "night", AgeBracket: "46-60", ProcessedAt: base.Add(7 * time.Minute)},
	})

	rr := httptest.NewRecorder()
	handler.HandleThroughput(rr, httptest.NewRequest(http.MethodGet, "/v1/throughput", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp []ThroughputBucket
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	require.True(t, resp[0].Start.Equal(base))
	require.Equal(t, 1, resp[0].Counts[record.Positive])
	require.Equal(t, 1, resp[0].Counts[record.Negative])
	require.True(t, resp[1].Start.Equal(base.Add(5*time.Minute)))
}

func TestIntensityScore(t *testing.T) {
	cases := []struct {
		pos, neg, neu int
		want          float64
	}{
		{10, 0, 0, 1},
		{0, 10, 0, -1},
		{5, 5, 0, 0},
		{0, 0, 10, 0},
		{6, 2, 2, 0.4},
	}
	for _, tc := range cases {
		tally := rollup.SentimentTally{
			record.Positive: tc.pos,
			record.Negative: tc.neg,
			record.Neutral:  tc.neu,
		}
		stats, ok := rollup.ComputeStats(tally)
		require.True(t, ok)
		require.InDelta(t, tc.want, IntensityScore(stats), 1e-9)
	}
}
