// Package report renders ingestion summaries and rollup analyses as plain
// text for the CLI.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nicktill/sentipipe/pkg/ingest"
	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/rollup"
)

// PrintDiagnostics writes the cleaning summary: per-field null counts over
// the full input batch, then the kept/dropped split and sentiment mix.
func PrintDiagnostics(w io.Writer, diag ingest.Diagnostics) {
	fmt.Fprintln(w, "=== Data Validation and Cleaning ===")
	fmt.Fprintln(w, "Null values per column:")
	fields := make([]string, 0, len(diag.NullCounts))
	for f := range diag.NullCounts {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(w, "  %s: %d\n", f, diag.NullCounts[f])
	}

	fmt.Fprintf(w, "Records after cleaning: %d (dropped %d of %d)\n", diag.Kept, diag.Dropped, diag.Input)

	fmt.Fprintln(w, "Sentiment distribution:")
	for _, s := range []record.Sentiment{record.Positive, record.Negative, record.Neutral} {
		fmt.Fprintf(w, "  %-8s %d\n", s, diag.Sentiments[s])
	}
}

// PrintIngestion writes the post-write summary
func PrintIngestion(w io.Writer, report ingest.WriteReport, storeCount int64) {
	fmt.Fprintln(w, "Storage completed:")
	fmt.Fprintf(w, "  - New records inserted: %d\n", report.Inserted)
	fmt.Fprintf(w, "  - Existing records updated: %d\n", report.Updated)
	fmt.Fprintf(w, "  - Errors: %d\n", report.Failed)
	fmt.Fprintf(w, "Total records in processed collection: %d\n", storeCount)
}

// PrintAnalysis writes the full three-dimension rollup report. A dimension
// that failed or holds no data gets an explicit line instead of a table;
// one broken dimension never suppresses the others.
func PrintAnalysis(w io.Writer, a rollup.Analysis) {
	printDimensionHeader(w, "SENTIMENT ANALYSIS BY TIME PERIOD")
	printFlatDimension(w, a.Time, "Time Period", "Time")

	printDimensionHeader(w, "SENTIMENT ANALYSIS BY AGE DEMOGRAPHICS")
	printFlatDimension(w, a.Age, "Age", "Age Group")
	if a.Age.Err == nil && a.Age.Result != nil {
		if cmp, ok := rollup.CompareYoungestOldest(a.Age.Result.Groups); ok {
			fmt.Fprintln(w, "\nComparison: Youngest (0-30) vs Oldest (61-100)")
			fmt.Fprintf(w, "  - Positive sentiment difference: %+.1f%%\n", cmp.PositiveDiff)
			fmt.Fprintf(w, "  - Negative sentiment difference: %+.1f%%\n", cmp.NegativeDiff)
			who := "Older"
			if cmp.PositiveDiff > 0 {
				who = "Younger"
			}
			fmt.Fprintf(w, "  -> %s users are more positive\n", who)
		}
	}

	printDimensionHeader(w, "AGE AND TIME CORRELATION ANALYSIS")
	printNestedDimension(w, a.AgeTime)
}

func printDimensionHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "=== %s ===\n", title)
	fmt.Fprintln(w, strings.Repeat("=", 60))
}

func printFlatDimension(w io.Writer, dim rollup.Dimension, header, peakLabel string) {
	if dim.Err != nil {
		fmt.Fprintf(w, "Rollup failed for this dimension: %v\n", dim.Err)
		return
	}
	if dim.Empty() {
		fmt.Fprintln(w, "No data for this dimension.")
		return
	}

	table := rollup.Table(dim.Result.Groups)
	printStatsTable(w, header, table)

	if peaks := rollup.Peaks(table); peaks != nil {
		fmt.Fprintf(w, "\nPeak Positive %s: %s (%.1f%% positive, %d of %d records)\n",
			peakLabel, strings.ToUpper(peaks.MostPositive.Key),
			peaks.MostPositive.PositivePct, peaks.MostPositive.Positive, peaks.MostPositive.Total)
		fmt.Fprintf(w, "Peak Negative %s: %s (%.1f%% negative, %d of %d records)\n",
			peakLabel, strings.ToUpper(peaks.MostNegative.Key),
			peaks.MostNegative.NegativePct, peaks.MostNegative.Negative, peaks.MostNegative.Total)
		fmt.Fprintf(w, "Most Active %s: %s (%d total records)\n",
			peakLabel, strings.ToUpper(peaks.MostActive.Key), peaks.MostActive.Total)
	}
}

func printNestedDimension(w io.Writer, dim rollup.Dimension) {
	if dim.Err != nil {
		fmt.Fprintf(w, "Rollup failed for this dimension: %v\n", dim.Err)
		return
	}
	if dim.Empty() {
		fmt.Fprintln(w, "No data for this dimension.")
		return
	}

	groups := make([]string, 0, len(dim.Result.Nested))
	for g := range dim.Result.Nested {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, g := range groups {
		table := rollup.Table(dim.Result.Nested[g])
		if len(table) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s Age Group:\n", g)
		printStatsTable(w, "Time Period", table)
	}

	vars := rollup.Variations(dim.Result.Nested)
	if len(vars) == 0 {
		return
	}
	fmt.Fprintln(w, "\n=== Sentiment Variation by Time for Each Age Group ===")
	for _, v := range vars {
		fmt.Fprintf(w, "\n%s Age Group:\n", v.AgeGroup)
		fmt.Fprintf(w, "  Most positive at: %s (%.1f%%)\n", v.MostPositiveAt, v.MostPositivePct)
		fmt.Fprintf(w, "  Least positive at: %s (%.1f%%)\n", v.LeastPositiveAt, v.LeastPositivePct)
		fmt.Fprintf(w, "  Sentiment variation: %.1f%% difference\n", v.Spread)
	}
}

func printStatsTable(w io.Writer, header string, table []rollup.KeyedStats) {
	fmt.Fprintf(w, "%s | Total | Positive %% | Negative %% | Neutral %%\n", header)
	fmt.Fprintln(w, strings.Repeat("-", 65))
	for _, row := range table {
		fmt.Fprintf(w, "%-11s | %5d | %9.1f%% | %9.1f%% | %8.1f%%\n",
			row.Key, row.Total, row.PositivePct, row.NegativePct, row.NeutralPct)
	}
}
