// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/Aditya-nis/EyeTalk/internal/model"
	"github.com/Aditya-nis/EyeTalk/internal/morse"
)

const sparkChars = " .:-=+*#%@"

const minCurveWidth = 10

// TranscriptMetrics computes letters per minute and the share of unknown letters.
func TranscriptMetrics(counters model.Counters, durationMs int64) (lettersPerMin, unknownRate float64) {
	if counters.Letters > 0 {
		unknownRate = float64(counters.Unknown) / float64(counters.Letters)
	}
	if durationMs <= 0 {
		return 0, unknownRate
	}
	minutes := float64(durationMs) / 60000.0
	lettersPerMin = float64(counters.Letters-counters.Unknown) / minutes
	return lettersPerMin, unknownRate
}

// SymbolCounts tallies decoded symbols, skipping word spaces.
func SymbolCounts(symbols []string) []model.SymbolStats {
	counts := map[string]int{}
	var order []string
	for _, sym := range symbols {
		if strings.TrimSpace(sym) == "" {
			continue
		}
		if _, ok := counts[sym]; !ok {
			order = append(order, sym)
		}
		counts[sym]++
	}
	out := make([]model.SymbolStats, 0, len(order))
	for _, sym := range order {
		out = append(out, model.SymbolStats{Symbol: sym, Count: counts[sym]})
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Resample averages values into at most width buckets.
func Resample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

func minMax(values []float64) (float64, float64) {
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

// RenderSummary prints a summary for transcripts.
func RenderSummary(w io.Writer, transcripts []model.TranscriptAggregate) error {
	if len(transcripts) == 0 {
		_, err := fmt.Fprintln(w, "No transcripts found.")
		return err
	}
	var totalLPM, totalUnknown float64
	bestLPM := 0.0
	var totals model.Counters
	for _, t := range transcripts {
		lpm, unknown := TranscriptMetrics(t.Counters, t.DurationMs)
		totalLPM += lpm
		totalUnknown += unknown
		if lpm > bestLPM {
			bestLPM = lpm
		}
		totals.Dots += t.Counters.Dots
		totals.Dashes += t.Counters.Dashes
		totals.Noise += t.Counters.Noise
		totals.Letters += t.Counters.Letters
	}
	count := float64(len(transcripts))
	lines := []string{
		"Summary",
		fmt.Sprintf("Transcripts: %d", len(transcripts)),
		fmt.Sprintf("Avg letters/min: %.2f", totalLPM/count),
		fmt.Sprintf("Best letters/min: %.2f", bestLPM),
		fmt.Sprintf("Avg unknown rate: %.2f%%", (totalUnknown/count)*100),
		fmt.Sprintf("Blinks: %d dots, %d dashes, %d ignored", totals.Dots, totals.Dashes, totals.Noise),
		fmt.Sprintf("Letters decoded: %d", totals.Letters),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurve prints the letters-per-minute learning curve as a sparkline fitted to width.
// A width of zero leaves one column per transcript.
func RenderCurve(w io.Writer, transcripts []model.TranscriptAggregate, window, width int) error {
	if len(transcripts) == 0 {
		return nil
	}
	values := make([]float64, len(transcripts))
	for i, t := range transcripts {
		values[i], _ = TranscriptMetrics(t.Counters, t.DurationMs)
	}
	return renderSeries(w, "Letters/min", MovingAverage(values, window), width)
}

// RenderSymbolCurves prints one count curve per selected symbol.
func RenderSymbolCurves(w io.Writer, transcripts []model.TranscriptAggregate, perTranscript map[int64]map[string]int, symbols []string, window, width int) error {
	if len(symbols) == 0 || len(transcripts) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Symbol Curves"); err != nil {
		return err
	}
	for _, sym := range symbols {
		values := make([]float64, len(transcripts))
		for i, t := range transcripts {
			values[i] = float64(perTranscript[t.ID][sym])
		}
		if err := renderSeries(w, "Symbol "+sym, MovingAverage(values, window), width); err != nil {
			return err
		}
	}
	return nil
}

func renderSeries(w io.Writer, title string, values []float64, width int) error {
	if width > 0 && width < minCurveWidth {
		width = minCurveWidth
	}
	values = Resample(values, width)
	minVal, maxVal := minMax(values)
	lines := []string{
		fmt.Sprintf("%s (min %.2f, max %.2f)", title, minVal, maxVal),
		"[" + Sparkline(values) + "]",
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// CurveWidthFor returns the sparkline width that fits a terminal of totalWidth columns.
func CurveWidthFor(totalWidth int) int {
	width := totalWidth - 2
	if width < minCurveWidth {
		return minCurveWidth
	}
	return width
}

// RenderSymbolTable prints per-symbol aggregates, most frequent first.
func RenderSymbolTable(w io.Writer, title string, aggs []model.SymbolAggregate, table *morse.Table) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No symbol stats found.")
		return err
	}
	rows := make([]model.SymbolAggregate, len(aggs))
	copy(rows, aggs)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Symbol < rows[j].Symbol
		}
		return rows[i].Count > rows[j].Count
	})

	total := 0
	for _, r := range rows {
		total += r.Count
	}

	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	tbl := newTextTable(left("Symbol"), left("Code"), right("Count"), right("Share"), right("Transcripts"))
	for _, r := range rows {
		code := ""
		if table != nil {
			code, _ = table.Spaced(r.Symbol)
		}
		share := 0.0
		if total > 0 {
			share = float64(r.Count) / float64(total)
		}
		tbl.add(
			r.Symbol,
			code,
			fmt.Sprintf("%d", r.Count),
			fmt.Sprintf("%.2f%%", share*100),
			fmt.Sprintf("%d", r.Transcripts),
		)
	}
	if err := tbl.write(w); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderHistory prints one line per transcript, newest first as given.
func RenderHistory(w io.Writer, transcripts []model.TranscriptAggregate) error {
	if len(transcripts) == 0 {
		_, err := fmt.Fprintln(w, "No transcripts found.")
		return err
	}
	tbl := newTextTable(right("ID"), left("Ended"), left("Source"), right("Letters"), left("Text"))
	for _, t := range transcripts {
		tbl.add(
			fmt.Sprintf("%d", t.ID),
			t.EndedAt.Local().Format("2006-01-02 15:04"),
			t.Source,
			fmt.Sprintf("%d", t.Counters.Letters),
			fmt.Sprintf("%q", t.Text),
		)
	}
	return tbl.write(w)
}

// RenderCodes prints the symbol table with spaced and concatenated codes.
func RenderCodes(w io.Writer, table *morse.Table) error {
	tbl := newTextTable(left("Symbol"), left("Code"), left("Lookup"))
	for _, e := range table.Entries() {
		tbl.add(e.Symbol, e.Code, morse.Concat(e.Code))
	}
	return tbl.write(w)
}
