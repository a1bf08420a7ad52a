package stats

import (
	"context"
	"strings"

	"github.com/Aditya-nis/EyeTalk/internal/model"
	"github.com/Aditya-nis/EyeTalk/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Transcripts         []model.TranscriptAggregate
	WindowTranscriptIDs []int64
	SymbolAggsAll       []model.SymbolAggregate
	SymbolAggsWindow    []model.SymbolAggregate
	Symbols             []string
	PerTranscript       map[int64]map[string]int
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	transcripts, err := st.ListTranscripts(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(transcripts) > cfg.Last {
		transcripts = transcripts[len(transcripts)-cfg.Last:]
	}

	allIDs := transcriptIDs(transcripts)
	windowIDs := lastTranscriptIDs(transcripts, cfg.CurveWindow)
	aggsAll, err := st.ListSymbolAggregates(ctx, allIDs)
	if err != nil {
		return Report{}, err
	}
	aggsWindow, err := st.ListSymbolAggregates(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	symbols := ParseSymbolList(cfg.Symbols)
	perTranscript, err := st.ListSymbolStatsForTranscripts(ctx, allIDs, symbols)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Transcripts:         transcripts,
		WindowTranscriptIDs: windowIDs,
		SymbolAggsAll:       aggsAll,
		SymbolAggsWindow:    aggsWindow,
		Symbols:             symbols,
		PerTranscript:       perTranscript,
	}, nil
}

// ParseSymbolList splits a comma-separated symbol list, dropping blanks and duplicates.
func ParseSymbolList(value string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

func transcriptIDs(transcripts []model.TranscriptAggregate) []int64 {
	ids := make([]int64, len(transcripts))
	for i, t := range transcripts {
		ids[i] = t.ID
	}
	return ids
}

func lastTranscriptIDs(transcripts []model.TranscriptAggregate, window int) []int64 {
	if window <= 0 || len(transcripts) <= window {
		return transcriptIDs(transcripts)
	}
	return transcriptIDs(transcripts[len(transcripts)-window:])
}
