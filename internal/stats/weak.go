package stats

import (
	"sort"

	"github.com/Aditya-nis/EyeTalk/internal/model"
)

// SelectWeakSymbols picks the least practiced candidates. Candidates never decoded in the
// aggregates rank first.
func SelectWeakSymbols(aggs []model.SymbolAggregate, candidates []string, top int) map[string]struct{} {
	weakSet := map[string]struct{}{}
	if len(candidates) == 0 {
		return weakSet
	}
	counts := make(map[string]int, len(aggs))
	for _, agg := range aggs {
		counts[agg.Symbol] += agg.Count
	}
	ranked := make([]string, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		ci, cj := counts[ranked[i]], counts[ranked[j]]
		if ci == cj {
			return ranked[i] < ranked[j]
		}
		return ci < cj
	})
	if top <= 0 || top > len(ranked) {
		top = len(ranked)
	}
	for _, sym := range ranked[:top] {
		weakSet[sym] = struct{}{}
	}
	return weakSet
}
