package stats

import (
	"sort"

	"github.com/Aditya-nis/EyeTalk/internal/model"
)

// TopSymbolsByFrequency returns the top N symbols by total count.
func TopSymbolsByFrequency(aggs []model.SymbolAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := make([]model.SymbolAggregate, len(aggs))
	copy(items, aggs)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Symbol < items[j].Symbol
		}
		return items[i].Count > items[j].Count
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].Symbol)
	}
	return out
}
