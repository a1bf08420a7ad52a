// Package drill builds practice prompts from the symbol table.
package drill

import (
	"math/rand"
	"time"

	"github.com/Aditya-nis/EyeTalk/internal/morse"
)

// Status describes one prompt symbol against what has been decoded so far.
type Status int

// Prompt symbol states.
const (
	Pending Status = iota
	Matched
	Missed
)

// Generator produces randomized practice prompts.
type Generator struct {
	rnd     *rand.Rand
	symbols []string
}

// New returns a Generator over the table symbols, seeded with the current time.
func New(table *morse.Table) *Generator {
	return NewSeeded(table, time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(table *morse.Table, seed int64) *Generator {
	entries := table.Entries()
	symbols := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Symbol]; ok {
			continue
		}
		seen[e.Symbol] = struct{}{}
		symbols = append(symbols, e.Symbol)
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed)), symbols: symbols}
}

// Symbols returns the candidate symbols in table order.
func (g *Generator) Symbols() []string {
	out := make([]string, len(g.symbols))
	copy(out, g.symbols)
	return out
}

// Next selects count symbols uniformly.
func (g *Generator) Next(count int) []string {
	if count <= 0 || len(g.symbols) == 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		result = append(result, g.symbols[g.rnd.Intn(len(g.symbols))])
	}
	return result
}

// NextWeighted selects symbols with a bias toward weak ones. A weak symbol weighs 1+factor.
func (g *Generator) NextWeighted(count int, weakSet map[string]struct{}, factor float64) []string {
	if count <= 0 || len(g.symbols) == 0 {
		return nil
	}
	if len(weakSet) == 0 || factor <= 0 {
		return g.Next(count)
	}
	weights := make([]float64, len(g.symbols))
	total := 0.0
	for i, sym := range g.symbols {
		w := 1.0
		if _, ok := weakSet[sym]; ok {
			w += factor
		}
		weights[i] = w
		total += w
	}

	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		r := g.rnd.Float64() * total
		acc := 0.0
		idx := len(weights) - 1
		for j, w := range weights {
			acc += w
			if r <= acc {
				idx = j
				break
			}
		}
		result = append(result, g.symbols[idx])
	}
	return result
}

// Progress compares decoded symbols against the prompt in order. Word spaces in decoded are
// ignored. It returns a status per target symbol and the number of matches.
func Progress(target, decoded []string) ([]Status, int) {
	statuses := make([]Status, len(target))
	matched := 0
	i := 0
	for _, sym := range decoded {
		if sym == " " || sym == "" {
			continue
		}
		if i >= len(target) {
			break
		}
		if sym == target[i] {
			statuses[i] = Matched
			matched++
		} else {
			statuses[i] = Missed
		}
		i++
	}
	return statuses, matched
}

// Complete reports whether every prompt symbol has been attempted.
func Complete(target, decoded []string) bool {
	statuses, _ := Progress(target, decoded)
	for _, s := range statuses {
		if s == Pending {
			return false
		}
	}
	return len(target) > 0
}
