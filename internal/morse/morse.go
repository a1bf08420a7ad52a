// Package morse holds the symbol table that maps application symbols to Morse codes.
package morse

import (
	"errors"
	"fmt"
	"strings"
)

// Element is a single Morse element.
type Element byte

// Morse elements.
const (
	Dot  Element = '.'
	Dash Element = '-'
)

// Unknown is the symbol returned when no entry matches a code exactly.
const Unknown = "?"

// ErrInvalidEntry reports a malformed table entry.
var ErrInvalidEntry = errors.New("invalid morse entry")

func (e Element) String() string {
	return string(rune(e))
}

// Token is an in-progress sequence of elements.
type Token []Element

func (t Token) String() string {
	var b strings.Builder
	b.Grow(len(t))
	for _, e := range t {
		b.WriteByte(byte(e))
	}
	return b.String()
}

// Entry pairs a symbol with its Morse code. Multi-letter codes may separate letters with spaces.
type Entry struct {
	Symbol string
	Code   string
}

// Table is an immutable symbol table with a reverse index keyed by the concatenated code.
type Table struct {
	entries []Entry
	reverse map[string]string
	forward map[string]Entry
}

// New builds a table. When two entries share a concatenated code the later one wins the reverse
// lookup; Encode still returns each symbol's own code.
func New(entries ...Entry) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		reverse: make(map[string]string, len(entries)),
		forward: make(map[string]Entry, len(entries)),
	}
	for _, entry := range entries {
		if entry.Symbol == "" {
			return nil, fmt.Errorf("%w: empty symbol for code %q", ErrInvalidEntry, entry.Code)
		}
		if !ValidCode(entry.Code) {
			return nil, fmt.Errorf("%w: symbol %q has code %q", ErrInvalidEntry, entry.Symbol, entry.Code)
		}
		t.entries = append(t.entries, entry)
		t.reverse[Concat(entry.Code)] = entry.Symbol
		t.forward[entry.Symbol] = entry
	}
	return t, nil
}

// Extend returns a new table with extra entries appended after the existing ones.
func (t *Table) Extend(extra ...Entry) (*Table, error) {
	all := make([]Entry, 0, len(t.entries)+len(extra))
	all = append(all, t.entries...)
	all = append(all, extra...)
	return New(all...)
}

// Lookup resolves a concatenated code. A miss yields Unknown.
func (t *Table) Lookup(code string) string {
	if symbol, ok := t.reverse[code]; ok {
		return symbol
	}
	return Unknown
}

// Encode returns the concatenated code for a symbol.
func (t *Table) Encode(symbol string) (string, bool) {
	entry, ok := t.forward[symbol]
	if !ok {
		return "", false
	}
	return Concat(entry.Code), true
}

// Spaced returns the code for a symbol with letters separated by spaces, for display.
func (t *Table) Spaced(symbol string) (string, bool) {
	entry, ok := t.forward[symbol]
	if !ok {
		return "", false
	}
	return strings.Join(strings.Fields(entry.Code), " "), true
}

// Entries returns a copy of the table in canonical order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Concat strips letter separators from a code.
func Concat(code string) string {
	return strings.Join(strings.Fields(code), "")
}

// ValidCode reports whether code is non-empty and made only of dots, dashes and spaces.
func ValidCode(code string) bool {
	if strings.TrimSpace(code) == "" {
		return false
	}
	for i := 0; i < len(code); i++ {
		switch code[i] {
		case '.', '-', ' ', '\t':
		default:
			return false
		}
	}
	return true
}
