package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

type column struct {
	title string
	right bool
}

func left(title string) column  { return column{title: title} }
func right(title string) column { return column{title: title, right: true} }

// textTable lays out aligned columns measured in terminal cells, so pictograms take two.
type textTable struct {
	cols []column
	rows [][]string
}

func newTextTable(cols ...column) *textTable {
	return &textTable{cols: cols}
}

// add appends a row. Missing cells render empty, extra cells are dropped.
func (t *textTable) add(cells ...string) {
	row := make([]string, len(t.cols))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

func (t *textTable) lines() []string {
	if len(t.cols) == 0 {
		return nil
	}
	header := make([]string, len(t.cols))
	widths := make([]int, len(t.cols))
	for i, col := range t.cols {
		header[i] = col.title
		widths[i] = runewidth.StringWidth(col.title)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	out := make([]string, 0, len(t.rows)+1)
	for _, row := range append([][]string{header}, t.rows...) {
		cells := make([]string, len(row))
		for i, cell := range row {
			if t.cols[i].right {
				cells[i] = runewidth.FillLeft(cell, widths[i])
			} else {
				cells[i] = runewidth.FillRight(cell, widths[i])
			}
		}
		out = append(out, strings.Join(cells, " "))
	}
	return out
}

func (t *textTable) write(w io.Writer) error {
	for _, line := range t.lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
