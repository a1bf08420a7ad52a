package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Aditya-nis/EyeTalk/internal/drill"
)

type styledCell struct {
	s       string
	width   int
	isSpace bool
}

func newCell(style lipgloss.Style, value string) styledCell {
	return styledCell{
		s:       style.Render(value),
		width:   runewidth.StringWidth(value),
		isSpace: value == " ",
	}
}

var spaceCell = styledCell{s: " ", width: 1, isSpace: true}

// buildPromptCells renders a drill prompt. The first pending symbol carries the cursor.
func buildPromptCells(th theme, target []string, statuses []drill.Status) []styledCell {
	cursor := -1
	for i, st := range statuses {
		if st == drill.Pending {
			cursor = i
			break
		}
	}
	out := make([]styledCell, 0, len(target)*2)
	for i, sym := range target {
		if i > 0 {
			out = append(out, spaceCell)
		}
		style := th.pending
		if i < len(statuses) {
			switch statuses[i] {
			case drill.Matched:
				style = th.correct
			case drill.Missed:
				style = th.incorrect
			}
		}
		if i == cursor {
			style = th.cursor
		}
		out = append(out, newCell(style, sym))
	}
	return out
}

// buildTextCells renders decoded symbols. Unknown symbols are highlighted.
func buildTextCells(th theme, symbols []string, unknown string) []styledCell {
	out := make([]styledCell, 0, len(symbols))
	for _, sym := range symbols {
		switch sym {
		case " ":
			out = append(out, spaceCell)
		case unknown:
			out = append(out, newCell(th.incorrect, sym))
		default:
			out = append(out, newCell(th.correct, sym))
		}
	}
	return out
}

func renderCells(cells []styledCell) string {
	var b strings.Builder
	for _, item := range cells {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapCells(cells []styledCell, width int) string {
	if width <= 0 {
		return renderCells(cells)
	}
	var out strings.Builder
	line := make([]styledCell, 0, len(cells))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(cells); {
		item := cells[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderCells(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledCell{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderCells(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderCells(line))
	return out.String()
}

func lineWidthOf(line []styledCell) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledCell) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
