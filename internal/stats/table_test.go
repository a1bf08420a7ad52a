package stats

import (
	"bytes"
	"testing"
)

func TestTextTableAlignsColumns(t *testing.T) {
	tbl := newTextTable(left("Symbol"), right("Count"), right("Share"))
	tbl.add("H", "12", "97.50%")
	tbl.add("THANKS", "3", "8.00%")

	lines := tbl.lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Symbol Count  Share" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "H         12 97.50%" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "THANKS     3  8.00%" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestTextTableCountsWidePictograms(t *testing.T) {
	tbl := newTextTable(left("S"), left("N"))
	tbl.add("😊", "1")
	tbl.add("OK", "2")

	lines := tbl.lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "S  N" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "😊 1" {
		t.Fatalf("pictogram should fill two columns: %q", lines[1])
	}
	if lines[2] != "OK 2" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestTextTableShortRows(t *testing.T) {
	tbl := newTextTable(left("A"), right("B"))
	tbl.add("x")
	tbl.add("y", "22", "dropped")

	var buf bytes.Buffer
	if err := tbl.write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "A  B\nx   \ny 22\n" {
		t.Fatalf("unexpected table %q", got)
	}
}
