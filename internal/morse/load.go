package morse

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadEntries reads extra table entries from a file, one `SYMBOL CODE` per line.
// Codes may contain spaces between letters; blank lines and `#` comments are skipped.
func LoadEntries(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only table file.
			_ = cerr
		}
	}()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected symbol and code", lineNo)
		}
		entry := Entry{Symbol: fields[0], Code: strings.Join(fields[1:], " ")}
		if !ValidCode(entry.Code) {
			return nil, fmt.Errorf("line %d: %w: code %q", lineNo, ErrInvalidEntry, entry.Code)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("table file is empty")
	}
	return entries, nil
}
