package trace

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Aditya-nis/EyeTalk/internal/model"
)

// CSVEpoch anchors CSV offsets, which carry no wall-clock start.
var CSVEpoch = time.Unix(0, 0).UTC()

// DecodeCSV reads "seconds,eyes" rows. A non-numeric first row is treated as a header and
// lines starting with # are comments.
func DecodeCSV(r io.Reader) (Trace, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	tr := Trace{StartedAt: CSVEpoch}
	row := 0
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Trace{}, fmt.Errorf("failed to read csv trace: %w", err)
		}
		row++
		seconds, serr := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		eyes, eerr := strconv.Atoi(strings.TrimSpace(fields[1]))
		if serr != nil || eerr != nil {
			if row == 1 {
				continue
			}
			line, _ := reader.FieldPos(0)
			return Trace{}, fmt.Errorf("invalid csv sample on line %d: %q", line, strings.Join(fields, ","))
		}
		if seconds < 0 {
			line, _ := reader.FieldPos(0)
			return Trace{}, fmt.Errorf("negative offset on line %d", line)
		}
		tr.Samples = append(tr.Samples, model.Sample{
			At:          CSVEpoch.Add(secondsToDuration(seconds)),
			EyesVisible: eyes,
		})
	}
	return tr, nil
}

// EncodeCSV writes samples as "seconds,eyes" rows relative to the first sample.
func EncodeCSV(w io.Writer, samples []model.Sample) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"seconds", "eyes"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	var start time.Time
	for i, sample := range samples {
		if i == 0 {
			start = sample.At
		}
		offset := sample.At.Sub(start).Seconds()
		row := []string{
			strconv.FormatFloat(offset, 'f', 6, 64),
			strconv.Itoa(sample.EyesVisible),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv sample: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv trace: %w", err)
	}
	return nil
}
