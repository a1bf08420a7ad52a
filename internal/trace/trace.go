// Package trace records and reads timed eye-state samples.
//
// A msgpack trace is a header map followed by one record per sample. CSV traces hold
// "seconds,eyes" lines and are meant for hand-written fixtures.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Aditya-nis/EyeTalk/internal/model"
)

// Version is the msgpack trace format version.
const Version = 1

// ErrUnsupportedVersion indicates a trace written by a newer format.
var ErrUnsupportedVersion = errors.New("unsupported trace version")

// Header opens every msgpack trace.
type Header struct {
	Version   int    `msgpack:"version"`
	StartedAt string `msgpack:"started_at"`
	Source    string `msgpack:"source"`
}

type record struct {
	T int64 `msgpack:"t"`
	E int   `msgpack:"e"`
}

// Trace is a decoded sample stream.
type Trace struct {
	StartedAt time.Time
	Source    string
	Samples   []model.Sample
}

// Duration returns the span between the first and the last sample.
func (t Trace) Duration() time.Duration {
	if len(t.Samples) < 2 {
		return 0
	}
	return t.Samples[len(t.Samples)-1].At.Sub(t.Samples[0].At)
}

// HasWallClock reports whether sample times are real timestamps. CSV traces only carry offsets.
func (t Trace) HasWallClock() bool {
	return !t.StartedAt.IsZero() && !t.StartedAt.Equal(CSVEpoch)
}

// Writer appends samples to a msgpack trace. The header is written with the first sample.
type Writer struct {
	mu      sync.Mutex
	buf     *bufio.Writer
	enc     *msgpack.Encoder
	closer  io.Closer
	source  string
	started time.Time
	count   int
	closed  bool
}

// NewWriter returns a Writer on w. The caller keeps ownership of w.
func NewWriter(w io.Writer, source string) *Writer {
	buf := bufio.NewWriter(w)
	return &Writer{
		buf:    buf,
		enc:    msgpack.NewEncoder(buf),
		source: source,
	}
}

// Create opens path for writing, creating parent directories.
func Create(path, source string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create trace dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace: %w", err)
	}
	w := NewWriter(file, source)
	w.closer = file
	return w, nil
}

// Write appends one sample.
func (w *Writer) Write(sample model.Sample) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("trace writer is closed")
	}
	if w.count == 0 {
		w.started = sample.At
		header := Header{
			Version:   Version,
			StartedAt: sample.At.UTC().Format(time.RFC3339Nano),
			Source:    w.source,
		}
		if err := w.enc.Encode(header); err != nil {
			return fmt.Errorf("failed to write trace header: %w", err)
		}
	}
	rec := record{T: sample.At.Sub(w.started).Microseconds(), E: sample.EyesVisible}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write trace sample: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of samples written.
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes buffered records and closes the file opened by Create.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.buf.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("failed to close trace: %w", err)
	}
	return nil
}

// Decode reads a msgpack trace. An empty stream decodes to an empty trace.
func Decode(r io.Reader) (Trace, error) {
	dec := msgpack.NewDecoder(bufio.NewReader(r))

	var header Header
	if err := dec.Decode(&header); err != nil {
		if errors.Is(err, io.EOF) {
			return Trace{}, nil
		}
		return Trace{}, fmt.Errorf("failed to read trace header: %w", err)
	}
	if header.Version != Version {
		return Trace{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header.Version)
	}
	started, err := time.Parse(time.RFC3339Nano, header.StartedAt)
	if err != nil {
		return Trace{}, fmt.Errorf("invalid trace start %q: %w", header.StartedAt, err)
	}

	tr := Trace{StartedAt: started, Source: header.Source}
	for {
		var rec record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Trace{}, fmt.Errorf("failed to read trace sample %d: %w", len(tr.Samples), err)
		}
		tr.Samples = append(tr.Samples, model.Sample{
			At:          started.Add(time.Duration(rec.T) * time.Microsecond),
			EyesVisible: rec.E,
		})
	}
	return tr, nil
}

// ReadFile decodes a trace file, choosing the format by extension.
func ReadFile(path string) (Trace, error) {
	file, err := os.Open(path)
	if err != nil {
		return Trace{}, fmt.Errorf("failed to open trace: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var tr Trace
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		tr, err = DecodeCSV(file)
		if tr.Source == "" {
			tr.Source = filepath.Base(path)
		}
	default:
		tr, err = Decode(file)
	}
	if err != nil {
		return Trace{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return tr, nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds*1e6)) * time.Microsecond
}
