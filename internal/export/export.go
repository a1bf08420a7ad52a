// Package export writes transcripts as plain text or schema-validated JSON.
package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Aditya-nis/EyeTalk/internal/model"
)

// Format selects the export encoding.
type Format string

// Supported formats.
const (
	FormatText Format = "txt"
	FormatJSON Format = "json"
)

const schemaURL = "https://eyetalk.local/schema/transcript-v1.schema.json"

//go:embed schema/transcript-v1.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// Document is the JSON form of a transcript.
type Document struct {
	ID         string     `json:"id"`
	StartedAt  string     `json:"started_at"`
	EndedAt    string     `json:"ended_at"`
	Source     string     `json:"source"`
	Text       string     `json:"text"`
	Symbols    []string   `json:"symbols"`
	Thresholds Thresholds `json:"thresholds"`
	Counters   Counters   `json:"counters"`
}

// Thresholds holds the decoder thresholds in milliseconds.
type Thresholds struct {
	ShortBlinkMinMs int64 `json:"short_blink_min_ms"`
	LongBlinkMinMs  int64 `json:"long_blink_min_ms"`
	LetterPauseMs   int64 `json:"letter_pause_ms"`
	WordPauseMs     int64 `json:"word_pause_ms"`
}

// Counters mirrors model.Counters.
type Counters struct {
	Dots    int `json:"dots"`
	Dashes  int `json:"dashes"`
	Noise   int `json:"noise"`
	Letters int `json:"letters"`
	Unknown int `json:"unknown"`
	Spaces  int `json:"spaces"`
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatText, "text":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want txt or json)", name)
	}
}

// FromTranscript builds a document from a stored transcript.
func FromTranscript(t model.TranscriptAggregate) Document {
	return newDocument(t.UUID, t.StartedAt, t.EndedAt, t.Source, t.Text, t.Symbols, t.Thresholds, t.Counters)
}

// FromRecord builds a document from a transcript that has not been stored.
func FromRecord(rec model.TranscriptRecord) Document {
	return newDocument(rec.UUID, rec.StartedAt, rec.EndedAt, rec.Source, rec.Text, rec.Symbols, rec.Thresholds, rec.Counters)
}

func newDocument(id string, started, ended time.Time, source, text string, symbols []string, th model.Thresholds, c model.Counters) Document {
	if symbols == nil {
		symbols = []string{}
	}
	return Document{
		ID:        id,
		StartedAt: started.UTC().Format(time.RFC3339Nano),
		EndedAt:   ended.UTC().Format(time.RFC3339Nano),
		Source:    source,
		Text:      text,
		Symbols:   symbols,
		Thresholds: Thresholds{
			ShortBlinkMinMs: th.ShortBlinkMin.Milliseconds(),
			LongBlinkMinMs:  th.LongBlinkMin.Milliseconds(),
			LetterPauseMs:   th.LetterPause.Milliseconds(),
			WordPauseMs:     th.WordPause.Milliseconds(),
		},
		Counters: Counters(c),
	}
}

// Write encodes doc in the given format.
func Write(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatText:
		return WriteText(w, doc.Text)
	case FormatJSON:
		return WriteJSON(w, doc)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteText writes the decoded text verbatim.
func WriteText(w io.Writer, text string) error {
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("failed to write text export: %w", err)
	}
	return nil
}

// WriteJSON validates doc against the transcript schema and writes it indented.
func WriteJSON(w io.Writer, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	if err := Validate(data); err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write json export: %w", err)
	}
	return nil
}

// Validate checks a JSON document against the transcript schema.
func Validate(data []byte) error {
	compiled, err := transcriptSchema()
	if err != nil {
		return err
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("failed to decode transcript: %w", err)
	}
	if err := compiled.Validate(instance); err != nil {
		return fmt.Errorf("transcript does not match schema: %w", err)
	}
	return nil
}

func transcriptSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("failed to add transcript schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to compile transcript schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}
