// Package decoder turns timed eye-state samples into Morse elements, letters and word spaces.
package decoder

import (
	"errors"
	"fmt"
	"time"
)

// Default thresholds.
const (
	DefaultShortBlinkMin = 80 * time.Millisecond
	DefaultLongBlinkMin  = 220 * time.Millisecond
	DefaultLetterPause   = 1200 * time.Millisecond
	DefaultWordPause     = 2500 * time.Millisecond
)

var (
	// ErrNonPositiveThreshold indicates a threshold is zero or negative.
	ErrNonPositiveThreshold = errors.New("threshold must be positive")
	// ErrThresholdOrder indicates the thresholds are not strictly increasing.
	ErrThresholdOrder = errors.New("thresholds must satisfy short blink < long blink < letter pause < word pause")
)

// Config holds the four duration thresholds. It is fixed for the lifetime of a Decoder.
type Config struct {
	// ShortBlinkMin is the debounce floor: closures at or below it are noise.
	ShortBlinkMin time.Duration
	// LongBlinkMin is the shortest closure classified as a dash.
	LongBlinkMin time.Duration
	// LetterPause is the open-eye gap after which the pending token becomes a letter.
	LetterPause time.Duration
	// WordPause is the open-eye gap after which a word space is appended.
	WordPause time.Duration
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		ShortBlinkMin: DefaultShortBlinkMin,
		LongBlinkMin:  DefaultLongBlinkMin,
		LetterPause:   DefaultLetterPause,
		WordPause:     DefaultWordPause,
	}
}

// Validate checks that all thresholds are positive and strictly ordered.
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value time.Duration
	}{
		{"short blink", c.ShortBlinkMin},
		{"long blink", c.LongBlinkMin},
		{"letter pause", c.LetterPause},
		{"word pause", c.WordPause},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return fmt.Errorf("%s %v: %w", f.name, f.value, ErrNonPositiveThreshold)
		}
	}
	for i := 1; i < len(fields); i++ {
		if fields[i-1].value >= fields[i].value {
			return fmt.Errorf("%s %v >= %s %v: %w", fields[i-1].name, fields[i-1].value, fields[i].name, fields[i].value, ErrThresholdOrder)
		}
	}
	return nil
}
