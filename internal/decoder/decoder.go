package decoder

import (
	"fmt"
	"strings"
	"time"

	"github.com/Aditya-nis/EyeTalk/internal/model"
	"github.com/Aditya-nis/EyeTalk/internal/morse"
)

const wordSpace = " "

// Option configures a Decoder.
type Option func(*Decoder)

// WithNoiseEvents makes Observe report debounced closures as EventNoise.
func WithNoiseEvents() Option {
	return func(d *Decoder) {
		d.noiseEvents = true
	}
}

// Decoder is the blink timing state machine. It is not safe for concurrent use: exactly one
// caller feeds Observe, and readers take snapshots through the same owner.
type Decoder struct {
	config      Config
	table       *morse.Table
	noiseEvents bool

	closed       bool
	closureStart time.Time
	hasBoundary  bool
	lastBoundary time.Time
	token        morse.Token
	symbols      []string
	counters     model.Counters
}

// New creates a Decoder. The config must pass Validate.
func New(cfg Config, table *morse.Table, opts ...Option) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid decoder config: %w", err)
	}
	if table == nil {
		table = morse.Default()
	}
	d := &Decoder{
		config: cfg,
		table:  table,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns the thresholds the decoder was built with.
func (d *Decoder) Config() Config {
	return d.config
}

// Observe feeds one sample and returns the events it produced, in order.
// A negative eyesVisible count is treated as zero.
func (d *Decoder) Observe(at time.Time, eyesVisible int) []Event {
	var events []Event

	if eyesVisible <= 0 {
		if !d.closed {
			d.closed = true
			d.closureStart = at
		}
	} else if d.closed {
		events = d.resolveClosure(at, events)
	}

	if !d.hasBoundary {
		return events
	}
	gap := elapsed(at, d.lastBoundary)

	if gap > d.config.LetterPause && len(d.token) > 0 {
		code := d.token.String()
		symbol := d.table.Lookup(code)
		d.symbols = append(d.symbols, symbol)
		d.token = nil
		d.counters.Letters++
		if symbol == morse.Unknown {
			d.counters.Unknown++
		}
		events = append(events, Event{Type: EventLetter, Symbol: symbol, Code: code, At: at})
	}

	if gap > d.config.WordPause && !d.endsWithSpace() {
		d.symbols = append(d.symbols, wordSpace)
		d.counters.Spaces++
		events = append(events, Event{Type: EventWordSpace, Symbol: wordSpace, At: at})
	}
	return events
}

func (d *Decoder) resolveClosure(at time.Time, events []Event) []Event {
	duration := elapsed(at, d.closureStart)
	switch {
	case duration > d.config.ShortBlinkMin && duration < d.config.LongBlinkMin:
		d.token = append(d.token, morse.Dot)
		d.counters.Dots++
		events = append(events, Event{Type: EventBlink, Element: morse.Dot, Duration: duration, At: at})
	case duration >= d.config.LongBlinkMin:
		d.token = append(d.token, morse.Dash)
		d.counters.Dashes++
		events = append(events, Event{Type: EventBlink, Element: morse.Dash, Duration: duration, At: at})
	default:
		d.counters.Noise++
		if d.noiseEvents {
			events = append(events, Event{Type: EventNoise, Duration: duration, At: at})
		}
	}
	d.closed = false
	d.closureStart = time.Time{}
	d.hasBoundary = true
	d.lastBoundary = at
	return events
}

// Flush resolves the pending letter and word space as if the eyes stayed open past the word
// pause. It does nothing while a closure is in progress or before any closure has ended.
func (d *Decoder) Flush() []Event {
	if d.closed || !d.hasBoundary {
		return nil
	}
	return d.Observe(d.lastBoundary.Add(d.config.WordPause+time.Millisecond), 1)
}

// CurrentMorseToken returns a copy of the in-progress token.
func (d *Decoder) CurrentMorseToken() morse.Token {
	out := make(morse.Token, len(d.token))
	copy(out, d.token)
	return out
}

// Symbols returns a copy of the decoded symbols and word spaces.
func (d *Decoder) Symbols() []string {
	out := make([]string, len(d.symbols))
	copy(out, d.symbols)
	return out
}

// Text returns the decoded output joined into one string.
func (d *Decoder) Text() string {
	return strings.Join(d.symbols, "")
}

// EyesClosed reports whether a closure is in progress.
func (d *Decoder) EyesClosed() bool {
	return d.closed
}

// Counters returns running counts since construction or the last Reset.
func (d *Decoder) Counters() model.Counters {
	return d.counters
}

// Reset clears all timing state, the pending token, the decoded output and the counters.
func (d *Decoder) Reset() {
	d.closed = false
	d.closureStart = time.Time{}
	d.hasBoundary = false
	d.lastBoundary = time.Time{}
	d.token = nil
	d.symbols = nil
	d.counters = model.Counters{}
}

func (d *Decoder) endsWithSpace() bool {
	return len(d.symbols) > 0 && d.symbols[len(d.symbols)-1] == wordSpace
}

func elapsed(at, since time.Time) time.Duration {
	delta := at.Sub(since)
	if delta < 0 {
		return 0
	}
	return delta
}
