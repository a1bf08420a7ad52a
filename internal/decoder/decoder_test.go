package decoder

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aditya-nis/EyeTalk/internal/morse"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return epoch.Add(time.Duration(math.Round(seconds*1000)) * time.Millisecond)
}

func newDecoder(t *testing.T, opts ...Option) *Decoder {
	t.Helper()
	d, err := New(DefaultConfig(), morse.Default(), opts...)
	require.NoError(t, err)
	return d
}

// blink closes the eyes at start and reopens them at end, returning the events of both samples.
func blink(d *Decoder, start, end float64) []Event {
	events := d.Observe(at(start), 0)
	return append(events, d.Observe(at(end), 2)...)
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"zero short", Config{0, time.Second, 2 * time.Second, 3 * time.Second}, ErrNonPositiveThreshold},
		{"negative word", Config{time.Millisecond, time.Second, 2 * time.Second, -time.Second}, ErrNonPositiveThreshold},
		{"short equals long", Config{time.Second, time.Second, 2 * time.Second, 3 * time.Second}, ErrThresholdOrder},
		{"letter above word", Config{time.Millisecond, time.Second, 4 * time.Second, 3 * time.Second}, ErrThresholdOrder},
		{"long above letter", Config{time.Millisecond, 5 * time.Second, 4 * time.Second, 6 * time.Second}, ErrThresholdOrder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{}, nil)
	require.ErrorIs(t, err, ErrNonPositiveThreshold)
}

func TestClosureClassification(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		name     string
		duration time.Duration
		want     morse.Token
	}{
		{"zero", 0, morse.Token{}},
		{"below floor", 50 * time.Millisecond, morse.Token{}},
		{"at floor", cfg.ShortBlinkMin, morse.Token{}},
		{"just above floor", cfg.ShortBlinkMin + time.Nanosecond, morse.Token{morse.Dot}},
		{"mid dot", 150 * time.Millisecond, morse.Token{morse.Dot}},
		{"just below long", cfg.LongBlinkMin - time.Nanosecond, morse.Token{morse.Dot}},
		{"at long", cfg.LongBlinkMin, morse.Token{morse.Dash}},
		{"very long", 5 * time.Second, morse.Token{morse.Dash}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newDecoder(t)
			require.Empty(t, d.Observe(epoch, 0))
			events := d.Observe(epoch.Add(tc.duration), 1)
			assert.Equal(t, tc.want, d.CurrentMorseToken())
			if len(tc.want) == 0 {
				assert.Empty(t, events)
				assert.Equal(t, 1, d.Counters().Noise)
				return
			}
			require.Len(t, events, 1)
			assert.Equal(t, EventBlink, events[0].Type)
			assert.Equal(t, tc.want[0], events[0].Element)
			assert.Equal(t, tc.duration, events[0].Duration)
		})
	}
}

func TestClassificationHoldsForCustomConfig(t *testing.T) {
	cfg := Config{
		ShortBlinkMin: 30 * time.Millisecond,
		LongBlinkMin:  400 * time.Millisecond,
		LetterPause:   2 * time.Second,
		WordPause:     5 * time.Second,
	}
	d, err := New(cfg, morse.Default())
	require.NoError(t, err)

	blink(d, 0, 0.03)
	blink(d, 0.1, 0.2)
	blink(d, 0.3, 0.7)
	assert.Equal(t, ".-", d.CurrentMorseToken().String())
}

func TestClosureStartIsKeptWhileEyesStayClosed(t *testing.T) {
	d := newDecoder(t)
	d.Observe(at(0), 0)
	d.Observe(at(0.05), 0)
	d.Observe(at(0.10), 0)
	events := d.Observe(at(0.15), 2)
	require.Len(t, events, 1)
	assert.Equal(t, 150*time.Millisecond, events[0].Duration)
}

func TestOpenSamplesWithoutClosureEmitNothing(t *testing.T) {
	d := newDecoder(t)
	for i := 0; i < 10; i++ {
		assert.Empty(t, d.Observe(at(float64(i)), 2))
	}
	assert.Empty(t, d.Text())
}

func TestEndToEndHI(t *testing.T) {
	d := newDecoder(t)

	var events []Event
	events = append(events, blink(d, 0.00, 0.15)...)
	events = append(events, blink(d, 0.35, 0.50)...)
	events = append(events, blink(d, 0.70, 0.85)...)
	events = append(events, blink(d, 1.05, 1.20)...)
	require.Len(t, events, 4)
	assert.Equal(t, "....", d.CurrentMorseToken().String())

	assert.Empty(t, d.Observe(at(2.30), 2), "gap of 1.1s must not end the letter")
	letter := d.Observe(at(2.50), 2)
	require.Len(t, letter, 1)
	assert.Equal(t, EventLetter, letter[0].Type)
	assert.Equal(t, "H", letter[0].Symbol)
	assert.Equal(t, "....", letter[0].Code)
	assert.Empty(t, d.CurrentMorseToken())

	blink(d, 2.60, 2.75)
	blink(d, 2.95, 3.10)
	assert.Equal(t, "..", d.CurrentMorseToken().String())

	letter = d.Observe(at(4.40), 2)
	require.Len(t, letter, 1)
	assert.Equal(t, "I", letter[0].Symbol)

	space := d.Observe(at(5.70), 2)
	require.Len(t, space, 1)
	assert.Equal(t, EventWordSpace, space[0].Type)

	assert.Equal(t, "HI ", d.Text())
	assert.Equal(t, []string{"H", "I", " "}, d.Symbols())
}

func TestDotThenDashScenario(t *testing.T) {
	d := newDecoder(t)
	blink(d, 0.00, 0.15)
	d.Observe(at(0.18), 2)
	blink(d, 0.20, 0.45)
	assert.Equal(t, ".-", d.CurrentMorseToken().String())

	events := d.Observe(at(1.70), 2)
	require.Len(t, events, 1)
	assert.Equal(t, "A", events[0].Symbol)
}

func TestBoundariesAreIdempotent(t *testing.T) {
	d := newDecoder(t)
	blink(d, 0, 0.3)

	var letters, spaces int
	for ts := 0.35; ts < 10; ts += 0.05 {
		for _, ev := range d.Observe(at(ts), 2) {
			switch ev.Type {
			case EventLetter:
				letters++
			case EventWordSpace:
				spaces++
			}
		}
	}
	assert.Equal(t, 1, letters)
	assert.Equal(t, 1, spaces)
	assert.Equal(t, "T ", d.Text())
}

func TestLetterAndWordCanFireInOneCall(t *testing.T) {
	d := newDecoder(t)
	blink(d, 0, 0.3)
	events := d.Observe(at(3.0), 2)
	assert.Equal(t, []EventType{EventLetter, EventWordSpace}, eventTypes(events))
	assert.Equal(t, "T ", d.Text())
}

func TestBoundaryFiresWhileEyesClosed(t *testing.T) {
	d := newDecoder(t)
	blink(d, 0, 0.15)
	d.Observe(at(0.5), 0)
	events := d.Observe(at(1.5), 0)
	require.Len(t, events, 1)
	assert.Equal(t, "E", events[0].Symbol)

	events = d.Observe(at(1.6), 2)
	require.Len(t, events, 1)
	assert.Equal(t, morse.Dash, events[0].Element)
	assert.Equal(t, "-", d.CurrentMorseToken().String())
}

func TestUnknownSequenceDecodesToSentinel(t *testing.T) {
	d := newDecoder(t)
	ts := 0.0
	for _, element := range "...---...---" {
		length := 0.15
		if element == '-' {
			length = 0.3
		}
		blink(d, ts, ts+length)
		ts += length + 0.2
	}
	events := d.Observe(at(ts+1.5), 2)
	require.Len(t, events, 1)
	assert.Equal(t, morse.Unknown, events[0].Symbol)
	assert.Equal(t, 1, d.Counters().Unknown)
}

func TestNoiseOnlyThenPauseAppendsSingleSpace(t *testing.T) {
	d := newDecoder(t)
	blink(d, 0, 0.05)
	assert.Empty(t, d.Observe(at(1.5), 2))
	events := d.Observe(at(2.6), 2)
	assert.Equal(t, []EventType{EventWordSpace}, eventTypes(events))
	assert.Empty(t, d.Observe(at(5), 2))
	assert.Equal(t, " ", d.Text())
}

func TestNoiseEventsOption(t *testing.T) {
	d := newDecoder(t, WithNoiseEvents())
	events := blink(d, 0, 0.05)
	require.Len(t, events, 1)
	assert.Equal(t, EventNoise, events[0].Type)
	assert.Equal(t, 50*time.Millisecond, events[0].Duration)
	assert.Empty(t, d.CurrentMorseToken())
}

func TestBackwardsTimestampIsZeroDuration(t *testing.T) {
	d := newDecoder(t)
	d.Observe(at(1), 0)
	events := d.Observe(at(0.5), 2)
	assert.Empty(t, events)
	assert.Empty(t, d.CurrentMorseToken())
	assert.Equal(t, 1, d.Counters().Noise)
}

func TestNegativeEyesCountIsClosed(t *testing.T) {
	d := newDecoder(t)
	d.Observe(at(0), -1)
	assert.True(t, d.EyesClosed())
	d.Observe(at(0.3), 1)
	assert.Equal(t, "-", d.CurrentMorseToken().String())
}

func TestFlush(t *testing.T) {
	d := newDecoder(t)
	assert.Empty(t, d.Flush(), "nothing to flush before any blink")

	blink(d, 0, 0.15)
	blink(d, 0.3, 0.6)
	events := d.Flush()
	assert.Equal(t, []EventType{EventLetter, EventWordSpace}, eventTypes(events))
	assert.Equal(t, "A ", d.Text())
	assert.Empty(t, d.Flush())

	d.Observe(at(10), 0)
	assert.Empty(t, d.Flush(), "closure in progress is left alone")
}

func TestCountersTrackEvents(t *testing.T) {
	d := newDecoder(t)
	blink(d, 0, 0.15)
	blink(d, 0.3, 0.6)
	blink(d, 0.8, 0.82)
	d.Observe(at(4), 2)

	c := d.Counters()
	assert.Equal(t, 1, c.Dots)
	assert.Equal(t, 1, c.Dashes)
	assert.Equal(t, 1, c.Noise)
	assert.Equal(t, 1, c.Letters)
	assert.Equal(t, 0, c.Unknown)
	assert.Equal(t, 1, c.Spaces)
}

func TestReset(t *testing.T) {
	d := newDecoder(t)
	blink(d, 0, 0.15)
	d.Observe(at(3), 2)
	blink(d, 3.1, 3.4)
	d.Observe(at(3.5), 0)

	d.Reset()
	assert.Empty(t, d.CurrentMorseToken())
	assert.Empty(t, d.Symbols())
	assert.Empty(t, d.Text())
	assert.False(t, d.EyesClosed())
	assert.Equal(t, 0, d.Counters().Dots)

	assert.Empty(t, d.Observe(at(10), 2), "no boundary survives a reset")
}

func TestSnapshotsAreCopies(t *testing.T) {
	d := newDecoder(t)
	blink(d, 0, 0.15)
	token := d.CurrentMorseToken()
	token[0] = morse.Dash
	assert.Equal(t, ".", d.CurrentMorseToken().String())

	d.Observe(at(2), 2)
	symbols := d.Symbols()
	symbols[0] = "X"
	assert.Equal(t, "E", d.Symbols()[0])
}
