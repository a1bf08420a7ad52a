package decoder

import (
	"time"

	"github.com/Aditya-nis/EyeTalk/internal/morse"
)

// EventType defines the type of decoder event.
type EventType string

const (
	// EventBlink reports a closure classified as a dot or dash.
	EventBlink EventType = "blink"
	// EventNoise reports a closure at or below the debounce floor. Only emitted with WithNoiseEvents.
	EventNoise EventType = "noise"
	// EventLetter reports a resolved token.
	EventLetter EventType = "letter"
	// EventWordSpace reports an appended word space.
	EventWordSpace EventType = "word_space"
)

// Event represents a decoder update for observers.
type Event struct {
	Type     EventType
	Element  morse.Element
	Symbol   string
	Code     string
	Duration time.Duration
	Message  string
	At       time.Time
}
