// Package model defines shared data structures.
package model

import "time"

// Sample is one sampled frame from the eye-detection collaborator.
type Sample struct {
	At          time.Time
	EyesVisible int
}

// Thresholds mirrors the decoder timing thresholds for persistence and export.
type Thresholds struct {
	ShortBlinkMin time.Duration
	LongBlinkMin  time.Duration
	LetterPause   time.Duration
	WordPause     time.Duration
}

// Counters summarizes what the decoder saw during a session.
type Counters struct {
	Dots    int
	Dashes  int
	Noise   int
	Letters int
	Unknown int
	Spaces  int
}

// TranscriptRecord captures a finished decoding session.
type TranscriptRecord struct {
	UUID       string
	StartedAt  time.Time
	EndedAt    time.Time
	Source     string
	Text       string
	Symbols    []string
	Thresholds Thresholds
	Counters   Counters
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Source      string
	Since       *time.Time
	Last        int
	CurveWindow int
	Symbols     string
}

// SymbolStats stores how often a symbol was decoded in one transcript.
type SymbolStats struct {
	Symbol string
	Count  int
}

// SymbolAggregate aggregates symbol counts across transcripts.
type SymbolAggregate struct {
	Symbol      string
	Count       int
	Transcripts int
}

// TranscriptAggregate summarizes a stored transcript for reporting.
type TranscriptAggregate struct {
	ID         int64
	UUID       string
	StartedAt  time.Time
	EndedAt    time.Time
	Source     string
	Text       string
	Symbols    []string
	Thresholds Thresholds
	Counters   Counters
	DurationMs int64
}
