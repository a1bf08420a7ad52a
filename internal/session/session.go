// Package session runs a decoder against a sample source.
//
// A capture goroutine reads the source into a bounded queue and a decode goroutine feeds the
// queue to the decoder. The decoder has a single writer; readers take snapshots or subscribe to
// events.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aditya-nis/EyeTalk/internal/decoder"
	"github.com/Aditya-nis/EyeTalk/internal/model"
	"github.com/Aditya-nis/EyeTalk/internal/morse"
	"github.com/Aditya-nis/EyeTalk/internal/source"
)

// DefaultQueueSize is the capacity of the sample queue.
const DefaultQueueSize = 64

// Session lifecycle events, delivered on the same channel as decoder events.
const (
	EventPaused  decoder.EventType = "paused"
	EventResumed decoder.EventType = "resumed"
	EventCleared decoder.EventType = "cleared"
	EventError   decoder.EventType = "error"
	EventEnded   decoder.EventType = "ended"
)

var (
	// ErrSessionActive is returned for operations that need a stopped session.
	ErrSessionActive = errors.New("session is running")
	// ErrSessionFinished is returned when starting a session that already ran.
	ErrSessionFinished = errors.New("session has finished")
)

// Recorder receives every sample taken from the source.
type Recorder interface {
	Write(sample model.Sample) error
}

// Option configures a Session.
type Option func(*Session)

// WithQueueSize sets the sample queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Session) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRecorder appends every captured sample to r.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithEventSink delivers every event to sink, in order, from the goroutine that produced it.
// Unlike Subscribe nothing is dropped: a slow sink holds back decoding and, through the bounded
// queue, capture. The sink must not call back into the session.
func WithEventSink(sink func(decoder.Event)) Option {
	return func(s *Session) {
		s.sink = sink
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNoiseEvents forwards debounced closures to subscribers.
func WithNoiseEvents() Option {
	return func(s *Session) {
		s.decOpts = append(s.decOpts, decoder.WithNoiseEvents())
	}
}

// WithClock overrides the wall clock used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// Snapshot is an immutable view of the session.
type Snapshot struct {
	Token      morse.Token
	Text       string
	Symbols    []string
	EyesClosed bool
	Paused     bool
	Running    bool
	Counters   model.Counters
	StartedAt  time.Time
}

// Session owns one decoder and one source for a single run.
type Session struct {
	mu        sync.Mutex
	cfg       decoder.Config
	table     *morse.Table
	src       source.Source
	dec       *decoder.Decoder
	decOpts   []decoder.Option
	queueSize int
	recorder  Recorder
	sink      func(decoder.Event)
	logger    *slog.Logger
	now       func() time.Time

	subscribers []chan decoder.Event
	running     bool
	paused      bool
	finished    bool
	startedAt   time.Time
	endedAt     time.Time
	resumed     chan struct{}
	cancel      context.CancelFunc
	done        chan struct{}
	err         error
	srcOnce     sync.Once
}

// New creates a Session. The config is validated by the decoder.
func New(cfg decoder.Config, table *morse.Table, src source.Source, opts ...Option) (*Session, error) {
	if src == nil {
		return nil, errors.New("session source is required")
	}
	if table == nil {
		table = morse.Default()
	}
	s := &Session{
		cfg:       cfg,
		table:     table,
		src:       src,
		queueSize: DefaultQueueSize,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	dec, err := decoder.New(cfg, table, s.decOpts...)
	if err != nil {
		return nil, err
	}
	s.dec = dec
	return s, nil
}

// Subscribe registers a new observer channel. Slow observers miss events instead of stalling
// decoding. The channel is closed when the session ends.
func (s *Session) Subscribe(buffer int) <-chan decoder.Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan decoder.Event, buffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		close(ch)
		return ch
	}
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Start launches the capture and decode goroutines.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSessionActive
	}
	if s.finished {
		s.mu.Unlock()
		return ErrSessionFinished
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.startedAt = s.now()
	queue := make(chan model.Sample, s.queueSize)
	s.mu.Unlock()

	s.logger.Info("session started", "source", s.src.Name(), "queue", s.queueSize)

	result := make(chan error, 1)
	go s.capture(runCtx, queue, result)
	go s.decode(queue, result)
	return nil
}

// Stop cancels the run, waits for both goroutines and closes the source. It is idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		<-s.done
		return
	}
	if !s.running {
		s.finished = true
		s.endedAt = s.now()
		subscribers := s.subscribers
		s.subscribers = nil
		s.mu.Unlock()
		for _, ch := range subscribers {
			close(ch)
		}
		s.closeSource()
		close(s.done)
		return
	}
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	<-s.done
}

// Done is closed once the session has ended and the source is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the source error that ended the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Pause stops reading the source while keeping decoder state.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.paused {
		return
	}
	s.paused = true
	s.resumed = make(chan struct{})
	s.emitLocked(decoder.Event{Type: EventPaused, At: s.now()})
}

// Resume continues reading the source.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.paused = false
	close(s.resumed)
	s.resumed = nil
	s.emitLocked(decoder.Event{Type: EventResumed, At: s.now()})
}

// Snapshot returns the current decoder and session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Token:      s.dec.CurrentMorseToken(),
		Text:       s.dec.Text(),
		Symbols:    s.dec.Symbols(),
		EyesClosed: s.dec.EyesClosed(),
		Paused:     s.paused,
		Running:    s.running,
		Counters:   s.dec.Counters(),
		StartedAt:  s.startedAt,
	}
}

// Clear resets the decoder and returns the text it held.
func (s *Session) Clear() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := s.dec.Text()
	s.dec.Reset()
	s.emitLocked(decoder.Event{Type: EventCleared, Message: text, At: s.now()})
	return text
}

// Flush resolves the pending letter and word space. It forces a boundary into the live
// decoder, so callers use it only when input is over.
func (s *Session) Flush() []decoder.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.dec.Flush()
	s.emitLocked(events...)
	return events
}

// Config returns the active thresholds.
func (s *Session) Config() decoder.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetConfig replaces the thresholds. The decoded output is discarded. It fails while running.
func (s *Session) SetConfig(cfg decoder.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSessionActive
	}
	dec, err := decoder.New(cfg, s.table, s.decOpts...)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.dec = dec
	return nil
}

// Transcript captures the decoded output for persistence. It reads the decoder without
// resolving the pending token, so it is safe to call while the session runs.
func (s *Session) Transcript() model.TranscriptRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	endedAt := s.endedAt
	if endedAt.IsZero() {
		endedAt = s.now()
	}
	startedAt := s.startedAt
	if startedAt.IsZero() {
		startedAt = endedAt
	}
	return model.TranscriptRecord{
		UUID:      uuid.NewString(),
		StartedAt: startedAt,
		EndedAt:   endedAt,
		Source:    s.src.Name(),
		Text:      s.dec.Text(),
		Symbols:   s.dec.Symbols(),
		Thresholds: model.Thresholds{
			ShortBlinkMin: s.cfg.ShortBlinkMin,
			LongBlinkMin:  s.cfg.LongBlinkMin,
			LetterPause:   s.cfg.LetterPause,
			WordPause:     s.cfg.WordPause,
		},
		Counters: s.dec.Counters(),
	}
}

func (s *Session) capture(ctx context.Context, queue chan<- model.Sample, result chan<- error) {
	defer close(queue)
	for {
		if gate := s.pauseGate(); gate != nil {
			select {
			case <-ctx.Done():
				result <- nil
				return
			case <-gate:
			}
			continue
		}

		sample, err := s.src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				result <- nil
			} else {
				result <- err
			}
			return
		}
		s.record(sample)

		select {
		case queue <- sample:
		case <-ctx.Done():
			result <- nil
			return
		}
	}
}

func (s *Session) decode(queue <-chan model.Sample, result <-chan error) {
	for sample := range queue {
		s.mu.Lock()
		events := s.dec.Observe(sample.At, sample.EyesVisible)
		s.emitLocked(events...)
		s.mu.Unlock()
		for _, ev := range events {
			if ev.Type == decoder.EventLetter {
				s.logger.Debug("letter decoded", "symbol", ev.Symbol, "code", ev.Code)
			}
		}
	}
	s.finish(<-result)
}

func (s *Session) finish(endErr error) {
	s.mu.Lock()
	switch {
	case errors.Is(endErr, io.EOF):
		s.emitLocked(s.dec.Flush()...)
	case endErr != nil:
		s.err = endErr
		s.emitLocked(decoder.Event{Type: EventError, Message: endErr.Error(), At: s.now()})
	}
	s.running = false
	s.paused = false
	s.resumed = nil
	s.finished = true
	s.endedAt = s.now()
	s.emitLocked(decoder.Event{Type: EventEnded, Message: s.dec.Text(), At: s.endedAt})
	subscribers := s.subscribers
	s.subscribers = nil
	counters := s.dec.Counters()
	s.mu.Unlock()

	for _, ch := range subscribers {
		close(ch)
	}
	s.closeSource()
	if endErr != nil && !errors.Is(endErr, io.EOF) {
		s.logger.Error("session ended by source error", "source", s.src.Name(), "error", endErr)
	} else {
		s.logger.Info("session ended", "source", s.src.Name(), "letters", counters.Letters, "unknown", counters.Unknown)
	}
	close(s.done)
}

func (s *Session) pauseGate() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return nil
	}
	return s.resumed
}

func (s *Session) record(sample model.Sample) {
	s.mu.Lock()
	recorder := s.recorder
	s.mu.Unlock()
	if recorder == nil {
		return
	}
	if err := recorder.Write(sample); err != nil {
		s.logger.Warn("trace recording disabled", "error", err)
		s.mu.Lock()
		s.recorder = nil
		s.mu.Unlock()
	}
}

func (s *Session) closeSource() {
	s.srcOnce.Do(func() {
		if err := s.src.Close(); err != nil {
			s.logger.Warn("failed to close source", "source", s.src.Name(), "error", err)
		}
	})
}

func (s *Session) emitLocked(events ...decoder.Event) {
	for _, event := range events {
		if s.sink != nil {
			s.sink(event)
		}
		for _, ch := range s.subscribers {
			select {
			case ch <- event:
			default:
			}
		}
	}
}
