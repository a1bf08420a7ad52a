// Package source provides producers of eye-state samples.
package source

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Aditya-nis/EyeTalk/internal/model"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("source is closed")

// Source produces samples. Next blocks until a sample is available and returns io.EOF when a
// finite source is exhausted.
type Source interface {
	Name() string
	Next(ctx context.Context) (model.Sample, error)
	Close() error
}

// DefaultInterval is the keyboard sampling cadence.
const DefaultInterval = 20 * time.Millisecond

// Toggle samples an eye state flipped from the keyboard. Closed eyes report zero visible eyes.
type Toggle struct {
	mu      sync.Mutex
	closed  bool
	ticker  *time.Ticker
	done    chan struct{}
	once    sync.Once
	now     func() time.Time
	visible int
}

// ToggleOption configures a Toggle.
type ToggleOption func(*Toggle)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) ToggleOption {
	return func(t *Toggle) {
		t.now = now
	}
}

// NewToggle creates a keyboard source sampling every interval.
func NewToggle(interval time.Duration, opts ...ToggleOption) *Toggle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := &Toggle{
		ticker:  time.NewTicker(interval),
		done:    make(chan struct{}),
		now:     time.Now,
		visible: 2,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements Source.
func (t *Toggle) Name() string {
	return "keyboard"
}

// Next waits for the next tick and reports the current eye state.
func (t *Toggle) Next(ctx context.Context) (model.Sample, error) {
	select {
	case <-ctx.Done():
		return model.Sample{}, ctx.Err()
	case <-t.done:
		return model.Sample{}, ErrClosed
	case <-t.ticker.C:
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	eyes := t.visible
	if t.closed {
		eyes = 0
	}
	return model.Sample{At: t.now(), EyesVisible: eyes}, nil
}

// Toggle flips the eye state and returns the new one.
func (t *Toggle) Toggle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = !t.closed
	return t.closed
}

// Closed reports whether the eyes are currently closed.
func (t *Toggle) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Close stops the ticker. Pending and later Next calls return ErrClosed.
func (t *Toggle) Close() error {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
	return nil
}
