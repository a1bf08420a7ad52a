package source

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/Aditya-nis/EyeTalk/internal/model"
	"github.com/Aditya-nis/EyeTalk/internal/trace"
)

// Replay feeds the samples of a recorded trace.
type Replay struct {
	mu      sync.Mutex
	tr      trace.Trace
	next    int
	paced   bool
	speed   float64
	prev    time.Time
	closed  bool
	sleeper func(ctx context.Context, d time.Duration) error
}

// ReplayOption configures a Replay.
type ReplayOption func(*Replay)

// WithPacing waits between samples for their recorded spacing divided by speed.
func WithPacing(speed float64) ReplayOption {
	return func(r *Replay) {
		if speed <= 0 {
			speed = 1
		}
		r.paced = true
		r.speed = speed
	}
}

// NewReplay creates a source over tr.
func NewReplay(tr trace.Trace, opts ...ReplayOption) *Replay {
	r := &Replay{tr: tr, speed: 1, sleeper: sleep}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name implements Source.
func (r *Replay) Name() string {
	if r.tr.Source == "" {
		return "replay"
	}
	return "replay:" + r.tr.Source
}

// Next returns the next recorded sample, then io.EOF.
func (r *Replay) Next(ctx context.Context) (model.Sample, error) {
	if err := ctx.Err(); err != nil {
		return model.Sample{}, err
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return model.Sample{}, ErrClosed
	}
	if r.next >= len(r.tr.Samples) {
		r.mu.Unlock()
		return model.Sample{}, io.EOF
	}
	sample := r.tr.Samples[r.next]
	r.next++
	var wait time.Duration
	if r.paced && !r.prev.IsZero() {
		wait = time.Duration(float64(sample.At.Sub(r.prev)) / r.speed)
	}
	r.prev = sample.At
	r.mu.Unlock()

	if wait > 0 {
		if err := r.sleeper(ctx, wait); err != nil {
			return model.Sample{}, err
		}
	}
	return sample, nil
}

// Close implements Source.
func (r *Replay) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
