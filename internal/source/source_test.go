package source

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aditya-nis/EyeTalk/internal/model"
	"github.com/Aditya-nis/EyeTalk/internal/trace"
)

func TestToggleReportsEyeState(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := NewToggle(time.Millisecond, WithClock(func() time.Time { return fixed }))
	defer func() {
		_ = src.Close()
	}()
	ctx := context.Background()

	sample, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sample.EyesVisible)
	assert.True(t, fixed.Equal(sample.At))

	assert.True(t, src.Toggle())
	sample, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sample.EyesVisible)

	assert.False(t, src.Toggle())
	assert.False(t, src.Closed())
	sample, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sample.EyesVisible)
}

func TestToggleHonorsContextAndClose(t *testing.T) {
	src := NewToggle(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	_, err = src.Next(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}

func testTrace() trace.Trace {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return trace.Trace{
		StartedAt: start,
		Source:    "fixture",
		Samples: []model.Sample{
			{At: start, EyesVisible: 2},
			{At: start.Add(100 * time.Millisecond), EyesVisible: 0},
			{At: start.Add(300 * time.Millisecond), EyesVisible: 2},
		},
	}
}

func TestReplayDeliversSamplesThenEOF(t *testing.T) {
	src := NewReplay(testTrace())
	assert.Equal(t, "replay:fixture", src.Name())
	ctx := context.Background()

	for i, want := range testTrace().Samples {
		got, err := src.Next(ctx)
		require.NoError(t, err, "sample %d", i)
		assert.Equal(t, want, got)
	}
	_, err := src.Next(ctx)
	assert.True(t, errors.Is(err, io.EOF))

	require.NoError(t, src.Close())
	_, err = src.Next(ctx)
	require.ErrorIs(t, err, ErrClosed)
}

func TestReplayPacing(t *testing.T) {
	var waits []time.Duration
	src := NewReplay(testTrace(), WithPacing(2))
	src.sleeper = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	for i := 0; i < 3; i++ {
		_, err := src.Next(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 100 * time.Millisecond}, waits)
}

func TestReplayPacingCancelled(t *testing.T) {
	src := NewReplay(testTrace(), WithPacing(1))
	ctx, cancel := context.WithCancel(context.Background())
	_, err := src.Next(ctx)
	require.NoError(t, err)
	cancel()
	_, err = src.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReplayNameWithoutSource(t *testing.T) {
	assert.Equal(t, "replay", NewReplay(trace.Trace{}).Name())
}

var (
	_ Source = (*Toggle)(nil)
	_ Source = (*Replay)(nil)
)
