package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStop = errors.New("stop")

func TestLoop_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32

	err := Loop(ctx, Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(context.Context) error {
			if calls.Add(1) == 3 {
				cancel()
			}

			return nil
		},
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(3), calls.Load())
}

func TestLoop_OnErrorStops(t *testing.T) {
	err := Loop(context.Background(), Config{
		Name:    "test",
		Process: func(context.Context) error { return errStop },
		OnError: func(error) bool { return false },
	})

	require.ErrorIs(t, err, errStop)
}

func TestLoop_RecoversPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32

	err := Loop(ctx, Config{
		Name:         "test",
		PollInterval: time.Millisecond,
		Process: func(context.Context) error {
			if calls.Add(1) == 1 {
				panic("boom")
			}

			cancel()

			return nil
		},
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLoop_BacksOffAfterFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32

	start := time.Now()
	err := Loop(ctx, Config{
		Name:         "test",
		PollInterval: 5 * time.Millisecond,
		MaxBackoff:   20 * time.Millisecond,
		Process: func(context.Context) error {
			if calls.Add(1) == 4 {
				cancel()
			}

			return errStop
		},
		OnError: func(error) bool { return true },
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(4), calls.Load())
	// Pauses of 5, 10 and 20ms precede the fourth cycle.
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestNextDelay(t *testing.T) {
	cfg := Config{PollInterval: time.Minute, MaxBackoff: 10 * time.Minute}

	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, time.Minute},
		{1, time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{4, 8 * time.Minute},
		{5, 10 * time.Minute},
		{50, 10 * time.Minute},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, nextDelay(cfg, tt.failures), "failures=%d", tt.failures)
	}

	assert.Equal(t, time.Minute, nextDelay(Config{PollInterval: time.Minute}, 7), "backoff disabled")
}

func TestTickerLoop_RunOnStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32

	err := TickerLoop(ctx, TickerConfig{
		Name:       "cleanup",
		Interval:   time.Hour,
		RunOnStart: true,
		OnTick: func(context.Context) {
			ticks.Add(1)
			cancel()
		},
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), ticks.Load())
}

func TestTickerLoop_SurvivesPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32

	err := TickerLoop(ctx, TickerConfig{
		Name:       "cleanup",
		Interval:   time.Millisecond,
		RunOnStart: true,
		OnTick: func(context.Context) {
			if ticks.Add(1) == 1 {
				panic("boom")
			}

			cancel()
		},
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(2), ticks.Load())
}

func TestTickerLoop_DisabledWaitsForCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := TickerLoop(ctx, TickerConfig{Name: "off", OnTick: func(context.Context) { t.Fatal("ticked") }})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWait_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
	require.NoError(t, Wait(ctx, 0))
}
