// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the gate sleeps.
type fakeClock struct {
	t      time.Time
	sleeps []time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.t = c.t.Add(d)
	return nil
}

func newFake() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestInterval_SpacesCalls(t *testing.T) {
	clk := newFake()
	g := NewInterval(time.Second, WithClock(clk.now), WithSleeper(clk.sleep))

	for i := 0; i < 4; i++ {
		require.NoError(t, g.Wait(context.Background()))
	}

	// First call is free; the rest wait one interval each.
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, clk.sleeps)
}

func TestInterval_ElapsedTimeCounts(t *testing.T) {
	clk := newFake()
	g := NewInterval(time.Second, WithClock(clk.now), WithSleeper(clk.sleep))

	require.NoError(t, g.Wait(context.Background()))
	// The request itself took 400ms.
	clk.t = clk.t.Add(400 * time.Millisecond)
	require.NoError(t, g.Wait(context.Background()))

	require.Len(t, clk.sleeps, 1)
	assert.InDelta(t, float64(600*time.Millisecond), float64(clk.sleeps[0]), float64(time.Microsecond))
}

func TestInterval_NoLimit(t *testing.T) {
	clk := newFake()
	g := NewInterval(0, WithClock(clk.now), WithSleeper(clk.sleep))

	for i := 0; i < 10; i++ {
		require.NoError(t, g.Wait(context.Background()))
	}
	assert.Empty(t, clk.sleeps)
}

func TestInterval_ContextCancelled(t *testing.T) {
	clk := newFake()
	g := NewInterval(time.Second, WithClock(clk.now), WithSleeper(func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}))

	require.NoError(t, g.Wait(context.Background()))
	assert.ErrorIs(t, g.Wait(context.Background()), context.Canceled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Wait(ctx), context.Canceled)
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
