// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package throttle spaces outbound requests at a fixed rate.
package throttle

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Gate blocks until the next request may be sent.
type Gate interface {
	Wait(ctx context.Context) error
}

// Option configures an Interval gate.
type Option func(*Interval)

// WithClock replaces time.Now. Tests use it together with WithSleeper.
func WithClock(now func() time.Time) Option {
	return func(g *Interval) { g.now = now }
}

// WithSleeper replaces the context-aware sleep used while waiting.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Interval) { g.sleep = sleep }
}

// Interval is a token bucket of size one refilled every interval: the first
// Wait returns immediately and later calls are spaced at least interval
// apart. The cap is on aggregate throughput, so time spent in the request
// itself counts toward the interval.
type Interval struct {
	limiter *rate.Limiter
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewInterval returns a gate that admits one request per interval.
// An interval <= 0 admits every request immediately.
func NewInterval(interval time.Duration, opts ...Option) *Interval {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	g := &Interval{
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
		sleep:   Sleep,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Wait reserves the next slot and sleeps until it opens. If ctx ends first
// the reservation is returned to the bucket.
func (g *Interval) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := g.now()
	r := g.limiter.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("throttle: reservation refused")
	}
	d := r.DelayFrom(now)
	if d <= 0 {
		return nil
	}
	if err := g.sleep(ctx, d); err != nil {
		r.CancelAt(g.now())
		return err
	}
	return nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
