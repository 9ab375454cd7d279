// Package ratelimit provides admission control for outbound Tempo API
// calls. Every HTTP attempt acquires exactly one permit; callers are
// never rejected, only delayed until the window with a free slot.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/localrivet/tempomcp/internal/telemetry"
)

// Defaults used when no option overrides them.
const (
	DefaultRate   = 5
	DefaultWindow = time.Second
)

// Limiter is a fixed-window permit counter. Windows are anchored at the
// first grant and advance in whole-window steps. Callers that arrive in
// a full window are queued and released in reservation order as later
// windows open.
type Limiter struct {
	rate    int
	window  time.Duration
	now     func() time.Time
	metrics *telemetry.MetricsCollector

	mu          sync.Mutex
	windowStart time.Time
	issued      int // slots reserved against windowStart; exceeds rate while callers queue
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithWindow overrides the window length (default one second).
func WithWindow(window time.Duration) Option {
	return func(l *Limiter) {
		if window > 0 {
			l.window = window
		}
	}
}

// WithMetrics records a counter increment for every delayed acquire.
func WithMetrics(metrics *telemetry.MetricsCollector) Option {
	return func(l *Limiter) {
		l.metrics = metrics
	}
}

// WithClock injects the time source used for window accounting.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Limiter granting rate permits per window.
func New(rate int, opts ...Option) *Limiter {
	if rate <= 0 {
		rate = DefaultRate
	}
	l := &Limiter{
		rate:   rate,
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Rate returns the configured permits per window.
func (l *Limiter) Rate() int {
	return l.rate
}

// Acquire blocks until a permit is available or ctx is cancelled.
// Cancellation returns the reserved slot to the window.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	grantAt, immediate := l.reserve()
	if immediate {
		return nil
	}

	if l.metrics != nil {
		l.metrics.IncrementCounter(telemetry.MetricRateLimitWaits, 1)
	}

	wait := grantAt.Sub(l.now())
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		l.release()
		return ctx.Err()
	}
}

// reserve assigns the caller a slot and returns the time its window
// opens. Slots below the rate in the current window are granted
// immediately.
func (l *Limiter) reserve() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.windowStart.IsZero() {
		l.windowStart = now
	}

	if elapsed := now.Sub(l.windowStart); elapsed >= l.window {
		steps := int(elapsed / l.window)
		l.windowStart = l.windowStart.Add(time.Duration(steps) * l.window)

		// Queued reservations from past windows carry forward.
		carried := l.issued - steps*l.rate
		if carried < 0 {
			carried = 0
		}
		l.issued = carried
	}

	slot := l.issued
	l.issued++

	if slot < l.rate {
		return time.Time{}, true
	}
	windowsAhead := slot / l.rate
	return l.windowStart.Add(time.Duration(windowsAhead) * l.window), false
}

// release returns an unclaimed slot after a cancelled wait.
func (l *Limiter) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.issued > 0 {
		l.issued--
	}
}
