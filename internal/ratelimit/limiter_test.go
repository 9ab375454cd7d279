package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestImmediateGrantsWithinRate(t *testing.T) {
	clock := newFakeClock()
	l := New(5, WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		if _, immediate := l.reserve(); !immediate {
			t.Fatalf("Reservation %d should be immediate", i)
		}
	}

	grantAt, immediate := l.reserve()
	if immediate {
		t.Fatal("6th reservation in the window should queue")
	}
	wantAt := clock.Now().Add(DefaultWindow)
	if !grantAt.Equal(wantAt) {
		t.Errorf("6th grant at %v, want %v", grantAt, wantAt)
	}
}

func TestQueuedSlotsSpillIntoLaterWindows(t *testing.T) {
	clock := newFakeClock()
	l := New(2, WithClock(clock.Now))
	start := clock.Now()

	var grants []time.Time
	for i := 0; i < 6; i++ {
		grantAt, immediate := l.reserve()
		if immediate {
			grantAt = start
		}
		grants = append(grants, grantAt)
	}

	wants := []time.Time{
		start, start,
		start.Add(DefaultWindow), start.Add(DefaultWindow),
		start.Add(2 * DefaultWindow), start.Add(2 * DefaultWindow),
	}
	for i, want := range wants {
		if !grants[i].Equal(want) {
			t.Errorf("Grant %d at %v, want %v", i, grants[i], want)
		}
	}
}

func TestWindowAdvanceResetsCount(t *testing.T) {
	clock := newFakeClock()
	l := New(3, WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		l.reserve()
	}
	if _, immediate := l.reserve(); immediate {
		t.Fatal("4th reservation should queue")
	}

	// Two windows pass: the queued reservation drains and the count resets.
	clock.Advance(2 * DefaultWindow)
	if _, immediate := l.reserve(); !immediate {
		t.Fatal("Reservation after window advance should be immediate")
	}
}

func TestGrantTimesAreMonotonic(t *testing.T) {
	clock := newFakeClock()
	l := New(3, WithClock(clock.Now))
	start := clock.Now()

	previous := start
	for i := 0; i < 20; i++ {
		grantAt, immediate := l.reserve()
		if immediate {
			grantAt = start
		}
		if grantAt.Before(previous) {
			t.Fatalf("Grant %d at %v is earlier than previous grant %v", i, grantAt, previous)
		}
		previous = grantAt
	}
}

// Ten simultaneous callers at rate 5: the first five complete in the
// current window, the rest wait for the next one.
func TestConcurrentCallersRespectRate(t *testing.T) {
	const window = 100 * time.Millisecond
	l := New(5, WithWindow(window))

	start := time.Now()
	var mu sync.Mutex
	var grantTimes []time.Duration

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			mu.Lock()
			grantTimes = append(grantTimes, time.Since(start))
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(grantTimes) != 10 {
		t.Fatalf("Expected 10 grants, got %d", len(grantTimes))
	}

	fast, slow := 0, 0
	for _, d := range grantTimes {
		if d < window/2 {
			fast++
		} else if d >= window-20*time.Millisecond {
			slow++
		}
	}
	if fast != 5 {
		t.Errorf("Expected 5 immediate grants, got %d (grants: %v)", fast, grantTimes)
	}
	if slow != 5 {
		t.Errorf("Expected 5 grants delayed to the next window, got %d (grants: %v)", slow, grantTimes)
	}
}

func TestCancelledWaitReturnsSlot(t *testing.T) {
	// One permit per hour: the second caller queues essentially forever.
	l := New(1, WithWindow(time.Hour))

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("First acquire failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Acquire(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Cancelled acquire did not return")
	}

	l.mu.Lock()
	issued := l.issued
	l.mu.Unlock()
	if issued != 1 {
		t.Errorf("Cancelled wait should return its slot, issued = %d", issued)
	}
}

func TestAcquireWithCancelledContext(t *testing.T) {
	l := New(5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Acquire(ctx); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestDefaultsApplied(t *testing.T) {
	l := New(0)
	if l.Rate() != DefaultRate {
		t.Errorf("Expected default rate %d, got %d", DefaultRate, l.Rate())
	}
	if l.window != DefaultWindow {
		t.Errorf("Expected default window %v, got %v", DefaultWindow, l.window)
	}
}
