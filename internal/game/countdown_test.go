package game

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"quizlive-client/internal/domain"
)

func TestCountdownTicksDownAndFiresOnce(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := NewCountdown(fc)

	ticks := make(chan int, 16)
	ends := make(chan struct{}, 4)
	run, err := c.Start(3,
		func(remaining int) { ticks <- remaining },
		func() { ends <- struct{}{} },
	)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if got := waitTick(t, ticks); got != 3 {
		t.Fatalf("expected initial tick 3, got %d", got)
	}
	for _, want := range []int{2, 1, 0} {
		fc.BlockUntil(1)
		fc.Advance(time.Second)
		if got := waitTick(t, ticks); got != want {
			t.Fatalf("expected tick %d, got %d", want, got)
		}
	}

	select {
	case <-ends:
	case <-time.After(2 * time.Second):
		t.Fatalf("countdown never expired")
	}
	if run.State() != RunStateExpired {
		t.Fatalf("expected expired state, got %v", run.State())
	}

	// Nothing fires after expiry.
	select {
	case r := <-ticks:
		t.Fatalf("tick %d after expiry", r)
	case <-ends:
		t.Fatalf("second expiry")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCountdownCancelSuppressesCallbacks(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := NewCountdown(fc)

	ticks := make(chan int, 16)
	ends := make(chan struct{}, 4)
	run, err := c.Start(5,
		func(remaining int) { ticks <- remaining },
		func() { ends <- struct{}{} },
	)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := waitTick(t, ticks); got != 5 {
		t.Fatalf("expected initial tick 5, got %d", got)
	}

	fc.BlockUntil(1)
	run.Cancel()
	fc.Advance(5 * time.Second)

	select {
	case r := <-ticks:
		t.Fatalf("tick %d after cancel", r)
	case <-ends:
		t.Fatalf("expiry after cancel")
	case <-time.After(50 * time.Millisecond):
	}
	if run.State() != RunStateCancelled {
		t.Fatalf("expected cancelled state, got %v", run.State())
	}

	// Cancel after cancel stays a no-op.
	run.Cancel()
}

func TestCountdownStartCancelsPriorRun(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := NewCountdown(fc)

	first, err := c.Start(10, nil, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := c.Start(10, nil, nil)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if first.State() != RunStateCancelled {
		t.Fatalf("expected first run cancelled, got %v", first.State())
	}
	if second.State() != RunStateRunning {
		t.Fatalf("expected second run running, got %v", second.State())
	}
}

func TestCountdownRejectsBadDuration(t *testing.T) {
	c := NewCountdown(clockwork.NewFakeClock())
	if _, err := c.Start(0, nil, nil); err != domain.ErrInvalidDuration {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := c.Start(-3, nil, nil); err != domain.ErrInvalidDuration {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func waitTick(t *testing.T, ticks <-chan int) int {
	t.Helper()
	select {
	case r := <-ticks:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for tick")
		return 0
	}
}
