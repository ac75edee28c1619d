package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"quizlive-client/internal/domain"
)

// RunState is the lifecycle of a single countdown run.
type RunState int

const (
	RunStateRunning RunState = iota
	RunStateExpired
	RunStateCancelled
)

// Countdown owns at most one active per-question countdown. Starting a
// new run cancels the previous one, so a machine can never have two
// timers racing for the same round.
type Countdown struct {
	clock clockwork.Clock

	mu  sync.Mutex
	run *CountdownRun
}

func NewCountdown(clock clockwork.Clock) *Countdown {
	return &Countdown{clock: clock}
}

// Start cancels any still-running countdown and begins a new one.
// onTick fires immediately with the full duration and again at every
// whole-second boundary; onEnd fires exactly once when the count
// reaches zero. Neither fires after Cancel. Callbacks must not call
// Cancel on their own run.
func (c *Countdown) Start(seconds int, onTick func(remaining int), onEnd func()) (*CountdownRun, error) {
	if seconds <= 0 {
		return nil, domain.ErrInvalidDuration
	}

	c.mu.Lock()
	if c.run != nil {
		c.run.Cancel()
	}
	run := &CountdownRun{
		clock:  c.clock,
		state:  RunStateRunning,
		cancel: make(chan struct{}),
	}
	c.run = run
	c.mu.Unlock()

	go run.loop(seconds, onTick, onEnd)
	return run, nil
}

// Stop cancels the active run, if any.
func (c *Countdown) Stop() {
	c.mu.Lock()
	run := c.run
	c.run = nil
	c.mu.Unlock()
	if run != nil {
		run.Cancel()
	}
}

// CountdownRun is one live countdown. Callbacks are serialized under
// the run's mutex, so once Cancel returns no further callback can fire.
type CountdownRun struct {
	clock clockwork.Clock

	mu     sync.Mutex
	state  RunState
	cancel chan struct{}
}

// State reports the run's current lifecycle state.
func (r *CountdownRun) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Cancel stops the run. It is safe to call more than once and after
// expiry; later calls are no-ops and the expired state is preserved.
func (r *CountdownRun) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RunStateRunning {
		return
	}
	r.state = RunStateCancelled
	close(r.cancel)
}

func (r *CountdownRun) loop(seconds int, onTick func(int), onEnd func()) {
	if !r.tick(seconds, onTick) {
		return
	}
	for remaining := seconds; remaining > 0; remaining-- {
		timer := r.clock.NewTimer(time.Second)
		select {
		case <-timer.Chan():
		case <-r.cancel:
			timer.Stop()
			return
		}

		left := remaining - 1
		if left > 0 {
			if !r.tick(left, onTick) {
				return
			}
			continue
		}

		r.mu.Lock()
		if r.state != RunStateRunning {
			r.mu.Unlock()
			return
		}
		if onTick != nil {
			onTick(0)
		}
		r.state = RunStateExpired
		if onEnd != nil {
			onEnd()
		}
		r.mu.Unlock()
	}
}

// tick invokes onTick unless the run has been cancelled. Returns false
// when the loop should stop.
func (r *CountdownRun) tick(remaining int, onTick func(int)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RunStateRunning {
		return false
	}
	if onTick != nil {
		onTick(remaining)
	}
	return true
}
