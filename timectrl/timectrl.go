package timectrl

import (
	"context"
	"slices"
	"sync"
	"time"
)

// SimClock is an interface for accessing simulation time. Consumers such as
// the simulator loop depend on it rather than on the concrete controller.
type SimClock interface {
	// Now returns the current simulation time.
	Now() SimTime
	// After returns a channel that receives the simulation time once at
	// least d of simulation time has elapsed.
	After(d SimDuration) <-chan SimTime
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances according to wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as quickly as the loop can run while still stepping by Tick.
	Accelerated
)

type timer struct {
	due SimTime
	ch  chan SimTime
}

// TimeController drives simulation time and notifies registered listeners.
type TimeController struct {
	mu        sync.RWMutex
	StartTime SimTime
	Tick      SimDuration
	Mode      Mode

	currentTime SimTime

	listeners []func(SimTime)
	timers    []timer
}

// NewTimeController constructs a controller.
func NewTimeController(start SimTime, tick SimDuration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current simulation time.
func (tc *TimeController) Now() SimTime {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// After returns a channel that receives the simulation time once d has
// elapsed. A non-positive d fires immediately.
func (tc *TimeController) After(d SimDuration) <-chan SimTime {
	ch := make(chan SimTime, 1)
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if !d.IsPositive() {
		ch <- tc.currentTime
		return ch
	}
	tc.timers = append(tc.timers, timer{due: tc.currentTime.Add(d), ch: ch})
	return ch
}

// AddListener registers a callback invoked on every tick.
func (tc *TimeController) AddListener(fn func(SimTime)) {
	tc.mu.Lock()
	tc.listeners = append(tc.listeners, fn)
	tc.mu.Unlock()
}

func (tc *TimeController) fireDueLocked(now SimTime) {
	kept := tc.timers[:0]
	for _, tm := range tc.timers {
		if now.Before(tm.due) {
			kept = append(kept, tm)
			continue
		}
		tm.ch <- now
	}
	tc.timers = kept
}

// Start runs the controller in a separate goroutine until duration of
// simulation time has elapsed (zero runs until ctx is cancelled). It returns
// a channel that is closed when the controller finishes.
//
// RealTime mode paces ticks with a wall-clock ticker of Tick length;
// Accelerated mode steps as fast as listeners allow.
func (tc *TimeController) Start(ctx context.Context, duration SimDuration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.mu.Lock()
		simTime := tc.StartTime
		tc.currentTime = simTime
		tc.mu.Unlock()

		if !tc.Tick.IsPositive() {
			return
		}

		var tick <-chan time.Time
		if tc.Mode == RealTime {
			ticker := time.NewTicker(tc.Tick.Std())
			defer ticker.Stop()
			tick = ticker.C
		}

		elapsed := SimDuration{}
		for {
			if duration.IsPositive() && !elapsed.Less(duration) {
				return
			}

			if tick != nil {
				select {
				case <-ctx.Done():
					return
				case <-tick:
				}
			} else if ctx.Err() != nil {
				return
			}

			simTime = simTime.Add(tc.Tick)
			elapsed = elapsed.Add(tc.Tick)

			tc.mu.Lock()
			tc.currentTime = simTime
			tc.fireDueLocked(simTime)
			listeners := slices.Clone(tc.listeners)
			tc.mu.Unlock()

			for _, fn := range listeners {
				fn(simTime)
			}
		}
	}()
	return done
}
