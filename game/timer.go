package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TimerManager runs one restartable countdown on a clock.
// Callbacks from a countdown that was stopped or restarted are dropped.
type TimerManager struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	limit     time.Duration
	deadline  time.Time
	timer     clockwork.Timer
	gen       int
	closed    bool
	onExpired func()
}

// NewTimerManager creates a TimerManager. onExpired is called when a
// countdown reaches zero, without any lock held.
func NewTimerManager(c clockwork.Clock, onExpired func()) *TimerManager {
	return &TimerManager{clock: c, onExpired: onExpired}
}

// Start begins a countdown of the given length, replacing any running one.
// It does nothing after Close.
func (tm *TimerManager) Start(limit time.Duration) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.closed {
		return
	}
	tm.stopLocked()
	tm.limit = limit
	if limit <= 0 {
		return
	}
	tm.scheduleLocked()
}

// Reset restarts the countdown with the last configured length.
// It does nothing after Close.
func (tm *TimerManager) Reset() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.closed {
		return
	}
	tm.stopLocked()
	if tm.limit > 0 {
		tm.scheduleLocked()
	}
}

// Stop cancels the running countdown.
func (tm *TimerManager) Stop() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.stopLocked()
}

// Close cancels the running countdown for good.
func (tm *TimerManager) Close() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.closed = true
	tm.stopLocked()
}

// TimeLeft returns the remaining time, or zero when nothing is running.
func (tm *TimerManager) TimeLeft() time.Duration {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.timer == nil {
		return 0
	}
	left := tm.deadline.Sub(tm.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

func (tm *TimerManager) stopLocked() {
	tm.gen++
	if tm.timer != nil {
		tm.timer.Stop()
		tm.timer = nil
	}
}

func (tm *TimerManager) scheduleLocked() {
	tm.gen++
	gen := tm.gen
	tm.deadline = tm.clock.Now().Add(tm.limit)
	tm.timer = tm.clock.AfterFunc(tm.limit, func() {
		tm.mu.Lock()
		if gen != tm.gen {
			tm.mu.Unlock()
			return
		}
		tm.timer = nil
		tm.mu.Unlock()
		if tm.onExpired != nil {
			tm.onExpired()
		}
	})
}
