package engine

import (
	"time"

	"github.com/hailam/chessmind/internal/board"
)

// defaultMoveOverhead is subtracted from every allocation to cover the
// latency between the engine and whoever runs its clock.
const defaultMoveOverhead = 10 * time.Millisecond

const minMoveTime = 5 * time.Millisecond

// TimeManager turns clock state into a per-move budget. The soft limit is
// the point after which no new iteration starts; the hard limit aborts the
// search mid-iteration. Unlimited searches (infinite, depth- or node-capped)
// never report expiry.
type TimeManager struct {
	start     time.Time
	soft      time.Duration
	hard      time.Duration
	remaining time.Duration
	limited   bool
	fixed     bool
	overhead  time.Duration
}

// Start computes the budget for the side to move.
func (tm *TimeManager) Start(limits Limits, us board.Color) {
	tm.start = time.Now()
	tm.limited = false
	tm.fixed = false
	tm.remaining = 0
	if tm.overhead <= 0 {
		tm.overhead = defaultMoveOverhead
	}

	if limits.MoveTime > 0 {
		t := limits.MoveTime - tm.overhead
		if t < minMoveTime {
			t = minMoveTime
		}
		tm.soft = t
		tm.hard = t
		tm.limited = true
		tm.fixed = true
		return
	}

	if limits.Infinite || limits.Time[us] <= 0 {
		return
	}

	tm.limited = true
	tm.remaining = limits.Time[us]

	mtg := limits.MovesToGo
	if mtg <= 0 {
		mtg = 40
	}

	// Aim for four fifths of an even split, keeping reserve for panic time.
	soft := tm.remaining/time.Duration(mtg)*4/5 + limits.Inc[us]*9/10 - tm.overhead
	if soft < minMoveTime {
		soft = minMoveTime
	}
	tm.soft = soft

	hard := soft * 5
	if cap := tm.remaining * 8 / 10; hard > cap {
		hard = cap
	}
	if hard < soft {
		hard = soft
	}
	tm.hard = hard
}

// SetOverhead overrides the per-move latency allowance.
func (tm *TimeManager) SetOverhead(d time.Duration) {
	tm.overhead = d
}

// Elapsed returns the time since Start.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.start)
}

// Limited reports whether the search runs against a clock.
func (tm *TimeManager) Limited() bool {
	return tm.limited
}

// HardExpired reports whether the search must abort now.
func (tm *TimeManager) HardExpired() bool {
	return tm.limited && tm.Elapsed() >= tm.hard
}

// SoftExpired reports whether a new iteration should still be started.
func (tm *TimeManager) SoftExpired() bool {
	return tm.limited && tm.Elapsed() >= tm.soft
}

// SoftRemaining returns the budget left before the soft limit.
func (tm *TimeManager) SoftRemaining() time.Duration {
	if !tm.limited {
		return time.Hour
	}
	left := tm.soft - tm.Elapsed()
	if left < 0 {
		return 0
	}
	return left
}

// AddPanicTime extends the soft limit when the root turns unstable between
// iterations, so a freshly found threat gets resolved before the move is
// committed. Fixed move-time searches are never extended.
func (tm *TimeManager) AddPanicTime() {
	if !tm.limited || tm.fixed {
		return
	}
	soft := tm.soft * 13 / 10
	if cap := tm.remaining * 3 / 4; cap > 0 && soft > cap {
		soft = cap
	}
	if soft > tm.hard {
		soft = tm.hard
	}
	tm.soft = soft
}
