package engine

import (
	"testing"
	"time"

	"github.com/hailam/chessmind/internal/board"
)

func TestTimeManagerMoveTime(t *testing.T) {
	var tm TimeManager
	tm.Start(Limits{MoveTime: 500 * time.Millisecond}, board.White)

	if !tm.Limited() {
		t.Fatal("move time search not limited")
	}
	if tm.soft != 490*time.Millisecond || tm.hard != 490*time.Millisecond {
		t.Errorf("soft %v hard %v, want 490ms after overhead", tm.soft, tm.hard)
	}
}

func TestTimeManagerAllocation(t *testing.T) {
	cases := []struct {
		name     string
		limits   Limits
		soft     time.Duration
		hard     time.Duration
	}{
		{
			name:   "even split over 40 moves",
			limits: Limits{Time: [2]time.Duration{40 * time.Second, 40 * time.Second}},
			soft:   790 * time.Millisecond,
			hard:   3950 * time.Millisecond,
		},
		{
			name:   "explicit moves to go",
			limits: Limits{Time: [2]time.Duration{40 * time.Second, 40 * time.Second}, MovesToGo: 10},
			soft:   3190 * time.Millisecond,
			hard:   15950 * time.Millisecond,
		},
		{
			name: "increment counts",
			limits: Limits{
				Time: [2]time.Duration{60 * time.Second, 60 * time.Second},
				Inc:  [2]time.Duration{time.Second, time.Second},
			},
			soft: 2090 * time.Millisecond,
			hard: 10450 * time.Millisecond,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var tm TimeManager
			tm.Start(tc.limits, board.White)
			if tm.soft != tc.soft {
				t.Errorf("soft = %v, want %v", tm.soft, tc.soft)
			}
			if tm.hard != tc.hard {
				t.Errorf("hard = %v, want %v", tm.hard, tc.hard)
			}
			if tm.SoftExpired() || tm.HardExpired() {
				t.Error("budget expired immediately")
			}
		})
	}
}

func TestTimeManagerPanic(t *testing.T) {
	var tm TimeManager
	tm.Start(Limits{Time: [2]time.Duration{40 * time.Second, 40 * time.Second}}, board.Black)

	tm.AddPanicTime()
	if want := 1027 * time.Millisecond; tm.soft != want {
		t.Errorf("panicked soft = %v, want %v", tm.soft, want)
	}
	if tm.hard != 3950*time.Millisecond {
		t.Errorf("panic must not move the hard limit, got %v", tm.hard)
	}

	// Fixed move time never stretches.
	tm.Start(Limits{MoveTime: 300 * time.Millisecond}, board.White)
	tm.AddPanicTime()
	if tm.soft != 290*time.Millisecond {
		t.Errorf("fixed budget stretched to %v", tm.soft)
	}
}

func TestTimeManagerUnlimited(t *testing.T) {
	var tm TimeManager
	tm.Start(Limits{Infinite: true}, board.White)

	if tm.Limited() {
		t.Error("infinite search reported limited")
	}
	if tm.HardExpired() || tm.SoftExpired() {
		t.Error("infinite search expired")
	}
	if tm.SoftRemaining() != time.Hour {
		t.Errorf("SoftRemaining = %v, want an hour", tm.SoftRemaining())
	}
}
