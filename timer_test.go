package main

import "testing"

// TestTimerOrderingScenario is spec.md §8 scenario 4 verbatim: events
// scheduled A@1000, B@500, C@1000 in that insertion order must fire, on
// advance to 2000, in the order B, A, C (deadline order, ties broken
// FIFO by insertion sequence).
func TestTimerOrderingScenario(t *testing.T) {
	w := NewTimerWheel()
	var fired []string

	w.Add(&TimerEvent{Deadline: 1000, Callback: func(priv any) { fired = append(fired, priv.(string)) }, Priv: "A"})
	w.Add(&TimerEvent{Deadline: 500, Callback: func(priv any) { fired = append(fired, priv.(string)) }, Priv: "B"})
	w.Add(&TimerEvent{Deadline: 1000, Callback: func(priv any) { fired = append(fired, priv.(string)) }, Priv: "C"})

	w.ProcessExpired(2000)

	want := []string{"B", "A", "C"}
	if len(fired) != len(want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("fired = %v, want %v", fired, want)
		}
	}
}

// TestTimerPeriodicReArm verifies a periodic event re-schedules itself
// relative to its own deadline rather than the time ProcessExpired was
// called at, so repeated advances stay phase-stable.
func TestTimerPeriodicReArm(t *testing.T) {
	w := NewTimerWheel()
	fireCount := 0
	w.Add(&TimerEvent{Deadline: 100, Period: 100, Callback: func(any) { fireCount++ }})

	w.ProcessExpired(250)
	if fireCount != 2 {
		t.Fatalf("fireCount = %d, want 2 (deadlines 100 and 200 both <= 250)", fireCount)
	}
	deadline, ok := w.NextDeadline()
	if !ok || deadline != 300 {
		t.Fatalf("NextDeadline() = (%d, %v), want (300, true)", deadline, ok)
	}
}

// TestTimerDisableSkipsFiring verifies a disabled event does not fire,
// and Enable restores it unchanged so it fires on the next pass.
func TestTimerDisableSkipsFiring(t *testing.T) {
	w := NewTimerWheel()
	fired := false
	id := w.Add(&TimerEvent{Deadline: 50, Callback: func(any) { fired = true }})

	w.Disable(id)
	w.ProcessExpired(100)
	if fired {
		t.Fatal("disabled event fired")
	}

	w.Enable(id)
	w.ProcessExpired(100)
	if !fired {
		t.Fatal("re-enabled event did not fire")
	}
}

// TestTimerOneShotRemovedAfterFiring verifies a one-shot (Period == 0)
// event is not re-armed and does not fire again on a later advance.
func TestTimerOneShotRemovedAfterFiring(t *testing.T) {
	w := NewTimerWheel()
	fireCount := 0
	w.Add(&TimerEvent{Deadline: 10, Callback: func(any) { fireCount++ }})

	w.ProcessExpired(20)
	w.ProcessExpired(30)
	if fireCount != 1 {
		t.Fatalf("fireCount = %d, want 1 (one-shot must not re-fire)", fireCount)
	}
}
