package main

import "testing"

// TestExecutionLoopAdvancesCyclesAndFiresTimers verifies RunFrame steps
// the CPU enough times to exhaust its frame budget and processes any
// timer whose deadline falls within that budget.
func TestExecutionLoopAdvancesCyclesAndFiresTimers(t *testing.T) {
	m := &Machine{Mem: NewMemMapTable(1 << 16), PICs: NewPICPair(), Timers: NewTimerWheel()}
	m.CPU = NewStubCPU(m, 4)

	fired := false
	m.Timers.Add(&TimerEvent{Deadline: 8, Callback: func(any) { fired = true }})

	loop := NewExecutionLoop(m, 16, nil)
	cont := loop.RunFrame()

	if !cont {
		t.Fatal("RunFrame() = false, want true (no shutdown requested)")
	}
	if m.Cycles() != 16 {
		t.Fatalf("Cycles() = %d, want 16", m.Cycles())
	}
	if !fired {
		t.Fatal("timer at deadline 8 did not fire within a 16-cycle frame")
	}
}

// TestExecutionLoopRequestShutdownStopsNextFrame verifies
// RequestShutdown takes effect on the very next RunFrame call, and that
// RunFrame reports false once it has.
func TestExecutionLoopRequestShutdownStopsNextFrame(t *testing.T) {
	m := &Machine{Mem: NewMemMapTable(1 << 16), PICs: NewPICPair(), Timers: NewTimerWheel()}
	m.CPU = NewStubCPU(m, 4)
	loop := NewExecutionLoop(m, 16, nil)

	loop.RequestShutdown()
	if loop.RunFrame() {
		t.Fatal("RunFrame() = true after RequestShutdown, want false")
	}
}

// TestExecutionLoopDeliversUIEvent verifies a UI event posted via the
// lock-free mailbox is delivered to the onUI callback by the end of the
// frame it arrived in.
func TestExecutionLoopDeliversUIEvent(t *testing.T) {
	m := &Machine{Mem: NewMemMapTable(1 << 16), PICs: NewPICPair(), Timers: NewTimerWheel()}
	m.CPU = NewStubCPU(m, 4)

	var got *UIEvent
	loop := NewExecutionLoop(m, 16, func(e UIEvent) { got = &e })
	loop.PostUIEvent(UIEvent{Kind: "keydown", Data: byte('A')})
	loop.RunFrame()

	if got == nil {
		t.Fatal("onUI never called")
	}
	if got.Kind != "keydown" {
		t.Fatalf("UIEvent.Kind = %q, want %q", got.Kind, "keydown")
	}
}
