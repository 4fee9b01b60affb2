// execloop.go - Execution loop: interleaves CPU instruction dispatch
// with scheduler advancement, per spec.md §4.9.
//
//	loop {
//	    while cycles_budget > 0 and not aborted:
//	        advance_timers_if_deadline_reached()
//	        execute_one_instruction()
//	    handle_async_ui_events()
//	    if shutdown_requested: break
//	}
//
// Single-threaded: nothing else may mutate bus/device state while a
// frame is running. UI input arrives through a lock-free mailbox
// (atomic pointer swap), matching spec.md §5's suspension-point rule —
// the loop never blocks inside bus dispatch.
package main

import "sync/atomic"

// UIEvent is a host-originated event delivered at a frame boundary
// (key press, pause request, config change, ...). The core doesn't
// interpret these; it just ferries them to the onUI handler passed to
// NewExecutionLoop.
type UIEvent struct {
	Kind string
	Data any
}

// uiMailbox is a single-slot lock-free mailbox: the host posts at most
// one pending event between frames, which the loop drains and clears.
type uiMailbox struct {
	pending atomic.Pointer[UIEvent]
}

func (b *uiMailbox) post(e UIEvent) { b.pending.Store(&e) }

func (b *uiMailbox) drain() *UIEvent { return b.pending.Swap(nil) }

// ExecutionLoop drives a Machine's CPU and timer wheel together.
type ExecutionLoop struct {
	m      *Machine
	mail   uiMailbox
	onUI   func(UIEvent)
	frameCycles Cycle

	shutdown atomic.Bool
}

// NewExecutionLoop builds a loop that replenishes frameCycles of budget
// per RunFrame call (nominally a fixed emulated-time slice, e.g. enough
// cycles for 1ms at the machine's nominal clock).
func NewExecutionLoop(m *Machine, frameCycles Cycle, onUI func(UIEvent)) *ExecutionLoop {
	return &ExecutionLoop{m: m, frameCycles: frameCycles, onUI: onUI}
}

// PostUIEvent is safe to call from a render/input thread; it does not
// touch bus or device state.
func (el *ExecutionLoop) PostUIEvent(e UIEvent) { el.mail.post(e) }

// RequestShutdown asks the loop to stop after its current frame.
func (el *ExecutionLoop) RequestShutdown() { el.shutdown.Store(true) }

// RunFrame executes up to one frame's worth of cycle budget, advancing
// timers whenever the scheduler's next deadline has been reached, then
// drains one pending UI event. Returns false once shutdown has been
// requested (the caller should stop calling RunFrame).
func (el *ExecutionLoop) RunFrame() bool {
	m := el.m
	budget := el.frameCycles

	for budget > 0 && !el.shutdown.Load() {
		if deadline, ok := m.Timers.NextDeadline(); ok && deadline <= m.cycles {
			m.Timers.ProcessExpired(m.cycles)
		}

		// Interrupt acceptance is the CPU model's own decision (it
		// knows IF/instruction-boundary state); Step is expected to
		// call back into m.CPU.IRQAck() / m.PICs internally when ready.
		used := m.CPU.Step()
		if used <= 0 {
			used = 1
		}
		m.cycles += Cycle(used)
		budget -= Cycle(used)

		// SMIPending is polled after every instruction per spec.md §6;
		// this is the only path that may assert the memory map's
		// SMM-active flag, keeping SMRAM/SmramEX decode tied to the
		// CPU's real mode rather than a chipset register alone.
		m.Mem.SetSMMActive(m.CPU.SMIPending())
	}

	// A final pass so events scheduled exactly at the frame's last
	// cycle still fire before the frame boundary is reported to UI.
	m.Timers.ProcessExpired(m.cycles)

	if e := el.mail.drain(); e != nil && el.onUI != nil {
		el.onUI(*e)
	}

	return !el.shutdown.Load()
}
