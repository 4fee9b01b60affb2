// cpucontract.go - CPU <-> bus execution contract (spec.md §6)
//
// CPU instruction semantics are out of core scope; this file specifies
// only the interface the execution loop and bus fabric need from
// whatever CPU model is plugged in, plus a StubCPU test double that
// drives a fixed number of cycles per "instruction" so the scheduler and
// bus dispatch can be exercised without a real decoder. Mirrors the
// teacher's DebuggableCPU interface-plus-concrete-implementation shape
// (debug_interface.go).
package main

// CPU is the contract the execution loop drives every iteration.
type CPU interface {
	// Step executes one instruction and returns the number of cycles it
	// consumed.
	Step() int

	// IRQAck is called when the execution loop observes a pending,
	// unmasked interrupt; it must return the vector the PIC handed
	// back so the CPU can dispatch to it.
	IRQAck() (vector uint8, ok bool)

	// SMIPending is polled after every instruction, per spec.md §6.
	SMIPending() bool

	Reset()
}

// StubCPU is a minimal CPU double used by tests and the console: it
// "executes" by consuming a fixed cycle cost per Step and reports
// whatever IRQ state its owning Machine currently has pending.
type StubCPU struct {
	CyclesPerStep int
	m             *Machine

	halted bool
	smi    bool
}

// NewStubCPU returns a stub that costs cyclesPerStep cycles per Step and
// acks interrupts through m's PIC pair.
func NewStubCPU(m *Machine, cyclesPerStep int) *StubCPU {
	if cyclesPerStep <= 0 {
		cyclesPerStep = 1
	}
	return &StubCPU{CyclesPerStep: cyclesPerStep, m: m}
}

func (c *StubCPU) Step() int {
	if c.halted {
		return c.CyclesPerStep
	}
	return c.CyclesPerStep
}

func (c *StubCPU) IRQAck() (uint8, bool) {
	return c.m.PICs.Ack()
}

func (c *StubCPU) SMIPending() bool { return c.smi }

// SetSMIPending lets tests drive the stub's reported
// SMM-entry signal, since the stub has no real decoder to raise it
// itself.
func (c *StubCPU) SetSMIPending(pending bool) { c.smi = pending }

func (c *StubCPU) Reset() { c.halted = false }

// Halt marks the stub halted; Step still consumes cycles (as a real CPU
// halted awaiting an interrupt would) but the flag is observable for
// tests that want to assert the CPU parked.
func (c *StubCPU) Halt() { c.halted = true }

func (c *StubCPU) Halted() bool { return c.halted }
