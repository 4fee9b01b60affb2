package main

import "testing"

// TestStubCPUIRQAckDelegatesToPICs verifies StubCPU.IRQAck is a thin
// pass-through to the owning Machine's PIC pair, the contract the
// execution loop relies on to dispatch pending interrupts.
func TestStubCPUIRQAckDelegatesToPICs(t *testing.T) {
	m := &Machine{PICs: NewPICPair()}
	initPIC(m.PICs.Master, 0x08, false)
	cpu := NewStubCPU(m, 4)

	m.PICs.Master.Raise(3)
	vec, ok := cpu.IRQAck()
	if !ok || vec != 0x0B {
		t.Fatalf("IRQAck() = (0x%02X, %v), want (0x0B, true)", vec, ok)
	}
}

// TestStubCPUStepConsumesFixedCycles verifies the stub costs exactly its
// configured cycles-per-step whether halted or not, matching the
// contract execloop.go relies on for cycle-budget accounting.
func TestStubCPUStepConsumesFixedCycles(t *testing.T) {
	cpu := NewStubCPU(nil, 7)
	if got := cpu.Step(); got != 7 {
		t.Fatalf("Step() = %d, want 7", got)
	}
	cpu.Halt()
	if got := cpu.Step(); got != 7 {
		t.Fatalf("Step() while halted = %d, want 7", got)
	}
	if !cpu.Halted() {
		t.Fatal("Halted() = false after Halt()")
	}
	cpu.Reset()
	if cpu.Halted() {
		t.Fatal("Halted() = true after Reset()")
	}
}

// TestNewStubCPUDefaultsNonPositiveCycles verifies a non-positive
// cyclesPerStep argument is coerced to 1 rather than producing a stub
// that never advances virtual time.
func TestNewStubCPUDefaultsNonPositiveCycles(t *testing.T) {
	cpu := NewStubCPU(nil, 0)
	if got := cpu.Step(); got != 1 {
		t.Fatalf("Step() with cyclesPerStep=0 = %d, want 1", got)
	}
}
