package main

import "testing"

// TestPCSpeakerGateDataBitsRoundTrip verifies port 0x61 reads back the
// gate and data-enable bits last written, the real PC/AT speaker
// control register convention (the same bits, with different meanings,
// wired here without the rest of the PIT channel 2 state).
func TestPCSpeakerGateDataBitsRoundTrip(t *testing.T) {
	m := &Machine{Ports: NewPortIOTable()}
	inst, err := pcSpeakerInit(m, nil)
	if err != nil {
		t.Fatalf("pcSpeakerInit error: %v", err)
	}
	sp := inst.(*PCSpeaker)
	defer NewPCSpeakerDesc().Close(sp)

	m.Ports.Outb(pcSpeakerPort, pcSpeakerGateBit|pcSpeakerDataBit)
	if got := m.Ports.Inb(pcSpeakerPort); got != (pcSpeakerGateBit | pcSpeakerDataBit) {
		t.Fatalf("Inb(0x61) = 0x%02X, want 0x%02X", got, pcSpeakerGateBit|pcSpeakerDataBit)
	}

	m.Ports.Outb(pcSpeakerPort, 0x00)
	if got := m.Ports.Inb(pcSpeakerPort); got != 0 {
		t.Fatalf("Inb(0x61) after clearing = 0x%02X, want 0x00", got)
	}
}

// TestPCSpeakerResetClearsGateDataAndReload verifies Reset returns the
// speaker to its silent power-on state.
func TestPCSpeakerResetClearsGateDataAndReload(t *testing.T) {
	m := &Machine{Ports: NewPortIOTable()}
	inst, err := pcSpeakerInit(m, nil)
	if err != nil {
		t.Fatalf("pcSpeakerInit error: %v", err)
	}
	sp := inst.(*PCSpeaker)
	defer NewPCSpeakerDesc().Close(sp)

	m.Ports.Outb(pcSpeakerPort, pcSpeakerGateBit|pcSpeakerDataBit)
	sp.SetReload(1193)

	pcSpeakerReset(sp)

	if sp.gate || sp.dataOn || sp.reload != 0 {
		t.Fatalf("state after Reset = gate:%v dataOn:%v reload:%d, want false/false/0", sp.gate, sp.dataOn, sp.reload)
	}
	if got := m.Ports.Inb(pcSpeakerPort); got != 0 {
		t.Fatalf("Inb(0x61) after Reset = 0x%02X, want 0x00", got)
	}
}

// TestPCSpeakerSetReloadStoresPeriod verifies SetReload latches the
// programmed period independently of the gate/data bits, matching a
// guest programming PIT channel 2 before raising the gate.
func TestPCSpeakerSetReloadStoresPeriod(t *testing.T) {
	m := &Machine{Ports: NewPortIOTable()}
	inst, err := pcSpeakerInit(m, nil)
	if err != nil {
		t.Fatalf("pcSpeakerInit error: %v", err)
	}
	sp := inst.(*PCSpeaker)
	defer NewPCSpeakerDesc().Close(sp)

	sp.SetReload(0x02E9) // ~1.6kHz at the standard 1.193182MHz PIT clock
	if sp.reload != 0x02E9 {
		t.Fatalf("reload = 0x%04X, want 0x02E9", sp.reload)
	}
}
