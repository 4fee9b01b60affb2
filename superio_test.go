package main

import "testing"

func newTestSuperIO(t *testing.T) (*Machine, *SuperIO) {
	t.Helper()
	m := &Machine{Ports: NewPortIOTable()}
	cfg := NewDeviceConfig(nil, NewSuperIODesc().Config)
	inst, err := superIOInit(m, cfg)
	if err != nil {
		t.Fatalf("superIOInit error: %v", err)
	}
	return m, inst.(*SuperIO)
}

// TestSuperIOIndexDataRoundTrip verifies the conventional 0x2E/0x2F
// index/data pair addresses the base register file (registers below
// sioLDRegBase) directly.
func TestSuperIOIndexDataRoundTrip(t *testing.T) {
	m, _ := newTestSuperIO(t)

	m.Ports.Outb(0x2E, sioLDSelect)
	if got := m.Ports.Inb(0x2E); got != sioLDSelect {
		t.Fatalf("Inb(0x2E) = 0x%02X, want 0x%02X (echoes curReg)", got, sioLDSelect)
	}
	m.Ports.Outb(0x2F, sioLDUART1)
	if got := m.Ports.Inb(0x2F); got != sioLDUART1 {
		t.Fatalf("Inb(0x2F) = 0x%02X, want 0x%02X (selected logical device)", got, sioLDUART1)
	}
}

// TestSuperIOUART1EnableAttachesPortHandler verifies selecting the UART1
// logical device and setting its enable bit and base-address registers
// moves the chip's owned I/O decode to that base, mirroring
// pc87307_write's case 0x30 dispatch into serial_handler.
func TestSuperIOUART1EnableAttachesPortHandler(t *testing.T) {
	m, sio := newTestSuperIO(t)

	selectLD := func(ld uint8) {
		m.Ports.Outb(0x2E, sioLDSelect)
		m.Ports.Outb(0x2F, ld)
	}
	writeLDReg := func(reg, val uint8) {
		m.Ports.Outb(0x2E, sioLDRegBase+reg)
		m.Ports.Outb(0x2F, val)
	}

	selectLD(sioLDUART1)
	writeLDReg(sioLDBaseHi, 0x02)
	writeLDReg(sioLDBaseLo, 0xF8)
	writeLDReg(sioLDEnable, 0x01)

	if sio.uart1Handler == nil {
		t.Fatal("uart1Handler is nil after enabling logical device UART1")
	}
	if sio.uart1Handler.Port != 0x02F8 {
		t.Fatalf("uart1Handler.Port = 0x%04X, want 0x02F8", sio.uart1Handler.Port)
	}
	if got := m.Ports.Inb(0x02F8); got != 0xFF {
		t.Fatalf("Inb(0x02F8) = 0x%02X, want 0xFF (stub UART read)", got)
	}
}

// TestSuperIOUART1DisableDetachesPortHandler verifies clearing the
// enable bit removes the port handler so the address range goes back to
// reading as unmapped.
func TestSuperIOUART1DisableDetachesPortHandler(t *testing.T) {
	m, sio := newTestSuperIO(t)

	selectLD := func(ld uint8) {
		m.Ports.Outb(0x2E, sioLDSelect)
		m.Ports.Outb(0x2F, ld)
	}
	writeLDReg := func(reg, val uint8) {
		m.Ports.Outb(0x2E, sioLDRegBase+reg)
		m.Ports.Outb(0x2F, val)
	}

	selectLD(sioLDUART1)
	writeLDReg(sioLDBaseHi, 0x03)
	writeLDReg(sioLDBaseLo, 0xF8)
	writeLDReg(sioLDEnable, 0x01)
	if sio.uart1Handler == nil {
		t.Fatal("uart1Handler is nil after enable")
	}

	writeLDReg(sioLDEnable, 0x00)
	if sio.uart1Handler != nil {
		t.Fatal("uart1Handler still set after disabling logical device UART1")
	}
	if got := m.Ports.Inb(0x03F8); got != 0xFF {
		t.Fatalf("Inb(0x03F8) after detach = 0x%02X, want 0xFF (unmapped)", got)
	}
}

// TestSuperIOResetDetachesUART1 verifies Reset both restores the paged
// register defaults and detaches any live UART1 port handler.
func TestSuperIOResetDetachesUART1(t *testing.T) {
	m, sio := newTestSuperIO(t)

	m.Ports.Outb(0x2E, sioLDSelect)
	m.Ports.Outb(0x2F, sioLDUART1)
	m.Ports.Outb(0x2E, sioLDRegBase+sioLDEnable)
	m.Ports.Outb(0x2F, 0x01)

	superIOReset(sio)
	if sio.uart1Handler != nil {
		t.Fatal("uart1Handler still set after Reset")
	}
	if sio.curReg != 0 {
		t.Fatalf("curReg after Reset = 0x%02X, want 0", sio.curReg)
	}
}
