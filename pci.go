// pci.go - PCI configuration bus (Configuration Mechanism #1)
//
// Implements the CF8h index register / CFCh data window pair and a
// 32-slot configuration-space router with INTA#-D# PIRQ steering, per
// spec.md §4.5. Slot occupants are registered by machine setup code;
// unoccupied slots read as 0xFFFFFFFF and discard writes.
package main

// PCICardType classifies a slot occupant, informational only (affects
// nothing in dispatch, but machine descriptors use it to decide wiring
// order and default PIRQ rotation).
type PCICardType int

const (
	PCINormal PCICardType = iota
	PCINorthBridge
	PCISouthBridge
	PCIOnboard
	PCIAGP
)

// PCICard is one slot's configuration-space occupant.
type PCICard struct {
	Slot     uint8
	Type     PCICardType
	ReadCfg  func(function uint8, reg uint8) uint32
	WriteCfg func(function uint8, reg uint8, val uint32)
	Priv     any

	// IRQRouting maps this card's INTA#-INTD# pins (index 0-3) to a
	// PIRQ line (0-3 = PIRQA-D), or -1 if that pin isn't wired.
	IRQRouting [4]int
}

// PIRQLine identifies one of the four PCI interrupt request lines.
type PIRQLine int

const (
	PIRQA PIRQLine = iota
	PIRQB
	PIRQC
	PIRQD
)

// PCIBus is the configuration-space router plus PIRQ steering table.
type PCIBus struct {
	slots [32]*PCICard

	index uint32 // CF8h shadow

	// pirqRoute[line] is the classic PIC IRQ (0-15) this PIRQ steers to,
	// or -1 if disabled.
	pirqRoute [4]int

	pics *PICPair
}

// NewPCIBus builds an empty 32-slot bus with all PIRQ lines disabled.
func NewPCIBus(pics *PICPair) *PCIBus {
	b := &PCIBus{pics: pics}
	for i := range b.pirqRoute {
		b.pirqRoute[i] = -1
	}
	return b
}

// AddCard occupies a slot. DefaultRotation can be used to fill in
// IRQRouting before calling this, per the classic "INTA on even slots ->
// PIRQA, odd -> PIRQB" convention named in spec.md §4.5.
func (b *PCIBus) AddCard(card *PCICard) {
	b.slots[card.Slot&31] = card
}

// DefaultRotation fills in a card's IRQRouting using the even/odd slot
// rotation convention: INTA routes to PIRQ((slot) mod 4), and INTB/C/D
// rotate from there. This is a convenience for machine setup code, not
// something the bus enforces.
func DefaultRotation(slot uint8) [4]int {
	base := int(slot % 4)
	var r [4]int
	for i := range r {
		r[i] = (base + i) % 4
	}
	return r
}

// SetPIRQRoute programs which classic IRQ a PIRQ line steers to. irq<0
// disables the line.
func (b *PCIBus) SetPIRQRoute(line PIRQLine, irq int) {
	b.pirqRoute[line] = irq
}

// decodeIndex pulls bus/device/function/register out of the CF8h index
// register's bit layout: {enable:1, reserved:7, bus:8, device:5,
// function:3, register:8}.
func decodeIndex(index uint32) (enabled bool, device, function, reg uint8) {
	enabled = index&0x80000000 != 0
	device = uint8((index >> 11) & 0x1F)
	function = uint8((index >> 8) & 0x07)
	reg = uint8(index & 0xFC) // DWORD-aligned
	return
}

// WriteIndex handles a write to CF8h.
func (b *PCIBus) WriteIndex(val uint32) { b.index = val }

// ReadIndex handles a read of CF8h.
func (b *PCIBus) ReadIndex() uint32 { return b.index }

// ReadData handles a read of CFCh..CFFh (byteOffset 0-3 selects which
// byte of the addressed dword).
func (b *PCIBus) ReadData(byteOffset uint8) uint32 {
	enabled, device, function, reg := decodeIndex(b.index)
	if !enabled {
		return 0xFFFFFFFF
	}
	card := b.slots[device]
	if card == nil || card.ReadCfg == nil {
		return 0xFFFFFFFF
	}
	return card.ReadCfg(function, reg+byteOffset)
}

// WriteData handles a write to CFCh..CFFh.
func (b *PCIBus) WriteData(byteOffset uint8, val uint32) {
	enabled, device, function, reg := decodeIndex(b.index)
	if !enabled {
		return
	}
	card := b.slots[device]
	if card == nil || card.WriteCfg == nil {
		return
	}
	card.WriteCfg(function, reg+byteOffset, val)
}

// RaiseINT asserts pin (0=INTA .. 3=INTD) on the card in slot, walking
// card.INTx -> PIRQx -> IRQ -> PIC.raise per spec.md §4.5.
func (b *PCIBus) RaiseINT(slot uint8, pin int) {
	card := b.slots[slot&31]
	if card == nil || pin < 0 || pin > 3 {
		return
	}
	line := card.IRQRouting[pin]
	if line < 0 || line > 3 {
		return
	}
	irq := b.pirqRoute[line]
	if irq < 0 {
		return
	}
	b.pics.Raise(uint8(irq))
}

// LowerINT deasserts pin on the card in slot, mirroring RaiseINT.
func (b *PCIBus) LowerINT(slot uint8, pin int) {
	card := b.slots[slot&31]
	if card == nil || pin < 0 || pin > 3 {
		return
	}
	line := card.IRQRouting[pin]
	if line < 0 || line > 3 {
		return
	}
	irq := b.pirqRoute[line]
	if irq < 0 {
		return
	}
	b.pics.Lower(uint8(irq))
}
