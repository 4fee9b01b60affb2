// pic.go - Cascaded 8259-compatible interrupt controllers
//
// Two 8-input priority encoders: a master and a slave cascaded at the
// master's input 2. Each runs the classic ICW/OCW programming state
// machine. raise/ack/eoi are exposed both per-controller and through a
// PICPair that resolves the cascade transparently, matching spec.md
// §4.4's "IRQ 2 on the master is the slave's interrupt line" rule.
package main

import "sync"

type picState int

const (
	picIdle picState = iota
	picAwaitingICW2
	picAwaitingICW3
	picAwaitingICW4
	picReady
)

// PIC8259 models one 8-input priority-encoded interrupt controller.
type PIC8259 struct {
	mu sync.Mutex

	state picState

	mask      uint8 // OCW1: 1 = input masked
	pending   uint8 // IRR
	inService uint8 // ISR
	vectorBase uint8

	autoEOI     bool
	specialMask bool
	rotateOnEOI bool

	icw4Needed bool
	cascaded   bool // true for the slave, or master when ICW1 bit1 clear

	// Slave only: which master input it's wired to (for documentation;
	// routing itself is handled by PICPair).
	slaveID uint8
}

// NewPIC8259 returns a controller in its post-reset Idle state.
func NewPIC8259() *PIC8259 {
	return &PIC8259{mask: 0xFF}
}

// Reset restores power-on defaults: fully masked, nothing pending or in
// service, state machine back to Idle.
func (p *PIC8259) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = picIdle
	p.mask, p.pending, p.inService, p.vectorBase = 0xFF, 0, 0, 0
	p.autoEOI, p.specialMask, p.rotateOnEOI = false, false, false
	p.icw4Needed, p.cascaded = false, false
	p.slaveID = 0
}

// WriteCommand handles a write to the controller's command port (port
// offset 0). Bit 4 set marks an ICW1; otherwise it's an OCW2 or OCW3
// depending on bits 3/4, per spec.md §4.4.
func (p *PIC8259) WriteCommand(val uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if val&0x10 != 0 { // ICW1
		p.icw4Needed = val&0x01 != 0
		p.cascaded = val&0x02 == 0
		p.pending = 0
		p.inService = 0
		p.specialMask = false
		p.state = picAwaitingICW2
		return
	}

	if p.state != picReady {
		return
	}

	if val&0x08 != 0 { // OCW3
		if val&0x40 != 0 {
			p.specialMask = val&0x20 != 0
		}
		return
	}

	// OCW2: EOI / rotate / priority command. Bit 5 (0x20) selects EOI;
	// bit 6 (0x40) selects specific (vs. non-specific) EOI using the
	// IRQ encoded in the low 3 bits; bit 7 (0x80) requests rotation.
	if val&0x20 != 0 {
		irq := val & 0x07
		if val&0x40 != 0 {
			p.inService &^= 1 << irq
		} else {
			p.nonSpecificEOI()
		}
		p.rotateOnEOI = val&0x80 != 0
	}
}

func (p *PIC8259) nonSpecificEOI() {
	// Clear the highest-priority in-service bit.
	for i := 0; i < 8; i++ {
		if p.inService&(1<<i) != 0 {
			p.inService &^= 1 << i
			return
		}
	}
}

// WriteData handles a write to the controller's data port (port offset
// 1): ICW2/ICW3/ICW4 during init, OCW1 (mask) once Ready.
func (p *PIC8259) WriteData(val uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case picAwaitingICW2:
		p.vectorBase = val & 0xF8
		if p.cascaded {
			p.state = picAwaitingICW3
		} else if p.icw4Needed {
			p.state = picAwaitingICW4
		} else {
			p.state = picReady
		}
	case picAwaitingICW3:
		p.slaveID = val
		if p.icw4Needed {
			p.state = picAwaitingICW4
		} else {
			p.state = picReady
		}
	case picAwaitingICW4:
		p.autoEOI = val&0x02 != 0
		p.state = picReady
	default:
		p.mask = val // OCW1
	}
}

// ReadData returns OCW1 (the current mask register).
func (p *PIC8259) ReadData() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mask
}

// Raise marks input irq (0-7) pending.
func (p *PIC8259) Raise(irq uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending |= 1 << irq
}

// Lower clears input irq's pending bit.
func (p *PIC8259) Lower(irq uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending &^= 1 << irq
}

// HighestPriorityRequest returns the lowest-numbered unmasked pending
// input that is of higher priority than anything currently in service,
// and whether one exists. Lower IRQ number = higher priority, the
// classic 8259 ordering; special-mask mode additionally allows an
// in-service input's own peers to interrupt it.
func (p *PIC8259) HighestPriorityRequest() (irq uint8, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.highestPriorityRequestLocked()
}

func (p *PIC8259) highestPriorityRequestLocked() (uint8, bool) {
	ready := p.pending &^ p.mask
	if ready == 0 {
		return 0, false
	}
	for i := 0; i < 8; i++ {
		if ready&(1<<i) == 0 {
			continue
		}
		if !p.specialMask {
			// Blocked by an equal-or-higher priority in-service input.
			blocked := false
			for j := 0; j <= i; j++ {
				if p.inService&(1<<j) != 0 {
					blocked = true
					break
				}
			}
			if blocked {
				continue
			}
		}
		return uint8(i), true
	}
	return 0, false
}

// Ack performs a CPU acknowledge cycle on this controller alone: it
// moves the highest-priority ready input from pending to in-service and
// returns its vector. Callers needing cascade-aware behaviour should use
// PICPair.Ack instead.
func (p *PIC8259) Ack() (vector uint8, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	irq, has := p.highestPriorityRequestLocked()
	if !has {
		return 0, false
	}
	p.pending &^= 1 << irq
	p.inService |= 1 << irq
	return p.vectorBase + irq, true
}

// PICPair wires a master and slave together at the master's IRQ2 input,
// the standard PC/AT cascade.
type PICPair struct {
	Master *PIC8259
	Slave  *PIC8259
}

// NewPICPair builds a fresh master/slave pair, both reset.
func NewPICPair() *PICPair {
	return &PICPair{Master: NewPIC8259(), Slave: NewPIC8259()}
}

// Reset resets both controllers.
func (pp *PICPair) Reset() {
	pp.Master.Reset()
	pp.Slave.Reset()
}

// Raise asserts IRQ line irq (0-15), routing 8-15 to the slave and
// cascading its output onto the master's input 2.
func (pp *PICPair) Raise(irq uint8) {
	if irq < 8 {
		pp.Master.Raise(irq)
	} else {
		pp.Slave.Raise(irq - 8)
		pp.Master.Raise(2)
	}
}

// Lower deasserts IRQ line irq.
func (pp *PICPair) Lower(irq uint8) {
	if irq < 8 {
		pp.Master.Lower(irq)
	} else {
		pp.Slave.Lower(irq - 8)
		if _, ok := pp.Slave.HighestPriorityRequest(); !ok {
			pp.Master.Lower(2)
		}
	}
}

// Ack performs a full cascade-aware acknowledge: if the master's winning
// input is 2 (the cascade line), the slave is acked instead and its
// vector returned.
func (pp *PICPair) Ack() (vector uint8, ok bool) {
	irq, has := pp.Master.HighestPriorityRequest()
	if !has {
		return 0, false
	}
	if irq == 2 {
		v, sok := pp.Slave.Ack()
		if sok {
			pp.Master.mu.Lock()
			pp.Master.pending &^= 1 << 2
			pp.Master.inService |= 1 << 2
			pp.Master.mu.Unlock()
			return v, true
		}
	}
	return pp.Master.Ack()
}

// EOI clears the in-service bit for irq, routing to the slave for
// irq>=8 and clearing the cascade line on the master when the slave has
// nothing left in service.
func (pp *PICPair) EOI(irq uint8) {
	if irq < 8 {
		pp.Master.mu.Lock()
		pp.Master.inService &^= 1 << irq
		pp.Master.mu.Unlock()
		return
	}
	pp.Slave.mu.Lock()
	pp.Slave.inService &^= 1 << (irq - 8)
	anyLeft := pp.Slave.inService != 0
	pp.Slave.mu.Unlock()
	if !anyLeft {
		pp.Master.mu.Lock()
		pp.Master.inService &^= 1 << 2
		pp.Master.mu.Unlock()
	}
}
