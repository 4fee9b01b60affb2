// portio.go - ISA-style port I/O dispatch table
//
// A flat 65536-entry table of port handlers. Each slot holds up to four
// handlers (devices that alias onto the same port range at different
// widths, or debug shims, are common in real chipsets). Reads prefer the
// narrowest handler that actually covers the access; a wide access on a
// port that only has a byte handler is split into consecutive byte
// accesses and recombined little-endian, mirroring spec.md §4.2's
// worked example.
package main

import "sync"

const maxHandlersPerPort = 4

// PortHandler is one device's registration at a port range.
type PortHandler struct {
	Port    uint16
	Length  uint16
	Read8   func(port uint16) uint8
	Read16  func(port uint16) uint16
	Read32  func(port uint16) uint32
	Write8  func(port uint16, v uint8)
	Write16 func(port uint16, v uint16)
	Write32 func(port uint16, v uint32)
	Priv    any
}

// PortIOTable is the bus fabric's 16-bit I/O space dispatcher.
type PortIOTable struct {
	mu       sync.RWMutex
	handlers [65536][]*PortHandler

	// DebugCollisions, when true, causes SetHandler to panic on a
	// same-width collision instead of silently layering handlers. This
	// mirrors spec.md §4.2's "collision diagnostic in debug builds".
	DebugCollisions bool
}

// NewPortIOTable builds an empty port table.
func NewPortIOTable() *PortIOTable {
	return &PortIOTable{}
}

// SetHandler registers h across [h.Port, h.Port+h.Length).
func (t *PortIOTable) SetHandler(h *PortHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for p := uint32(h.Port); p < uint32(h.Port)+uint32(h.Length); p++ {
		list := t.handlers[p]
		if t.DebugCollisions {
			for _, existing := range list {
				if sameWidthCollision(existing, h) {
					panic(portCollisionError(uint16(p)))
				}
			}
		}
		if len(list) >= maxHandlersPerPort {
			continue
		}
		t.handlers[p] = append(list, h)
	}
}

func sameWidthCollision(a, b *PortHandler) bool {
	return (a.Read8 != nil && b.Read8 != nil) || (a.Write8 != nil && b.Write8 != nil) ||
		(a.Read16 != nil && b.Read16 != nil) || (a.Write16 != nil && b.Write16 != nil) ||
		(a.Read32 != nil && b.Read32 != nil) || (a.Write32 != nil && b.Write32 != nil)
}

func portCollisionError(port uint16) string {
	return "port I/O handler collision at port " + hex16(port)
}

// RemoveHandler removes h from every port it was registered against.
func (t *PortIOTable) RemoveHandler(h *PortHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for p := uint32(h.Port); p < uint32(h.Port)+uint32(h.Length); p++ {
		list := t.handlers[p]
		for i, x := range list {
			if x == h {
				t.handlers[p] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

func (t *PortIOTable) Inb(port uint16) uint8 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, h := range t.handlers[port] {
		if h.Read8 != nil {
			return h.Read8(port)
		}
	}
	return 0xFF
}

func (t *PortIOTable) Outb(port uint16, v uint8) {
	t.mu.RLock()
	var write func(uint16, uint8)
	for _, h := range t.handlers[port] {
		if h.Write8 != nil {
			write = h.Write8
			break
		}
	}
	t.mu.RUnlock()
	// The handler runs without the table lock so it may re-register port
	// ranges (e.g. a Super-I/O moving a logical device's base address).
	if write != nil {
		write(port, v)
	}
}

func (t *PortIOTable) Inw(port uint16) uint16 {
	t.mu.RLock()
	for _, h := range t.handlers[port] {
		if h.Read16 != nil {
			v := h.Read16(port)
			t.mu.RUnlock()
			return v
		}
	}
	t.mu.RUnlock()
	lo := t.Inb(port)
	hi := t.Inb(port + 1)
	return uint16(lo) | uint16(hi)<<8
}

func (t *PortIOTable) Outw(port uint16, v uint16) {
	t.mu.RLock()
	for _, h := range t.handlers[port] {
		if h.Write16 != nil {
			h.Write16(port, v)
			t.mu.RUnlock()
			return
		}
	}
	t.mu.RUnlock()
	t.Outb(port, uint8(v))
	t.Outb(port+1, uint8(v>>8))
}

func (t *PortIOTable) Inl(port uint16) uint32 {
	t.mu.RLock()
	for _, h := range t.handlers[port] {
		if h.Read32 != nil {
			v := h.Read32(port)
			t.mu.RUnlock()
			return v
		}
	}
	t.mu.RUnlock()
	lo := t.Inw(port)
	hi := t.Inw(port + 2)
	return uint32(lo) | uint32(hi)<<16
}

func (t *PortIOTable) Outl(port uint16, v uint32) {
	t.mu.RLock()
	for _, h := range t.handlers[port] {
		if h.Write32 != nil {
			h.Write32(port, v)
			t.mu.RUnlock()
			return
		}
	}
	t.mu.RUnlock()
	t.Outw(port, uint16(v))
	t.Outw(port+2, uint16(v>>16))
}

func hex16(v uint16) string {
	const digits = "0123456789ABCDEF"
	return "0x" + string([]byte{
		digits[(v>>12)&0xF], digits[(v>>8)&0xF], digits[(v>>4)&0xF], digits[v&0xF],
	})
}
