// memmap.go - Physical memory map table for the bus fabric
//
// This module implements the layered physical-address dispatch table
// described by the core's memory-map component: a stack of address
// ranges, registered in priority order, that resolve a (PA, width)
// access to either a raw RAM backing store or a device callback.
//
// Core Features:
//
//	32-bit physical address space with byte/word/dword access.
//	Per-4KiB page index so dispatch stays close to O(1) regardless of
//	how many ranges are registered system-wide.
//	Range flags (External, Internal, ROM, ROMCS, Smram, SmramEX, Alias)
//	matching the hardware behaviours chipsets actually implement:
//	shadow RAM, SMRAM visibility gating, and ROM aliasing at the top
//	of the address space.
//	Wide accesses that straddle a range boundary are split into two
//	narrower accesses against whichever ranges cover each half.
//
// Technical Details:
//
//	Ranges are kept in a single registration-ordered slice; the page
//	index stores, per covered page, the indices of ranges overlapping
//	that page. Dispatch walks a page's range list from the end
//	(highest priority / most recently registered) and picks the first
//	enabled range whose [base, base+length) contains the address.
//	This gives "topmost enabled range wins" from spec.md §3 without
//	needing a separate priority field.
package main

import "sync"

// MemFlags is the set of behavioural flags attached to a memory range.
type MemFlags uint16

const (
	MemExternal MemFlags = 1 << iota // dispatch to device callback
	MemInternal                      // dispatch to RAM backing
	MemROM                           // reads hit backing, writes dropped unless Flash-like callback present
	MemROMCS                         // subject to south-bridge ROM chip-select shadow decoding
	MemSmram                         // visible only in SMM
	MemSmramEX                       // visible in SMM or with chipset D_OPEN bit set
	MemAlias                         // forwards to another range's base
	MemDisabled                      // inert until enabled
)

const pageSize = 0x1000
const pageShift = 12

// MemRange describes one entry in the memory map.
type MemRange struct {
	Base    uint32
	Length  uint32
	Flags   MemFlags
	Read8   func(addr uint32) uint8
	Read16  func(addr uint32) uint16
	Read32  func(addr uint32) uint32
	Write8  func(addr uint32, v uint8)
	Write16 func(addr uint32, v uint16)
	Write32 func(addr uint32, v uint32)
	Priv    any

	// AliasBase is the forwarding base address when Flags includes MemAlias.
	AliasBase uint32

	enabled bool
	id      int
}

// MemMapTable is the bus fabric's physical memory map.
type MemMapTable struct {
	mu sync.RWMutex

	ranges []*MemRange
	// pages maps a page index (addr>>pageShift) to the list of ranges
	// covering that page, in registration order (ascending priority).
	pages map[uint32][]*MemRange

	ram []byte

	// smmActive reports whether the CPU is currently executing in SMM.
	// Queried by dispatch to decide Smram/SmramEX visibility.
	smmActive bool
	// smramOpen mirrors a chipset's D_OPEN bit: when set, SMRAM ranges
	// flagged MemSmramEX are visible even outside SMM.
	smramOpen bool
}

// NewMemMapTable allocates a memory map table backed by ramSize bytes of
// flat system RAM for MemInternal ranges that don't supply their own
// callbacks.
func NewMemMapTable(ramSize uint32) *MemMapTable {
	return &MemMapTable{
		pages: make(map[uint32][]*MemRange),
		ram:   make([]byte, ramSize),
	}
}

// Add registers a new range and returns it for later use with SetHandlers,
// SetAddr, Enable, and Disable. A range registered with MemDisabled set is
// inert until Enable is called.
func (m *MemMapTable) Add(r *MemRange) *MemRange {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.id = len(m.ranges)
	r.enabled = r.Flags&MemDisabled == 0
	m.ranges = append(m.ranges, r)
	m.indexRange(r)
	return r
}

func (m *MemMapTable) indexRange(r *MemRange) {
	first := r.Base >> pageShift
	last := (r.Base + r.Length - 1) >> pageShift
	for p := first; p <= last; p++ {
		m.pages[p] = append(m.pages[p], r)
	}
}

func (m *MemMapTable) deindexRange(r *MemRange) {
	first := r.Base >> pageShift
	last := (r.Base + r.Length - 1) >> pageShift
	for p := first; p <= last; p++ {
		list := m.pages[p]
		for i, x := range list {
			if x == r {
				m.pages[p] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

// SetHandlers replaces the read/write callbacks on an already-registered
// range, used by PCI BAR programming and video aperture moves.
func (m *MemMapTable) SetHandlers(r *MemRange, read8 func(uint32) uint8, read16 func(uint32) uint16, read32 func(uint32) uint32, write8 func(uint32, uint8), write16 func(uint32, uint16), write32 func(uint32, uint32)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.Read8, r.Read16, r.Read32 = read8, read16, read32
	r.Write8, r.Write16, r.Write32 = write8, write16, write32
}

// SetAddr relocates a range to a new base address, re-indexing the page
// table. Used for PCI BAR reprogramming.
func (m *MemMapTable) SetAddr(r *MemRange, newBase uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deindexRange(r)
	r.Base = newBase
	m.indexRange(r)
}

// Enable makes a previously disabled range live.
func (m *MemMapTable) Enable(r *MemRange) {
	m.mu.Lock()
	r.enabled = true
	m.mu.Unlock()
}

// Disable turns a range inert without removing it from the table, so it
// can be re-enabled later without re-registering (shadow RAM toggles use
// this pattern heavily).
func (m *MemMapTable) Disable(r *MemRange) {
	m.mu.Lock()
	r.enabled = false
	m.mu.Unlock()
}

// SetSMMState updates the CPU's SMM-active flag and the chipset's SMRAM
// open bit together, both consulted by dispatch for Smram/SmramEX
// ranges.
func (m *MemMapTable) SetSMMState(active, open bool) {
	m.mu.Lock()
	m.smmActive = active
	m.smramOpen = open
	m.mu.Unlock()
}

// SetSMMActive updates only the CPU's SMM-active flag, leaving the
// chipset's D_OPEN bit untouched. The execution loop drives this from
// CPU.SMIPending() every step (spec.md §6); it has no business knowing
// the chipset's current open-bit state, which only the south bridge's
// own configuration-register writes should change.
func (m *MemMapTable) SetSMMActive(active bool) {
	m.mu.Lock()
	m.smmActive = active
	m.mu.Unlock()
}

// SetSMMOpen updates only the chipset's D_OPEN bit, leaving the CPU's
// SMM-active flag untouched. Chipset config-register writes (e.g. the
// south bridge's SMRAM control register) drive this; they have no
// business asserting or clearing the CPU's actual SMM state.
func (m *MemMapTable) SetSMMOpen(open bool) {
	m.mu.Lock()
	m.smramOpen = open
	m.mu.Unlock()
}

// findRange returns the highest-priority enabled range covering pa, or
// nil if no range is mapped there.
func (m *MemMapTable) findRange(pa uint32) *MemRange {
	list := m.pages[pa>>pageShift]
	for i := len(list) - 1; i >= 0; i-- {
		r := list[i]
		if !r.enabled {
			continue
		}
		if pa < r.Base || pa >= r.Base+r.Length {
			continue
		}
		if r.Flags&MemSmram != 0 && !m.smmActive {
			continue
		}
		if r.Flags&MemSmramEX != 0 && !m.smmActive && !m.smramOpen {
			continue
		}
		return r
	}
	return nil
}

// DispatchRead8/16/32 resolve a read at pa. Unmapped addresses return
// all-ones bytes per spec.md §8.
func (m *MemMapTable) DispatchRead8(pa uint32) uint8 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r := m.findRange(pa)
	if r == nil {
		return 0xFF
	}
	if r.Flags&MemAlias != 0 {
		return m.readAliasedByte(r, pa)
	}
	if r.Read8 != nil {
		return r.Read8(pa)
	}
	return m.ram[pa]
}

func (m *MemMapTable) readAliasedByte(r *MemRange, pa uint32) uint8 {
	target := r.AliasBase + (pa - r.Base)
	if target < uint32(len(m.ram)) {
		return m.ram[target]
	}
	return 0xFF
}

func (m *MemMapTable) DispatchWrite8(pa uint32, v uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.findRange(pa)
	if r == nil {
		return
	}
	if r.Flags&MemAlias != 0 {
		target := r.AliasBase + (pa - r.Base)
		if target < uint32(len(m.ram)) {
			m.ram[target] = v
		}
		return
	}
	if r.Flags&MemROM != 0 && r.Write8 == nil {
		return // ROM without a flash-style callback drops writes
	}
	if r.Write8 != nil {
		r.Write8(pa, v)
		return
	}
	if pa < uint32(len(m.ram)) {
		m.ram[pa] = v
	}
}

// DispatchRead16/32 split any access that crosses a range boundary into
// per-byte dispatch, matching spec.md §4.1's edge-case rule, then
// recombine little-endian. This is slower than a direct wide read but
// never reads past the range that claims the lower byte.
func (m *MemMapTable) DispatchRead16(pa uint32) uint16 {
	if r := m.findRange(pa); r != nil && r.Read16 != nil && pa+1 < r.Base+r.Length {
		m.mu.RLock()
		v := r.Read16(pa)
		m.mu.RUnlock()
		return v
	}
	lo := m.DispatchRead8(pa)
	hi := m.DispatchRead8(pa + 1)
	return uint16(lo) | uint16(hi)<<8
}

func (m *MemMapTable) DispatchWrite16(pa uint32, v uint16) {
	if r := m.findRange(pa); r != nil && r.Write16 != nil && pa+1 < r.Base+r.Length {
		m.mu.Lock()
		r.Write16(pa, v)
		m.mu.Unlock()
		return
	}
	m.DispatchWrite8(pa, uint8(v))
	m.DispatchWrite8(pa+1, uint8(v>>8))
}

func (m *MemMapTable) DispatchRead32(pa uint32) uint32 {
	if r := m.findRange(pa); r != nil && r.Read32 != nil && pa+3 < r.Base+r.Length {
		m.mu.RLock()
		v := r.Read32(pa)
		m.mu.RUnlock()
		return v
	}
	lo := m.DispatchRead16(pa)
	hi := m.DispatchRead16(pa + 2)
	return uint32(lo) | uint32(hi)<<16
}

func (m *MemMapTable) DispatchWrite32(pa uint32, v uint32) {
	if r := m.findRange(pa); r != nil && r.Write32 != nil && pa+3 < r.Base+r.Length {
		m.mu.Lock()
		r.Write32(pa, v)
		m.mu.Unlock()
		return
	}
	m.DispatchWrite16(pa, uint16(v))
	m.DispatchWrite16(pa+2, uint16(v>>16))
}

// RAM exposes the backing store directly for bulk loads (BIOS image
// install, NVR restore) that bypass the dispatch path.
func (m *MemMapTable) RAM() []byte {
	return m.ram
}
