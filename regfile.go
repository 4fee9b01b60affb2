// regfile.go - Generic indexed register file
//
// The common "indexed-byte-register + per-register write mask + hooks"
// pattern used throughout chipset south/north bridges, Super-I/O chips,
// ACPI blocks, and flash devices (spec.md §4.7). Centralizing it here is
// what lets devices_southbridge.go and devices_superio.go be a few
// dozen lines of wiring instead of reimplementing byte-masking and
// change-detection each time.
package main

// RegisterFile is a fixed-size byte array with per-index write masks and
// an optional change callback.
type RegisterFile struct {
	regs       []uint8
	writeMasks []uint8
	defaults   []uint8

	// OnWrite, if set, fires after any write that changes a visible
	// byte, with the old and new values. It may reprogram other
	// subsystems (remap a port, toggle shadow RAM, ...).
	OnWrite func(idx int, oldVal, newVal uint8)

	// OnRead, if set, intercepts reads for live status bits instead of
	// returning the stored byte.
	OnRead func(idx int) (uint8, bool)

	// page selector support
	paged      bool
	selectorIdx int
	pages      map[uint8][]uint8 // page value -> byte array, same write masks
}

// NewRegisterFile allocates a flat (non-paged) register file of size n
// with the given power-on defaults (copied) and write masks (copied, one
// entry per index; 0xFF means fully writable).
func NewRegisterFile(defaults, writeMasks []uint8) *RegisterFile {
	n := len(defaults)
	rf := &RegisterFile{
		regs:       make([]uint8, n),
		writeMasks: make([]uint8, n),
		defaults:   make([]uint8, n),
	}
	copy(rf.defaults, defaults)
	copy(rf.regs, defaults)
	if writeMasks != nil {
		copy(rf.writeMasks, writeMasks)
	} else {
		for i := range rf.writeMasks {
			rf.writeMasks[i] = 0xFF
		}
	}
	return rf
}

// Write performs stored = (old &^ mask) | (val & mask); if stored
// changed, OnWrite fires with the old and new values.
func (rf *RegisterFile) Write(idx int, val uint8) {
	if idx < 0 || idx >= len(rf.regs) {
		return
	}
	old := rf.regs[idx]
	mask := rf.writeMasks[idx]
	stored := (old &^ mask) | (val & mask)
	if stored == old {
		return
	}
	rf.regs[idx] = stored
	if rf.OnWrite != nil {
		rf.OnWrite(idx, old, stored)
	}
}

// Read returns the current byte at idx, or the OnRead interception if
// one is registered and claims the index.
func (rf *RegisterFile) Read(idx int) uint8 {
	if idx < 0 || idx >= len(rf.regs) {
		return 0xFF
	}
	if rf.OnRead != nil {
		if v, ok := rf.OnRead(idx); ok {
			return v
		}
	}
	return rf.regs[idx]
}

// Peek returns the stored byte without invoking OnRead, for internal
// bookkeeping (e.g. a device computing a derived state from several
// registers without re-triggering its own status-read side effects).
func (rf *RegisterFile) Peek(idx int) uint8 {
	if idx < 0 || idx >= len(rf.regs) {
		return 0xFF
	}
	return rf.regs[idx]
}

// SetDefault overrides the power-on default and write mask for idx
// (used for vendor "preserve-mask, default-value" overrides where
// hardware doesn't allow software writes to a field).
func (rf *RegisterFile) SetDefault(idx int, value, mask uint8) {
	if idx < 0 || idx >= len(rf.regs) {
		return
	}
	rf.defaults[idx] = value
	rf.writeMasks[idx] = mask
	rf.regs[idx] = value
}

// ResetToDefaults restores every register to its power-on value without
// firing OnWrite (reset is not a guest-visible write).
func (rf *RegisterFile) ResetToDefaults() {
	copy(rf.regs, rf.defaults)
}

// Size returns the number of indices in the file.
func (rf *RegisterFile) Size() int { return len(rf.regs) }

// PagedRegisterFile wraps a base RegisterFile that holds the
// non-paged/common registers plus N independent pages of additional
// registers selected by a distinguished selector byte. Writes to an
// invalid page are silent NOPs; reads from an invalid page return 0xFF,
// per spec.md §4.7.
type PagedRegisterFile struct {
	*RegisterFile
	selectorIdx int
	pageSize    int
	pages       map[uint8]*RegisterFile
	defaults    []uint8
	writeMasks  []uint8
}

// NewPagedRegisterFile builds a register file whose index `selectorIdx`
// selects among pages; pageDefaults/pageWriteMasks describe the shape of
// each page (applied identically to every valid page number in
// validPages).
func NewPagedRegisterFile(base, writeMasks []uint8, selectorIdx int, pageDefaults, pageWriteMasks []uint8, validPages []uint8) *PagedRegisterFile {
	prf := &PagedRegisterFile{
		RegisterFile: NewRegisterFile(base, writeMasks),
		selectorIdx:  selectorIdx,
		pageSize:     len(pageDefaults),
		pages:        make(map[uint8]*RegisterFile),
		defaults:     pageDefaults,
		writeMasks:   pageWriteMasks,
	}
	for _, p := range validPages {
		prf.pages[p] = NewRegisterFile(pageDefaults, pageWriteMasks)
	}
	return prf
}

// currentPage returns the page register file selected by the selector
// byte, or nil if the current selector value doesn't name a valid page.
func (prf *PagedRegisterFile) currentPage() *RegisterFile {
	sel := prf.RegisterFile.Peek(prf.selectorIdx)
	return prf.pages[sel]
}

// ReadPaged reads index idx within the currently selected page.
func (prf *PagedRegisterFile) ReadPaged(idx int) uint8 {
	page := prf.currentPage()
	if page == nil {
		return 0xFF
	}
	return page.Read(idx)
}

// WritePaged writes index idx within the currently selected page; a NOP
// if the selector doesn't currently name a valid page.
func (prf *PagedRegisterFile) WritePaged(idx int, val uint8) {
	page := prf.currentPage()
	if page == nil {
		return
	}
	page.Write(idx, val)
}

// Pages exposes the per-selector-value register files directly, so a
// device's Init can attach an OnWrite hook to each page (e.g. a
// Super-I/O chip reprogramming its UART's port range when a logical
// device's base-address registers change).
func (prf *PagedRegisterFile) Pages() map[uint8]*RegisterFile {
	return prf.pages
}

// ResetToDefaults restores the base registers and every page to its
// power-on value.
func (prf *PagedRegisterFile) ResetToDefaults() {
	prf.RegisterFile.ResetToDefaults()
	for _, p := range prf.pages {
		p.ResetToDefaults()
	}
}
