// devices_southbridge.go - PCI-to-ISA south bridge with shadow RAM/SMRAM
//
// Grounded on _examples/original_source/src/chipset/ali1531.c: a PCI
// configuration-space register file whose writes to the shadow-RAM
// block and SMRAM registers reprogram the memory map live, exactly the
// "side effects in registers other than the one written" pattern
// spec.md §9 flags as an Open Question. Occupies PCI slot 0.
package main

const (
	sbConfSMRAM   = 0x48
	sbConfShadow  = 0x59 // simplified single-register shadow control (see DESIGN.md)
	sbShadowBase  = 0xF0000
	sbShadowLen   = 0x10000
	sbShadowRead  = 0x20 // bit: enable read-from-RAM at sbShadowBase..+Len
	sbSMRAMEnable = 0x01
	sbSMRAMOpen   = 0x10
	sbSMRAMBase   = 0xA0000
	sbSMRAMLen    = 0x20000
)

// SouthBridge is the south-bridge chipset device's private state.
type SouthBridge struct {
	conf *RegisterFile
	mem  *MemMapTable

	romImage    []byte // BIOS image backing the shadowed ROM range
	shadowRange *MemRange
	smramRange  *MemRange

	// shadowReadFromRAM gates both read and write dispatch for the
	// shadowed range: when clear, reads return the original ROM image
	// and writes are dropped; when set, both read and write land in
	// system RAM, which is exactly the "writes now land in shadow"
	// behaviour spec.md §8 scenario 2 exercises.
	shadowReadFromRAM bool
}

func southBridgeConfDefaults() ([]uint8, []uint8) {
	defaults := make([]uint8, 256)
	masks := make([]uint8, 256)
	for i := range masks {
		masks[i] = 0xFF
	}
	defaults[0x00], defaults[0x01] = 0xB9, 0x10 // vendor ID lo/hi (ALi-style placeholder)
	defaults[0x02], defaults[0x03] = 0x31, 0x15 // device ID lo/hi
	defaults[0x0A], defaults[0x0B] = 0x00, 0x06 // class code: bridge
	masks[0x00], masks[0x01], masks[0x02], masks[0x03] = 0, 0, 0, 0 // IDs read-only
	return defaults, masks
}

// NewSouthBridgeDesc returns the DeviceDesc for the south bridge class.
func NewSouthBridgeDesc() *DeviceDesc {
	return &DeviceDesc{
		Name:         "southbridge",
		InternalName: "southbridge",
		Flags:        BusPCI | BusISA,
		Init:         southBridgeInit,
		Close:        func(any) {},
		Reset:        southBridgeReset,
	}
}

func southBridgeInit(m *Machine, cfg *DeviceConfig) (any, error) {
	defaults, masks := southBridgeConfDefaults()
	sb := &SouthBridge{
		mem:      m.Mem,
		romImage: make([]byte, sbShadowLen),
	}
	sb.conf = NewRegisterFile(defaults, masks)
	sb.conf.OnWrite = sb.onConfWrite

	sb.shadowRange = m.Mem.Add(&MemRange{
		Base: sbShadowBase, Length: sbShadowLen, Flags: MemExternal,
		Read8:  sb.readShadow,
		Write8: sb.writeShadow,
	})
	sb.smramRange = m.Mem.Add(&MemRange{
		Base: sbSMRAMBase, Length: sbSMRAMLen, Flags: MemDisabled | MemInternal | MemSmramEX,
	})

	m.PCI.AddCard(&PCICard{
		Slot: 0, Type: PCISouthBridge,
		ReadCfg:  sb.readCfg,
		WriteCfg: sb.writeCfg,
		Priv:     sb,
	})

	return sb, nil
}

func southBridgeReset(priv any) {
	sb := priv.(*SouthBridge)
	sb.conf.ResetToDefaults()
	sb.mem.Disable(sb.smramRange)
	sb.mem.SetSMMOpen(false)
}

// readCfg/writeCfg adapt the PCI configuration-space callback contract
// (function, register) to the flat register file; function is ignored
// since this bridge exposes only function 0.
func (sb *SouthBridge) readCfg(function, reg uint8) uint32 {
	if function != 0 {
		return 0xFFFFFFFF
	}
	var v uint32
	for i := 0; i < 4; i++ {
		idx := int(reg) + i
		if idx >= sb.conf.Size() {
			v |= 0xFF << (8 * i)
			continue
		}
		v |= uint32(sb.conf.Read(idx)) << (8 * i)
	}
	return v
}

func (sb *SouthBridge) writeCfg(function, reg uint8, val uint32) {
	if function != 0 {
		return
	}
	for i := 0; i < 4; i++ {
		idx := int(reg) + i
		if idx < sb.conf.Size() {
			sb.conf.Write(idx, uint8(val>>(8*i)))
		}
	}
}

// onConfWrite fires for any configuration register write that actually
// changed a byte; SMRAM and shadow-RAM registers reprogram the memory
// map as a side effect, mirroring ali1531_smram_recalc/
// ali1531_shadow_recalc.
func (sb *SouthBridge) onConfWrite(idx int, oldVal, newVal uint8) {
	switch idx {
	case sbConfSMRAM:
		sb.recalcSMRAM(newVal)
	case sbConfShadow:
		sb.recalcShadow(newVal)
	}
}

// recalcSMRAM reprograms the chipset side of SMRAM visibility: the
// master enable bit gates the range on or off entirely, and the D_OPEN
// bit (sbSMRAMOpen) lets it be read/written outside SMM for BIOS POST
// shadowing. It never touches smmActive, which only the CPU's actual
// SMM entry/exit (driven through the execution loop) may set.
func (sb *SouthBridge) recalcSMRAM(val uint8) {
	if val&sbSMRAMEnable != 0 {
		sb.mem.Enable(sb.smramRange)
	} else {
		sb.mem.Disable(sb.smramRange)
	}
	sb.mem.SetSMMOpen(val & sbSMRAMOpen != 0)
}

func (sb *SouthBridge) recalcShadow(val uint8) {
	sb.shadowReadFromRAM = val&sbShadowRead != 0
}

func (sb *SouthBridge) readShadow(addr uint32) uint8 {
	if sb.shadowReadFromRAM {
		return sb.mem.RAM()[addr]
	}
	return sb.romImage[addr-sbShadowBase]
}

func (sb *SouthBridge) writeShadow(addr uint32, v uint8) {
	if sb.shadowReadFromRAM {
		sb.mem.RAM()[addr] = v
	}
	// else: shadow disabled, ROM write dropped (no backing write path).
}

// LoadROMImage installs BIOS bytes into the shadow range's ROM backing,
// used by tests and machine setup before reset.
func (sb *SouthBridge) LoadROMImage(data []byte) {
	n := copy(sb.romImage, data)
	_ = n
}
