// devices_flash.go - JEDEC flash ROM chip (SST-style command sequencer)
//
// Grounded on _examples/original_source/src/mem/sst_flash.c: the
// three-cycle unlock sequence (0xAA at 0x5555, 0x55 at 0x2AAA, command
// byte at 0x5555) that gates ID-mode entry and sector/chip erase on a
// real SST flash part. This device implements ID-mode entry/exit only
// (spec.md §8 scenario 6); program/erase cycles are out of scope for the
// core (the BIOS image is loaded once at machine setup, not rewritten by
// the emulated guest in any scenario this spec covers).
package main

const (
	flashAddrMask = 0x7FFF
	flashAddr0    = 0x5555
	flashAddr1    = 0x2AAA

	flashCmdEnterID = 0x90
	flashCmdExitID  = 0xF0
)

// flashState is the command-sequencer state, named after sst_flash.c's
// command_state field.
type flashState int

const (
	flashIdle flashState = iota
	flashGotAA
	flashGotAA55
)

// FlashChip is a JEDEC-unlock flash ROM device's private state.
type FlashChip struct {
	manufacturerID uint8
	deviceID       uint8

	array []byte

	base  uint32
	state flashState
	idMode bool
}

func flashConfigFields() []ConfigField {
	return []ConfigField{
		{Name: "size", Description: "Flash size in bytes", Type: ConfigInt, Default: "131072"},
		{Name: "base", Description: "Physical base address", Type: ConfigHexInt, Default: "0xE0000"},
	}
}

// NewFlashChipDesc returns the DeviceDesc for a JEDEC flash ROM, with the
// given manufacturer/device ID pair (e.g. SST's own IDs from
// sst_flash.c's init table).
func NewFlashChipDesc(manufacturerID, deviceID uint8) *DeviceDesc {
	return &DeviceDesc{
		Name:         "flash",
		InternalName: "flash",
		Flags:        BusISA,
		Config:       flashConfigFields(),
		Init: func(m *Machine, cfg *DeviceConfig) (any, error) {
			return flashInit(m, cfg, manufacturerID, deviceID)
		},
		Close: func(any) {},
		Reset: flashReset,
	}
}

func flashInit(m *Machine, cfg *DeviceConfig, manufacturerID, deviceID uint8) (*FlashChip, error) {
	size := uint32(cfg.GetInt("size"))
	fc := &FlashChip{
		manufacturerID: manufacturerID,
		deviceID:       deviceID,
		array:          make([]byte, size),
		base:           cfg.GetHex32("base"),
	}
	m.Mem.Add(&MemRange{
		Base: fc.base, Length: size, Flags: MemROM,
		Read8:  fc.read,
		Write8: fc.write,
	})
	return fc, nil
}

func flashReset(priv any) {
	fc := priv.(*FlashChip)
	fc.state = flashIdle
	fc.idMode = false
}

// LoadImage installs a BIOS/firmware image into the chip's backing
// array, used by machine setup before first reset.
func (fc *FlashChip) LoadImage(data []byte) {
	copy(fc.array, data)
}

func (fc *FlashChip) read(addr uint32) uint8 {
	off := addr - fc.base
	if fc.idMode {
		switch off & 0x01 {
		case 0:
			return fc.manufacturerID
		default:
			return fc.deviceID
		}
	}
	if int(off) < len(fc.array) {
		return fc.array[off]
	}
	return 0xFF
}

// write drives the command_state sequencer. Only ID-mode entry/exit is
// implemented; any other command byte at state 2 is accepted (consumed)
// but has no further effect, so a guest probing for program/erase support
// simply sees the chip return to idle rather than faulting.
func (fc *FlashChip) write(addr uint32, val uint8) {
	off := (addr - fc.base) & flashAddrMask

	switch fc.state {
	case flashIdle:
		if off == flashAddr0 && val == 0xAA {
			fc.state = flashGotAA
		}
	case flashGotAA:
		if off == flashAddr1 && val == 0x55 {
			fc.state = flashGotAA55
		} else {
			fc.state = flashIdle
		}
	case flashGotAA55:
		if off == flashAddr0 && val == flashCmdEnterID {
			fc.idMode = true
		} else if val == flashCmdExitID {
			fc.idMode = false
		}
		fc.state = flashIdle
	}

	// flashCmdExitID (0xF0) is also honoured as a standalone reset cycle
	// from any state, matching sst_flash.c's unconditional exit check.
	if val == flashCmdExitID {
		fc.idMode = false
		fc.state = flashIdle
	}
}
