// devices_superio.go - Super-I/O chip: index/data port pair over a paged
// logical-device register file.
//
// Grounded on _examples/original_source/src/sio/sio_pc87307.c's
// index/data port pair (cur_reg selected through one port, written
// through the other) and its per-logical-device register banks selected
// by the LD number stored in a base register (dev->regs[0x07], case
// 0x30 in pc87307_write). Reprogramming a logical device's base-address
// registers there calls back into the matching *_handler() to move its
// I/O decode; this device does the same through regfile.go's
// PagedRegisterFile + portio.go's SetHandler/RemoveHandler.
package main

const (
	sioLDSelect  = 0x07 // base register: selects the active logical device
	sioLDEnable  = 0x00 // page register: bit 0 = logical device active
	sioLDBaseHi  = 0x01 // page register: I/O base address, high byte
	sioLDBaseLo  = 0x02 // page register: I/O base address, low byte

	sioLDUART1 = 0x03 // logical device number, mirrors LD_UART1 in the source

	sioLDRegBase = 0x30 // cur_reg values from here on index the active LD's page
)

// SuperIO is the chip's private state: a config port pair plus a
// per-logical-device paged register file and the live port handler each
// logical device currently has registered (nil if disabled).
type SuperIO struct {
	ports *PortIOTable

	indexPort uint16
	curReg    uint8
	regs      *PagedRegisterFile

	uart1Handler *PortHandler
}

func superIOBaseDefaults() ([]uint8, []uint8) {
	defaults := make([]uint8, 8)
	masks := make([]uint8, 8)
	for i := range masks {
		masks[i] = 0xFF
	}
	return defaults, masks
}

// NewSuperIODesc returns the DeviceDesc for the Super-I/O chip, listening
// on the conventional 0x2E/0x2F index/data pair.
func NewSuperIODesc() *DeviceDesc {
	return &DeviceDesc{
		Name:         "superio",
		InternalName: "superio",
		Flags:        BusISA | BusSuperIO,
		Config: []ConfigField{
			{Name: "index_port", Description: "Config index port", Type: ConfigHexInt, Default: "0x2E"},
		},
		Init:  superIOInit,
		Close: func(any) {},
		Reset: superIOReset,
	}
}

func superIOInit(m *Machine, cfg *DeviceConfig) (any, error) {
	base, masks := superIOBaseDefaults()
	pageDefaults := []uint8{0x00, 0x03, 0xF8} // disabled, base 0x3F8 (COM1)
	pageMasks := []uint8{0x01, 0xFF, 0xFF}

	sio := &SuperIO{
		ports:     m.Ports,
		indexPort: uint16(cfg.GetHex16("index_port")),
		regs: NewPagedRegisterFile(base, masks, sioLDSelect,
			pageDefaults, pageMasks, []uint8{sioLDUART1}),
	}

	for _, page := range sio.regs.Pages() {
		page.OnWrite = sio.onLDWrite
	}

	m.Ports.SetHandler(&PortHandler{
		Port: sio.indexPort, Length: 2,
		Read8:  sio.readConfig,
		Write8: sio.writeConfig,
	})

	return sio, nil
}

func superIOReset(priv any) {
	sio := priv.(*SuperIO)
	sio.regs.ResetToDefaults()
	sio.curReg = 0
	sio.detachUART1()
}

func (sio *SuperIO) readConfig(port uint16) uint8 {
	if port == sio.indexPort {
		return sio.curReg
	}
	if sio.curReg < sioLDRegBase {
		return sio.regs.Read(int(sio.curReg))
	}
	return sio.regs.ReadPaged(int(sio.curReg - sioLDRegBase))
}

func (sio *SuperIO) writeConfig(port uint16, val uint8) {
	if port == sio.indexPort {
		sio.curReg = val
		return
	}
	if sio.curReg < sioLDRegBase {
		sio.regs.Write(int(sio.curReg), val)
		return
	}
	sio.regs.WritePaged(int(sio.curReg-sioLDRegBase), val)
}

// onLDWrite fires whenever a logical device's paged registers change; if
// the enable bit or the base address changed, the UART's port range is
// moved, mirroring pc87307_write's case 0x30 -> serial_handler dispatch.
func (sio *SuperIO) onLDWrite(idx int, oldVal, newVal uint8) {
	switch sio.regs.Peek(sioLDSelect) {
	case sioLDUART1:
		sio.reprogramUART1()
	}
}

func (sio *SuperIO) reprogramUART1() {
	page := sio.regs.Pages()[sioLDUART1]
	enabled := page.Peek(sioLDEnable)&0x01 != 0
	base := uint16(page.Peek(sioLDBaseHi))<<8 | uint16(page.Peek(sioLDBaseLo))

	sio.detachUART1()
	if !enabled {
		return
	}
	sio.uart1Handler = &PortHandler{
		Port: base, Length: 8,
		Read8:  sio.uart1Read,
		Write8: sio.uart1Write,
	}
	sio.ports.SetHandler(sio.uart1Handler)
}

func (sio *SuperIO) detachUART1() {
	if sio.uart1Handler != nil {
		sio.ports.RemoveHandler(sio.uart1Handler)
		sio.uart1Handler = nil
	}
}

// uart1Read/uart1Write are a placeholder decode for the logical device's
// I/O range: this chip's job is to own the range's location, not the
// UART register semantics behind it (a real build would wire an actual
// 16550 device here instead of these stubs).
func (sio *SuperIO) uart1Read(port uint16) uint8  { return 0xFF }
func (sio *SuperIO) uart1Write(port uint16, v uint8) {}
