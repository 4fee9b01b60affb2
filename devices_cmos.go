// devices_cmos.go - CMOS/RTC register file with NVR-backed persistence
//
// No RTC/CMOS source file was retrieved into original_source/ for this
// pack, so this device is grounded directly on nvr.go's own contract
// (itself modeled on the teacher's file_io.go sandboxed-path pattern)
// and spec.md §6's NVR rules: a read failure at startup is logged and
// treated as "device never used before" rather than propagated. The
// conventional index/data port pair (0x70/0x71) and the top address bit
// gating NMI are standard PC/AT wiring, not specific to any one chipset.
package main

const (
	cmosIndexPort = 0x70
	cmosDataPort  = 0x71

	cmosSize = 128

	cmosNMIDisableBit = 0x80
)

// CMOS is the RTC/CMOS device's private state: a byte array addressed
// through the index/data pair, persisted to NVR across restarts.
type CMOS struct {
	nvr         *NVRStore
	machineName string

	regs       [cmosSize]uint8
	writeMasks [cmosSize]uint8

	index      uint8
	nmiDisabled bool
}

// NewCMOSDesc returns the DeviceDesc for the CMOS/RTC device.
func NewCMOSDesc(machineName string) *DeviceDesc {
	return &DeviceDesc{
		Name:         "cmos",
		InternalName: "cmos",
		Flags:        BusISA,
		Init: func(m *Machine, cfg *DeviceConfig) (any, error) {
			return cmosInit(m, machineName)
		},
		Close: cmosClose,
		Reset: cmosReset,
	}
}

func cmosInit(m *Machine, machineName string) (*CMOS, error) {
	c := &CMOS{nvr: m.NVR, machineName: machineName}
	for i := range c.writeMasks {
		c.writeMasks[i] = 0xFF
	}
	// Registers 0x00-0x09 are the time-of-day clock fields; the RTC's
	// own tick logic (outside this core's scope) would own them, so
	// they're left host-writable here only for test setup.
	c.loadFromNVR()

	m.Ports.SetHandler(&PortHandler{
		Port: cmosIndexPort, Length: 2,
		Read8:  c.read,
		Write8: c.write,
	})
	return c, nil
}

func cmosReset(priv any) {
	c := priv.(*CMOS)
	c.index = 0
	c.nmiDisabled = false
}

func cmosClose(priv any) {
	c := priv.(*CMOS)
	c.saveToNVR()
}

// loadFromNVR restores persisted CMOS bytes; per spec.md §6/§7, a
// missing or unreadable blob is not an error, just an empty CMOS.
func (c *CMOS) loadFromNVR() {
	if c.nvr == nil {
		return
	}
	data, err := c.nvr.Load(c.machineName, "cmos")
	if err != nil {
		logWarn("cmos: no persisted NVR image for %s (%v), starting blank", c.machineName, err)
		return
	}
	copy(c.regs[:], data)
}

func (c *CMOS) saveToNVR() {
	if c.nvr == nil {
		return
	}
	if err := c.nvr.Save(c.machineName, "cmos", c.regs[:]); err != nil {
		logHostFault(err)
	}
}

func (c *CMOS) read(port uint16) uint8 {
	if port == cmosIndexPort {
		return c.index
	}
	idx := c.index & 0x7F
	return c.regs[idx]
}

// write handles both ports: writing the index port also latches the
// NMI-disable bit (the address's top bit), which doesn't live in the
// register array itself, mirroring the real PC/AT port 0x70 convention.
func (c *CMOS) write(port uint16, val uint8) {
	if port == cmosIndexPort {
		c.nmiDisabled = val&cmosNMIDisableBit != 0
		c.index = val & 0x7F
		return
	}
	idx := c.index & 0x7F
	mask := c.writeMasks[idx]
	c.regs[idx] = (c.regs[idx] &^ mask) | (val & mask)
}

// NMIDisabled reports the last-latched state of port 0x70's top bit.
func (c *CMOS) NMIDisabled() bool { return c.nmiDisabled }
