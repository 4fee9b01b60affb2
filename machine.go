// machine.go - Machine descriptor and top-level device composition
//
// A Machine owns the entire bus fabric, the device arena, and (when
// running) the CPU and scheduler — the single value spec.md §9 asks for
// in place of the teacher's file-scope globals (compare
// runtime_status.go's runtimeStatusStore, which this generalizes from
// "one struct behind one mutex holding everything" to "one struct that
// *is* the machine").
package main

import "fmt"

// CPUFamily names a supported CPU model a MachineDesc can select.
type CPUFamily string

const (
	CPU8088   CPUFamily = "8088"
	CPU80286  CPUFamily = "80286"
	CPU80386  CPUFamily = "80386"
	CPU80486  CPUFamily = "80486"
	CPUPentium CPUFamily = "pentium"
)

// MachineDesc selects CPU family, bus topology, memory sizing, and the
// device list a Machine instantiates at init.
type MachineDesc struct {
	ID           string
	Name         string
	InternalName string
	CPUFamilies  []CPUFamily
	BusFlags     BusFlags

	MemoryMin, MemoryMax, MemoryStep uint32
	RAMGranularity                   uint32

	Devices []*DeviceDesc

	// Init, if set, runs after all Devices have been added and reset,
	// for any machine-specific wiring that doesn't fit a single device
	// (e.g. programming default PCI IRQ routing).
	Init func(m *Machine) error
}

// Machine is the top-level runtime value: bus fabric + device arena +
// (once Boot is called) CPU and scheduler.
type Machine struct {
	Desc *MachineDesc

	Mem      *MemMapTable
	Ports    *PortIOTable
	Timers   *TimerWheel
	PICs     *PICPair
	DMA      *DMAControllerPair
	PCI      *PCIBus
	Registry *DeviceRegistry
	NVR      *NVRStore

	CPU CPU

	cycles Cycle
}

// NewMachine allocates the bus fabric for desc but does not yet
// instantiate any devices; call Init to run device bring-up.
func NewMachine(desc *MachineDesc, nvrDir string) (*Machine, error) {
	ramSize := desc.MemoryMin
	if ramSize == 0 {
		ramSize = 1 << 20
	}
	m := &Machine{
		Desc:     desc,
		Mem:      NewMemMapTable(ramSize),
		Ports:    NewPortIOTable(),
		Timers:   NewTimerWheel(),
		Registry: NewDeviceRegistry(),
	}
	m.PICs = NewPICPair()
	m.DMA = NewDMAControllerPair(m.Mem)
	m.PCI = NewPCIBus(m.PICs)

	if nvrDir != "" {
		store, err := NewNVRStore(nvrDir)
		if err != nil {
			return nil, err
		}
		m.NVR = store
	}
	return m, nil
}

// Init runs machine_init per spec.md §4.8: for each device in the
// descriptor's build order, call Registry.Add (which invokes the
// device's Init and records its shutdown hook), then reset every
// device. configs supplies per-device configuration keyed by
// DeviceDesc.Name; a missing entry resolves to each field's declared
// default.
func (m *Machine) Init(configs map[string]map[string]string) error {
	for _, desc := range m.Desc.Devices {
		cfg := NewDeviceConfig(configs[desc.Name], desc.Config)
		if desc.Available != nil && !desc.Available() {
			return NewHostFault(desc.Name, fmt.Errorf("device unavailable"))
		}
		if _, err := m.Registry.Add(m, desc, cfg); err != nil {
			return err
		}
	}
	m.Registry.ResetAll()

	if m.Desc.Init != nil {
		if err := m.Desc.Init(m); err != nil {
			return NewHostFault(m.Desc.Name, err)
		}
	}
	return nil
}

// HardReset cancels all pending timers and resets every device in
// registration order, per spec.md §5's cancellation rule. It does not
// re-run device Init.
func (m *Machine) HardReset() {
	m.Timers = NewTimerWheel()
	m.PICs.Reset()
	m.DMA.Reset()
	m.Registry.ResetAll()
	if m.CPU != nil {
		m.CPU.Reset()
	}
	m.cycles = 0
}

// Shutdown closes every device in reverse creation order.
func (m *Machine) Shutdown() {
	m.Registry.CloseAll()
}

// Cycles returns the machine's current virtual-time counter.
func (m *Machine) Cycles() Cycle { return m.cycles }
