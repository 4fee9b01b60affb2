// main.go - Entry point: builds a MachineDesc, runs device bring-up, and
// drives either the interactive console or a headless cycle budget.
package main

import (
	"flag"
	"fmt"
	"os"
)

func referenceMachineDesc() *MachineDesc {
	return &MachineDesc{
		ID:           "pcbus-ref",
		Name:         "PC-Bus Reference Machine",
		InternalName: "pcbus_ref",
		CPUFamilies:  []CPUFamily{CPU80486, CPUPentium},
		BusFlags:     BusISA | BusPCI,
		MemoryMin:    4 << 20,
		MemoryMax:    64 << 20,
		MemoryStep:   1 << 20,
		Devices: []*DeviceDesc{
			NewSouthBridgeDesc(),
			NewFlashChipDesc(0xBF, 0xB5), // SST-style manufacturer/device ID
			NewSuperIODesc(),
			NewCMOSDesc("pcbus_ref"),
			NewPCSpeakerDesc(),
		},
		Init: func(m *Machine) error {
			// Default PIRQ rotation: slot-relative INTA-D steering per
			// the DefaultRotation convention, routed to IRQ lines
			// 10/11/5/7 (a conventional PCI IRQ set on PC/AT hardware
			// that doesn't collide with ISA legacy devices).
			m.PCI.SetPIRQRoute(PIRQA, 10)
			m.PCI.SetPIRQRoute(PIRQB, 11)
			m.PCI.SetPIRQRoute(PIRQC, 5)
			m.PCI.SetPIRQRoute(PIRQD, 7)
			return nil
		},
	}
}

func main() {
	nvrDir := flag.String("nvr-dir", "nvr", "directory for persisted NVR/CMOS blobs")
	headlessCycles := flag.Int64("run-cycles", 0, "run this many cycles non-interactively and exit (0 = interactive console)")
	flag.Parse()

	desc := referenceMachineDesc()
	m, err := NewMachine(desc, *nvrDir)
	if err != nil {
		logHostFault(err)
		os.Exit(1)
	}
	if err := m.Init(nil); err != nil {
		logHostFault(err)
		os.Exit(1)
	}
	defer m.Shutdown()

	m.CPU = NewStubCPU(m, 4)

	if *headlessCycles > 0 {
		runHeadless(m, Cycle(*headlessCycles))
		return
	}

	fmt.Println("PC-bus reference machine ready.")
	NewConsole(m).Run()
}

func runHeadless(m *Machine, cycles Cycle) {
	loop := NewExecutionLoop(m, 4096, nil)
	for m.Cycles() < cycles {
		if !loop.RunFrame() {
			break
		}
	}
	logInfo("ran %d cycles", m.Cycles())
}
