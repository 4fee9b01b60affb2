//go:build headless

// devices_pcspeaker_headless.go - PC speaker device, headless build
//
// Mirrors audio_backend_headless.go's no-op audio path: register-level
// behaviour (gate/data bits, reload latching) is preserved so bus tests
// don't need a build tag, but no host audio context is created.
package main

const (
	pcSpeakerPort    = 0x61
	pcSpeakerGateBit = 0x01
	pcSpeakerDataBit = 0x02
)

// PCSpeaker is the port-0x61 PC speaker device's private state.
type PCSpeaker struct {
	gate   bool
	dataOn bool
	reload uint16
}

// NewPCSpeakerDesc returns the DeviceDesc for the PC speaker.
func NewPCSpeakerDesc() *DeviceDesc {
	return &DeviceDesc{
		Name:         "pcspeaker",
		InternalName: "pcspeaker",
		Flags:        BusISA,
		Init:         pcSpeakerInit,
		Close:        func(any) {},
		Reset:        pcSpeakerReset,
	}
}

func pcSpeakerInit(m *Machine, cfg *DeviceConfig) (any, error) {
	sp := &PCSpeaker{}
	m.Ports.SetHandler(&PortHandler{
		Port: pcSpeakerPort, Length: 1,
		Read8:  sp.read,
		Write8: sp.write,
	})
	return sp, nil
}

func pcSpeakerReset(priv any) {
	sp := priv.(*PCSpeaker)
	sp.gate, sp.dataOn, sp.reload = false, false, 0
}

func (sp *PCSpeaker) read(port uint16) uint8 {
	var v uint8
	if sp.gate {
		v |= pcSpeakerGateBit
	}
	if sp.dataOn {
		v |= pcSpeakerDataBit
	}
	return v
}

func (sp *PCSpeaker) write(port uint16, val uint8) {
	sp.gate = val&pcSpeakerGateBit != 0
	sp.dataOn = val&pcSpeakerDataBit != 0
}

// SetReload programs the channel-2-derived reload count; headless build
// keeps it for API parity but has nothing to synthesize.
func (sp *PCSpeaker) SetReload(reload uint16) {
	sp.reload = reload
}
