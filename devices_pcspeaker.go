//go:build !headless

// devices_pcspeaker.go - PC speaker device (port 0x61 gate + tone counter)
//
// Grounded on audio_backend_oto.go's oto.Context/oto.Player wiring: an
// atomic.Pointer holds the live tone state so the audio callback thread
// never blocks on the bus-dispatch goroutine, exactly the lock-free
// handoff that file uses between SoundChip and OtoPlayer.Read. The
// speaker schedules no timer-wheel events: while both the gate and data
// bits of port 0x61 are set, the audio callback synthesizes a square wave whose frequency is the
// 1.193182MHz PIT clock divided by the reload count programmed into
// this device.
package main

import (
	"math"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

const (
	pcSpeakerPort     = 0x61
	pcSpeakerGateBit  = 0x01
	pcSpeakerDataBit  = 0x02
	pcSpeakerSampleHz = 44100
)

type pcSpeakerTone struct {
	enabled   bool
	frequency float64
	phase     float64
}

// PCSpeaker is the port-0x61 PC speaker device's private state.
type PCSpeaker struct {
	gate    bool
	dataOn  bool
	reload  uint16 // timer-reload-derived period, in the channel-2-counts sense

	tone atomic.Pointer[pcSpeakerTone]

	ctx    *oto.Context
	player *oto.Player
}

// NewPCSpeakerDesc returns the DeviceDesc for the PC speaker.
func NewPCSpeakerDesc() *DeviceDesc {
	return &DeviceDesc{
		Name:         "pcspeaker",
		InternalName: "pcspeaker",
		Flags:        BusISA,
		Init:         pcSpeakerInit,
		Close:        pcSpeakerClose,
		Reset:        pcSpeakerReset,
	}
}

func pcSpeakerInit(m *Machine, cfg *DeviceConfig) (any, error) {
	sp := &PCSpeaker{}
	sp.tone.Store(&pcSpeakerTone{})

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   pcSpeakerSampleHz,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	})
	if err != nil {
		// Host audio unavailable is a recoverable condition: the speaker
		// just stays silent, it doesn't take the machine down.
		logWarn("pcspeaker: audio backend unavailable (%v), running silent", err)
	} else {
		<-ready
		sp.ctx = ctx
		sp.player = ctx.NewPlayer(sp)
		sp.player.Play()
	}

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
	sp.tone.Store(&pcSpeakerTone{})
}

func pcSpeakerClose(priv any) {
	sp := priv.(*PCSpeaker)
	if sp.player != nil {
		sp.player.Close()
	}
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
	sp.recalcTone()
}

// SetReload programs the channel-2-derived reload count that determines
// tone pitch; a real build wires this from the PIT's channel 2 output,
// which is out of this core's scope.
func (sp *PCSpeaker) SetReload(reload uint16) {
	sp.reload = reload
	sp.recalcTone()
}

func (sp *PCSpeaker) recalcTone() {
	t := &pcSpeakerTone{enabled: sp.gate && sp.dataOn}
	if t.enabled && sp.reload > 0 {
		t.frequency = 1193182.0 / float64(sp.reload)
	}
	sp.tone.Store(t)
}

// Read implements io.Reader for oto.Player: synthesizes a square wave at
// the currently latched frequency, or silence when the speaker is gated
// off.
func (sp *PCSpeaker) Read(p []byte) (int, error) {
	t := sp.tone.Load()
	samples := len(p) / 4
	buf := make([]float32, samples)
	if t.enabled && t.frequency > 0 {
		step := t.frequency / pcSpeakerSampleHz
		phase := t.phase
		for i := range buf {
			if phase < 0.5 {
				buf[i] = 0.2
			} else {
				buf[i] = -0.2
			}
			phase += step
			if phase >= 1 {
				phase -= 1
			}
		}
		t.phase = phase
	}
	for i, s := range buf {
		bits := math.Float32bits(s)
		p[i*4] = byte(bits)
		p[i*4+1] = byte(bits >> 8)
		p[i*4+2] = byte(bits >> 16)
		p[i*4+3] = byte(bits >> 24)
	}
	return len(p), nil
}
