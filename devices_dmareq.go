// devices_dmareq.go - A DMA-driven block transfer device
//
// Grounded on _examples/original_source/src/disk/hdc_xta.c's
// CMD_WRITE_SECTORS DMA consumption loop: a device pulls bytes through
// its assigned DMA channel until either its buffer is full or the
// channel reports DMA_NODATA (our ChannelRead's sentinel+terminal-count
// pair), aborting the transfer on the latter. This device
// is the bus-side driver exercised by spec.md §8 scenario 5: arm it,
// step it, and observe it stop exactly at the channel's programmed
// terminal count.
package main

import "fmt"

// DMARequester is a minimal device that owns one DMA channel and
// transfers a fixed-size buffer through it a byte at a time, the way a
// floppy or hard-disk controller's sector buffer does.
type DMARequester struct {
	dma *DMAControllerPair
	ch  int

	buf    []byte
	filled int
	done   bool
	short  bool // set if the channel hit terminal count before the buffer filled
}

// NewDMARequesterDesc returns the DeviceDesc for a DMA requester fixed to
// channel ch.
func NewDMARequesterDesc(ch int) *DeviceDesc {
	return &DeviceDesc{
		Name:         "dmareq",
		InternalName: fmt.Sprintf("dmareq%d", ch),
		Flags:        BusISA,
		Init: func(m *Machine, cfg *DeviceConfig) (any, error) {
			return &DMARequester{dma: m.DMA, ch: ch}, nil
		},
		Close: func(any) {},
		Reset: func(priv any) {
			d := priv.(*DMARequester)
			d.filled, d.done, d.short = 0, false, false
			d.buf = nil
		},
	}
}

// ArmRead begins a read transfer of n bytes into the requester's own
// buffer via its DMA channel (a memory-to-device transfer, pulled
// through ChannelRead).
func (d *DMARequester) ArmRead(n int) {
	d.buf = make([]byte, n)
	d.filled = 0
	d.done = false
	d.short = false
}

// Pump drains as many bytes as the channel currently has available,
// mirroring hdc_xta.c's "while (idx < len) { val = dma_channel_read(...) }"
// loop: stop on DMA_NODATA rather than looping forever, since a masked
// or not-yet-reprogrammed channel will keep returning the sentinel.
func (d *DMARequester) Pump() {
	if d.done {
		return
	}
	for d.filled < len(d.buf) {
		val, tc := d.dma.ChannelRead(d.ch)
		if val == dmaNoData {
			d.short = tc
			d.done = true
			return
		}
		d.buf[d.filled] = val
		d.filled++
		if tc {
			d.done = true
			return
		}
	}
	d.done = true
}

// Buffer returns the bytes collected so far.
func (d *DMARequester) Buffer() []byte { return d.buf[:d.filled] }

// Done reports whether the transfer has stopped, either because the
// buffer filled or the channel hit terminal count first.
func (d *DMARequester) Done() bool { return d.done }

// ShortTransfer reports whether the channel reached terminal count
// before the requester's buffer was full.
func (d *DMARequester) ShortTransfer() bool { return d.short }
