//go:build headless

// videobridge_headless.go - no-op display bridge for headless builds,
// mirroring video_backend_headless.go's stub shape.
package main

// DisplayBridge is the headless stand-in: it tracks the framebuffer
// window parameters for API parity but never opens a window.
type DisplayBridge struct {
	mem           *MemMapTable
	fbBase        uint32
	width, height int
	keyHandler    func(byte)
}

func NewDisplayBridge(mem *MemMapTable, fbBase uint32, width, height int) *DisplayBridge {
	return &DisplayBridge{mem: mem, fbBase: fbBase, width: width, height: height}
}

func (db *DisplayBridge) SetKeyHandler(fn func(byte)) { db.keyHandler = fn }

// Run is a no-op in headless builds; callers should drive the machine
// directly via ExecutionLoop.RunFrame instead.
func (db *DisplayBridge) Run(title string) error { return nil }
