//go:build !headless

// videobridge.go - Host display bridge: mirrors a physical memory range
// onto a window, and keyboard/clipboard input back into the bus.
//
// Grounded on video_backend_ebiten.go's EbitenOutput: double-buffered
// frame data behind a RWMutex, driven by ebiten.RunGame's Update/Draw
// callbacks, with the same Ctrl+Shift+V clipboard-paste convention. Of
// the special keys only Enter ('\n') and Backspace ('\b') are mapped;
// there is no escape-sequence table. Scaled down to this core's
// actual job — presenting a raw framebuffer window and ferrying key
// bytes to a device callback (conventionally the keyboard controller's
// scan-code input queue) — rather than the teacher's full terminal
// emulation layer.
package main

import (
	"image"
	"image/draw"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DisplayBridge renders a fixed-size RGBA framebuffer window and relays
// host keyboard/clipboard input to the machine via a byte callback.
type DisplayBridge struct {
	mem         *MemMapTable
	fbBase      uint32
	width, height int

	window *ebiten.Image
	mu     sync.RWMutex

	keyHandler func(byte)

	clipboardOnce sync.Once
	clipboardOK   bool

	// status, when non-empty, is overlaid in the top-left corner each
	// frame (e.g. "halted", "IRQ10 pending") — a debug aid, not part of
	// the emulated display.
	status string
}

// SetStatus updates the diagnostic overlay text drawn over the
// framebuffer each frame.
func (db *DisplayBridge) SetStatus(s string) {
	db.mu.Lock()
	db.status = s
	db.mu.Unlock()
}

// NewDisplayBridge builds a bridge that mirrors width*height*4 bytes
// starting at fbBase in mem onto an ebiten window each frame.
func NewDisplayBridge(mem *MemMapTable, fbBase uint32, width, height int) *DisplayBridge {
	return &DisplayBridge{mem: mem, fbBase: fbBase, width: width, height: height}
}

// SetKeyHandler installs the callback invoked for each host keystroke
// translated to a byte (typically feeding a keyboard controller device's
// scan-code queue).
func (db *DisplayBridge) SetKeyHandler(fn func(byte)) {
	db.mu.Lock()
	db.keyHandler = fn
	db.mu.Unlock()
}

// Run starts the ebiten game loop; it blocks until the window closes.
func (db *DisplayBridge) Run(title string) error {
	ebiten.SetWindowSize(db.width, db.height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(true)
	return ebiten.RunGame(db)
}

func (db *DisplayBridge) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}
	db.handleKeyboardInput()
	return nil
}

func (db *DisplayBridge) Draw(screen *ebiten.Image) {
	if db.window == nil {
		db.window = ebiten.NewImage(db.width, db.height)
	}
	ram := db.mem.RAM()
	n := db.width * db.height * 4
	if int(db.fbBase)+n <= len(ram) {
		db.window.WritePixels(ram[db.fbBase : int(db.fbBase)+n])
	}

	db.mu.RLock()
	status := db.status
	db.mu.RUnlock()
	if status != "" {
		db.drawStatusOverlay(status)
	}

	screen.DrawImage(db.window, nil)
}

// drawStatusOverlay rasterizes status onto the framebuffer image using
// golang.org/x/image's basicfont fixed-width bitmap font, the same way
// tools/font2rgba.go prepares glyph bitmaps for the blitter, just
// without the PNG round-trip since basicfont ships pre-rasterized.
func (db *DisplayBridge) drawStatusOverlay(status string) {
	overlay := image.NewRGBA(image.Rect(0, 0, db.width, 16))
	d := &font.Drawer{
		Dst:  overlay,
		Src:  image.NewUniform(image.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(2), Y: fixed.I(12)},
	}
	d.DrawString(status)
	draw.Draw(db.window, overlay.Bounds(), overlay, image.Point{}, draw.Over)
}

func (db *DisplayBridge) Layout(_, _ int) (int, int) {
	return db.width, db.height
}

func (db *DisplayBridge) handleKeyboardInput() {
	db.mu.RLock()
	handler := db.keyHandler
	db.mu.RUnlock()
	if handler == nil {
		return
	}

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		db.handleClipboardPaste(handler)
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		if r > 0 && r <= 0xFF {
			handler(byte(r))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		handler('\n')
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		handler('\b')
	}
}

func (db *DisplayBridge) handleClipboardPaste(handler func(byte)) {
	db.clipboardOnce.Do(func() {
		db.clipboardOK = clipboard.Init() == nil
	})
	if !db.clipboardOK {
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) > 4096 {
		data = data[:4096]
	}
	for _, b := range data {
		handler(b)
	}
}
