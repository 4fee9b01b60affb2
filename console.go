//go:build !headless

// console.go - Interactive debug console over raw stdin
//
// Grounded on terminal_host.go's raw-mode stdin reader (golang.org/x/term
// MakeRaw/Restore, non-blocking syscall.Read loop) and debug_commands.go's
// ParseCommand/ParseAddress line-based command grammar, adapted from "feed
// a TerminalMMIO device" to "peek/poke the bus fabric directly" — this
// core has no CPU debugger of its own, so the console's job is inspecting
// memory, ports, and device registers rather than single-stepping code.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.design/x/clipboard"
	"golang.org/x/term"
)

// Console is a line-oriented debug shell over the machine's bus fabric.
type Console struct {
	m   *Machine
	fd  int
	out *os.File
}

// NewConsole builds a console bound to m, reading line-based input from
// stdin and writing to stdout.
func NewConsole(m *Machine) *Console {
	return &Console{m: m, fd: int(os.Stdin.Fd()), out: os.Stdout}
}

// Run reads and dispatches commands until "quit" or EOF. Unlike
// terminal_host.go's per-keystroke raw-mode reader, this console reads
// whole lines (commands, not guest keystrokes), so it keeps the
// terminal's own canonical line editing; term.IsTerminal is used only to
// decide whether a prompt makes sense (suppressed for piped input/
// scripted test harnesses, matching how terminal_host.go itself is only
// wired up for interactive use — never in tests).
func (c *Console) Run() {
	interactive := term.IsTerminal(c.fd)

	reader := bufio.NewScanner(os.Stdin)
	if interactive {
		fmt.Fprintln(c.out, "bus console ready (mem/port/paste/quit)")
	}
	for reader.Scan() {
		line := strings.TrimSpace(reader.Text())
		if line == "" {
			continue
		}
		if !c.dispatch(line) {
			return
		}
	}
}

func (c *Console) dispatch(line string) bool {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "quit", "exit":
		return false
	case "mem":
		c.cmdMem(args)
	case "port":
		c.cmdPort(args)
	case "paste":
		c.cmdPaste()
	default:
		fmt.Fprintf(c.out, "unknown command: %s\n", cmd)
	}
	return true
}

// cmdMem handles "mem read <addr>" / "mem write <addr> <byte>".
func (c *Console) cmdMem(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "usage: mem read|write <addr> [byte]")
		return
	}
	addr, ok := parseAddress(args[1])
	if !ok {
		fmt.Fprintln(c.out, "bad address")
		return
	}
	switch args[0] {
	case "read":
		fmt.Fprintf(c.out, "%08X: %02X\n", addr, c.m.Mem.DispatchRead8(uint32(addr)))
	case "write":
		if len(args) < 3 {
			fmt.Fprintln(c.out, "usage: mem write <addr> <byte>")
			return
		}
		val, ok := parseAddress(args[2])
		if !ok {
			fmt.Fprintln(c.out, "bad value")
			return
		}
		c.m.Mem.DispatchWrite8(uint32(addr), uint8(val))
	}
}

// cmdPort handles "port in <port>" / "port out <port> <byte>".
func (c *Console) cmdPort(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "usage: port in|out <port> [byte]")
		return
	}
	port, ok := parseAddress(args[1])
	if !ok {
		fmt.Fprintln(c.out, "bad port")
		return
	}
	switch args[0] {
	case "in":
		fmt.Fprintf(c.out, "%04X: %02X\n", port, c.m.Ports.Inb(uint16(port)))
	case "out":
		if len(args) < 3 {
			fmt.Fprintln(c.out, "usage: port out <port> <byte>")
			return
		}
		val, ok := parseAddress(args[2])
		if !ok {
			fmt.Fprintln(c.out, "bad value")
			return
		}
		c.m.Ports.Outb(uint16(port), uint8(val))
	}
}

// cmdPaste reads clipboard text and reports how many bytes it holds,
// triggered by a console command instead of video_backend_ebiten.go's
// Ctrl+Shift+V key chord (the console has no window to attach key events
// to). The bytes are not forwarded to the bus or to any device.
func (c *Console) cmdPaste() {
	if err := clipboard.Init(); err != nil {
		fmt.Fprintf(c.out, "clipboard unavailable: %v\n", err)
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	fmt.Fprintf(c.out, "pasted %d bytes\n", len(data))
}

// parseAddress accepts "$hex", "0xhex", bare hex, matching
// debug_commands.go's ParseAddress conventions (its "#decimal" form is
// omitted here since console args are almost always addresses).
func parseAddress(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "$") {
		v, err := strconv.ParseUint(s[1:], 16, 64)
		return v, err == nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return v, err == nil
	}
	v, err := strconv.ParseUint(s, 16, 64)
	return v, err == nil
}
