//go:build headless

// console_headless.go - no-op debug console for headless builds.
package main

// Console is the headless stand-in: constructible for API parity, but
// Run returns immediately rather than reading stdin.
type Console struct {
	m *Machine
}

func NewConsole(m *Machine) *Console { return &Console{m: m} }

func (c *Console) Run() {}
