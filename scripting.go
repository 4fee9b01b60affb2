// scripting.go - Lua scripting hook for scenario setup and automation
//
// The teacher's go.mod lists github.com/yuin/gopher-lua as a direct
// dependency, but no teacher file actually exercises it — it's a
// capability the original project carried but never gave a job. This
// core gives it one: a small scripting surface that can drive port I/O
// and memory access from a script, useful for describing end-to-end
// test scenarios or machine-specific setup sequences without recompiling
// Go code for each one.
package main

import (
	lua "github.com/yuin/gopher-lua"
)

// ScriptEngine embeds a Lua state bound to one Machine's bus fabric.
type ScriptEngine struct {
	L *lua.LState
	m *Machine
}

// NewScriptEngine builds a Lua engine with mem/port accessors registered
// as global functions: mem_read8/mem_write8, port_in/port_out.
func NewScriptEngine(m *Machine) *ScriptEngine {
	L := lua.NewState()
	se := &ScriptEngine{L: L, m: m}

	L.SetGlobal("mem_read8", L.NewFunction(se.luaMemRead8))
	L.SetGlobal("mem_write8", L.NewFunction(se.luaMemWrite8))
	L.SetGlobal("port_in", L.NewFunction(se.luaPortIn))
	L.SetGlobal("port_out", L.NewFunction(se.luaPortOut))

	return se
}

// Close releases the Lua state.
func (se *ScriptEngine) Close() {
	se.L.Close()
}

// RunString executes a script body, typically a scenario setup routine
// ("select a Super-I/O logical device through its index port, then
// read back the UART base address").
func (se *ScriptEngine) RunString(src string) error {
	return se.L.DoString(src)
}

func (se *ScriptEngine) luaMemRead8(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	L.Push(lua.LNumber(se.m.Mem.DispatchRead8(addr)))
	return 1
}

func (se *ScriptEngine) luaMemWrite8(L *lua.LState) int {
	addr := uint32(L.CheckInt64(1))
	val := uint8(L.CheckInt(2))
	se.m.Mem.DispatchWrite8(addr, val)
	return 0
}

func (se *ScriptEngine) luaPortIn(L *lua.LState) int {
	port := uint16(L.CheckInt(1))
	L.Push(lua.LNumber(se.m.Ports.Inb(port)))
	return 1
}

func (se *ScriptEngine) luaPortOut(L *lua.LState) int {
	port := uint16(L.CheckInt(1))
	val := uint8(L.CheckInt(2))
	se.m.Ports.Outb(port, val)
	return 0
}
