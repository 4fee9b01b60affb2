// registry.go - Device registry: descriptors, arena, lifecycle
//
// A DeviceDesc is an immutable record describing a device class. Devices
// are instantiated into a flat, machine-scoped arena and referenced by
// BusRef (an arena index) rather than raw pointers, so a chipset's
// integrated KBC/FDC/UART back-pointers can't outlive a reset or
// dangle — the spec.md §9 design note this file implements directly,
// grounded on the teacher's coprocessor_manager.go index-by-slot worker
// table.
package main

// BusFlags tags what buses a device participates in; informational for
// now, used by machine setup code to decide wiring order.
type BusFlags uint32

const (
	BusISA BusFlags = 1 << iota
	BusPCI
	BusSuperIO
)

// DeviceDesc describes a device class: its name, lifecycle hooks, and
// declared configuration fields.
type DeviceDesc struct {
	Name         string
	InternalName string
	Flags        BusFlags
	Local        uint32
	Config       []ConfigField

	Init      func(m *Machine, cfg *DeviceConfig) (any, error)
	Close     func(priv any)
	Reset     func(priv any)
	Available func() bool
}

// BusRef is an arena index into a Machine's device instances. It
// outlives any single device's Go-level lifetime and is what devices
// should store instead of a pointer to another device, so that closing
// and recreating a device during reset can never leave a dangling
// reference.
type BusRef uint32

// DeviceInstance is one live device: its descriptor, its private state
// as returned by Init, and the arena index it was assigned.
type DeviceInstance struct {
	Desc *DeviceDesc
	Priv any
	Ref  BusRef
}

// DeviceRegistry owns the machine-scoped device arena: creation order,
// shutdown order (reverse), reset order (creation order, non-recursive),
// and lookup by internal name (used for NVR blob naming).
type DeviceRegistry struct {
	instances []*DeviceInstance
	byName    map[string]BusRef
}

// NewDeviceRegistry returns an empty registry.
func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{byName: make(map[string]BusRef)}
}

// Add instantiates desc via desc.Init, stores the result, and returns
// the new device's BusRef. Devices may call Add recursively from within
// their own Init (a chipset adding its integrated Super-I/O, for
// example); the registry just appends, so recursive adds are safe.
func (r *DeviceRegistry) Add(m *Machine, desc *DeviceDesc, cfg *DeviceConfig) (BusRef, error) {
	priv, err := desc.Init(m, cfg)
	if err != nil {
		return 0, NewHostFault(desc.Name, err)
	}
	ref := BusRef(len(r.instances))
	inst := &DeviceInstance{Desc: desc, Priv: priv, Ref: ref}
	r.instances = append(r.instances, inst)
	if desc.InternalName != "" {
		r.byName[desc.InternalName] = ref
	}
	return ref, nil
}

// Get returns the live instance for ref, or nil if out of range (never
// true for a ref this registry handed out and never removed).
func (r *DeviceRegistry) Get(ref BusRef) *DeviceInstance {
	if int(ref) >= len(r.instances) {
		return nil
	}
	return r.instances[ref]
}

// Lookup resolves a device's BusRef by its internal name.
func (r *DeviceRegistry) Lookup(internalName string) (BusRef, bool) {
	ref, ok := r.byName[internalName]
	return ref, ok
}

// ResetAll calls Reset on every device in creation order. Reset is not
// recursive: each device resets only its own state, per spec.md §3's
// lifecycle invariant.
func (r *DeviceRegistry) ResetAll() {
	for _, inst := range r.instances {
		if inst.Desc.Reset != nil {
			inst.Desc.Reset(inst.Priv)
		}
	}
}

// CloseAll calls Close on every device in reverse creation order, used
// at machine shutdown.
func (r *DeviceRegistry) CloseAll() {
	for i := len(r.instances) - 1; i >= 0; i-- {
		inst := r.instances[i]
		if inst.Desc.Close != nil {
			inst.Desc.Close(inst.Priv)
		}
	}
}

// Instances returns a snapshot slice of all live instances, in creation
// order. Callers must not mutate the returned slice.
func (r *DeviceRegistry) Instances() []*DeviceInstance {
	return r.instances
}
