package main

import "testing"

// TestDeviceRegistryLookupAndReset verifies devices are instantiated in
// descriptor order, retrievable by internal name, and that ResetAll
// visits every device in creation order without recursing into
// dependents.
func TestDeviceRegistryLookupAndReset(t *testing.T) {
	r := NewDeviceRegistry()
	var resetOrder []string

	mk := func(name string) *DeviceDesc {
		return &DeviceDesc{
			Name:         name,
			InternalName: name,
			Init:         func(*Machine, *DeviceConfig) (any, error) { return name, nil },
			Reset:        func(priv any) { resetOrder = append(resetOrder, priv.(string)) },
		}
	}

	refA, err := r.Add(nil, mk("a"), nil)
	if err != nil {
		t.Fatalf("Add(a) error: %v", err)
	}
	if _, err := r.Add(nil, mk("b"), nil); err != nil {
		t.Fatalf("Add(b) error: %v", err)
	}

	ref, ok := r.Lookup("a")
	if !ok || ref != refA {
		t.Fatalf("Lookup(a) = (%d, %v), want (%d, true)", ref, ok, refA)
	}

	r.ResetAll()
	if len(resetOrder) != 2 || resetOrder[0] != "a" || resetOrder[1] != "b" {
		t.Fatalf("resetOrder = %v, want [a b]", resetOrder)
	}
}

// TestDeviceRegistryCloseAllReverseOrder verifies CloseAll tears down
// devices in the reverse of their creation order, so a device can
// assume anything it depends on is still alive during its own Close.
func TestDeviceRegistryCloseAllReverseOrder(t *testing.T) {
	r := NewDeviceRegistry()
	var closeOrder []string
	mk := func(name string) *DeviceDesc {
		return &DeviceDesc{
			Name: name,
			Init: func(*Machine, *DeviceConfig) (any, error) { return name, nil },
			Close: func(priv any) { closeOrder = append(closeOrder, priv.(string)) },
		}
	}
	r.Add(nil, mk("first"), nil)
	r.Add(nil, mk("second"), nil)
	r.Add(nil, mk("third"), nil)

	r.CloseAll()
	want := []string{"third", "second", "first"}
	if len(closeOrder) != len(want) {
		t.Fatalf("closeOrder = %v, want %v", closeOrder, want)
	}
	for i := range want {
		if closeOrder[i] != want[i] {
			t.Fatalf("closeOrder = %v, want %v", closeOrder, want)
		}
	}
}

// TestDeviceRegistryInitErrorWrapsHostFault verifies a failing Init
// surfaces as a *HostFault naming the device, per spec.md §7.
func TestDeviceRegistryInitErrorWrapsHostFault(t *testing.T) {
	r := NewDeviceRegistry()
	desc := &DeviceDesc{
		Name: "broken",
		Init: func(*Machine, *DeviceConfig) (any, error) { return nil, errBoom },
	}
	_, err := r.Add(nil, desc, nil)
	if err == nil {
		t.Fatal("expected an error from a failing Init")
	}
	hf, ok := err.(*HostFault)
	if !ok {
		t.Fatalf("error type = %T, want *HostFault", err)
	}
	if hf.Component != "broken" {
		t.Fatalf("HostFault.Component = %q, want %q", hf.Component, "broken")
	}
}

// TestDeviceRegistryGetOutOfRange verifies Get on a ref that was never
// handed out returns nil rather than panicking.
func TestDeviceRegistryGetOutOfRange(t *testing.T) {
	r := NewDeviceRegistry()
	if inst := r.Get(99); inst != nil {
		t.Fatalf("Get(99) = %v, want nil", inst)
	}
}

type fixedErr string

func (e fixedErr) Error() string { return string(e) }

var errBoom = fixedErr("boom")
