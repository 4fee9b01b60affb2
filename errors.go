// errors.go - Core error taxonomy
//
// spec.md §7 distinguishes three categories. This module gives the two
// that travel as Go errors (HostFault, RecoverableIOError) a concrete
// type so main.go and device code can tell them apart without
// string-matching; GuestFault has no Go type:
//
//	GuestFault   - hardware-defined conditions (unmapped memory, bad
//	               I/O, CPU exceptions). Never leaves the core; the CPU
//	               contract surfaces these as status bits or #exceptions
//	               of its own, not Go errors.
//	HostFault    - a programming error in core/device code (overlapping
//	               port registrations in debug builds, NVR I/O failure
//	               during a required load). Terminates the session.
//	Recoverable  - NVR read failures at startup and similar "this is
//	               fine, use defaults" conditions. Logged, not fatal.
package main

import "fmt"

// HostFault marks an error that should abort machine bring-up, naming
// the artifact or subsystem responsible.
type HostFault struct {
	Component string
	Err       error
}

func (e *HostFault) Error() string {
	return fmt.Sprintf("host fault in %s: %v", e.Component, e.Err)
}

func (e *HostFault) Unwrap() error { return e.Err }

// NewHostFault wraps err as a HostFault attributed to component.
func NewHostFault(component string, err error) *HostFault {
	return &HostFault{Component: component, Err: err}
}

// RecoverableIOError marks an NVR/file condition that should be logged
// and treated as "device was never used before", per spec.md §7.
type RecoverableIOError struct {
	Path string
	Err  error
}

func (e *RecoverableIOError) Error() string {
	return fmt.Sprintf("recoverable I/O error for %s: %v", e.Path, e.Err)
}

func (e *RecoverableIOError) Unwrap() error { return e.Err }
