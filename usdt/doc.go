// Package usdt is the public API surface for this module: reading DOF
// blobs, scanning object files for probe records and DOF sections, and
// registering a process's probes with the host kernel's DTrace helper
// device.
//
// It is a thin composition of dof, objscan, record, and kernel —
// the package a caller who just wants to "find the probes in this binary
// and turn on DTrace" reaches for, without needing to know the package
// boundaries underneath.
package usdt
