// Package kernel hands a serialized DOF section to the host's DTrace helper
// device: the final step that turns a process's USDT probes into something
// the running kernel's DTrace implementation can see and instrument.
//
// The handoff is a single ioctl(2) call whose device path, request code, and
// argument struct layout are platform-specific; this package picks the
// right one at compile time via a GOOS build tag per file.
package kernel
