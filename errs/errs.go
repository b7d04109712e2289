// Package errs defines the sentinel errors returned across this module.
//
// Every distinct failure kind this module can report has exactly one
// sentinel here. Callers use errors.Is to test for a specific kind; lower-level I/O errors
// (from os.Open, ioctl, etc.) are wrapped with fmt.Errorf("...: %w", err) at
// the call site rather than being assigned their own sentinel, so the
// underlying *os.PathError or syscall.Errno survives for inspection.
package errs

import "errors"

var (
	// ErrInvalidIdentifier means a DOF Ident's magic, data model, or data
	// encoding byte was not recognized.
	ErrInvalidIdentifier = errors.New("invalid DOF identifier: magic, data model, or encoding not recognized")

	// ErrParseError means a DOF byte buffer does not match the expected
	// section layout: a bounds check, alignment check, or fixed-width
	// record check failed.
	ErrParseError = errors.New("dof: buffer does not match expected layout")

	// ErrUnsupportedObjectFile means the scanned file is neither ELF nor a
	// supported Mach-O image.
	ErrUnsupportedObjectFile = errors.New("objscan: unsupported object file format")

	// ErrInvalidFile means a probe-records section was found but is
	// malformed: a truncated length header, or a declared record length
	// that overflows the remaining bytes.
	ErrInvalidFile = errors.New("record: malformed probe-record section")

	// ErrUnsupportedPlatform means the current GOOS has no known DTrace
	// helper device (only illumos/Solaris and macOS have one).
	ErrUnsupportedPlatform = errors.New("kernel: no DTrace helper device on this platform")
)
