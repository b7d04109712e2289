// Package endian provides byte order utilities; the dof package uses it to
// pick the host's data encoding for a DOF identifier.
//
// It extends Go's standard encoding/binary package by combining ByteOrder and
// AppendByteOrder into a single EndianEngine interface, and by exposing a
// host-native check: the DOF identifier and the probe-record wire format both
// require host-native byte order, so callers need a way to ask "does this
// engine match the machine I'm running on" rather than just "which engine is
// this".
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into a single interface. binary.LittleEndian and binary.BigEndian both
// satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// HostByteOrder returns the byte order of the machine this code is running on.
func HostByteOrder() binary.ByteOrder {
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsHostLittleEndian reports whether the host is little-endian.
func IsHostLittleEndian() bool {
	return HostByteOrder() == binary.LittleEndian
}

// Native returns the EndianEngine matching the host's byte order. The DOF
// Ident and the probe-record format are both defined as host-native; the
// record package reads and writes records with binary.NativeEndian, the
// same order this returns.
func Native() EndianEngine {
	if IsHostLittleEndian() {
		return binary.LittleEndian
	}

	return binary.BigEndian
}

// IsNative reports whether engine matches the host's byte order.
func IsNative(engine EndianEngine) bool {
	return engine == HostByteOrder()
}
