// Package record implements the probe-record wire format planted at every
// call site: a compact, self-describing record written into the linker's
// probe-records section, and the streaming parser that aggregates those
// records into providers and probes.
//
// The on-disk layout is a fixed prefix followed by variable-length strings:
//
//	offset  size  field
//	0       4     total record length in bytes
//	4       1     version
//	5       1     argument count
//	6       2     flags (bit 0: is-enabled site)
//	8       8     absolute address of the NOP/clear label
//	16      var   provider name, NUL-terminated
//	...     var   probe name, NUL-terminated
//	...     var   argument-type strings, NUL-terminated, argument-count of them
//
// All multi-byte fields are native-endian: the record is written and read
// by the same binary, at the same address, so there is no cross-host
// concern the way there is for the DOF blob itself.
package record
