// Package dof implements the DTrace Object Format (DOF): the on-disk binary
// container the kernel's DTrace helper device ingests, and the in-memory type
// model (Section, Provider, Probe) it represents.
//
// # Layout
//
// A DOF blob is a file header, followed by a table of fixed-size section
// headers, followed by the section payloads themselves:
//
//	file header
//	section header table (one entry per section)
//	section payloads (STRTAB, PROFFS, PRENOFFS, one PROBES + one PROVIDER per provider)
//
// Section payloads are emitted in that fixed order because PROVIDER entries
// reference PROBES entries by section index (see Section.Serialize).
//
// # Round trip
//
// For any Section built by the record aggregator, DeserializeSection(s.Serialize())
// yields a Section equivalent to s under structural equality of provider/probe
// names, base addresses, and sorted offsets. Serialize never fails; malformed
// input to DeserializeSection fails with errs.ErrInvalidIdentifier or
// errs.ErrParseError.
package dof
