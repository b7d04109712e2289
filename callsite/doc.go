// Package callsite documents and implements the call-site contract a code
// generator must satisfy to plant a valid probe record: the maximum
// argument count, the per-ABI integer argument register tables a
// generator's NOP/clear-and-move patching targets, and the single helper
// that turns a probe firing or is-enabled check into the exact bytes to
// place in the probe-records linker section.
//
// This package does not emit assembly or patch instructions — that is a
// code generator's job, not a concern of this module.
package callsite
