package callsite

import (
	"fmt"

	"github.com/tracewell/usdt/record"
)

// MaxProbeArgs is the largest number of arguments a single probe may carry:
// one per integer argument register available on both supported ABIs.
const MaxProbeArgs = 6

// ProbeRecordVersion is the record format version this package's generator
// helper plants. It mirrors record.ProbeRecordVersion; a code generator
// built against a newer callsite package would bump both together.
const ProbeRecordVersion = record.ProbeRecordVersion

// X86_64ArgRegisters names the SysV AMD64 integer argument registers, in
// argument order, that a normal (non-is-enabled) probe call site's
// NOP-patching targets to read an argument's value.
var X86_64ArgRegisters = [MaxProbeArgs]string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

// AArch64ArgRegisters names the AArch64 integer argument registers, in
// argument order, a probe call site's patching targets on that ABI.
var AArch64ArgRegisters = [MaxProbeArgs]string{"x0", "x1", "x2", "x3", "x4", "x5"}

// BuildRecord assembles the exact bytes a code generator plants in the
// probe-records linker section for one call site: a normal probe firing
// when isEnabled is false, or its paired is-enabled check when true. It is
// the only function a hypothetical generator needs to call per call site;
// it does not touch assembly or instruction patching.
//
// argTypes must have at most MaxProbeArgs entries; BuildRecord returns an
// error rather than silently truncating, since a generator violating its
// own ABI contract is a bug worth surfacing immediately.
func BuildRecord(provider, probe string, address uint64, isEnabled bool, argTypes []string) ([]byte, error) {
	if len(argTypes) > MaxProbeArgs {
		return nil, fmt.Errorf("callsite: probe %q/%q has %d arguments, exceeds MaxProbeArgs=%d", provider, probe, len(argTypes), MaxProbeArgs)
	}

	rec := record.Record{
		Version:   ProbeRecordVersion,
		IsEnabled: isEnabled,
		Address:   address,
		Provider:  provider,
		Probe:     probe,
		Arguments: argTypes,
	}
	return rec.Encode(), nil
}
