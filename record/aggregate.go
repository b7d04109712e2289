package record

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/tracewell/usdt/errs"
)

// ProbeRecordVersion is the only record version this port understands.
// Records carrying a newer version are skipped rather than rejected, so a
// binary built with a newer generator still registers the probes an older
// consumer understands.
const ProbeRecordVersion = 1

// Probe is the in-memory aggregation of every record seen for one probe
// name within a provider: its resolved address and offsets, plus the
// argument-type strings recorded at the call site, kept here for
// introspection even though the DOF wire format has no field for them.
type Probe struct {
	Name           string
	Function       string
	Address        uint64
	Offsets        []uint32
	EnabledOffsets []uint32
	Arguments      []string
}

// Provider is a named, ordered collection of Probes.
type Provider struct {
	Name   string
	Probes []*Probe
}

// Aggregate is the result of walking a probe-records section: every
// provider and probe the records named, in deterministic (sorted-by-name)
// order.
type Aggregate struct {
	Providers []*Provider
}

// ParseSection walks buf as a back-to-back sequence of encoded Records and
// aggregates them by provider and probe name.
//
// Records whose Version is newer than ProbeRecordVersion are skipped for
// forward compatibility. A truncated length header or a declared length
// overflowing buf returns errs.ErrInvalidFile. A later record whose Address
// is less than the probe's already-seen base address also returns
// errs.ErrInvalidFile: the generator contract requires call-site records
// for a probe to appear in increasing address order, and silently wrapping
// the subtraction would corrupt the resulting offset rather than surface
// the violation.
func ParseSection(buf []byte) (*Aggregate, error) {
	providers := map[string]*Provider{}
	probes := map[[2]string]*Probe{}

	for len(buf) > 0 {
		rec, n, err := decodeOne(buf)
		if err != nil {
			return nil, err
		}
		buf = buf[n:]

		if rec.Version > ProbeRecordVersion {
			continue
		}

		key := [2]string{rec.Provider, rec.Probe}
		p, ok := probes[key]
		if !ok {
			p = &Probe{
				Name:      rec.Probe,
				Function:  resolveFunction(rec.Address),
				Address:   rec.Address,
				Arguments: rec.Arguments,
			}
			probes[key] = p

			prov, ok := providers[rec.Provider]
			if !ok {
				prov = &Provider{Name: rec.Provider}
				providers[rec.Provider] = prov
			}
			prov.Probes = append(prov.Probes, p)
		}

		if rec.Address < p.Address {
			return nil, fmt.Errorf("%w: probe %q/%q saw address 0x%x before base 0x%x", errs.ErrInvalidFile, rec.Provider, rec.Probe, rec.Address, p.Address)
		}
		offset := uint32(rec.Address - p.Address)

		if rec.IsEnabled {
			p.EnabledOffsets = append(p.EnabledOffsets, offset)
		} else {
			p.Offsets = append(p.Offsets, offset)
		}
	}

	agg := &Aggregate{}
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prov := providers[name]
		sort.Slice(prov.Probes, func(i, j int) bool { return prov.Probes[i].Name < prov.Probes[j].Name })
		for _, p := range prov.Probes {
			sort.Slice(p.Offsets, func(i, j int) bool { return p.Offsets[i] < p.Offsets[j] })
			sort.Slice(p.EnabledOffsets, func(i, j int) bool { return p.EnabledOffsets[i] < p.EnabledOffsets[j] })
		}
		agg.Providers = append(agg.Providers, prov)
	}

	return agg, nil
}

// resolveFunction returns the symbol name enclosing addr, as reported by the
// running binary's own symbol table, or "?0x<addr>" if none is found.
func resolveFunction(addr uint64) string {
	if fn := runtime.FuncForPC(uintptr(addr)); fn != nil {
		return fn.Name()
	}
	return fmt.Sprintf("?0x%x", addr)
}
