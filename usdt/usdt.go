package usdt

import (
	"fmt"
	"os"

	"github.com/tracewell/usdt/dof"
	"github.com/tracewell/usdt/kernel"
	"github.com/tracewell/usdt/objscan"
	"github.com/tracewell/usdt/record"
)

// Section wraps dof.Section with the byte-slice constructor/accessor pair
// most callers reach for directly.
type Section struct {
	dof.Section
}

// NewSectionFromBytes parses buf as a complete DOF blob.
func NewSectionFromBytes(buf []byte) (Section, error) {
	s, err := dof.DeserializeSection(buf)
	if err != nil {
		return Section{}, err
	}
	return Section{s}, nil
}

// Bytes serializes the section back into its DOF wire form.
func (s Section) Bytes() []byte {
	return s.Section.Serialize()
}

// ExtractDOFSections scans the object file at path for every section whose
// payload begins with the DOF magic and parses each one into a Section.
func ExtractDOFSections(path string) ([]Section, error) {
	blobs, err := objscan.FindDOFSectionsInFile(path)
	if err != nil {
		return nil, err
	}

	sections := make([]Section, 0, len(blobs))
	for i, blob := range blobs {
		s, err := NewSectionFromBytes(blob)
		if err != nil {
			return nil, fmt.Errorf("usdt: parse DOF section %d in %s: %w", i, path, err)
		}
		sections = append(sections, s)
	}
	return sections, nil
}

// ExtractProbeRecords scans the object file at path for its probe-records
// section and aggregates it into providers and probes. A file with no
// probes returns a nil Aggregate and no error.
func ExtractProbeRecords(path string) (*record.Aggregate, error) {
	data, found, err := objscan.FindProbeRecordSectionInFile(path)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return record.ParseSection(data)
}

// RegisterProbes extracts the probe-records section from the running
// executable's own image, assembles it into a DOF section, and hands it to
// the kernel's DTrace helper device.
func RegisterProbes() error {
	path, err := os.Executable()
	if err != nil {
		return fmt.Errorf("usdt: locate current executable: %w", err)
	}

	agg, err := ExtractProbeRecords(path)
	if err != nil {
		return fmt.Errorf("usdt: extract probe records from %s: %w", path, err)
	}
	if agg == nil {
		return nil
	}

	section := dof.NewSection(aggregateToProviders(agg))
	if err := kernel.Register(section); err != nil {
		return fmt.Errorf("usdt: register probes from %s: %w", path, err)
	}
	return nil
}

// aggregateToProviders converts the record package's in-memory aggregation
// into the dof package's wire-oriented provider/probe types, dropping the
// argument-type strings: the DOF blob has no field for them, so they're
// kept on record.Probe for introspection but dropped at this point.
func aggregateToProviders(agg *record.Aggregate) []dof.Provider {
	providers := make([]dof.Provider, 0, len(agg.Providers))
	for _, prov := range agg.Providers {
		probes := make([]dof.Probe, 0, len(prov.Probes))
		for _, p := range prov.Probes {
			probes = append(probes, dof.Probe{
				Name:           p.Name,
				Function:       p.Function,
				Address:        p.Address,
				Offsets:        p.Offsets,
				EnabledOffsets: p.EnabledOffsets,
			})
		}
		providers = append(providers, dof.Provider{Name: prov.Name, Probes: probes})
	}
	return providers
}
