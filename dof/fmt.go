package dof

import (
	"fmt"
	"strings"
)

// String renders a human-readable summary of the section: its identifier
// followed by each provider and probe, for diagnostics and tests.
func (s Section) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "DOF section: model=%s encoding=%s version=%d\n", s.Ident.Model, s.Ident.Encoding, s.Ident.Version)
	for _, p := range s.Providers {
		fmt.Fprintf(&b, "  provider %q (%d probes)\n", p.Name, len(p.Probes))
		for _, probe := range p.Probes {
			fmt.Fprintf(&b, "    probe %q in %q base=%#x offsets=%v enabled_offsets=%v\n",
				probe.Name, probe.Function, probe.Address, probe.Offsets, probe.EnabledOffsets)
		}
	}
	return b.String()
}

// String renders a human-readable summary of a raw section header.
func (h RawSectionHeader) String() string {
	return fmt.Sprintf("DOF section: type=%s align=%d flags=%#x entsize=%d offset=%d size=%d",
		h.Type, h.Align, h.Flags, h.EntSize, h.Offset, h.Size)
}
