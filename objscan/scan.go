package objscan

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"io"
	"os"
	"strings"

	"github.com/tracewell/usdt/dof"
	"github.com/tracewell/usdt/errs"
)

// probeSectionName is the ELF section name a code generator's linker output
// carries the probe records in.
const probeSectionName = "set_dtrace_probes"

// machoProbeSectionPrefix is the Mach-O section name prefix for the same
// records, also matched inside the names of the bracketing symbols.
const machoProbeSectionPrefix = "__dtrace_probes"

const (
	elfStartSymbol = "__start_set_dtrace_probes"
	elfStopSymbol  = "__stop_set_dtrace_probes"
)

// FindProbeRecordSection locates the contiguous byte range holding probe
// records in the object image backing r.
//
// A false, nil error return means the program has no probes — the expected
// case, not a failure. A non-nil error means r is neither ELF nor Mach-O,
// or reading it failed.
func FindProbeRecordSection(r io.ReaderAt) ([]byte, bool, error) {
	if ef, err := elf.NewFile(r); err == nil {
		return findInELF(ef)
	}
	if mf, err := macho.NewFile(r); err == nil {
		return findInMachO(mf)
	}
	return nil, false, errs.ErrUnsupportedObjectFile
}

// FindProbeRecordSectionInFile opens path and scans it.
func FindProbeRecordSectionInFile(path string) ([]byte, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	return FindProbeRecordSection(f)
}

func findInELF(f *elf.File) ([]byte, bool, error) {
	if sec := f.Section(probeSectionName); sec != nil {
		data, err := sec.Data()
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	}

	syms, err := f.Symbols()
	if err != nil {
		// No symbol table at all (fully stripped): no probes reachable.
		return nil, false, nil
	}

	var start, stop *elf.Symbol
	for i := range syms {
		switch syms[i].Name {
		case elfStartSymbol:
			start = &syms[i]
		case elfStopSymbol:
			stop = &syms[i]
		}
	}
	if start == nil || stop == nil {
		return nil, false, nil
	}

	data, err := readRange(f, start.Value, stop.Value)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func findInMachO(f *macho.File) ([]byte, bool, error) {
	for _, sec := range f.Sections {
		if strings.HasPrefix(sec.Name, machoProbeSectionPrefix) {
			data, err := sec.Data()
			if err != nil {
				return nil, false, err
			}
			return data, true, nil
		}
	}

	if f.Symtab == nil {
		return nil, false, nil
	}

	var start, stop *macho.Symbol
	for i := range f.Symtab.Syms {
		sym := &f.Symtab.Syms[i]
		if !strings.Contains(sym.Name, machoProbeSectionPrefix) {
			continue
		}
		if start == nil {
			start = sym
		} else {
			stop = sym
		}
	}
	if start == nil || stop == nil {
		return nil, false, nil
	}

	lo, hi := start.Value, stop.Value
	if hi < lo {
		lo, hi = hi, lo
	}
	data, err := readMachORange(f, lo, hi)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// readRange reads [start, stop) out of the ELF image by finding the section
// whose address range contains start and offsetting into its already-read
// data: the bracketing symbols' values are addresses, not file offsets.
func readRange(f *elf.File, start, stop uint64) ([]byte, error) {
	for _, sec := range f.Sections {
		if start >= sec.Addr && start < sec.Addr+sec.Size {
			data, err := sec.Data()
			if err != nil {
				return nil, err
			}
			lo := start - sec.Addr
			hi := stop - sec.Addr
			if hi > uint64(len(data)) || hi < lo {
				return nil, errs.ErrParseError
			}
			return data[lo:hi], nil
		}
	}
	return nil, errs.ErrParseError
}

func readMachORange(f *macho.File, start, stop uint64) ([]byte, error) {
	for _, sec := range f.Sections {
		if start >= sec.Addr && start < sec.Addr+sec.Size {
			data, err := sec.Data()
			if err != nil {
				return nil, err
			}
			lo := start - sec.Addr
			hi := stop - sec.Addr
			if hi > uint64(len(data)) || hi < lo {
				return nil, errs.ErrParseError
			}
			return data[lo:hi], nil
		}
	}
	return nil, errs.ErrParseError
}

// FindDOFSections returns the raw bytes of every section in r whose payload
// begins with the DOF magic.
func FindDOFSections(r io.ReaderAt) ([][]byte, error) {
	if ef, err := elf.NewFile(r); err == nil {
		var out [][]byte
		for _, sec := range ef.Sections {
			data, err := sec.Data()
			if err != nil {
				continue
			}
			if isDOFSection(data) {
				out = append(out, data)
			}
		}
		return out, nil
	}

	if mf, err := macho.NewFile(r); err == nil {
		var out [][]byte
		for _, sec := range mf.Sections {
			data, err := sec.Data()
			if err != nil {
				continue
			}
			if isDOFSection(data) {
				out = append(out, data)
			}
		}
		return out, nil
	}

	return nil, errs.ErrUnsupportedObjectFile
}

// FindDOFSectionsInFile opens path and scans it for DOF sections.
func FindDOFSectionsInFile(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return FindDOFSections(f)
}

func isDOFSection(data []byte) bool {
	return len(data) >= len(dof.Magic) && bytes.Equal(data[:len(dof.Magic)], dof.Magic[:])
}
