package dof

import (
	"encoding/binary"

	"github.com/tracewell/usdt/errs"
)

// RawSectionHeader is a deserialized DOF section header table entry, before
// any type-specific interpretation of its payload.
type RawSectionHeader struct {
	Type    SectionType
	Align   uint32
	Flags   uint32
	EntSize uint32
	Offset  uint64
	Size    uint64
}

// RawHeaders is the file header plus its section header table, the
// lowest-level view of a DOF blob, kept beneath the structural
// DeserializeSection for tooling and tests.
type RawHeaders struct {
	Ident    Ident
	Sections []RawSectionHeader
}

// ParseRawHeaders reads and bounds-checks the file header and section header
// table from buf, without interpreting any payload.
func ParseRawHeaders(buf []byte) (RawHeaders, error) {
	if len(buf) < fileHeaderSize {
		return RawHeaders{}, errs.ErrParseError
	}

	ident, err := parseIdent(buf[:identSize])
	if err != nil {
		return RawHeaders{}, err
	}

	secSize := binary.LittleEndian.Uint32(buf[24:28])
	secNum := binary.LittleEndian.Uint32(buf[28:32])
	secOff := binary.LittleEndian.Uint64(buf[32:40])

	if secSize != sectionHeaderSize {
		return RawHeaders{}, errs.ErrParseError
	}

	tableEnd := secOff + uint64(secSize)*uint64(secNum)
	if secOff > uint64(len(buf)) || tableEnd > uint64(len(buf)) || tableEnd < secOff {
		return RawHeaders{}, errs.ErrParseError
	}

	sections := make([]RawSectionHeader, secNum)
	for i := range sections {
		start := secOff + uint64(i)*uint64(secSize)
		entry := buf[start : start+uint64(secSize)]

		hdr := RawSectionHeader{
			Type:    SectionType(binary.LittleEndian.Uint32(entry[0:4])),
			Align:   binary.LittleEndian.Uint32(entry[4:8]),
			Flags:   binary.LittleEndian.Uint32(entry[8:12]),
			EntSize: binary.LittleEndian.Uint32(entry[12:16]),
			Offset:  binary.LittleEndian.Uint64(entry[16:24]),
			Size:    binary.LittleEndian.Uint64(entry[24:32]),
		}

		end := hdr.Offset + hdr.Size
		if hdr.Offset > uint64(len(buf)) || end > uint64(len(buf)) || end < hdr.Offset {
			return RawHeaders{}, errs.ErrParseError
		}
		if hdr.Align > 0 && hdr.Offset%uint64(hdr.Align) != 0 {
			return RawHeaders{}, errs.ErrParseError
		}

		sections[i] = hdr
	}

	return RawHeaders{Ident: ident, Sections: sections}, nil
}

// sectionBytes returns the payload bytes for the raw section header at index.
func sectionBytes(buf []byte, headers []RawSectionHeader, index uint32) ([]byte, error) {
	if int(index) >= len(headers) {
		return nil, errs.ErrParseError
	}
	h := headers[index]
	return buf[h.Offset : h.Offset+h.Size], nil
}

func extractCString(buf []byte, offset uint32) (string, error) {
	if int(offset) > len(buf) {
		return "", errs.ErrParseError
	}
	rest := buf[offset:]
	for i, b := range rest {
		if b == 0 {
			return string(rest[:i]), nil
		}
	}
	return "", errs.ErrParseError
}

func readOffsets(buf []byte, index, count uint32) ([]uint32, error) {
	start := uint64(index) * 4
	end := start + uint64(count)*4
	if end > uint64(len(buf)) || end < start {
		return nil, errs.ErrParseError
	}
	if count == 0 {
		return nil, nil
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(buf[start+uint64(i)*4 : start+uint64(i)*4+4])
	}
	return out, nil
}

// DeserializeSection decodes a Section from a complete DOF byte buffer,
// inverting Serialize.
func DeserializeSection(buf []byte) (Section, error) {
	raw, err := ParseRawHeaders(buf)
	if err != nil {
		return Section{}, err
	}

	var providers []Provider
	for _, hdr := range raw.Sections {
		if hdr.Type != SectionTypeProvider {
			continue
		}

		provBuf, err := sliceFor(buf, hdr)
		if err != nil {
			return Section{}, err
		}
		if len(provBuf) != providerRecordSize {
			return Section{}, errs.ErrParseError
		}

		nameOff := binary.LittleEndian.Uint32(provBuf[0:4])
		strtabIdx := binary.LittleEndian.Uint32(provBuf[4:8])
		proffsIdx := binary.LittleEndian.Uint32(provBuf[8:12])
		prenoffsIdx := binary.LittleEndian.Uint32(provBuf[12:16])
		probesIdx := binary.LittleEndian.Uint32(provBuf[16:20])

		strtab, err := sectionBytes(buf, raw.Sections, strtabIdx)
		if err != nil {
			return Section{}, err
		}
		proffs, err := sectionBytes(buf, raw.Sections, proffsIdx)
		if err != nil {
			return Section{}, err
		}
		prenoffs, err := sectionBytes(buf, raw.Sections, prenoffsIdx)
		if err != nil {
			return Section{}, err
		}
		probesBuf, err := sectionBytes(buf, raw.Sections, probesIdx)
		if err != nil {
			return Section{}, err
		}

		name, err := extractCString(strtab, nameOff)
		if err != nil {
			return Section{}, err
		}

		if len(probesBuf)%probeRecordSize != 0 {
			return Section{}, errs.ErrParseError
		}

		var probes []Probe
		for off := 0; off < len(probesBuf); off += probeRecordSize {
			rec := probesBuf[off : off+probeRecordSize]

			address := binary.LittleEndian.Uint64(rec[0:8])
			probeNameOff := binary.LittleEndian.Uint32(rec[8:12])
			funcOff := binary.LittleEndian.Uint32(rec[12:16])
			offIdx := binary.LittleEndian.Uint32(rec[16:20])
			nOffs := binary.LittleEndian.Uint32(rec[20:24])
			enOffIdx := binary.LittleEndian.Uint32(rec[24:28])
			nEnOffs := binary.LittleEndian.Uint32(rec[28:32])

			probeName, err := extractCString(strtab, probeNameOff)
			if err != nil {
				return Section{}, err
			}
			funcName, err := extractCString(strtab, funcOff)
			if err != nil {
				return Section{}, err
			}
			offs, err := readOffsets(proffs, offIdx, nOffs)
			if err != nil {
				return Section{}, err
			}
			enOffs, err := readOffsets(prenoffs, enOffIdx, nEnOffs)
			if err != nil {
				return Section{}, err
			}

			probes = append(probes, Probe{
				Name:           probeName,
				Function:       funcName,
				Address:        address,
				Offsets:        offs,
				EnabledOffsets: enOffs,
			})
		}

		providers = append(providers, Provider{Name: name, Probes: probes})
	}

	return Section{Ident: raw.Ident, Providers: providers}, nil
}

func sliceFor(buf []byte, hdr RawSectionHeader) ([]byte, error) {
	if hdr.Offset+hdr.Size > uint64(len(buf)) {
		return nil, errs.ErrParseError
	}
	return buf[hdr.Offset : hdr.Offset+hdr.Size], nil
}
