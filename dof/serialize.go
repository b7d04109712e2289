package dof

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// stringTable accumulates NUL-terminated strings in first-occurrence
// insertion order, reusing the offset of a string already inserted. Offset 0
// is always the empty string, since the table's first byte is a NUL.
//
// Lookups are hash-assisted: xxhash keys a cache of already-inserted
// strings, with the cached offset verified by an exact byte comparison
// before reuse, so a hash collision degrades to a fresh insertion rather
// than corrupting the table.
type stringTable struct {
	buf     []byte
	offsets map[uint64][]tableEntry
}

type tableEntry struct {
	str    string
	offset uint32
}

func newStringTable() *stringTable {
	return &stringTable{
		buf:     []byte{0},
		offsets: make(map[uint64][]tableEntry),
	}
}

func (t *stringTable) insert(s string) uint32 {
	key := xxhash.Sum64String(s)
	for _, entry := range t.offsets[key] {
		if entry.str == s {
			return entry.offset
		}
	}

	offset := uint32(len(t.buf))
	t.buf = append(t.buf, s...)
	t.buf = append(t.buf, 0)
	t.offsets[key] = append(t.offsets[key], tableEntry{str: s, offset: offset})

	return offset
}

// sectionPayload is a built section awaiting a header: its type tag, raw
// bytes, and the alignment/entry-size pair the type implies.
type sectionPayload struct {
	typ     SectionType
	data    []byte
	align   uint32
	entSize uint32
}

// Serialize encodes the Section into its on-disk DOF byte representation.
// Serialization never fails: the in-memory model is always representable.
func (s Section) Serialize() []byte {
	strtab := newStringTable()

	var offsets, enabledOffsets []uint32
	var probeSections [][]byte
	providerRecords := make([][]byte, 0, len(s.Providers))

	for _, provider := range s.Providers {
		nameOff := strtab.insert(provider.Name)

		probeBuf := make([]byte, 0, len(provider.Probes)*probeRecordSize)
		for _, probe := range provider.Probes {
			nameOffset := strtab.insert(probe.Name)
			funcOffset := strtab.insert(probe.Function)

			offIdx := uint32(len(offsets))
			offsets = append(offsets, probe.Offsets...)

			enOffIdx := uint32(len(enabledOffsets))
			enabledOffsets = append(enabledOffsets, probe.EnabledOffsets...)

			rec := make([]byte, probeRecordSize)
			binary.LittleEndian.PutUint64(rec[0:8], probe.Address)
			binary.LittleEndian.PutUint32(rec[8:12], nameOffset)
			binary.LittleEndian.PutUint32(rec[12:16], funcOffset)
			binary.LittleEndian.PutUint32(rec[16:20], offIdx)
			binary.LittleEndian.PutUint32(rec[20:24], uint32(len(probe.Offsets)))
			binary.LittleEndian.PutUint32(rec[24:28], enOffIdx)
			binary.LittleEndian.PutUint32(rec[28:32], uint32(len(probe.EnabledOffsets)))
			// rec[32:40] reserved, left zero.

			probeBuf = append(probeBuf, rec...)
		}
		probeSections = append(probeSections, probeBuf)

		rec := make([]byte, providerRecordSize)
		binary.LittleEndian.PutUint32(rec[0:4], nameOff)
		// Section indices are filled in once the final section order is
		// known, below: STRTAB=0, PROFFS=1, PRENOFFS=2, then one PROBES per
		// provider, then one PROVIDER per provider.
		providerRecords = append(providerRecords, rec)
	}

	offsetBytes := make([]byte, 4*len(offsets))
	for i, off := range offsets {
		binary.LittleEndian.PutUint32(offsetBytes[i*4:i*4+4], off)
	}

	enabledOffsetBytes := make([]byte, 4*len(enabledOffsets))
	for i, off := range enabledOffsets {
		binary.LittleEndian.PutUint32(enabledOffsetBytes[i*4:i*4+4], off)
	}

	sections := make([]sectionPayload, 0, 3+2*len(s.Providers))
	sections = append(sections, sectionPayload{typ: SectionTypeStrtab, data: strtab.buf, align: strtabAlign, entSize: 1})
	sections = append(sections, sectionPayload{typ: SectionTypeProffs, data: offsetBytes, align: offsetAlign, entSize: 4})
	sections = append(sections, sectionPayload{typ: SectionTypePrenoffs, data: enabledOffsetBytes, align: offsetAlign, entSize: 4})
	for _, probeBuf := range probeSections {
		sections = append(sections, sectionPayload{typ: SectionTypeProbes, data: probeBuf, align: probesAlign, entSize: probeRecordSize})
	}
	for i, rec := range providerRecords {
		// PROVIDER entries reference PROBES entries by section index:
		// STRTAB=0, PROFFS=1, PRENOFFS=2, then PROBES sections start at
		// index 3.
		binary.LittleEndian.PutUint32(rec[4:8], 0)
		binary.LittleEndian.PutUint32(rec[8:12], 1)
		binary.LittleEndian.PutUint32(rec[12:16], 2)
		binary.LittleEndian.PutUint32(rec[16:20], uint32(3+i))
		sections = append(sections, sectionPayload{typ: SectionTypeProvider, data: rec, align: providerAlign, entSize: providerRecordSize})
	}

	return buildFile(s.Ident, sections)
}

// buildFile lays out the file header, section header table, and padded
// payloads.
func buildFile(ident Ident, sections []sectionPayload) []byte {
	headerTableSize := fileHeaderSize + len(sections)*sectionHeaderSize

	type builtHeader struct {
		offset uint64
		size   uint64
	}
	headers := make([]builtHeader, len(sections))

	offset := uint64(headerTableSize)
	payloads := make([][]byte, len(sections))
	for i, sec := range sections {
		if align := uint64(sec.align); align > 1 && offset%align != 0 {
			pad := align - offset%align
			if i > 0 {
				payloads[i-1] = append(payloads[i-1], make([]byte, pad)...)
			}
			offset += pad
		}
		headers[i] = builtHeader{offset: offset, size: uint64(len(sec.data))}
		payloads[i] = sec.data
		offset += uint64(len(sec.data))
	}

	totalSize := offset

	out := make([]byte, 0, totalSize)

	idBytes := ident.bytes()
	fileHeader := make([]byte, fileHeaderSize)
	copy(fileHeader[0:identSize], idBytes[:])
	binary.LittleEndian.PutUint32(fileHeader[16:20], 0) // flags
	binary.LittleEndian.PutUint32(fileHeader[20:24], fileHeaderSize)
	binary.LittleEndian.PutUint32(fileHeader[24:28], sectionHeaderSize)
	binary.LittleEndian.PutUint32(fileHeader[28:32], uint32(len(sections)))
	binary.LittleEndian.PutUint64(fileHeader[32:40], fileHeaderSize)
	binary.LittleEndian.PutUint64(fileHeader[40:48], totalSize)
	binary.LittleEndian.PutUint64(fileHeader[48:56], totalSize)
	// fileHeader[56:64] reserved, left zero.
	out = append(out, fileHeader...)

	for i, sec := range sections {
		hdr := make([]byte, sectionHeaderSize)
		binary.LittleEndian.PutUint32(hdr[0:4], uint32(sec.typ))
		binary.LittleEndian.PutUint32(hdr[4:8], sec.align)
		binary.LittleEndian.PutUint32(hdr[8:12], SectionFlagLoad)
		binary.LittleEndian.PutUint32(hdr[12:16], sec.entSize)
		binary.LittleEndian.PutUint64(hdr[16:24], headers[i].offset)
		binary.LittleEndian.PutUint64(hdr[24:32], headers[i].size)
		out = append(out, hdr...)
	}

	for _, payload := range payloads {
		out = append(out, payload...)
	}

	return out
}
