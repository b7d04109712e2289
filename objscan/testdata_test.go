package objscan

import "encoding/binary"

// buildELF64 assembles a minimal, valid ET_REL little-endian ELF64 object
// with a section header string table and, optionally, one extra named
// section carrying payload. It exists only to give the scanner's tests a
// real debug/elf-parseable input without depending on an external object
// file.
func buildELF64(sectionName string, payload []byte) []byte {
	const ehdrSize = 64
	const shdrSize = 64

	shstrtab := []byte{0}
	nullOff := uint32(len(shstrtab))
	shstrtab = append(shstrtab, ".shstrtab\x00"...)
	shstrtabNameOff := nullOff

	var sectionNameOff uint32
	if sectionName != "" {
		sectionNameOff = uint32(len(shstrtab))
		shstrtab = append(shstrtab, sectionName...)
		shstrtab = append(shstrtab, 0)
	}

	type sec struct {
		nameOff uint32
		typ     uint32
		data    []byte
	}

	secs := []sec{
		{nameOff: 0, typ: 0, data: nil}, // SHN_UNDEF
	}
	if sectionName != "" {
		secs = append(secs, sec{nameOff: sectionNameOff, typ: 1 /* SHT_PROGBITS */, data: payload})
	}
	secs = append(secs, sec{nameOff: shstrtabNameOff, typ: 3 /* SHT_STRTAB */, data: shstrtab})
	shstrndx := len(secs) - 1

	headerAndData := ehdrSize
	offsets := make([]int, len(secs))
	sizes := make([]int, len(secs))
	buf := make([]byte, headerAndData)
	for i, s := range secs {
		offsets[i] = len(buf)
		sizes[i] = len(s.data)
		buf = append(buf, s.data...)
	}

	shoff := len(buf)
	for i, s := range secs {
		shdr := make([]byte, shdrSize)
		binary.LittleEndian.PutUint32(shdr[0:4], s.nameOff)
		binary.LittleEndian.PutUint32(shdr[4:8], s.typ)
		// sh_flags, sh_addr left zero
		binary.LittleEndian.PutUint64(shdr[24:32], uint64(offsets[i]))
		binary.LittleEndian.PutUint64(shdr[32:40], uint64(sizes[i]))
		binary.LittleEndian.PutUint32(shdr[40:44], 0) // sh_link
		binary.LittleEndian.PutUint32(shdr[44:48], 0) // sh_info
		binary.LittleEndian.PutUint64(shdr[48:56], 1) // sh_addralign
		binary.LittleEndian.PutUint64(shdr[56:64], 0) // sh_entsize
		buf = append(buf, shdr...)
	}

	ehdr := make([]byte, ehdrSize)
	copy(ehdr[0:4], []byte{0x7F, 'E', 'L', 'F'})
	ehdr[4] = 2                                    // ELFCLASS64
	ehdr[5] = 1                                    // ELFDATA2LSB
	ehdr[6] = 1                                    // EV_CURRENT
	binary.LittleEndian.PutUint16(ehdr[16:18], 1)  // e_type = ET_REL
	binary.LittleEndian.PutUint16(ehdr[18:20], 62) // e_machine = EM_X86_64
	binary.LittleEndian.PutUint32(ehdr[20:24], 1)  // e_version
	binary.LittleEndian.PutUint64(ehdr[40:48], uint64(shoff))
	binary.LittleEndian.PutUint16(ehdr[52:54], ehdrSize) // e_ehsize
	binary.LittleEndian.PutUint16(ehdr[58:60], shdrSize) // e_shentsize
	binary.LittleEndian.PutUint16(ehdr[60:62], uint16(len(secs)))
	binary.LittleEndian.PutUint16(ehdr[62:64], uint16(shstrndx))

	copy(buf[0:ehdrSize], ehdr)

	return buf
}

// buildELF64WithBracketSymbols assembles a stripped-looking ET_REL ELF64
// object with no named probe section, only a symbol table carrying the
// __start_set_dtrace_probes/__stop_set_dtrace_probes pair bracketing payload
// placed in a loaded data section.
func buildELF64WithBracketSymbols(payload []byte) []byte {
	const ehdrSize = 64
	const shdrSize = 64
	const symSize = 24
	const dataAddr = 0x1000

	strtab := []byte{0}
	startOff := uint32(len(strtab))
	strtab = append(strtab, "__start_set_dtrace_probes\x00"...)
	stopOff := uint32(len(strtab))
	strtab = append(strtab, "__stop_set_dtrace_probes\x00"...)

	symtab := make([]byte, symSize) // symbol 0: reserved null entry
	appendSym := func(nameOff uint32, shndx uint16, value uint64) {
		sym := make([]byte, symSize)
		binary.LittleEndian.PutUint32(sym[0:4], nameOff)
		sym[4] = 0 // st_info
		sym[5] = 0 // st_other
		binary.LittleEndian.PutUint16(sym[6:8], shndx)
		binary.LittleEndian.PutUint64(sym[8:16], value)
		symtab = append(symtab, sym...)
	}
	appendSym(startOff, 1, dataAddr)
	appendSym(stopOff, 1, dataAddr+uint64(len(payload)))

	shstrtab := []byte{0}
	dataNameOff := uint32(len(shstrtab))
	shstrtab = append(shstrtab, ".data\x00"...)
	symtabNameOff := uint32(len(shstrtab))
	shstrtab = append(shstrtab, ".symtab\x00"...)
	strtabNameOff := uint32(len(shstrtab))
	shstrtab = append(shstrtab, ".strtab\x00"...)
	shstrtabNameOff := uint32(len(shstrtab))
	shstrtab = append(shstrtab, ".shstrtab\x00"...)

	type sec struct {
		nameOff uint32
		typ     uint32
		flags   uint64
		addr    uint64
		data    []byte
		link    uint32
		entsize uint64
	}
	secs := []sec{
		{0, 0, 0, 0, nil, 0, 0},                                            // SHN_UNDEF
		{dataNameOff, 1 /* SHT_PROGBITS */, 0x2 /* SHF_ALLOC */, dataAddr, payload, 0, 0},
		{symtabNameOff, 2 /* SHT_SYMTAB */, 0, 0, symtab, 3, symSize},
		{strtabNameOff, 3 /* SHT_STRTAB */, 0, 0, strtab, 0, 0},
		{shstrtabNameOff, 3 /* SHT_STRTAB */, 0, 0, shstrtab, 0, 0},
	}
	shstrndx := len(secs) - 1

	buf := make([]byte, ehdrSize)
	offsets := make([]int, len(secs))
	sizes := make([]int, len(secs))
	for i, s := range secs {
		offsets[i] = len(buf)
		sizes[i] = len(s.data)
		buf = append(buf, s.data...)
	}

	shoff := len(buf)
	for i, s := range secs {
		shdr := make([]byte, shdrSize)
		binary.LittleEndian.PutUint32(shdr[0:4], s.nameOff)
		binary.LittleEndian.PutUint32(shdr[4:8], s.typ)
		binary.LittleEndian.PutUint64(shdr[8:16], s.flags)
		binary.LittleEndian.PutUint64(shdr[16:24], s.addr)
		binary.LittleEndian.PutUint64(shdr[24:32], uint64(offsets[i]))
		binary.LittleEndian.PutUint64(shdr[32:40], uint64(sizes[i]))
		binary.LittleEndian.PutUint32(shdr[40:44], s.link)
		binary.LittleEndian.PutUint32(shdr[44:48], 0) // sh_info
		binary.LittleEndian.PutUint64(shdr[48:56], 1)
		binary.LittleEndian.PutUint64(shdr[56:64], s.entsize)
		buf = append(buf, shdr...)
	}

	ehdr := make([]byte, ehdrSize)
	copy(ehdr[0:4], []byte{0x7F, 'E', 'L', 'F'})
	ehdr[4] = 2
	ehdr[5] = 1
	ehdr[6] = 1
	binary.LittleEndian.PutUint16(ehdr[16:18], 1)
	binary.LittleEndian.PutUint16(ehdr[18:20], 62)
	binary.LittleEndian.PutUint32(ehdr[20:24], 1)
	binary.LittleEndian.PutUint64(ehdr[40:48], uint64(shoff))
	binary.LittleEndian.PutUint16(ehdr[52:54], ehdrSize)
	binary.LittleEndian.PutUint16(ehdr[58:60], shdrSize)
	binary.LittleEndian.PutUint16(ehdr[60:62], uint16(len(secs)))
	binary.LittleEndian.PutUint16(ehdr[62:64], uint16(shstrndx))
	copy(buf[0:ehdrSize], ehdr)

	return buf
}

// machO64Section describes one section to embed in a hand-built Mach-O
// object: its name, the segment it belongs to, and its payload.
type machO64Section struct {
	name    string
	segname string
	addr    uint64
	data    []byte
}

// buildMachO64 assembles a minimal 64-bit Mach-O object file with a single
// unnamed segment command holding the given sections, and, if syms is
// non-empty, a trailing symbol table referencing them by name and value.
func buildMachO64(sections []machO64Section, syms map[string]uint64) []byte {
	const headerSize = 32
	const segCmdSize = 72
	const sectSize = 80
	const symtabCmdSize = 24
	const nlistSize = 16

	fixedName := func(s string, n int) []byte {
		b := make([]byte, n)
		copy(b, s)
		return b
	}

	segCmdSizeTotal := segCmdSize + sectSize*len(sections)
	ncmds := 1
	sizeofcmds := segCmdSizeTotal
	if len(syms) > 0 {
		ncmds++
		sizeofcmds += symtabCmdSize
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], 0xfeedfacf) // MH_MAGIC_64
	binary.LittleEndian.PutUint32(header[4:8], 0x01000007)  // CPU_TYPE_X86_64
	binary.LittleEndian.PutUint32(header[8:12], 3)          // CPU_SUBTYPE_X86_64_ALL
	binary.LittleEndian.PutUint32(header[12:16], 1)         // MH_OBJECT
	binary.LittleEndian.PutUint32(header[16:20], uint32(ncmds))
	binary.LittleEndian.PutUint32(header[20:24], uint32(sizeofcmds))

	segCmd := make([]byte, segCmdSize)
	binary.LittleEndian.PutUint32(segCmd[0:4], 0x19) // LC_SEGMENT_64
	binary.LittleEndian.PutUint32(segCmd[4:8], uint32(segCmdSizeTotal))
	copy(segCmd[8:24], fixedName("", 16))
	binary.LittleEndian.PutUint32(segCmd[64:68], uint32(len(sections)))

	bodyOffset := headerSize + sizeofcmds
	var payload []byte
	sectHdrs := make([][]byte, len(sections))
	for i, s := range sections {
		fileOff := bodyOffset + len(payload)
		hdr := make([]byte, sectSize)
		copy(hdr[0:16], fixedName(s.name, 16))
		copy(hdr[16:32], fixedName(s.segname, 16))
		binary.LittleEndian.PutUint64(hdr[32:40], s.addr)
		binary.LittleEndian.PutUint64(hdr[40:48], uint64(len(s.data)))
		binary.LittleEndian.PutUint32(hdr[48:52], uint32(fileOff))
		sectHdrs[i] = hdr
		payload = append(payload, s.data...)
	}

	var symtabCmd []byte
	var symtabBody []byte
	if len(syms) > 0 {
		strtab := []byte{0}
		type symEntry struct {
			nameOff uint32
			value   uint64
		}
		var entries []symEntry
		for name, value := range syms {
			entries = append(entries, symEntry{nameOff: uint32(len(strtab)), value: value})
			strtab = append(strtab, name...)
			strtab = append(strtab, 0)
		}

		symoff := bodyOffset + len(payload)
		for _, e := range entries {
			nl := make([]byte, nlistSize)
			binary.LittleEndian.PutUint32(nl[0:4], e.nameOff)
			nl[4] = 0xf // n_type: N_SECT-ish, non-stab
			nl[5] = 1   // n_sect
			binary.LittleEndian.PutUint64(nl[8:16], e.value)
			symtabBody = append(symtabBody, nl...)
		}
		stroff := symoff + len(symtabBody)

		symtabCmd = make([]byte, symtabCmdSize)
		binary.LittleEndian.PutUint32(symtabCmd[0:4], 0x2) // LC_SYMTAB
		binary.LittleEndian.PutUint32(symtabCmd[4:8], symtabCmdSize)
		binary.LittleEndian.PutUint32(symtabCmd[8:12], uint32(symoff))
		binary.LittleEndian.PutUint32(symtabCmd[12:16], uint32(len(entries)))
		binary.LittleEndian.PutUint32(symtabCmd[16:20], uint32(stroff))
		binary.LittleEndian.PutUint32(symtabCmd[20:24], uint32(len(strtab)))

		symtabBody = append(symtabBody, strtab...)
	}

	out := make([]byte, 0, bodyOffset+len(payload)+len(symtabBody))
	out = append(out, header...)
	out = append(out, segCmd...)
	for _, hdr := range sectHdrs {
		out = append(out, hdr...)
	}
	if symtabCmd != nil {
		out = append(out, symtabCmd...)
	}
	out = append(out, payload...)
	out = append(out, symtabBody...)

	return out
}
