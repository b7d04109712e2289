package dof

import (
	"unsafe"

	"github.com/tracewell/usdt/endian"
	"github.com/tracewell/usdt/errs"
)

// Ident is the 16-byte header prefix identifying a DOF blob.
type Ident struct {
	Magic    [4]byte
	Model    DataModel
	Encoding DataEncoding
	Version  uint8
}

// HostIdent returns the Ident this host produces: the real DOF magic, the
// host's pointer width, host byte order, and format version 1.
func HostIdent() Ident {
	model := DataModelLP64
	if unsafe.Sizeof(uintptr(0)) == 4 {
		model = DataModelILP32
	}

	encoding := DataEncodingLittleEndian
	if !endian.IsHostLittleEndian() {
		encoding = DataEncodingBigEndian
	}

	return Ident{
		Magic:    Magic,
		Model:    model,
		Encoding: encoding,
		Version:  1,
	}
}

// bytes serializes the Ident into its fixed 16-byte on-disk form. Bytes
// beyond the magic/model/encoding/version are reserved and zero.
func (id Ident) bytes() [identSize]byte {
	var out [identSize]byte
	copy(out[:4], id.Magic[:])
	out[4] = byte(id.Model)
	out[5] = byte(id.Encoding)
	out[6] = id.Version
	return out
}

// parseIdent validates and decodes an Ident from the first identSize bytes
// of buf.
func parseIdent(buf []byte) (Ident, error) {
	if len(buf) < identSize {
		return Ident{}, errs.ErrParseError
	}

	var id Ident
	copy(id.Magic[:], buf[:4])
	if id.Magic != Magic {
		return Ident{}, errs.ErrInvalidIdentifier
	}

	id.Model = DataModel(buf[4])
	id.Encoding = DataEncoding(buf[5])
	id.Version = buf[6]

	if !id.Model.valid() || !id.Encoding.valid() {
		return Ident{}, errs.ErrInvalidIdentifier
	}

	return id, nil
}

// Probe holds everything known about a single DTrace probe: its name, the
// enclosing function, where it lives in the image, and the call-site offsets
// where it and its is-enabled sibling fire.
type Probe struct {
	// Name is the probe's name, e.g. "start".
	Name string
	// Function is the symbol of the enclosing function, or "?0x<addr>" if
	// no symbol could be resolved.
	Function string
	// Address is the absolute base address of this probe: the address of
	// the first record seen for it.
	Address uint64
	// Offsets are normal probe call-site offsets, relative to Address, sorted.
	Offsets []uint32
	// EnabledOffsets are is-enabled call-site offsets, relative to Address, sorted.
	EnabledOffsets []uint32
}

// Provider is a named, ordered collection of Probes. Provider names are
// unique within a Section.
type Provider struct {
	Name   string
	Probes []Probe
}

// Section is a complete, top-level DOF container.
type Section struct {
	Ident     Ident
	Providers []Provider
}

// NewSection builds a Section with the host's native Ident and the given
// providers, the way usdt.RegisterProbes does before the kernel handoff.
func NewSection(providers []Provider) Section {
	return Section{Ident: HostIdent(), Providers: providers}
}
