package record

import (
	"encoding/binary"

	"github.com/tracewell/usdt/errs"
)

// headerSize is the fixed prefix before the variable-length name/argument
// strings: length(4) + version(1) + argcount(1) + flags(2) + address(8).
const headerSize = 16

// FlagIsEnabled marks a record as an is-enabled call site rather than a
// normal probe-firing site.
const FlagIsEnabled uint16 = 1 << 0

// Record is the decoded form of a single probe-record wire entry. One
// Record is planted per call site: a normal probe fire gets one, its
// paired is-enabled check gets another with FlagIsEnabled set.
type Record struct {
	Version   uint8
	IsEnabled bool
	Address   uint64
	Provider  string
	Probe     string
	Arguments []string
}

// Encode serializes r into the fixed record layout a code generator plants
// in the probe-records linker section. It never errors: callers are expected
// to pass well-formed values (at most callsite.MaxProbeArgs arguments).
func (r Record) Encode() []byte {
	var flags uint16
	if r.IsEnabled {
		flags |= FlagIsEnabled
	}

	body := make([]byte, 0, headerSize+len(r.Provider)+len(r.Probe)+2+8*len(r.Arguments))
	body = append(body, r.Provider...)
	body = append(body, 0)
	body = append(body, r.Probe...)
	body = append(body, 0)
	for _, arg := range r.Arguments {
		body = append(body, arg...)
		body = append(body, 0)
	}

	total := headerSize + len(body)
	out := make([]byte, total)
	binary.NativeEndian.PutUint32(out[0:4], uint32(total))
	out[4] = r.Version
	out[5] = uint8(len(r.Arguments))
	binary.NativeEndian.PutUint16(out[6:8], flags)
	binary.NativeEndian.PutUint64(out[8:16], r.Address)
	copy(out[headerSize:], body)
	return out
}

// decodeOne parses a single record starting at buf[0] and returns it along
// with the number of bytes it consumed. It returns errs.ErrInvalidFile if
// the declared length is shorter than the fixed header, or overflows buf.
func decodeOne(buf []byte) (Record, int, error) {
	if len(buf) < headerSize {
		return Record{}, 0, errs.ErrInvalidFile
	}

	total := binary.NativeEndian.Uint32(buf[0:4])
	if total < headerSize || int(total) > len(buf) {
		return Record{}, 0, errs.ErrInvalidFile
	}

	rec := Record{
		Version: buf[4],
		Address: binary.NativeEndian.Uint64(buf[8:16]),
	}
	flags := binary.NativeEndian.Uint16(buf[6:8])
	rec.IsEnabled = flags&FlagIsEnabled != 0
	argCount := int(buf[5])

	cursor := buf[headerSize:total]

	provider, rest, err := readCString(cursor)
	if err != nil {
		return Record{}, 0, err
	}
	rec.Provider = provider

	probe, rest, err := readCString(rest)
	if err != nil {
		return Record{}, 0, err
	}
	rec.Probe = probe
	cursor = rest

	rec.Arguments = make([]string, 0, argCount)
	for i := 0; i < argCount; i++ {
		arg, next, err := readCString(cursor)
		if err != nil {
			return Record{}, 0, err
		}
		rec.Arguments = append(rec.Arguments, arg)
		cursor = next
	}

	return rec, int(total), nil
}

// readCString splits buf at the first NUL byte, returning the string before
// it and the remainder after it.
func readCString(buf []byte) (string, []byte, error) {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), buf[i+1:], nil
		}
	}
	return "", nil, errs.ErrInvalidFile
}
