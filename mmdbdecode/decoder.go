// Package mmdbdecode implements the MaxMind DB data-section decoder: the
// self-describing, pointer-indirected, variable-length-size encoding
// described in spec §4.3, plus the schema materializer of spec §4.4 and
// the dynamic value fallback of spec §3/§4.4.
package mmdbdecode

import (
	"encoding/binary"
	"math"
	"math/big"
)

// maximumDataStructureDepth guards against cyclic or absurdly deep
// pointer/container chains in a corrupt database; it matches the value
// used by libmaxminddb.
const maximumDataStructureDepth = 512

// Decoder decodes values out of a data section: the region following the
// search tree and its 16-byte zero separator (spec §6.1). A Decoder does
// not own the buffer; it aliases it, so Decoder values are cheap to pass
// around and string/byte results alias the same storage (spec §9).
type Decoder struct {
	buffer []byte
}

// New wraps buffer, the data section's bytes, for decoding.
func New(buffer []byte) Decoder {
	return Decoder{buffer: buffer}
}

// Len reports the size of the underlying data section.
func (d Decoder) Len() int { return len(d.buffer) }

// decodeCtrlData reads the control byte (and, for extended types, the
// following type-extension byte) at offset and returns the resolved
// Kind, payload size, and the offset just past the control sequence.
func (d Decoder) decodeCtrlData(offset uint) (Kind, uint, uint, error) {
	if offset >= uint(len(d.buffer)) {
		return 0, 0, 0, errOffset()
	}
	ctrlByte := d.buffer[offset]
	newOffset := offset + 1

	kind := Kind(ctrlByte >> 5)
	if kind == KindExtended {
		if newOffset >= uint(len(d.buffer)) {
			return 0, 0, 0, errOffset()
		}
		ext := d.buffer[newOffset]
		if ext > 8 {
			return 0, 0, 0, UnsupportedFieldTypeError{Kind: Kind(int(ext) + 7)}
		}
		kind = Kind(int(ext) + 7)
		newOffset++
	}

	size, newOffset, err := d.sizeFromCtrlByte(ctrlByte, newOffset, kind)
	return kind, size, newOffset, err
}

// sizeFromCtrlByte decodes the control byte's low five bits into a
// payload size, applying the extension scheme of spec §4.3. For Pointer
// the low five bits are pointer metadata and must not be extended: they
// are returned raw, without reading extension bytes, for decodePointer
// to interpret.
func (d Decoder) sizeFromCtrlByte(ctrlByte byte, offset uint, kind Kind) (uint, uint, error) {
	size := uint(ctrlByte & 0x1f)
	if kind == KindExtended || kind == KindPointer {
		return size, offset, nil
	}

	if size < 29 {
		return size, offset, nil
	}

	switch size {
	case 29:
		if offset+1 > uint(len(d.buffer)) {
			return 0, 0, errOffset()
		}
		return 29 + uint(d.buffer[offset]), offset + 1, nil
	case 30:
		if offset+2 > uint(len(d.buffer)) {
			return 0, 0, errOffset()
		}
		return 285 + uint(uintFromBytes(0, d.buffer[offset:offset+2])), offset + 2, nil
	default: // 31
		if offset+3 > uint(len(d.buffer)) {
			return 0, 0, errOffset()
		}
		return 65821 + uint(uintFromBytes(0, d.buffer[offset:offset+3])), offset + 3, nil
	}
}

// decodePointer unpacks a pointer payload per spec §4.3: the two high
// bits of the control byte's low five bits select a size class in
// {1,2,3,4}; that many bytes follow, prefixed by the remaining low bits
// (or zero for the 4-byte class), then biased by a per-class offset.
// The result is an absolute offset into the data section.
func (d Decoder) decodePointer(sizeBits, offset uint) (pointer, newOffset uint, err error) {
	sizeClass := ((sizeBits >> 3) & 0x3) + 1
	newOffset = offset + sizeClass
	if newOffset > uint(len(d.buffer)) {
		return 0, 0, errOffset()
	}
	raw := d.buffer[offset:newOffset]

	var prefix uint
	if sizeClass != 4 {
		prefix = sizeBits & 0x7
	}
	unpacked := uintFromBytes(prefix, raw)

	var bias uint
	switch sizeClass {
	case 1:
		bias = 0
	case 2:
		bias = 2048
	case 3:
		bias = 526336
	case 4:
		bias = 0
	}
	return unpacked + bias, newOffset, nil
}

func uintFromBytes(prefix uint, b []byte) uint {
	val := prefix
	for _, c := range b {
		val = (val << 8) | uint(c)
	}
	return val
}

func (d Decoder) decodeBool(size uint) (bool, error) {
	if size > 1 {
		return false, InvalidBoolSizeError{Size: size}
	}
	return size != 0, nil
}

func (d Decoder) decodeBytesRaw(size, offset uint) ([]byte, uint, error) {
	end := offset + size
	if end > uint(len(d.buffer)) {
		return nil, 0, errOffset()
	}
	return d.buffer[offset:end], end, nil
}

func (d Decoder) decodeString(size, offset uint) (string, uint, error) {
	b, newOffset, err := d.decodeBytesRaw(size, offset)
	if err != nil {
		return "", 0, err
	}
	return string(b), newOffset, nil
}

func (d Decoder) decodeFloat64(size, offset uint) (float64, uint, error) {
	if size != 8 {
		return 0, 0, InvalidDoubleSizeError{Size: size}
	}
	b, newOffset, err := d.decodeBytesRaw(size, offset)
	if err != nil {
		return 0, 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), newOffset, nil
}

func (d Decoder) decodeFloat32(size, offset uint) (float32, uint, error) {
	if size != 4 {
		return 0, 0, InvalidFloatSizeError{Size: size}
	}
	b, newOffset, err := d.decodeBytesRaw(size, offset)
	if err != nil {
		return 0, 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), newOffset, nil
}

func (d Decoder) decodeUint(size, offset uint, maxBytes int) (uint64, uint, error) {
	if int(size) > maxBytes {
		return 0, 0, InvalidIntegerSizeError{Width: maxBytes * 8, Size: size}
	}
	b, newOffset, err := d.decodeBytesRaw(size, offset)
	if err != nil {
		return 0, 0, err
	}
	var val uint64
	for _, c := range b {
		val = (val << 8) | uint64(c)
	}
	return val, newOffset, nil
}

func (d Decoder) decodeInt32(size, offset uint) (int32, uint, error) {
	if size > 4 {
		return 0, 0, InvalidIntegerSizeError{Width: 32, Size: size}
	}
	b, newOffset, err := d.decodeBytesRaw(size, offset)
	if err != nil {
		return 0, 0, err
	}
	var val int32
	for _, c := range b {
		val = (val << 8) | int32(c)
	}
	return val, newOffset, nil
}

func (d Decoder) decodeUint128(size, offset uint) (*big.Int, uint, error) {
	if size > 16 {
		return nil, 0, InvalidIntegerSizeError{Width: 128, Size: size}
	}
	b, newOffset, err := d.decodeBytesRaw(size, offset)
	if err != nil {
		return nil, 0, err
	}
	v := new(big.Int).SetBytes(b)
	return v, newOffset, nil
}

// decodeKey decodes a map key at offset, following at most one pointer
// indirection, and returns a string aliasing the buffer (spec §4.3's
// zero-copy convention for strings).
func (d Decoder) decodeKey(offset uint) (string, uint, error) {
	kind, size, dataOffset, err := d.decodeCtrlData(offset)
	if err != nil {
		return "", 0, err
	}
	if kind == KindPointer {
		pointer, afterPointer, err := d.decodePointer(size, dataOffset)
		if err != nil {
			return "", 0, err
		}
		kind, size, dataOffset, err = d.decodeCtrlData(pointer)
		if err != nil {
			return "", 0, err
		}
		if kind != KindString {
			return "", 0, newInvalidDatabaseError("expected string key, found %v", kind)
		}
		key, _, err := d.decodeString(size, dataOffset)
		return key, afterPointer, err
	}
	if kind != KindString {
		return "", 0, newInvalidDatabaseError("expected string key, found %v", kind)
	}
	return d.decodeString(size, dataOffset)
}

// skipValue advances past the value at offset without materializing it,
// per spec §4.3: Bool consumes nothing beyond the control byte, Array
// recurses over size children, Map over 2*size children, other scalars
// over size bytes, and a pointer performs its own jump/skip/restore.
func (d Decoder) skipValue(offset uint) (uint, error) {
	kind, size, dataOffset, err := d.decodeCtrlData(offset)
	if err != nil {
		return 0, err
	}
	switch kind {
	case KindPointer:
		_, afterPointer, err := d.decodePointer(size, dataOffset)
		return afterPointer, err
	case KindMap:
		off := dataOffset
		for i := uint(0); i < 2*size; i++ {
			off, err = d.skipValue(off)
			if err != nil {
				return 0, err
			}
		}
		return off, nil
	case KindArray:
		off := dataOffset
		for i := uint(0); i < size; i++ {
			off, err = d.skipValue(off)
			if err != nil {
				return 0, err
			}
		}
		return off, nil
	case KindBool:
		return dataOffset, nil
	default:
		return dataOffset + size, nil
	}
}
