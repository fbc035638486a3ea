package mmdbdecode

import "math/big"

// Raw decodes a single value at a known offset without materializing an
// entire record, grounded on the teacher's decoder_raw.go single-value
// Decoder: useful when a caller only wants one field (e.g. a path probe)
// and wants to avoid building the full Map<V>/Array<T> tree around it.
type Raw struct {
	d      Decoder
	offset uint
}

// NewRaw returns a Raw decoder positioned at offset.
func (d Decoder) NewRaw(offset uint) *Raw {
	return &Raw{d: d, offset: offset}
}

// Offset returns the data-section offset this Raw is positioned at,
// suitable for a subsequent Decoder.Decode call (e.g. Result.DecodePath).
func (r *Raw) Offset() uint {
	return r.offset
}

func (r *Raw) followPointers() (Kind, uint, uint, error) {
	offset := r.offset
	for {
		kind, size, dataOffset, err := r.d.decodeCtrlData(offset)
		if err != nil {
			return 0, 0, 0, err
		}
		if kind != KindPointer {
			return kind, size, dataOffset, nil
		}
		pointer, _, err := r.d.decodePointer(size, dataOffset)
		if err != nil {
			return 0, 0, 0, err
		}
		offset = pointer
	}
}

// Bool decodes the value as a bool.
func (r *Raw) Bool() (bool, error) {
	kind, size, _, err := r.followPointers()
	if err != nil {
		return false, err
	}
	if kind != KindBool {
		return false, expectedErr("bool", kind, "")
	}
	return r.d.decodeBool(size)
}

// String decodes the value as a string.
func (r *Raw) String() (string, error) {
	kind, size, dataOffset, err := r.followPointers()
	if err != nil {
		return "", err
	}
	if kind != KindString {
		return "", expectedErr("string", kind, "")
	}
	v, _, err := r.d.decodeString(size, dataOffset)
	return v, err
}

// Bytes decodes the value as a byte slice aliasing the mapped buffer.
func (r *Raw) Bytes() ([]byte, error) {
	kind, size, dataOffset, err := r.followPointers()
	if err != nil {
		return nil, err
	}
	if kind != KindBytes {
		return nil, expectedErr("bytes", kind, "")
	}
	v, _, err := r.d.decodeBytesRaw(size, dataOffset)
	return v, err
}

// Float64 decodes the value as a double.
func (r *Raw) Float64() (float64, error) {
	kind, size, dataOffset, err := r.followPointers()
	if err != nil {
		return 0, err
	}
	if kind != KindFloat64 {
		return 0, expectedErr("double", kind, "")
	}
	v, _, err := r.d.decodeFloat64(size, dataOffset)
	return v, err
}

// Float32 decodes the value as a float.
func (r *Raw) Float32() (float32, error) {
	kind, size, dataOffset, err := r.followPointers()
	if err != nil {
		return 0, err
	}
	if kind != KindFloat32 {
		return 0, expectedErr("float", kind, "")
	}
	v, _, err := r.d.decodeFloat32(size, dataOffset)
	return v, err
}

// Uint16 decodes the value as a uint16.
func (r *Raw) Uint16() (uint16, error) {
	kind, size, dataOffset, err := r.followPointers()
	if err != nil {
		return 0, err
	}
	if kind != KindUint16 {
		return 0, expectedErr("uint16", kind, "")
	}
	v, _, err := r.d.decodeUint(size, dataOffset, 2)
	return uint16(v), err
}

// Uint32 decodes the value as a uint32.
func (r *Raw) Uint32() (uint32, error) {
	kind, size, dataOffset, err := r.followPointers()
	if err != nil {
		return 0, err
	}
	if kind != KindUint32 {
		return 0, expectedErr("uint32", kind, "")
	}
	v, _, err := r.d.decodeUint(size, dataOffset, 4)
	return uint32(v), err
}

// Int32 decodes the value as an int32.
func (r *Raw) Int32() (int32, error) {
	kind, size, dataOffset, err := r.followPointers()
	if err != nil {
		return 0, err
	}
	if kind != KindInt32 {
		return 0, expectedErr("int32", kind, "")
	}
	v, _, err := r.d.decodeInt32(size, dataOffset)
	return v, err
}

// Uint64 decodes the value as a uint64.
func (r *Raw) Uint64() (uint64, error) {
	kind, size, dataOffset, err := r.followPointers()
	if err != nil {
		return 0, err
	}
	if kind != KindUint64 {
		return 0, expectedErr("uint64", kind, "")
	}
	v, _, err := r.d.decodeUint(size, dataOffset, 8)
	return v, err
}

// Uint128 decodes the value as a uint128.
func (r *Raw) Uint128() (*big.Int, error) {
	kind, size, dataOffset, err := r.followPointers()
	if err != nil {
		return nil, err
	}
	if kind != KindUint128 {
		return nil, expectedErr("uint128", kind, "")
	}
	v, _, err := r.d.decodeUint128(size, dataOffset)
	return v, err
}

// Field looks up key within the Map at this Raw's offset and returns a
// Raw positioned at its value, without materializing the rest of the map.
func (r *Raw) Field(key string) (*Raw, bool, error) {
	kind, size, dataOffset, err := r.followPointers()
	if err != nil {
		return nil, false, err
	}
	if kind != KindMap {
		return nil, false, ExpectedStructTypeError{Actual: kind}
	}
	cur := dataOffset
	for i := uint(0); i < size; i++ {
		k, afterKey, err := r.d.decodeKey(cur)
		if err != nil {
			return nil, false, err
		}
		if k == key {
			return r.d.NewRaw(afterKey), true, nil
		}
		afterValue, err := r.d.skipValue(afterKey)
		if err != nil {
			return nil, false, err
		}
		cur = afterValue
	}
	return nil, false, nil
}

// Path walks a sequence of map-key/array-index path elements starting
// from this Raw's offset, grounded on the teacher's Result.DecodePath.
func (r *Raw) Path(path ...any) (*Raw, bool, error) {
	cur := r
	for _, elem := range path {
		switch e := elem.(type) {
		case string:
			next, ok, err := cur.Field(e)
			if err != nil || !ok {
				return nil, ok, err
			}
			cur = next
		case int:
			next, ok, err := cur.index(e)
			if err != nil || !ok {
				return nil, ok, err
			}
			cur = next
		default:
			return nil, false, newInvalidDatabaseError("path element must be string or int")
		}
	}
	return cur, true, nil
}

func (r *Raw) index(i int) (*Raw, bool, error) {
	kind, size, dataOffset, err := r.followPointers()
	if err != nil {
		return nil, false, err
	}
	if kind != KindArray {
		return nil, false, expectedErr("array", kind, "")
	}
	if i < 0 || uint(i) >= size {
		return nil, false, nil
	}
	cur := dataOffset
	for j := 0; j < i; j++ {
		next, err := r.d.skipValue(cur)
		if err != nil {
			return nil, false, err
		}
		cur = next
	}
	return r.d.NewRaw(cur), true, nil
}
