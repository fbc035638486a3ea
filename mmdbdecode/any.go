package mmdbdecode

import "math/big"

// Any is the dynamic fallback value described in spec §3: a tagged
// variant mirroring the twelve value-carrying wire types. Exactly one field is
// meaningful, selected by Kind. Map is an insertion-ordered slice rather
// than a Go map because real MMDB maps are small (tens of entries) and
// callers iterate them far more often than they point-look them up
// (spec §3 rationale); AnyMapEntry.Value lookup by key is linear.
type Any struct {
	Kind    Kind
	Str     string
	Bytes   []byte
	Float64 float64
	Float32 float32
	Uint16  uint16
	Uint32  uint32
	Int32   int32
	Uint64  uint64
	Uint128 *big.Int
	Bool    bool
	Array   []Any
	Map     []AnyMapEntry
}

// AnyMapEntry is one key/value pair of an Any map, in wire order.
type AnyMapEntry struct {
	Key   string
	Value Any
}

// Get returns the value for key, scanning entries in order, per spec §3
// ("Map lookup by key is linear over the entries").
func (a Any) Get(key string) (Any, bool) {
	for _, e := range a.Map {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Any{}, false
}

// decodeAny materializes the dynamic value at offset, following pointers
// and fully decoding nested maps/arrays (only is consulted for the
// outermost map only, per spec §4.4). depth guards against corrupt
// cyclic structures.
func (d Decoder) decodeAny(offset uint, arena *Arena, only *Only, depth int) (Any, uint, error) {
	if depth > maximumDataStructureDepth {
		return Any{}, 0, newInvalidDatabaseError("exceeded maximum data structure depth; database is likely corrupt")
	}
	kind, size, dataOffset, err := d.decodeCtrlData(offset)
	if err != nil {
		return Any{}, 0, err
	}

	switch kind {
	case KindPointer:
		pointer, afterPointer, err := d.decodePointer(size, dataOffset)
		if err != nil {
			return Any{}, 0, err
		}
		// A pointer target must not itself be another pointer (spec §4.3
		// I3); a database that is corrupt in that way gets a decode error
		// here instead of having the chain followed.
		targetKind, _, _, err := d.decodeCtrlData(pointer)
		if err != nil {
			return Any{}, 0, err
		}
		if targetKind == KindPointer {
			return Any{}, 0, newInvalidDatabaseError("pointer at offset %d targets another pointer", pointer)
		}
		v, _, err := d.decodeAnyNoTopProjection(pointer, arena, depth+1)
		return v, afterPointer, err
	case KindMap:
		return d.decodeAnyMap(size, dataOffset, arena, only, depth)
	case KindArray:
		return d.decodeAnyArray(size, dataOffset, arena, depth)
	case KindBool:
		v, err := d.decodeBool(size)
		return Any{Kind: KindBool, Bool: v}, dataOffset, err
	case KindString:
		v, newOffset, err := d.decodeString(size, dataOffset)
		return Any{Kind: KindString, Str: v}, newOffset, err
	case KindBytes:
		v, newOffset, err := d.decodeBytesRaw(size, dataOffset)
		return Any{Kind: KindBytes, Bytes: v}, newOffset, err
	case KindFloat64:
		v, newOffset, err := d.decodeFloat64(size, dataOffset)
		return Any{Kind: KindFloat64, Float64: v}, newOffset, err
	case KindFloat32:
		v, newOffset, err := d.decodeFloat32(size, dataOffset)
		return Any{Kind: KindFloat32, Float32: v}, newOffset, err
	case KindUint16:
		v, newOffset, err := d.decodeUint(size, dataOffset, 2)
		return Any{Kind: KindUint16, Uint16: uint16(v)}, newOffset, err
	case KindUint32:
		v, newOffset, err := d.decodeUint(size, dataOffset, 4)
		return Any{Kind: KindUint32, Uint32: uint32(v)}, newOffset, err
	case KindInt32:
		v, newOffset, err := d.decodeInt32(size, dataOffset)
		return Any{Kind: KindInt32, Int32: v}, newOffset, err
	case KindUint64:
		v, newOffset, err := d.decodeUint(size, dataOffset, 8)
		return Any{Kind: KindUint64, Uint64: v}, newOffset, err
	case KindUint128:
		v, newOffset, err := d.decodeUint128(size, dataOffset)
		return Any{Kind: KindUint128, Uint128: v}, newOffset, err
	case KindContainer, KindMarker:
		// Reserved types; skip as opaque per spec §4.3/§9 Open Questions.
		newOffset, err := d.skipValue(offset)
		return Any{}, newOffset, err
	default:
		return Any{}, 0, UnsupportedFieldTypeError{Kind: kind}
	}
}

// decodeAnyNoTopProjection decodes a pointer target: projection never
// applies past the first map a lookup's top-level record lands on, and a
// pointer target is by definition not that outermost map, so projection
// is dropped here.
func (d Decoder) decodeAnyNoTopProjection(offset uint, arena *Arena, depth int) (Any, uint, error) {
	return d.decodeAny(offset, arena, nil, depth)
}

func (d Decoder) decodeAnyMap(size, offset uint, arena *Arena, only *Only, depth int) (Any, uint, error) {
	entries := arena.newMapEntries(0)
	cur := offset
	for i := uint(0); i < size; i++ {
		key, afterKey, err := d.decodeKey(cur)
		if err != nil {
			return Any{}, 0, err
		}
		if only != nil && !only.allows(key) {
			afterValue, err := d.skipValue(afterKey)
			if err != nil {
				return Any{}, 0, err
			}
			cur = afterValue
			continue
		}
		val, afterValue, err := d.decodeAny(afterKey, arena, nil, depth+1)
		if err != nil {
			return Any{}, 0, err
		}
		entries = append(entries, AnyMapEntry{Key: key, Value: val})
		cur = afterValue
	}
	return Any{Kind: KindMap, Map: entries}, cur, nil
}

func (d Decoder) decodeAnyArray(size, offset uint, arena *Arena, depth int) (Any, uint, error) {
	items := arena.newAnySlice(0)
	cur := offset
	for i := uint(0); i < size; i++ {
		val, afterValue, err := d.decodeAny(cur, arena, nil, depth+1)
		if err != nil {
			return Any{}, 0, err
		}
		items = append(items, val)
		cur = afterValue
	}
	return Any{Kind: KindArray, Array: items}, cur, nil
}

// DecodeAny is the public entry point for materializing the dynamic
// fallback value at offset. A nil Only decodes every top-level field.
func (d Decoder) DecodeAny(offset uint, arena *Arena, only *Only) (Any, error) {
	v, _, err := d.decodeAny(offset, arena, only, 0)
	return v, err
}
