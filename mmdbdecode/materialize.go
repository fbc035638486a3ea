package mmdbdecode

import (
	"math/big"
	"reflect"
	"strings"
	"sync"
)

var bigIntPtrType = reflect.TypeOf((*big.Int)(nil))

// structField describes one decode target discovered by reflection on a
// destination struct type (spec §4.4 "Structured"). Field names prefixed
// with "_" are bookkeeping and never matched against wire keys.
type structField struct {
	name  string
	index []int
}

var structFieldCache sync.Map // reflect.Type -> []structField

func fieldsFor(t reflect.Type) []structField {
	if cached, ok := structFieldCache.Load(t); ok {
		return cached.([]structField)
	}
	fields := collectFields(t, nil)
	structFieldCache.Store(t, fields)
	return fields
}

func collectFields(t reflect.Type, prefix []int) []structField {
	var out []structField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		embedded := sf.Anonymous && sf.Type.Kind() == reflect.Struct && sf.Tag.Get("mmdb") == ""
		if !sf.IsExported() && !embedded {
			continue
		}
		name := sf.Tag.Get("mmdb")
		if name == "" {
			name = sf.Name
		}
		if name == "-" || strings.HasPrefix(name, "_") {
			continue
		}
		idx := append(append([]int{}, prefix...), i)
		if embedded {
			out = append(out, collectFields(sf.Type, idx)...)
			continue
		}
		out = append(out, structField{name: name, index: idx})
	}
	return out
}

// Decode materializes the Map at offset into the struct or map pointed
// to by target, honoring only as a top-level projection (spec §4.4
// "Structured"); only applies to a struct target and is ignored for a
// map target, which has no declared field set to project against.
// target must be a non-nil pointer. A value that is not a Map (such as a
// leaf reached by Raw.Path) is decoded by its own wire type when target
// points to something other than a struct or a map.
func (d Decoder) Decode(offset uint, target any, arena *Arena, only *Only) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return newInvalidDatabaseError("decode target must be a non-nil pointer")
	}
	elem := rv.Elem()
	if k := elem.Kind(); k != reflect.Struct && k != reflect.Map {
		if kind, _, _, _, err := d.resolveScalar(offset); err == nil && kind != KindMap {
			_, err := d.decodeInto(offset, elem, arena, 0)
			return err
		}
	}
	_, err := d.decodeStruct(offset, elem, arena, only, 0)
	return err
}

func (d Decoder) decodeStruct(offset uint, rv reflect.Value, arena *Arena, only *Only, depth int) (uint, error) {
	if depth > maximumDataStructureDepth {
		return 0, newInvalidDatabaseError("exceeded maximum data structure depth; database is likely corrupt")
	}
	kind, size, dataOffset, err := d.decodeCtrlData(offset)
	if err != nil {
		return 0, err
	}
	if kind == KindPointer {
		pointer, afterPointer, err := d.decodePointer(size, dataOffset)
		if err != nil {
			return 0, err
		}
		if _, err := d.decodeStruct(pointer, rv, arena, only, depth+1); err != nil {
			return 0, err
		}
		return afterPointer, nil
	}
	if kind != KindMap {
		return 0, ExpectedStructTypeError{Actual: kind}
	}

	// The wire value is a Map; dispatch on the Go target's own kind, the
	// way the teacher's reflection.go's unmarshalMap does (struct, map,
	// or a typed error for anything else - never assume Struct).
	switch rv.Kind() {
	case reflect.Map:
		return d.decodeMapFields(dataOffset, size, rv, arena, depth)
	case reflect.Struct:
		// falls through to the field-by-field loop below
	default:
		return 0, UnmarshalTypeError{GoType: rv.Type()}
	}

	fields := fieldsFor(rv.Type())
	cur := dataOffset
	for i := uint(0); i < size; i++ {
		key, afterKey, err := d.decodeKey(cur)
		if err != nil {
			return 0, err
		}
		if only != nil && !only.allows(key) {
			afterValue, err := d.skipValue(afterKey)
			if err != nil {
				return 0, err
			}
			cur = afterValue
			continue
		}

		target, found := lookupField(fields, key)
		if !found {
			afterValue, err := d.skipValue(afterKey)
			if err != nil {
				return 0, err
			}
			cur = afterValue
			continue
		}

		fv := rv.FieldByIndex(target.index)
		afterValue, err := d.decodeInto(afterKey, fv, arena, depth+1)
		if err != nil {
			return 0, err
		}
		cur = afterValue
	}
	return cur, nil
}

func lookupField(fields []structField, key string) (structField, bool) {
	for _, f := range fields {
		if f.name == key {
			return f, true
		}
	}
	return structField{}, false
}

// decodeInto decodes the value at offset into fv according to fv's Go
// type, enforcing the wire-type-vs-declared-type match described in spec
// §4.4 (signaling the appropriate Expected<Type> error on mismatch).
// Nested structured fields are always fully decoded - no projection
// recursion, per spec §4.4.
func (d Decoder) decodeInto(offset uint, fv reflect.Value, arena *Arena, depth int) (uint, error) {
	if fv.Type() == bigIntPtrType {
		kind, size, dataOffset, afterPointer, err := d.resolveScalar(offset)
		if err != nil {
			return 0, err
		}
		if kind != KindUint128 {
			return 0, expectedErr("uint128", kind, "")
		}
		v, newOffset, err := d.decodeUint128(size, dataOffset)
		if err != nil {
			return 0, err
		}
		fv.Set(reflect.ValueOf(v))
		return afterOrNewOffset(afterPointer, newOffset), nil
	}

	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		return d.decodeInto(offset, fv.Elem(), arena, depth)
	}

	switch fv.Kind() {
	case reflect.Struct:
		return d.decodeStruct(offset, fv, arena, nil, depth)
	case reflect.Slice:
		if keyIdx, valIdx, ok := mapEntryIndices(fv.Type().Elem()); ok {
			return d.decodeOrderedMapInto(offset, fv, keyIdx, valIdx, arena, depth)
		}
		return d.decodeArrayInto(offset, fv, arena, depth)
	case reflect.Map:
		return d.decodeMapInto(offset, fv, arena, depth)
	case reflect.Interface:
		v, newOffset, err := d.decodeAny(offset, arena, nil, depth)
		if err != nil {
			return 0, err
		}
		fv.Set(reflect.ValueOf(anyToInterface(v)))
		return newOffset, nil
	}

	// Scalars dispatch off the wire kind first, then accept it into any
	// Go field of a compatible family (all uint widths for an unsigned
	// wire integer, and so on) checking only for overflow, matching the
	// teacher's reflection.go unmarshalUint/unmarshalInt32 convention.
	kind, size, dataOffset, afterPointer, err := d.resolveScalar(offset)
	if err != nil {
		return 0, err
	}
	switch kind {
	case KindString:
		if fv.Kind() != reflect.String {
			return 0, expectedErr("string", kind, "")
		}
		v, newOffset, err := d.decodeString(size, dataOffset)
		if err != nil {
			return 0, err
		}
		fv.SetString(v)
		return afterOrNewOffset(afterPointer, newOffset), nil
	case KindBool:
		if fv.Kind() != reflect.Bool {
			return 0, expectedErr("bool", kind, "")
		}
		v, err := d.decodeBool(size)
		if err != nil {
			return 0, err
		}
		fv.SetBool(v)
		return afterOrNewOffset(afterPointer, dataOffset), nil
	case KindFloat64:
		if fv.Kind() != reflect.Float64 && fv.Kind() != reflect.Float32 {
			return 0, expectedErr("double", kind, "")
		}
		v, newOffset, err := d.decodeFloat64(size, dataOffset)
		if err != nil {
			return 0, err
		}
		fv.SetFloat(v)
		return afterOrNewOffset(afterPointer, newOffset), nil
	case KindFloat32:
		if fv.Kind() != reflect.Float64 && fv.Kind() != reflect.Float32 {
			return 0, expectedErr("float", kind, "")
		}
		v, newOffset, err := d.decodeFloat32(size, dataOffset)
		if err != nil {
			return 0, err
		}
		fv.SetFloat(float64(v))
		return afterOrNewOffset(afterPointer, newOffset), nil
	case KindUint16, KindUint32, KindUint64:
		maxBytes := 8
		switch kind {
		case KindUint16:
			maxBytes = 2
		case KindUint32:
			maxBytes = 4
		}
		v, newOffset, err := d.decodeUint(size, dataOffset, maxBytes)
		if err != nil {
			return 0, err
		}
		if err := setUintFamily(fv, v); err != nil {
			return 0, err
		}
		return afterOrNewOffset(afterPointer, newOffset), nil
	case KindInt32:
		v, newOffset, err := d.decodeInt32(size, dataOffset)
		if err != nil {
			return 0, err
		}
		if err := setIntFamily(fv, int64(v)); err != nil {
			return 0, err
		}
		return afterOrNewOffset(afterPointer, newOffset), nil
	default:
		return 0, expectedErr(fv.Kind().String(), kind, "")
	}
}

// setUintFamily stores v into any integer-kinded field, signed or
// unsigned, rejecting only a value that would overflow the field's
// width. Mirrors the teacher's unmarshalUint, which accepts either
// family for a wire unsigned value.
func setUintFamily(fv reflect.Value, v uint64) error {
	switch fv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if fv.OverflowUint(v) {
			return InvalidIntegerSizeError{Width: fv.Type().Bits(), Size: 0}
		}
		fv.SetUint(v)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := int64(v)
		if fv.OverflowInt(n) {
			return InvalidIntegerSizeError{Width: fv.Type().Bits(), Size: 0}
		}
		fv.SetInt(n)
		return nil
	case reflect.Interface:
		if fv.NumMethod() == 0 {
			fv.Set(reflect.ValueOf(v))
			return nil
		}
		return expectedErr("uint", 0, fv.Kind().String())
	default:
		return expectedErr("uint", 0, fv.Kind().String())
	}
}

// setIntFamily stores v into any integer-kinded field, signed or
// unsigned, rejecting only a value that would overflow the field's
// width. Mirrors the teacher's unmarshalInt32, which accepts either
// family for a wire signed value.
func setIntFamily(fv reflect.Value, v int64) error {
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if fv.OverflowInt(v) {
			return InvalidIntegerSizeError{Width: fv.Type().Bits(), Size: 0}
		}
		fv.SetInt(v)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := uint64(v)
		if fv.OverflowUint(n) {
			return InvalidIntegerSizeError{Width: fv.Type().Bits(), Size: 0}
		}
		fv.SetUint(n)
		return nil
	case reflect.Interface:
		if fv.NumMethod() == 0 {
			fv.Set(reflect.ValueOf(v))
			return nil
		}
		return expectedErr("int32", 0, fv.Kind().String())
	default:
		return expectedErr("int32", 0, fv.Kind().String())
	}
}

// resolveScalar reads the control byte at offset, following a single
// pointer indirection if present (spec I3: a pointer payload never
// targets another pointer, so one hop suffices), and returns the kind,
// size, and data offset of the eventual scalar plus - when a pointer was
// followed - the offset just past the pointer bytes in the original
// stream (afterPointer > 0 signals that the caller's cursor should
// resume there rather than past the pointer's target).
func (d Decoder) resolveScalar(offset uint) (kind Kind, size, dataOffset, afterPointer uint, err error) {
	kind, size, dataOffset, err = d.decodeCtrlData(offset)
	if err != nil {
		return
	}
	if kind != KindPointer {
		return
	}
	pointer, ap, err2 := d.decodePointer(size, dataOffset)
	if err2 != nil {
		err = err2
		return
	}
	afterPointer = ap
	kind, size, dataOffset, err = d.decodeCtrlData(pointer)
	return
}

func afterOrNewOffset(afterPointer, newOffset uint) uint {
	if afterPointer != 0 {
		return afterPointer
	}
	return newOffset
}

func (d Decoder) decodeArrayInto(offset uint, fv reflect.Value, arena *Arena, depth int) (uint, error) {
	kind, size, dataOffset, afterPointer, err := d.resolveScalar(offset)
	if err != nil {
		return 0, err
	}
	if kind != KindArray {
		return 0, expectedErr("array", kind, "")
	}
	elemType := fv.Type().Elem()
	out := reflect.MakeSlice(fv.Type(), int(size), int(size))
	cur := dataOffset
	for i := uint(0); i < size; i++ {
		elem := reflect.New(elemType).Elem()
		next, err := d.decodeInto(cur, elem, arena, depth+1)
		if err != nil {
			return 0, err
		}
		out.Index(int(i)).Set(elem)
		cur = next
	}
	fv.Set(out)
	return afterOrNewOffset(afterPointer, cur), nil
}

func (d Decoder) decodeMapInto(offset uint, fv reflect.Value, arena *Arena, depth int) (uint, error) {
	kind, size, dataOffset, afterPointer, err := d.resolveScalar(offset)
	if err != nil {
		return 0, err
	}
	if kind != KindMap {
		return 0, expectedErr("map", kind, "")
	}
	cur, err := d.decodeMapFields(dataOffset, size, fv, arena, depth)
	if err != nil {
		return 0, err
	}
	return afterOrNewOffset(afterPointer, cur), nil
}

// decodeMapFields decodes size key/value pairs starting at dataOffset
// into the map fv, given a wire Map already confirmed at that offset
// (used both when the target is declared map[K]V directly, and when a
// struct-decode target turns out to be a map, spec §4.4).
func (d Decoder) decodeMapFields(dataOffset, size uint, fv reflect.Value, arena *Arena, depth int) (uint, error) {
	mapType := fv.Type()
	out := reflect.MakeMapWithSize(mapType, int(size))
	valType := mapType.Elem()
	cur := dataOffset
	for i := uint(0); i < size; i++ {
		key, afterKey, err := d.decodeKey(cur)
		if err != nil {
			return 0, err
		}
		val := reflect.New(valType).Elem()
		afterValue, err := d.decodeInto(afterKey, val, arena, depth+1)
		if err != nil {
			return 0, err
		}
		out.SetMapIndex(reflect.ValueOf(key).Convert(mapType.Key()), val)
		cur = afterValue
	}
	fv.Set(out)
	return cur, nil
}

// mapEntryIndices recognizes the Map[V] generic composite shape (spec
// §4.4): a slice of a two-field {Key string; Value V} struct, decoded
// from a wire Map while preserving insertion order, unlike Go's
// unordered map type.
func mapEntryIndices(elem reflect.Type) (keyIdx, valIdx int, ok bool) {
	if elem.Kind() != reflect.Struct || elem.NumField() != 2 {
		return 0, 0, false
	}
	keyField, ok1 := elem.FieldByName("Key")
	valField, ok2 := elem.FieldByName("Value")
	if !ok1 || !ok2 || keyField.Type.Kind() != reflect.String {
		return 0, 0, false
	}
	return keyField.Index[0], valField.Index[0], true
}

func (d Decoder) decodeOrderedMapInto(
	offset uint,
	fv reflect.Value,
	keyIdx, valIdx int,
	arena *Arena,
	depth int,
) (uint, error) {
	kind, size, dataOffset, afterPointer, err := d.resolveScalar(offset)
	if err != nil {
		return 0, err
	}
	if kind != KindMap {
		return 0, expectedErr("map", kind, "")
	}
	elemType := fv.Type().Elem()
	out := reflect.MakeSlice(fv.Type(), int(size), int(size))
	cur := dataOffset
	for i := uint(0); i < size; i++ {
		key, afterKey, err := d.decodeKey(cur)
		if err != nil {
			return 0, err
		}
		entry := reflect.New(elemType).Elem()
		entry.Field(keyIdx).SetString(key)
		afterValue, err := d.decodeInto(afterKey, entry.Field(valIdx), arena, depth+1)
		if err != nil {
			return 0, err
		}
		out.Index(int(i)).Set(entry)
		cur = afterValue
	}
	fv.Set(out)
	return afterOrNewOffset(afterPointer, cur), nil
}

// MapEntry is one key/value pair of an ordered Map[V] field (spec §4.4's
// Map<V> composite shape).
type MapEntry[V any] struct {
	Key   string
	Value V
}

// Map is an insertion-ordered sequence of key/value pairs, the
// structured-decode counterpart of Any's Map field, usable as a struct
// field type when a schema needs to preserve wire order instead of
// collapsing into an unordered Go map.
type Map[V any] []MapEntry[V]

// Get scans entries in order, matching Any.Get's linear-lookup contract.
func (m Map[V]) Get(key string) (V, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	var zero V
	return zero, false
}

func anyToInterface(v Any) any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindBytes:
		return v.Bytes
	case KindFloat64:
		return v.Float64
	case KindFloat32:
		return v.Float32
	case KindUint16:
		return v.Uint16
	case KindUint32:
		return v.Uint32
	case KindInt32:
		return v.Int32
	case KindUint64:
		return v.Uint64
	case KindUint128:
		return v.Uint128
	case KindBool:
		return v.Bool
	case KindArray:
		out := make([]any, len(v.Array))
		for i, e := range v.Array {
			out[i] = anyToInterface(e)
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.Map))
		for _, e := range v.Map {
			out[e.Key] = anyToInterface(e.Value)
		}
		return out
	default:
		return nil
	}
}
