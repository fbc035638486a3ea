package mmdbdecode

// Kind identifies the wire type of a data field's control byte, per
// spec §3/§4.3. Values 1-7 come from the control byte's top three bits
// directly; values 8-15 come from the extended byte (ext+7).
type Kind int

const (
	KindExtended Kind = iota
	KindPointer
	KindString
	KindFloat64
	KindBytes
	KindUint16
	KindUint32
	KindMap
	KindInt32
	KindUint64
	KindUint128
	KindArray
	KindContainer // reserved, never materialized; see spec §4.3 and Open Questions
	KindMarker    // reserved, never materialized; see spec §4.3 and Open Questions
	KindBool
	KindFloat32
)

func (k Kind) String() string {
	switch k {
	case KindExtended:
		return "extended"
	case KindPointer:
		return "pointer"
	case KindString:
		return "string"
	case KindFloat64:
		return "double"
	case KindBytes:
		return "bytes"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindMap:
		return "map"
	case KindInt32:
		return "int32"
	case KindUint64:
		return "uint64"
	case KindUint128:
		return "uint128"
	case KindArray:
		return "array"
	case KindContainer:
		return "container"
	case KindMarker:
		return "marker"
	case KindBool:
		return "bool"
	case KindFloat32:
		return "float"
	default:
		return "unknown"
	}
}
