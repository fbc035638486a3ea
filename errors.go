package mmdb

import (
	"errors"
	"fmt"

	"github.com/geoindex/mmdbreader/mmdbdecode"
)

// Sentinel errors for the non-parameterized kinds of spec §7: no field
// varies per occurrence, so a plain errors.New value suffices and
// supports errors.Is comparisons directly.
var (
	// ErrMetadataStartNotFound is returned when the metadata start marker
	// (0xAB 0xCD 0xEF "MaxMind.com") is absent from the file.
	ErrMetadataStartNotFound = errors.New("mmdb: metadata start marker not found")

	// ErrInvalidTreeNode is returned when tree descent exhausts the
	// address's bits without reaching a record pointer or an empty slot.
	ErrInvalidTreeNode = errors.New("mmdb: tree is not exhaustive for this address; database is corrupt")

	// ErrInvalidPrefixLen is returned by Within when prefix_len exceeds
	// the address family's bit count.
	ErrInvalidPrefixLen = errors.New("mmdb: prefix length exceeds address width")

	// ErrClosed is returned by Reader methods called after Close.
	ErrClosed = errors.New("mmdb: cannot use a closed Reader")
)

// CorruptedTreeError is returned when a computed offset (data section
// start, a resolved data pointer) escapes the file's bounds.
type CorruptedTreeError struct {
	Reason string
}

func (e CorruptedTreeError) Error() string {
	return fmt.Sprintf("mmdb: corrupt search tree: %s", e.Reason)
}

// UnknownRecordSizeError is returned when the metadata's record_size is
// not one of 24, 28, or 32.
type UnknownRecordSizeError struct {
	RecordSize uint
}

func (e UnknownRecordSizeError) Error() string {
	return fmt.Sprintf("mmdb: unsupported record size %d", e.RecordSize)
}

// Re-exported so callers decoding records don't need to import
// mmdbdecode directly just to use errors.As on a schema mismatch.
type (
	// ExpectedStructTypeError is returned when a record's top-level wire
	// value is not a Map.
	ExpectedStructTypeError = mmdbdecode.ExpectedStructTypeError
	// ExpectedTypeError is returned when a field's wire type does not
	// match its declared Go type.
	ExpectedTypeError = mmdbdecode.ExpectedTypeError
	// UnsupportedFieldTypeError is returned for a declared field type or
	// extended wire type the decoder does not know how to produce.
	UnsupportedFieldTypeError = mmdbdecode.UnsupportedFieldTypeError
	// InvalidIntegerSizeError is returned when a wire integer's size
	// exceeds its declared target width.
	InvalidIntegerSizeError = mmdbdecode.InvalidIntegerSizeError
	// InvalidBoolSizeError is returned when a bool payload size is > 1.
	InvalidBoolSizeError = mmdbdecode.InvalidBoolSizeError
	// InvalidDoubleSizeError is returned when a double payload size != 8.
	InvalidDoubleSizeError = mmdbdecode.InvalidDoubleSizeError
	// InvalidFloatSizeError is returned when a float payload size != 4.
	InvalidFloatSizeError = mmdbdecode.InvalidFloatSizeError
)
