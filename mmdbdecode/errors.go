package mmdbdecode

import (
	"fmt"
	"reflect"
)

// InvalidDatabaseError is returned when the data section contains bytes
// that cannot correspond to any valid MMDB encoding: a truncated control
// byte, a pointer past the end of the buffer, a non-string map key, and
// similar low-level corruption. An out-of-range extended type is reported
// as UnsupportedFieldTypeError instead.
type InvalidDatabaseError struct {
	message string
}

func newInvalidDatabaseError(format string, args ...any) InvalidDatabaseError {
	return InvalidDatabaseError{message: fmt.Sprintf(format, args...)}
}

func (e InvalidDatabaseError) Error() string { return e.message }

// errOffset is returned whenever a read would run past the end of the
// data section.
func errOffset() error {
	return InvalidDatabaseError{message: "unexpected end of data section"}
}

// UnsupportedFieldTypeError is returned for an extended type byte outside
// 0..8, or a declared field type the materializer does not know how to
// produce.
type UnsupportedFieldTypeError struct {
	Kind Kind
}

func (e UnsupportedFieldTypeError) Error() string {
	return fmt.Sprintf("mmdbdecode: unsupported field type %v", e.Kind)
}

// ExpectedTypeError is returned when the wire type of a value does not
// match the type the caller's schema declared for it (the Expected<Type>
// family in spec §7).
type ExpectedTypeError struct {
	Expected string
	Actual   Kind
	Field    string
}

func (e ExpectedTypeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("mmdbdecode: field %q: expected %s, found %v", e.Field, e.Expected, e.Actual)
	}
	return fmt.Sprintf("mmdbdecode: expected %s, found %v", e.Expected, e.Actual)
}

func expectedErr(expected string, actual Kind, field string) error {
	return ExpectedTypeError{Expected: expected, Actual: actual, Field: field}
}

// ExpectedStructTypeError is returned when the top-level value handed to
// the structured materializer is not a Map.
type ExpectedStructTypeError struct {
	Actual Kind
}

func (e ExpectedStructTypeError) Error() string {
	return fmt.Sprintf("mmdbdecode: expected a map at the top level, found %v", e.Actual)
}

// UnmarshalTypeError is returned when a wire Map cannot be decoded into
// the Go type handed to Decode — anything other than a struct or a map
// (a slice, a non-empty interface, a scalar, ...).
type UnmarshalTypeError struct {
	GoType reflect.Type
}

func (e UnmarshalTypeError) Error() string {
	return fmt.Sprintf("mmdbdecode: cannot unmarshal map into type %s", e.GoType)
}

// InvalidIntegerSizeError is returned when a wire integer's byte size
// exceeds the declared target width.
type InvalidIntegerSizeError struct {
	Width int
	Size  uint
}

func (e InvalidIntegerSizeError) Error() string {
	return fmt.Sprintf("mmdbdecode: integer size %d exceeds %d-bit target", e.Size, e.Width)
}

// InvalidBoolSizeError is returned when a bool payload size is > 1.
type InvalidBoolSizeError struct{ Size uint }

func (e InvalidBoolSizeError) Error() string {
	return fmt.Sprintf("mmdbdecode: invalid bool size %d", e.Size)
}

// InvalidDoubleSizeError is returned when a double payload size != 8.
type InvalidDoubleSizeError struct{ Size uint }

func (e InvalidDoubleSizeError) Error() string {
	return fmt.Sprintf("mmdbdecode: invalid double size %d, want 8", e.Size)
}

// InvalidFloatSizeError is returned when a float payload size != 4.
type InvalidFloatSizeError struct{ Size uint }

func (e InvalidFloatSizeError) Error() string {
	return fmt.Sprintf("mmdbdecode: invalid float size %d, want 4", e.Size)
}
