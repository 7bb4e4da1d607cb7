package cdf

import (
	"errors"
	"fmt"
)

var (
	ErrNotClassic  = errors.New("not a classic netCDF file")
	ErrMalformed   = errors.New("malformed classic netCDF header")
	ErrClosed      = errors.New("file is closed")
	ErrReadOnly    = errors.New("file is not open for writing")
	ErrOutOfRange  = errors.New("value out of range for attribute type")
	ErrInvalidName = errors.New("invalid netCDF name")
	ErrTooLarge    = errors.New("file too large for its format")
	ErrUnsupported = errors.New("unsupported attribute value")
)

// Version is the format version byte following "CDF".
type Version byte

const (
	Classic  Version = 1
	Offset64 Version = 2
	Data64   Version = 5
)

func (v Version) String() string {
	switch v {
	case Classic:
		return "CDF-1 (classic)"
	case Offset64:
		return "CDF-2 (64-bit offset)"
	case Data64:
		return "CDF-5 (64-bit data)"
	default:
		return fmt.Sprintf("CDF version %d", byte(v))
	}
}

// countSize is the width of element counts, dimension lengths and
// dimension IDs.
func (v Version) countSize() int {
	if v == Data64 {
		return 8
	}
	return 4
}

// offsetSize is the width of a variable's begin offset.
func (v Version) offsetSize() int {
	if v == Classic {
		return 4
	}
	return 8
}

// Type is an external netCDF data type.
type Type int32

const (
	Byte   Type = 1
	Char   Type = 2
	Short  Type = 3
	Int    Type = 4
	Float  Type = 5
	Double Type = 6
	// The unsigned and 64-bit types need CDF-5.
	UByte  Type = 7
	UShort Type = 8
	UInt   Type = 9
	Int64  Type = 10
	UInt64 Type = 11
)

// Size returns the size in bytes of one value.
func (t Type) Size() int {
	switch t {
	case Byte, Char, UByte:
		return 1
	case Short, UShort:
		return 2
	case Int, Float, UInt:
		return 4
	case Double, Int64, UInt64:
		return 8
	default:
		return 0
	}
}

func (t Type) String() string {
	switch t {
	case Byte:
		return "int8"
	case Char:
		return "char"
	case Short:
		return "int16"
	case Int:
		return "int32"
	case Float:
		return "float32"
	case Double:
		return "float64"
	case UByte:
		return "uint8"
	case UShort:
		return "uint16"
	case UInt:
		return "uint32"
	case Int64:
		return "int64"
	case UInt64:
		return "uint64"
	default:
		return fmt.Sprintf("type %d", int32(t))
	}
}

// IsInteger reports whether t is a signed or unsigned integer type.
func (t Type) IsInteger() bool {
	switch t {
	case Byte, Short, Int, Int64, UByte, UShort, UInt, UInt64:
		return true
	}
	return false
}

// IsFloat reports whether t is Float or Double.
func (t Type) IsFloat() bool { return t == Float || t == Double }

// Signed reports whether t is a signed integer type.
func (t Type) Signed() bool {
	switch t {
	case Byte, Short, Int, Int64:
		return true
	}
	return false
}

// valid reports whether files of version v may use t.
func (t Type) valid(v Version) bool {
	if t >= Byte && t <= Double {
		return true
	}
	return v == Data64 && t >= UByte && t <= UInt64
}
