package cdf

import (
	stdbinary "encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

var be = stdbinary.BigEndian

// IsScalar reports whether a holds a single value. Char attributes are
// strings and always scalar.
func (a Attribute) IsScalar() bool {
	return a.Type == Char || a.N == 1
}

// Value decodes a. Char becomes a string without trailing NULs. Scalars
// of the integer types become int64 or uint64, floats become float64.
// Other counts give []int64, []uint64 or []float64.
func (a Attribute) Value() any {
	if a.Type == Char {
		return strings.TrimRight(string(a.Data), "\x00")
	}
	size := a.Type.Size()
	n := int(a.N)
	switch {
	case a.Type.IsFloat():
		out := make([]float64, n)
		for i := range out {
			out[i] = a.float(a.Data[i*size:])
		}
		if n == 1 {
			return out[0]
		}
		return out
	case a.Type.Signed():
		out := make([]int64, n)
		for i := range out {
			out[i] = a.signed(a.Data[i*size:])
		}
		if n == 1 {
			return out[0]
		}
		return out
	default:
		out := make([]uint64, n)
		for i := range out {
			out[i] = a.unsigned(a.Data[i*size:])
		}
		if n == 1 {
			return out[0]
		}
		return out
	}
}

func (a Attribute) signed(b []byte) int64 {
	switch a.Type {
	case Byte:
		return int64(int8(b[0]))
	case Short:
		return int64(int16(be.Uint16(b)))
	case Int:
		return int64(int32(be.Uint32(b)))
	default:
		return int64(be.Uint64(b))
	}
}

func (a Attribute) unsigned(b []byte) uint64 {
	switch a.Type {
	case UByte:
		return uint64(b[0])
	case UShort:
		return uint64(be.Uint16(b))
	case UInt:
		return uint64(be.Uint32(b))
	default:
		return be.Uint64(b)
	}
}

func (a Attribute) float(b []byte) float64 {
	if a.Type == Float {
		return float64(math.Float32frombits(be.Uint32(b)))
	}
	return math.Float64frombits(be.Uint64(b))
}

// newAttribute encodes value for a file of version v. When existing is a
// scalar of the same class its type is kept and value must fit it.
// Otherwise the type follows value: Char for strings, Double for floats,
// and for integers the 64-bit types in CDF-5 or Int in older versions.
func newAttribute(v Version, name string, value any, existing *Attribute) (Attribute, error) {
	var keep Type
	if existing != nil && existing.IsScalar() {
		keep = existing.Type
	}
	a := Attribute{Name: name}
	switch x := widen(value).(type) {
	case string:
		if !utf8.ValidString(x) {
			return a, fmt.Errorf("%w: string value is not valid UTF-8", ErrUnsupported)
		}
		a.Type, a.N, a.Data = Char, uint64(len(x)), []byte(x)
		return a, nil
	case int64:
		a.Type = keep
		if !keep.IsInteger() {
			a.Type = intType(v)
		}
		if x < 0 && !a.Type.Signed() {
			return a, fmt.Errorf("%w: %d does not fit %s", ErrOutOfRange, x, a.Type)
		}
		return a, a.putInteger(uint64(x), x < 0)
	case uint64:
		a.Type = keep
		if !keep.IsInteger() {
			a.Type = intType(v)
			if v == Data64 {
				a.Type = UInt64
			}
		}
		return a, a.putInteger(x, false)
	case float64:
		a.Type = keep
		if !keep.IsFloat() {
			a.Type = Double
		}
		a.N = 1
		if a.Type == Float {
			if !math.IsInf(x, 0) && !math.IsNaN(x) && math.Abs(x) > math.MaxFloat32 {
				return a, fmt.Errorf("%w: %g does not fit float32", ErrOutOfRange, x)
			}
			a.Data = be.AppendUint32(nil, math.Float32bits(float32(x)))
			return a, nil
		}
		a.Data = be.AppendUint64(nil, math.Float64bits(x))
		return a, nil
	default:
		return a, fmt.Errorf("%w: value of type %T", ErrUnsupported, value)
	}
}

func intType(v Version) Type {
	if v == Data64 {
		return Int64
	}
	return Int
}

// putInteger stores the bit pattern u in a's type. neg marks u as the
// two's complement of a negative int64.
func (a *Attribute) putInteger(u uint64, neg bool) error {
	bits := uint(a.Type.Size() * 8)
	fits := true
	switch {
	case a.Type.Signed() && neg:
		fits = bits == 64 || int64(u) >= -1<<(bits-1)
	case a.Type.Signed():
		fits = u <= 1<<(bits-1)-1
	case bits < 64:
		fits = u <= 1<<bits-1
	}
	if !fits {
		if neg {
			return fmt.Errorf("%w: %d does not fit %s", ErrOutOfRange, int64(u), a.Type)
		}
		return fmt.Errorf("%w: %d does not fit %s", ErrOutOfRange, u, a.Type)
	}
	a.N = 1
	a.Data = make([]byte, a.Type.Size())
	switch len(a.Data) {
	case 1:
		a.Data[0] = byte(u)
	case 2:
		be.PutUint16(a.Data, uint16(u))
	case 4:
		be.PutUint32(a.Data, uint32(u))
	default:
		be.PutUint64(a.Data, u)
	}
	return nil
}

// widen converts Go scalars to int64, uint64, float64 or string.
func widen(value any) any {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return uint64(v)
	case uint8:
		return uint64(v)
	case uint16:
		return uint64(v)
	case uint32:
		return uint64(v)
	case float32:
		return float64(v)
	}
	return value
}

// checkName applies the netCDF naming rules: valid UTF-8, no '/', no
// control characters, and no leading or trailing white space.
func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidName, name)
	}
	for _, r := range name {
		if r == '/' || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, r)
		}
	}
	first, _ := utf8.DecodeRuneInString(name)
	last, _ := utf8.DecodeLastRuneInString(name)
	if unicode.IsSpace(first) || unicode.IsSpace(last) {
		return fmt.Errorf("%w: %q has surrounding white space", ErrInvalidName, name)
	}
	return nil
}
