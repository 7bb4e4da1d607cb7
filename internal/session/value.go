package session

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the closed set of attribute value kinds.
type Kind int

const (
	Text Kind = iota
	Integer
	Float
	// Opaque covers non-scalar and unsupported attributes. They are shown
	// but never rewritten.
	Opaque
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Float:
		return "float"
	default:
		return "opaque"
	}
}

// Value is a global attribute value together with how it is stored.
type Value struct {
	Kind Kind

	// Integer payload. Unsigned values keep their bit pattern in Int.
	Int      int64
	Unsigned bool
	// Width is the storage size in bytes of Integer and Float values.
	Width int

	Float float64

	Text string
	// VarLen marks text stored as a variable-length string.
	VarLen bool

	// Display renders Opaque values; TypeName describes their type.
	Display  string
	TypeName string
}

// IntValue returns an 8-byte signed integer value.
func IntValue(v int64) Value { return Value{Kind: Integer, Int: v, Width: 8} }

// FloatValue returns an 8-byte float value.
func FloatValue(f float64) Value { return Value{Kind: Float, Float: f, Width: 8} }

// TextValue returns a text value.
func TextValue(s string) Value { return Value{Kind: Text, Text: s} }

// String renders v the way lookups and listings show it: integers in base
// 10, floats in the shortest form that round-trips at their width, text
// verbatim.
func (v Value) String() string {
	switch v.Kind {
	case Integer:
		if v.Unsigned {
			return strconv.FormatUint(uint64(v.Int), 10)
		}
		return strconv.FormatInt(v.Int, 10)
	case Float:
		return strconv.FormatFloat(v.Float, 'g', -1, v.floatBits())
	case Text:
		return v.Text
	default:
		return v.Display
	}
}

// Type names the stored type, for example "int32" or "string (vlen)".
func (v Value) Type() string {
	switch v.Kind {
	case Integer:
		prefix := "int"
		if v.Unsigned {
			prefix = "uint"
		}
		return fmt.Sprintf("%s%d", prefix, v.width()*8)
	case Float:
		return fmt.Sprintf("float%d", v.floatBits())
	case Text:
		if v.VarLen {
			return "string (vlen)"
		}
		return "string"
	default:
		if v.TypeName != "" {
			return v.TypeName
		}
		return "opaque"
	}
}

func (v Value) width() int {
	if v.Width == 0 {
		return 8
	}
	return v.Width
}

func (v Value) floatBits() int {
	if v.Width == 4 {
		return 32
	}
	return 64
}

// Parse converts raw to a value of the same kind and storage as v. Numeric
// parses ignore surrounding whitespace, accept single underscores between
// digits and must fit v's width; a float too large for its width becomes
// an infinity. Text is kept verbatim. Opaque values cannot be parsed.
func (v Value) Parse(raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	out := v
	switch v.Kind {
	case Integer:
		s, err := digits(s)
		if err != nil {
			return Value{}, err
		}
		if v.Unsigned {
			u, err := strconv.ParseUint(s, 10, v.width()*8)
			if err != nil {
				return Value{}, err
			}
			out.Int = int64(u)
			return out, nil
		}
		i, err := strconv.ParseInt(s, 10, v.width()*8)
		if err != nil {
			return Value{}, err
		}
		out.Int = i
		return out, nil
	case Float:
		f, err := parseFloat(s, v.floatBits())
		if err != nil {
			return Value{}, err
		}
		out.Float = f
		return out, nil
	case Text:
		out.Text = raw
		return out, nil
	default:
		return Value{}, ErrReadOnly
	}
}

// Infer picks a kind for raw text given to a new attribute: a 64-bit
// integer, then a 64-bit float, then text. The first that parses wins.
func Infer(raw string) Value {
	s := strings.TrimSpace(raw)
	if d, err := digits(s); err == nil {
		if i, err := strconv.ParseInt(d, 10, 64); err == nil {
			return IntValue(i)
		}
	}
	if f, err := parseFloat(s, 64); err == nil {
		return FloatValue(f)
	}
	return TextValue(raw)
}

var errSeparator = errors.New("misplaced digit separator")

// digits removes underscores that sit between two decimal digits. Any
// other underscore is an error.
func digits(s string) (string, error) {
	if !strings.Contains(s, "_") {
		return s, nil
	}
	isDigit := func(i int) bool { return i >= 0 && i < len(s) && s[i] >= '0' && s[i] <= '9' }
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '_' {
			if !isDigit(i-1) || !isDigit(i+1) {
				return "", errSeparator
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String(), nil
}

// parseFloat parses decimal floats and the names inf, infinity and nan.
// Hexadecimal mantissas are refused. Overflow yields an infinity.
func parseFloat(s string, bits int) (float64, error) {
	if strings.ContainsAny(s, "xX") {
		return 0, strconv.ErrSyntax
	}
	d, err := digits(s)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(d, bits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && math.IsInf(f, 0) {
			return f, nil
		}
		return 0, err
	}
	return f, nil
}
