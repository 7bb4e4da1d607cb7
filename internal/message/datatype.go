package message

import (
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/ncattr/internal/binary"
)

// DatatypeClass is the class of an HDF5 datatype.
type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0
	ClassFloatPoint DatatypeClass = 1
	ClassTime       DatatypeClass = 2
	ClassString     DatatypeClass = 3
	ClassBitfield   DatatypeClass = 4
	ClassOpaque     DatatypeClass = 5
	ClassCompound   DatatypeClass = 6
	ClassReference  DatatypeClass = 7
	ClassEnum       DatatypeClass = 8
	ClassVarLen     DatatypeClass = 9
	ClassArray      DatatypeClass = 10
)

var classNames = [...]string{
	"integer", "float", "time", "string", "bitfield", "opaque",
	"compound", "reference", "enum", "variable-length", "array",
}

func (c DatatypeClass) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// ByteOrder of a numeric datatype.
type ByteOrder uint8

const (
	OrderLE ByteOrder = 0
	OrderBE ByteOrder = 1
)

// Binary returns the encoding/binary order for o.
func (o ByteOrder) Binary() binary.ByteOrder {
	if o == OrderBE {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// StringPadding is the padding of a string datatype.
type StringPadding uint8

const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

// CharacterSet is the encoding of a string datatype.
type CharacterSet uint8

const (
	CharsetASCII CharacterSet = 0
	CharsetUTF8  CharacterSet = 1
)

// Datatype (0x0003) describes the element type of an attribute value.
// Only integer, float, fixed string and variable-length string are fully
// decoded. Raw keeps the original encoding, which Serialize reuses verbatim.
type Datatype struct {
	Class     DatatypeClass
	Version   uint8
	ClassBits uint32
	Size      uint32

	ByteOrder    ByteOrder
	Signed       bool
	BitOffset    uint16
	BitPrecision uint16

	StringPadding  StringPadding
	CharSet        CharacterSet
	IsVarLenString bool
	Base           *Datatype

	Raw []byte
}

func (m *Datatype) Type() Type { return TypeDatatype }

func (m *Datatype) IsInteger() bool { return m.Class == ClassFixedPoint }
func (m *Datatype) IsFloat() bool   { return m.Class == ClassFloatPoint }

// IsString reports whether m is a fixed or variable-length string.
func (m *Datatype) IsString() bool {
	return m.Class == ClassString || (m.Class == ClassVarLen && m.IsVarLenString)
}

func parseDatatype(data []byte) (*Datatype, error) {
	dt, _, err := parseDatatypeLen(data)
	return dt, err
}

// parseDatatypeLen decodes a datatype and returns how many bytes it used.
func parseDatatypeLen(data []byte) (*Datatype, int, error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("datatype message too short")
	}
	dt := &Datatype{
		Class:     DatatypeClass(data[0] & 0x0f),
		Version:   data[0] >> 4,
		ClassBits: uint32(data[1]) | uint32(data[2])<<8 | uint32(data[3])<<16,
		Size:      binary.LittleEndian.Uint32(data[4:8]),
	}
	props := data[8:]
	used := 8

	switch dt.Class {
	case ClassFixedPoint:
		dt.ByteOrder = ByteOrder(dt.ClassBits & 0x01)
		dt.Signed = dt.ClassBits&0x08 != 0
		if len(props) < 4 {
			return nil, 0, fmt.Errorf("integer datatype truncated")
		}
		dt.BitOffset = binary.LittleEndian.Uint16(props[0:2])
		dt.BitPrecision = binary.LittleEndian.Uint16(props[2:4])
		used += 4
	case ClassFloatPoint:
		dt.ByteOrder = ByteOrder(dt.ClassBits & 0x01)
		if len(props) < 12 {
			return nil, 0, fmt.Errorf("float datatype truncated")
		}
		used += 12
	case ClassString:
		dt.StringPadding = StringPadding(dt.ClassBits & 0x0f)
		dt.CharSet = CharacterSet((dt.ClassBits >> 4) & 0x0f)
	case ClassVarLen:
		dt.IsVarLenString = dt.ClassBits&0x0f == 1
		dt.StringPadding = StringPadding((dt.ClassBits >> 4) & 0x0f)
		dt.CharSet = CharacterSet((dt.ClassBits >> 8) & 0x0f)
		base, n, err := parseDatatypeLen(props)
		if err != nil {
			return nil, 0, fmt.Errorf("variable-length base type: %w", err)
		}
		dt.Base = base
		used += n
	default:
		// Other classes are kept opaque; their length is bounded by the
		// enclosing message.
		used = len(data)
	}

	dt.Raw = append([]byte(nil), data[:used]...)
	return dt, used, nil
}

// Serialize writes the datatype body. Parsed datatypes are written back
// unchanged; constructed ones are encoded from their fields.
func (m *Datatype) Serialize(w *binpkg.Writer) error {
	if m.Raw != nil {
		return w.WriteBytes(m.Raw)
	}

	version := m.Version
	if version == 0 {
		version = 1
	}
	bits := m.ClassBits
	if err := w.WriteBytes([]byte{uint8(m.Class) | version<<4, uint8(bits), uint8(bits >> 8), uint8(bits >> 16)}); err != nil {
		return err
	}
	if err := w.WriteUint32(m.Size); err != nil {
		return err
	}

	switch m.Class {
	case ClassFixedPoint:
		if err := w.WriteUint16(m.BitOffset); err != nil {
			return err
		}
		return w.WriteUint16(m.BitPrecision)
	case ClassFloatPoint:
		return writeIEEEProperties(w, m.Size)
	case ClassString:
		return nil
	case ClassVarLen:
		if m.Base == nil {
			return fmt.Errorf("variable-length datatype without base type")
		}
		return m.Base.Serialize(w)
	default:
		return fmt.Errorf("cannot encode %s datatype", m.Class)
	}
}

// writeIEEEProperties writes bit offset, precision, exponent and mantissa
// layout, and exponent bias for IEEE 754 binary32/binary64.
func writeIEEEProperties(w *binpkg.Writer, size uint32) error {
	var (
		precision uint16
		expLoc    uint8
		expSize   uint8
		mantSize  uint8
		bias      uint32
	)
	switch size {
	case 4:
		precision, expLoc, expSize, mantSize, bias = 32, 23, 8, 23, 127
	case 8:
		precision, expLoc, expSize, mantSize, bias = 64, 52, 11, 52, 1023
	default:
		return fmt.Errorf("unsupported float size %d", size)
	}
	if err := w.WriteUint16(0); err != nil {
		return err
	}
	if err := w.WriteUint16(precision); err != nil {
		return err
	}
	if err := w.WriteBytes([]byte{expLoc, expSize, 0, mantSize}); err != nil {
		return err
	}
	return w.WriteUint32(bias)
}

// NewFixedPointDatatype returns a little-endian integer type of size bytes.
func NewFixedPointDatatype(size uint32, signed bool) *Datatype {
	var bits uint32
	if signed {
		bits |= 0x08
	}
	return &Datatype{
		Class:        ClassFixedPoint,
		ClassBits:    bits,
		Size:         size,
		Signed:       signed,
		BitPrecision: uint16(size * 8),
	}
}

// NewFloatDatatype returns a little-endian IEEE float of size 4 or 8.
func NewFloatDatatype(size uint32) *Datatype {
	// Sign bit position lives in bits 8-15 of the class bits; mantissa
	// normalization "implied" is 0x20.
	bits := uint32(0x20) | (size*8-1)<<8
	return &Datatype{Class: ClassFloatPoint, ClassBits: bits, Size: size}
}

// NewStringDatatype returns a fixed-length, null-terminated string type.
func NewStringDatatype(size uint32, cset CharacterSet) *Datatype {
	return &Datatype{
		Class:         ClassString,
		ClassBits:     uint32(PadNullTerm) | uint32(cset)<<4,
		Size:          size,
		StringPadding: PadNullTerm,
		CharSet:       cset,
	}
}

// NewVarLenStringDatatype returns a variable-length string type whose
// elements are stored in the global heap. The base type is an unsigned byte,
// as the HDF5 library writes it.
func NewVarLenStringDatatype(cset CharacterSet, offsetSize int) *Datatype {
	return &Datatype{
		Class:          ClassVarLen,
		ClassBits:      1 | uint32(PadNullTerm)<<4 | uint32(cset)<<8,
		Size:           uint32(4 + offsetSize + 4),
		IsVarLenString: true,
		StringPadding:  PadNullTerm,
		CharSet:        cset,
		Base:           NewFixedPointDatatype(1, false),
	}
}
