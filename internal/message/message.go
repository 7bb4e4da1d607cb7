package message

import (
	"fmt"

	"github.com/robert-malhotra/ncattr/internal/binary"
)

// Type is an HDF5 header message type.
type Type uint16

const (
	TypeNIL                      Type = 0x0000
	TypeDataspace                Type = 0x0001
	TypeLinkInfo                 Type = 0x0002
	TypeDatatype                 Type = 0x0003
	TypeFillValueOld             Type = 0x0004
	TypeFillValue                Type = 0x0005
	TypeLink                     Type = 0x0006
	TypeExternalDataFiles        Type = 0x0007
	TypeDataLayout               Type = 0x0008
	TypeBogus                    Type = 0x0009
	TypeGroupInfo                Type = 0x000A
	TypeFilterPipeline           Type = 0x000B
	TypeAttribute                Type = 0x000C
	TypeObjectComment            Type = 0x000D
	TypeObjectModTime            Type = 0x000E
	TypeSharedMessageTable       Type = 0x000F
	TypeObjectHeaderContinuation Type = 0x0010
	TypeSymbolTable              Type = 0x0011
	TypeObjectModTimeOld         Type = 0x0012
	TypeBTreeKValues             Type = 0x0013
	TypeDriverInfo               Type = 0x0014
	TypeAttributeInfo            Type = 0x0015
	TypeObjectRefCount           Type = 0x0016
)

var typeNames = map[Type]string{
	TypeNIL:                      "NIL",
	TypeDataspace:                "Dataspace",
	TypeLinkInfo:                 "LinkInfo",
	TypeDatatype:                 "Datatype",
	TypeFillValueOld:             "FillValueOld",
	TypeFillValue:                "FillValue",
	TypeLink:                     "Link",
	TypeExternalDataFiles:        "ExternalDataFiles",
	TypeDataLayout:               "DataLayout",
	TypeBogus:                    "Bogus",
	TypeGroupInfo:                "GroupInfo",
	TypeFilterPipeline:           "FilterPipeline",
	TypeAttribute:                "Attribute",
	TypeObjectComment:            "ObjectComment",
	TypeObjectModTime:            "ObjectModTime",
	TypeSharedMessageTable:       "SharedMessageTable",
	TypeObjectHeaderContinuation: "Continuation",
	TypeSymbolTable:              "SymbolTable",
	TypeObjectModTimeOld:         "ObjectModTimeOld",
	TypeBTreeKValues:             "BTreeKValues",
	TypeDriverInfo:               "DriverInfo",
	TypeAttributeInfo:            "AttributeInfo",
	TypeObjectRefCount:           "ObjectRefCount",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(0x%04x)", uint16(t))
}

// Message is implemented by every header message.
type Message interface {
	Type() Type
}

// Serializable messages can be written into an object header.
type Serializable interface {
	Message
	Serialize(w *binary.Writer) error
}

// Encode serializes m into a standalone message body.
func Encode(m Serializable, cfg binary.Config) ([]byte, error) {
	buf := &binary.Buffer{}
	if err := m.Serialize(binary.NewWriter(buf, cfg)); err != nil {
		return nil, fmt.Errorf("encoding %s message: %w", m.Type(), err)
	}
	return buf.Bytes(), nil
}

// Parse decodes a message body. Unhandled types come back as *Unknown.
func Parse(typ Type, data []byte, cfg binary.Config) (Message, error) {
	switch typ {
	case TypeDataspace:
		return parseDataspace(data, cfg)
	case TypeDatatype:
		return parseDatatype(data)
	case TypeAttribute:
		return parseAttribute(data, cfg)
	case TypeAttributeInfo:
		return parseAttributeInfo(data, cfg)
	case TypeLinkInfo:
		return parseLinkInfo(data, cfg)
	case TypeSymbolTable:
		return parseSymbolTable(data, cfg)
	case TypeObjectHeaderContinuation:
		return ParseContinuation(data, cfg)
	default:
		return NewUnknown(typ, data), nil
	}
}

// Unknown is a message this package does not interpret.
type Unknown struct {
	typ  Type
	data []byte
}

// NewUnknown wraps a message body that is carried without interpretation.
func NewUnknown(typ Type, data []byte) *Unknown {
	return &Unknown{typ: typ, data: data}
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Data() []byte { return m.data }

// Continuation points to a further block of header messages.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeObjectHeaderContinuation }

// ParseContinuation decodes a continuation message body.
func ParseContinuation(data []byte, cfg binary.Config) (*Continuation, error) {
	if len(data) < cfg.OffsetSize+cfg.LengthSize {
		return nil, fmt.Errorf("continuation message too short")
	}
	r := binary.NewBytesReader(data, cfg)
	off, _ := r.ReadOffset()
	n, _ := r.ReadLength()
	return &Continuation{Offset: off, Length: n}, nil
}

// SymbolTable locates the B-tree and local heap of an old-style group.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(data []byte, cfg binary.Config) (*SymbolTable, error) {
	if len(data) < 2*cfg.OffsetSize {
		return nil, fmt.Errorf("symbol table message too short")
	}
	r := binary.NewBytesReader(data, cfg)
	bt, _ := r.ReadOffset()
	heap, _ := r.ReadOffset()
	return &SymbolTable{BTreeAddress: bt, LocalHeapAddress: heap}, nil
}

// cString returns the bytes of b up to the first NUL.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
