package message

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	binpkg "github.com/robert-malhotra/ncattr/internal/binary"
)

// Attribute flag bits (versions 2 and 3).
const (
	attrSharedDatatype  = 0x01
	attrSharedDataspace = 0x02
)

// Attribute (0x000C) holds one named attribute and its encoded value.
// Datatype or Dataspace is nil when the file stores it as a shared message.
type Attribute struct {
	Version   uint8
	Flags     uint8
	Name      string
	Datatype  *Datatype
	Dataspace *Dataspace
	Data      []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

func parseAttribute(data []byte, cfg binpkg.Config) (*Attribute, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("attribute message too short")
	}
	attr := &Attribute{Version: data[0]}
	nameSize := int(binary.LittleEndian.Uint16(data[2:4]))
	dtSize := int(binary.LittleEndian.Uint16(data[4:6]))
	dsSize := int(binary.LittleEndian.Uint16(data[6:8]))

	// Version 1 pads each field to a multiple of eight bytes.
	pad := func(n int) int { return n }
	offset := 8
	switch attr.Version {
	case 1:
		pad = func(n int) int { return (n + 7) &^ 7 }
	case 2:
		attr.Flags = data[1]
	case 3:
		attr.Flags = data[1]
		offset = 9
	default:
		return nil, fmt.Errorf("unsupported attribute version: %d", attr.Version)
	}

	field := func(n int, what string) ([]byte, error) {
		if offset+n > len(data) {
			return nil, fmt.Errorf("attribute %s truncated", what)
		}
		b := data[offset : offset+n]
		offset += pad(n)
		return b, nil
	}

	name, err := field(nameSize, "name")
	if err != nil {
		return nil, err
	}
	attr.Name = cString(name)

	dt, err := field(dtSize, "datatype")
	if err != nil {
		return nil, err
	}
	if attr.Flags&attrSharedDatatype == 0 {
		if attr.Datatype, err = parseDatatype(dt); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", attr.Name, err)
		}
	}

	ds, err := field(dsSize, "dataspace")
	if err != nil {
		return nil, err
	}
	if attr.Flags&attrSharedDataspace == 0 {
		if attr.Dataspace, err = parseDataspace(ds, cfg); err != nil {
			return nil, fmt.Errorf("attribute %q: %w", attr.Name, err)
		}
	}

	if offset < len(data) {
		attr.Data = append([]byte(nil), data[offset:]...)
	}
	return attr, nil
}

// NewAttribute returns a version 3 attribute message.
func NewAttribute(name string, dt *Datatype, ds *Dataspace, data []byte) *Attribute {
	return &Attribute{Version: 3, Name: name, Datatype: dt, Dataspace: ds, Data: data}
}

// Serialize writes a version 3 attribute message body.
func (m *Attribute) Serialize(w *binpkg.Writer) error {
	if m.Datatype == nil || m.Dataspace == nil {
		return fmt.Errorf("attribute %q: missing datatype or dataspace", m.Name)
	}
	dt, err := Encode(m.Datatype, w.Config())
	if err != nil {
		return err
	}
	ds, err := Encode(m.Dataspace, w.Config())
	if err != nil {
		return err
	}

	encoding := uint8(CharsetASCII)
	for i := 0; i < len(m.Name); i++ {
		if m.Name[i] >= utf8.RuneSelf {
			encoding = uint8(CharsetUTF8)
			break
		}
	}

	if err := w.WriteBytes([]byte{3, 0}); err != nil {
		return err
	}
	for _, n := range []int{len(m.Name) + 1, len(dt), len(ds)} {
		if err := w.WriteUint16(uint16(n)); err != nil {
			return err
		}
	}
	if err := w.WriteUint8(encoding); err != nil {
		return err
	}
	for _, b := range [][]byte{[]byte(m.Name), {0}, dt, ds, m.Data} {
		if err := w.WriteBytes(b); err != nil {
			return err
		}
	}
	return nil
}
