package message

import (
	"bytes"
	"encoding/binary"
	"testing"

	binpkg "github.com/robert-malhotra/ncattr/internal/binary"
)

var cfg8 = binpkg.DefaultConfig()

func mustEncode(t *testing.T, m Serializable) []byte {
	t.Helper()
	data, err := Encode(m, cfg8)
	if err != nil {
		t.Fatalf("Encode(%s): %v", m.Type(), err)
	}
	return data
}

func TestAttributeRoundTrip(t *testing.T) {
	value := make([]byte, 4)
	binary.LittleEndian.PutUint32(value, 0xfffffffe)
	in := NewAttribute("launch_time", NewFixedPointDatatype(4, true), NewSimpleDataspace(1), value)

	msg, err := Parse(TypeAttribute, mustEncode(t, in), cfg8)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, ok := msg.(*Attribute)
	if !ok {
		t.Fatalf("Parse returned %T", msg)
	}
	if out.Name != "launch_time" || out.Version != 3 {
		t.Errorf("name/version = %q/%d", out.Name, out.Version)
	}
	if !out.Datatype.IsInteger() || !out.Datatype.Signed || out.Datatype.Size != 4 {
		t.Errorf("datatype = %+v", out.Datatype)
	}
	if !out.Dataspace.IsScalar() || out.Dataspace.SpaceType != DataspaceSimple {
		t.Errorf("dataspace = %+v", out.Dataspace)
	}
	if !bytes.Equal(out.Data, value) {
		t.Errorf("data = %v, want %v", out.Data, value)
	}
}

func TestParseAttributeV1Padding(t *testing.T) {
	dt := mustEncode(t, NewFloatDatatype(8))
	// Version 1 dataspace: version, rank, flags, reserved x5.
	ds := []byte{1, 0, 0, 0, 0, 0, 0, 0}
	name := []byte("alt\x00")

	var b bytes.Buffer
	b.Write([]byte{1, 0})
	binary.Write(&b, binary.LittleEndian, uint16(len(name)))
	binary.Write(&b, binary.LittleEndian, uint16(len(dt)))
	binary.Write(&b, binary.LittleEndian, uint16(len(ds)))
	b.Write(name)
	b.Write(make([]byte, 4)) // pad name to 8
	b.Write(dt)
	b.Write(make([]byte, (8-len(dt)%8)%8))
	b.Write(ds)
	binary.Write(&b, binary.LittleEndian, 1234.5)

	msg, err := Parse(TypeAttribute, b.Bytes(), cfg8)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	attr := msg.(*Attribute)
	if attr.Name != "alt" || !attr.Datatype.IsFloat() || attr.Datatype.Size != 8 {
		t.Fatalf("unexpected attribute %+v", attr)
	}
	if attr.Dataspace.SpaceType != DataspaceScalar {
		t.Errorf("space type = %d, want scalar", attr.Dataspace.SpaceType)
	}
	if len(attr.Data) != 8 {
		t.Errorf("data length = %d, want 8", len(attr.Data))
	}
}

func TestParseAttributeTruncated(t *testing.T) {
	data := mustEncode(t, NewAttribute("x", NewFixedPointDatatype(2, false), NewScalarDataspace(), []byte{1, 0}))
	if _, err := Parse(TypeAttribute, data[:12], cfg8); err == nil {
		t.Error("expected error for truncated attribute")
	}
	if _, err := Parse(TypeAttribute, []byte{9, 0, 0, 0, 0, 0, 0, 0}, cfg8); err == nil {
		t.Error("expected error for unknown attribute version")
	}
}

func TestDatatypeRawIsPreserved(t *testing.T) {
	// Big-endian unsigned 16-bit integer with a non-default precision.
	raw := []byte{0x10, 0x01, 0, 0, 2, 0, 0, 0, 0, 0, 12, 0}
	dt, err := parseDatatype(raw)
	if err != nil {
		t.Fatalf("parseDatatype: %v", err)
	}
	if dt.ByteOrder != OrderBE || dt.Signed || dt.BitPrecision != 12 {
		t.Errorf("decoded %+v", dt)
	}
	if got := mustEncode(t, dt); !bytes.Equal(got, raw) {
		t.Errorf("re-encoded %v, want %v", got, raw)
	}
}

func TestVarLenStringDatatype(t *testing.T) {
	data := mustEncode(t, NewVarLenStringDatatype(CharsetUTF8, 8))
	dt, err := parseDatatype(data)
	if err != nil {
		t.Fatalf("parseDatatype: %v", err)
	}
	if !dt.IsString() || !dt.IsVarLenString {
		t.Fatalf("not a variable-length string: %+v", dt)
	}
	if dt.CharSet != CharsetUTF8 {
		t.Errorf("charset = %d, want UTF-8", dt.CharSet)
	}
	if dt.Size != 16 {
		t.Errorf("size = %d, want 16", dt.Size)
	}
	if dt.Base == nil || dt.Base.Size != 1 {
		t.Errorf("base = %+v", dt.Base)
	}
}

func TestFixedStringDatatype(t *testing.T) {
	dt, err := parseDatatype(mustEncode(t, NewStringDatatype(7, CharsetASCII)))
	if err != nil {
		t.Fatal(err)
	}
	if dt.Class != ClassString || dt.Size != 7 || dt.StringPadding != PadNullTerm {
		t.Errorf("decoded %+v", dt)
	}
}

func TestFloatDatatypeSizes(t *testing.T) {
	for _, size := range []uint32{4, 8} {
		dt, err := parseDatatype(mustEncode(t, NewFloatDatatype(size)))
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		if !dt.IsFloat() || dt.Size != size || dt.ByteOrder != OrderLE {
			t.Errorf("size %d decoded %+v", size, dt)
		}
	}
	if _, err := Encode(NewFloatDatatype(2), cfg8); err == nil {
		t.Error("expected error encoding a 2-byte float")
	}
}

func TestAttributeInfo(t *testing.T) {
	undef := binpkg.Undefined(8)
	in := &AttributeInfo{
		Flags:                  FlagTrackCreationOrder | FlagIndexCreationOrder,
		MaxCreationIndex:       7,
		FractalHeapAddr:        undef,
		NameIndexBTreeAddr:     undef,
		CreationOrderBTreeAddr: undef,
	}
	data := mustEncode(t, in)
	if len(data) != 2+2+3*8 {
		t.Fatalf("encoded length = %d", len(data))
	}
	msg, err := Parse(TypeAttributeInfo, data, cfg8)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out := msg.(*AttributeInfo)
	if out.MaxCreationIndex != 7 || out.Dense() {
		t.Errorf("decoded %+v dense=%v", out, out.Dense())
	}

	in.FractalHeapAddr = 4096
	out2, err := parseAttributeInfo(mustEncode(t, in), cfg8)
	if err != nil {
		t.Fatal(err)
	}
	if !out2.Dense() {
		t.Error("expected dense storage when fractal heap address is defined")
	}
}

func TestContinuationAndSymbolTable(t *testing.T) {
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, uint64(800))
	binary.Write(&b, binary.LittleEndian, uint64(96))

	msg, err := Parse(TypeObjectHeaderContinuation, b.Bytes(), cfg8)
	if err != nil {
		t.Fatal(err)
	}
	if c := msg.(*Continuation); c.Offset != 800 || c.Length != 96 {
		t.Errorf("continuation = %+v", c)
	}

	msg, err = Parse(TypeSymbolTable, b.Bytes(), cfg8)
	if err != nil {
		t.Fatal(err)
	}
	if st := msg.(*SymbolTable); st.BTreeAddress != 800 || st.LocalHeapAddress != 96 {
		t.Errorf("symbol table = %+v", st)
	}
}

func TestUnknownKeepsData(t *testing.T) {
	msg, err := Parse(TypeFillValue, []byte{3, 9}, cfg8)
	if err != nil {
		t.Fatal(err)
	}
	u, ok := msg.(*Unknown)
	if !ok || !bytes.Equal(u.Data(), []byte{3, 9}) || u.Type() != TypeFillValue {
		t.Errorf("Unknown = %#v", msg)
	}
}

func TestTypeString(t *testing.T) {
	if TypeAttribute.String() != "Attribute" {
		t.Errorf("TypeAttribute.String() = %q", TypeAttribute.String())
	}
	if got := Type(0x99).String(); got != "Type(0x0099)" {
		t.Errorf("Type(0x99).String() = %q", got)
	}
}
