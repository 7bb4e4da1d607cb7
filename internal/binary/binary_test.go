package binary

import (
	"encoding/binary"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	cfg := Config{ByteOrder: binary.LittleEndian, OffsetSize: 4, LengthSize: 2}
	buf := &Buffer{}
	w := NewWriter(buf, cfg)

	steps := []error{
		w.WriteUint8(0x12),
		w.WriteUint16(0x3456),
		w.WriteUint32(0x789abcde),
		w.WriteOffset(0xdeadbeef),
		w.WriteLength(0x0102),
		w.WriteOffset(w.UndefinedOffset()),
		w.WriteZeros(3),
		w.WriteBytes([]byte("OHDR")),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("write step %d: %v", i, err)
		}
	}
	if got, want := len(buf.Bytes()), 1+2+4+4+2+4+3+4; got != want {
		t.Fatalf("buffer length = %d, want %d", got, want)
	}

	r := NewBytesReader(buf.Bytes(), cfg)
	if v, _ := r.ReadUint8(); v != 0x12 {
		t.Errorf("ReadUint8 = %#x", v)
	}
	if v, _ := r.ReadUint16(); v != 0x3456 {
		t.Errorf("ReadUint16 = %#x", v)
	}
	if v, _ := r.ReadUint32(); v != 0x789abcde {
		t.Errorf("ReadUint32 = %#x", v)
	}
	if v, _ := r.ReadOffset(); v != 0xdeadbeef {
		t.Errorf("ReadOffset = %#x", v)
	}
	if v, _ := r.ReadLength(); v != 0x0102 {
		t.Errorf("ReadLength = %#x", v)
	}
	v, err := r.ReadOffset()
	if err != nil {
		t.Fatalf("ReadOffset: %v", err)
	}
	if !r.IsUndefinedOffset(v) {
		t.Errorf("expected undefined offset, got %#x", v)
	}
	r.Skip(3)
	sig, err := r.ReadBytes(4)
	if err != nil || string(sig) != "OHDR" {
		t.Errorf("ReadBytes = %q, %v", sig, err)
	}
	if _, err := r.ReadUint8(); err == nil {
		t.Error("expected error reading past end")
	}
}

func TestReaderAlignAndPeek(t *testing.T) {
	r := NewBytesReader([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, DefaultConfig())
	r.Skip(3)
	r.Align(8)
	if r.Pos() != 8 {
		t.Fatalf("Pos after Align = %d, want 8", r.Pos())
	}
	r.Align(8)
	if r.Pos() != 8 {
		t.Fatalf("Align moved an aligned position to %d", r.Pos())
	}
	p, err := r.Peek(1)
	if err != nil || p[0] != 9 {
		t.Fatalf("Peek = %v, %v", p, err)
	}
	if r.Pos() != 8 {
		t.Errorf("Peek moved position to %d", r.Pos())
	}
}

func TestEncodeDecodeUintOddWidths(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		buf := make([]byte, 3)
		EncodeUint(buf, 0x0a0b0c, order)
		if got := DecodeUint(buf, order); got != 0x0a0b0c {
			t.Errorf("%v: DecodeUint = %#x, want 0x0a0b0c", order, got)
		}
	}
}

func TestUndefined(t *testing.T) {
	tests := map[int]uint64{2: 0xffff, 4: 0xffffffff, 8: 0xffffffffffffffff}
	for n, want := range tests {
		if got := Undefined(n); got != want {
			t.Errorf("Undefined(%d) = %#x, want %#x", n, got, want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig invalid: %v", err)
	}
	bad := Config{ByteOrder: binary.LittleEndian, OffsetSize: 3, LengthSize: 8}
	if err := bad.Validate(); err != ErrInvalidSize {
		t.Errorf("Validate = %v, want ErrInvalidSize", err)
	}
}

func TestBufferAppendChecksum(t *testing.T) {
	b := &Buffer{}
	if _, err := b.WriteAt([]byte("abc"), 2); err != nil {
		t.Fatal(err)
	}
	want := Lookup3Checksum([]byte{0, 0, 'a', 'b', 'c'})
	b.AppendChecksum(binary.LittleEndian)
	data := b.Bytes()
	if len(data) != 9 {
		t.Fatalf("len = %d, want 9", len(data))
	}
	if got := binary.LittleEndian.Uint32(data[5:]); got != want {
		t.Errorf("checksum = %#x, want %#x", got, want)
	}
}
