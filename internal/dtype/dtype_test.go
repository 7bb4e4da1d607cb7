package dtype

import (
	"errors"
	"math"
	"testing"

	"github.com/robert-malhotra/ncattr/internal/binary"
	"github.com/robert-malhotra/ncattr/internal/heap"
	"github.com/robert-malhotra/ncattr/internal/message"
)

func TestDecodeIntegersSignExtends(t *testing.T) {
	dt := message.NewFixedPointDatatype(2, true)
	data := []byte{0xfe, 0xff, 0x05, 0x00}

	got, err := DecodeIntegers(dt, data, 2)
	if err != nil {
		t.Fatalf("DecodeIntegers: %v", err)
	}
	if int64(got[0]) != -2 || got[1] != 5 {
		t.Errorf("got %d, %d; want -2, 5", int64(got[0]), got[1])
	}

	dt = message.NewFixedPointDatatype(2, false)
	got, err = DecodeIntegers(dt, data[:2], 1)
	if err != nil {
		t.Fatalf("DecodeIntegers: %v", err)
	}
	if got[0] != 0xfffe {
		t.Errorf("unsigned got %#x, want 0xfffe", got[0])
	}
}

func TestDecodeIntegersBigEndian(t *testing.T) {
	dt := message.NewFixedPointDatatype(4, true)
	dt.ByteOrder = message.OrderBE
	got, err := DecodeIntegers(dt, []byte{0, 0, 1, 2}, 1)
	if err != nil {
		t.Fatalf("DecodeIntegers: %v", err)
	}
	if got[0] != 0x0102 {
		t.Errorf("got %#x, want 0x102", got[0])
	}
}

func TestDecodeIntegersShortData(t *testing.T) {
	dt := message.NewFixedPointDatatype(8, true)
	if _, err := DecodeIntegers(dt, make([]byte, 4), 1); err == nil {
		t.Fatal("expected error for short data")
	}
}

func TestDecodeFloats(t *testing.T) {
	f32 := message.NewFloatDatatype(4)
	b, err := EncodeFloat(f32, 1.5)
	if err != nil {
		t.Fatalf("EncodeFloat: %v", err)
	}
	got, err := DecodeFloats(f32, b, 1)
	if err != nil {
		t.Fatalf("DecodeFloats: %v", err)
	}
	if got[0] != 1.5 {
		t.Errorf("got %v, want 1.5", got[0])
	}

	f64 := message.NewFloatDatatype(8)
	b, _ = EncodeFloat(f64, math.Pi)
	got, _ = DecodeFloats(f64, b, 1)
	if got[0] != math.Pi {
		t.Errorf("got %v, want pi", got[0])
	}
}

func TestEncodeFloatOverflow(t *testing.T) {
	if _, err := EncodeFloat(message.NewFloatDatatype(4), 1e300); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
	if _, err := EncodeFloat(message.NewFloatDatatype(4), math.Inf(1)); err != nil {
		t.Fatalf("infinity should encode: %v", err)
	}
}

func TestEncodeIntegerRange(t *testing.T) {
	tests := []struct {
		name   string
		size   uint32
		signed bool
		v      int64
		ok     bool
	}{
		{"int8 max", 1, true, 127, true},
		{"int8 overflow", 1, true, 128, false},
		{"int8 min", 1, true, -128, true},
		{"uint8 negative", 1, false, -1, false},
		{"uint8 max", 1, false, 255, true},
		{"int32 max", 4, true, math.MaxInt32, true},
		{"int64 min", 8, true, math.MinInt64, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := message.NewFixedPointDatatype(tt.size, tt.signed)
			b, err := EncodeSigned(dt, tt.v)
			if !tt.ok {
				if !errors.Is(err, ErrOutOfRange) {
					t.Fatalf("err = %v, want ErrOutOfRange", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("EncodeSigned: %v", err)
			}
			got, err := DecodeIntegers(dt, b, 1)
			if err != nil {
				t.Fatalf("DecodeIntegers: %v", err)
			}
			if tt.signed && int64(got[0]) != tt.v {
				t.Errorf("got %d, want %d", int64(got[0]), tt.v)
			}
			if !tt.signed && got[0] != uint64(tt.v) {
				t.Errorf("got %d, want %d", got[0], tt.v)
			}
		})
	}
}

func TestEncodeUnsigned(t *testing.T) {
	dt := message.NewFixedPointDatatype(8, false)
	b, err := EncodeUnsigned(dt, math.MaxUint64)
	if err != nil {
		t.Fatalf("EncodeUnsigned: %v", err)
	}
	got, _ := DecodeIntegers(dt, b, 1)
	if got[0] != math.MaxUint64 {
		t.Errorf("got %d", got[0])
	}
	if _, err := EncodeUnsigned(message.NewFixedPointDatatype(4, true), 1<<31); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}

func TestFixedStrings(t *testing.T) {
	dt := message.NewStringDatatype(8, message.CharsetASCII)
	b, err := EncodeFixedString(dt, "abc")
	if err != nil {
		t.Fatalf("EncodeFixedString: %v", err)
	}
	got, err := DecodeStrings(dt, b, 1, binary.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("DecodeStrings: %v", err)
	}
	if got[0] != "abc" {
		t.Errorf("got %q, want abc", got[0])
	}

	dt.StringPadding = message.PadSpacePad
	b, _ = EncodeFixedString(dt, "ab")
	if string(b) != "ab      " {
		t.Errorf("space padded = %q", b)
	}
	got, _ = DecodeStrings(dt, b, 1, binary.DefaultConfig(), nil)
	if got[0] != "ab" {
		t.Errorf("got %q, want ab", got[0])
	}

	if _, err := EncodeFixedString(dt, "too long string"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}

type fakeHeap map[heap.GlobalHeapID][]byte

func (f fakeHeap) Object(id heap.GlobalHeapID) ([]byte, error) {
	b, ok := f[id]
	if !ok {
		return nil, errors.New("missing")
	}
	return b, nil
}

func TestVarLenStrings(t *testing.T) {
	cfg := binary.DefaultConfig()
	id := heap.GlobalHeapID{CollectionAddress: 4096, ObjectIndex: 1}
	hp := fakeHeap{id: []byte("héllo\x00junk")}

	dt := message.NewVarLenStringDatatype(message.CharsetUTF8, cfg.OffsetSize)
	data := heap.VarLen{Length: 6, ID: id}.Encode(cfg)
	data = append(data, heap.VarLen{}.Encode(cfg)...)

	got, err := DecodeStrings(dt, data, 2, cfg, hp)
	if err != nil {
		t.Fatalf("DecodeStrings: %v", err)
	}
	if got[0] != "héllo" || got[1] != "" {
		t.Errorf("got %q", got)
	}

	if _, err := DecodeStrings(dt, data[:4], 1, cfg, hp); err == nil {
		t.Error("expected error for truncated descriptor")
	}
}

func TestUnsupportedClass(t *testing.T) {
	dt := &message.Datatype{Class: message.ClassOpaque, Size: 4}
	if _, err := DecodeIntegers(dt, make([]byte, 4), 1); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
	if _, err := DecodeStrings(dt, make([]byte, 4), 1, binary.DefaultConfig(), nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}
