package dtype

import (
	"errors"
	"fmt"
	"math"

	"github.com/robert-malhotra/ncattr/internal/binary"
	"github.com/robert-malhotra/ncattr/internal/message"
)

// ErrOutOfRange is returned when a value does not fit the target datatype.
var ErrOutOfRange = errors.New("value out of range for datatype")

// EncodeSigned encodes v as one element of the fixed-point type dt.
func EncodeSigned(dt *message.Datatype, v int64) ([]byte, error) {
	if err := checkInteger(dt); err != nil {
		return nil, err
	}
	bits := 8 * dt.Size
	if dt.Signed {
		if bits < 64 && (v < -1<<(bits-1) || v >= 1<<(bits-1)) {
			return nil, fmt.Errorf("%w: %d does not fit int%d", ErrOutOfRange, v, bits)
		}
	} else if v < 0 || (bits < 64 && v >= 1<<bits) {
		return nil, fmt.Errorf("%w: %d does not fit uint%d", ErrOutOfRange, v, bits)
	}
	return encodeInteger(dt, uint64(v))
}

// EncodeUnsigned encodes v as one element of the fixed-point type dt.
func EncodeUnsigned(dt *message.Datatype, v uint64) ([]byte, error) {
	if err := checkInteger(dt); err != nil {
		return nil, err
	}
	bits := 8 * dt.Size
	limit := uint64(math.MaxUint64)
	if dt.Signed {
		limit = 1<<(bits-1) - 1
	} else if bits < 64 {
		limit = 1<<bits - 1
	}
	if v > limit {
		return nil, fmt.Errorf("%w: %d does not fit %d-byte integer", ErrOutOfRange, v, dt.Size)
	}
	return encodeInteger(dt, v)
}

func checkInteger(dt *message.Datatype) error {
	if dt.Class != message.ClassFixedPoint {
		return fmt.Errorf("%w: %s is not an integer", ErrUnsupported, dt.Class)
	}
	switch dt.Size {
	case 1, 2, 4, 8:
		return nil
	}
	return fmt.Errorf("%w: %d-byte integer", ErrUnsupported, dt.Size)
}

func encodeInteger(dt *message.Datatype, v uint64) ([]byte, error) {
	buf := make([]byte, dt.Size)
	binary.EncodeUint(buf, v, dt.ByteOrder.Binary())
	return buf, nil
}

// EncodeFloat encodes f as one element of the float type dt. Narrowing to
// 4 bytes fails if f is finite but overflows float32.
func EncodeFloat(dt *message.Datatype, f float64) ([]byte, error) {
	if dt.Class != message.ClassFloatPoint {
		return nil, fmt.Errorf("%w: %s is not a float", ErrUnsupported, dt.Class)
	}
	order := dt.ByteOrder.Binary()
	switch dt.Size {
	case 4:
		f32 := float32(f)
		if math.IsInf(float64(f32), 0) && !math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %g does not fit float32", ErrOutOfRange, f)
		}
		buf := make([]byte, 4)
		order.PutUint32(buf, math.Float32bits(f32))
		return buf, nil
	case 8:
		buf := make([]byte, 8)
		order.PutUint64(buf, math.Float64bits(f))
		return buf, nil
	default:
		return nil, fmt.Errorf("%w: %d-byte float", ErrUnsupported, dt.Size)
	}
}

// EncodeFixedString encodes s into the fixed-length string type dt,
// applying its padding. s must fit in dt.Size bytes.
func EncodeFixedString(dt *message.Datatype, s string) ([]byte, error) {
	if dt.Class != message.ClassString {
		return nil, fmt.Errorf("%w: %s is not a fixed string", ErrUnsupported, dt.Class)
	}
	if len(s) > int(dt.Size) {
		return nil, fmt.Errorf("%w: %d-byte string in %d-byte type", ErrOutOfRange, len(s), dt.Size)
	}
	buf := make([]byte, dt.Size)
	n := copy(buf, s)
	if dt.StringPadding == message.PadSpacePad {
		for i := n; i < len(buf); i++ {
			buf[i] = ' '
		}
	}
	return buf, nil
}
