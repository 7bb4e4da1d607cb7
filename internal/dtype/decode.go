package dtype

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/robert-malhotra/ncattr/internal/binary"
	"github.com/robert-malhotra/ncattr/internal/heap"
	"github.com/robert-malhotra/ncattr/internal/message"
)

// ErrUnsupported is returned for datatypes this package does not decode.
var ErrUnsupported = errors.New("unsupported datatype")

// HeapObjects resolves global heap references for variable-length data.
type HeapObjects interface {
	Object(id heap.GlobalHeapID) ([]byte, error)
}

func elements(dt *message.Datatype, data []byte, n uint64) ([][]byte, error) {
	size := uint64(dt.Size)
	if size == 0 {
		return nil, fmt.Errorf("%w: zero-sized %s", ErrUnsupported, dt.Class)
	}
	if uint64(len(data)) < size*n {
		return nil, fmt.Errorf("attribute data too short: need %d bytes, have %d", size*n, len(data))
	}
	out := make([][]byte, n)
	for i := range out {
		out[i] = data[uint64(i)*size : uint64(i+1)*size]
	}
	return out, nil
}

// DecodeIntegers decodes n fixed-point elements. Signed values are
// sign-extended; the result is a bit pattern to be read as int64 or uint64.
func DecodeIntegers(dt *message.Datatype, data []byte, n uint64) ([]uint64, error) {
	if dt.Class != message.ClassFixedPoint {
		return nil, fmt.Errorf("%w: %s is not an integer", ErrUnsupported, dt.Class)
	}
	switch dt.Size {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("%w: %d-byte integer", ErrUnsupported, dt.Size)
	}
	elems, err := elements(dt, data, n)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, n)
	shift := 64 - 8*dt.Size
	for i, e := range elems {
		v := binary.DecodeUint(e, dt.ByteOrder.Binary())
		if dt.Signed {
			v = uint64(int64(v<<shift) >> shift)
		}
		out[i] = v
	}
	return out, nil
}

// DecodeFloats decodes n IEEE floating-point elements.
func DecodeFloats(dt *message.Datatype, data []byte, n uint64) ([]float64, error) {
	if dt.Class != message.ClassFloatPoint {
		return nil, fmt.Errorf("%w: %s is not a float", ErrUnsupported, dt.Class)
	}
	elems, err := elements(dt, data, n)
	if err != nil {
		return nil, err
	}
	order := dt.ByteOrder.Binary()
	out := make([]float64, n)
	for i, e := range elems {
		switch dt.Size {
		case 4:
			out[i] = float64(math.Float32frombits(order.Uint32(e)))
		case 8:
			out[i] = math.Float64frombits(order.Uint64(e))
		default:
			return nil, fmt.Errorf("%w: %d-byte float", ErrUnsupported, dt.Size)
		}
	}
	return out, nil
}

// DecodeStrings decodes n fixed or variable-length strings. hp may be nil
// when dt is a fixed-length string.
func DecodeStrings(dt *message.Datatype, data []byte, n uint64, cfg binary.Config, hp HeapObjects) ([]string, error) {
	switch {
	case dt.Class == message.ClassString:
		elems, err := elements(dt, data, n)
		if err != nil {
			return nil, err
		}
		out := make([]string, n)
		for i, e := range elems {
			out[i] = trimString(e, dt.StringPadding)
		}
		return out, nil

	case dt.Class == message.ClassVarLen && dt.IsVarLenString:
		size := uint64(heap.VarLenSize(cfg.OffsetSize))
		if uint64(len(data)) < size*n {
			return nil, fmt.Errorf("attribute data too short: need %d bytes, have %d", size*n, len(data))
		}
		out := make([]string, n)
		for i := range out {
			vl, err := heap.ParseVarLen(data[uint64(i)*size:], cfg)
			if err != nil {
				return nil, err
			}
			if vl.Length == 0 {
				continue
			}
			if hp == nil {
				return nil, fmt.Errorf("variable-length string needs a global heap reader")
			}
			obj, err := hp.Object(vl.ID)
			if err != nil {
				return nil, err
			}
			if uint64(vl.Length) < uint64(len(obj)) {
				obj = obj[:vl.Length]
			}
			out[i] = trimString(obj, message.PadNullTerm)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: %s is not a string", ErrUnsupported, dt.Class)
	}
}

func trimString(b []byte, pad message.StringPadding) string {
	switch pad {
	case message.PadSpacePad:
		return string(bytes.TrimRight(b, " "))
	case message.PadNullPad:
		return string(bytes.TrimRight(b, "\x00"))
	default:
		if i := bytes.IndexByte(b, 0); i >= 0 {
			return string(b[:i])
		}
		return string(b)
	}
}
