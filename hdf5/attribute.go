package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/ncattr/internal/binary"
	"github.com/robert-malhotra/ncattr/internal/dtype"
	"github.com/robert-malhotra/ncattr/internal/heap"
	"github.com/robert-malhotra/ncattr/internal/message"
)

// Class is the broad kind of an attribute's datatype.
type Class int

const (
	ClassOther Class = iota
	ClassInteger
	ClassFloat
	ClassString
)

func (c Class) String() string {
	switch c {
	case ClassInteger:
		return "integer"
	case ClassFloat:
		return "float"
	case ClassString:
		return "string"
	default:
		return "other"
	}
}

// TypeInfo describes the stored type of an attribute.
type TypeInfo struct {
	Class Class
	// Size is the element size in bytes; 0 for variable-length strings.
	Size   int
	Signed bool
	VarLen bool
	UTF8   bool
	// Name is the HDF5 datatype class name, such as "compound".
	Name string
}

// Attribute represents an HDF5 attribute attached to a group.
type Attribute struct {
	msg  *message.Attribute
	file *File // For resolving global heap references
}

// Name returns the attribute name.
func (a *Attribute) Name() string {
	return a.msg.Name
}

// Shape returns the dimensions of the attribute value.
func (a *Attribute) Shape() []uint64 {
	if a.msg.Dataspace == nil || a.msg.Dataspace.SpaceType != message.DataspaceSimple {
		return nil
	}
	return a.msg.Dataspace.Dimensions
}

// NumElements returns the total number of elements.
func (a *Attribute) NumElements() uint64 {
	if a.msg.Dataspace == nil {
		return 0
	}
	return a.msg.Dataspace.NumElements()
}

// IsScalar returns true if the attribute holds a single value. An empty
// string stored with a null dataspace counts as a scalar.
func (a *Attribute) IsScalar() bool {
	ds, dt := a.msg.Dataspace, a.msg.Datatype
	if ds == nil || dt == nil {
		return false
	}
	if ds.SpaceType == message.DataspaceNull {
		return dt.IsString()
	}
	return ds.IsScalar()
}

// TypeInfo returns the attribute's stored type.
func (a *Attribute) TypeInfo() TypeInfo {
	dt := a.msg.Datatype
	if dt == nil {
		return TypeInfo{Class: ClassOther, Name: "shared"}
	}
	info := TypeInfo{Size: int(dt.Size), Name: dt.Class.String()}
	switch {
	case dt.IsInteger():
		info.Class = ClassInteger
		info.Signed = dt.Signed
	case dt.IsFloat():
		info.Class = ClassFloat
	case dt.IsString():
		info.Class = ClassString
		info.UTF8 = dt.CharSet == message.CharsetUTF8
		if dt.Class == message.ClassVarLen {
			info.VarLen = true
			info.Size = 0
			info.Name = "string"
		}
	}
	return info
}

// Value reads the attribute and returns an auto-typed Go value:
//   - signed integers: int64 or []int64
//   - unsigned integers: uint64 or []uint64
//   - floats: float64 or []float64
//   - strings: string or []string
//
// Other datatype classes return ErrUnsupported.
func (a *Attribute) Value() (any, error) {
	dt, ds := a.msg.Datatype, a.msg.Dataspace
	if dt == nil || ds == nil {
		return nil, fmt.Errorf("%w: attribute %q uses a shared datatype or dataspace", ErrUnsupported, a.msg.Name)
	}
	n := ds.NumElements()
	scalar := a.IsScalar()

	switch {
	case dt.IsInteger():
		bits, err := dtype.DecodeIntegers(dt, a.msg.Data, n)
		if err != nil {
			return nil, err
		}
		if !dt.Signed {
			if scalar {
				return bits[0], nil
			}
			return bits, nil
		}
		vals := make([]int64, len(bits))
		for i, b := range bits {
			vals[i] = int64(b)
		}
		if scalar {
			return vals[0], nil
		}
		return vals, nil

	case dt.IsFloat():
		vals, err := dtype.DecodeFloats(dt, a.msg.Data, n)
		if err != nil {
			return nil, err
		}
		if scalar {
			return vals[0], nil
		}
		return vals, nil

	case dt.IsString():
		if ds.SpaceType == message.DataspaceNull {
			return "", nil
		}
		vals, err := dtype.DecodeStrings(dt, a.msg.Data, n, a.file.reader.Config(), newHeapReader(a.file.reader))
		if err != nil {
			return nil, err
		}
		if scalar {
			return vals[0], nil
		}
		return vals, nil

	default:
		return nil, fmt.Errorf("%w: %s attribute %q", ErrUnsupported, dt.Class, a.msg.Name)
	}
}

// heapReader resolves global heap IDs, reading each collection once.
type heapReader struct {
	r    *binary.Reader
	cols map[uint64]*heap.Collection
}

func newHeapReader(r *binary.Reader) *heapReader {
	return &heapReader{r: r, cols: make(map[uint64]*heap.Collection)}
}

func (h *heapReader) Object(id heap.GlobalHeapID) ([]byte, error) {
	col, ok := h.cols[id.CollectionAddress]
	if !ok {
		var err error
		col, err = heap.ReadCollection(h.r, id.CollectionAddress)
		if err != nil {
			return nil, err
		}
		h.cols[id.CollectionAddress] = col
	}
	if id.ObjectIndex > 0xffff {
		return nil, fmt.Errorf("global heap object index %d out of range", id.ObjectIndex)
	}
	return col.Object(uint16(id.ObjectIndex))
}
