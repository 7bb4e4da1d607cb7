package message

import (
	"fmt"

	"github.com/robert-malhotra/ncattr/internal/binary"
)

// DataspaceType is the shape class of a dataspace.
type DataspaceType uint8

const (
	DataspaceScalar DataspaceType = 0
	DataspaceSimple DataspaceType = 1
	DataspaceNull   DataspaceType = 2
)

// Dataspace (0x0001) gives the shape of an attribute's value.
type Dataspace struct {
	Version    uint8
	SpaceType  DataspaceType
	Dimensions []uint64
	MaxDims    []uint64
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NumElements returns the number of elements the dataspace holds.
func (m *Dataspace) NumElements() uint64 {
	switch m.SpaceType {
	case DataspaceScalar:
		return 1
	case DataspaceSimple:
		n := uint64(1)
		for _, d := range m.Dimensions {
			n *= d
		}
		return n
	default:
		return 0
	}
}

// IsScalar reports whether the dataspace holds exactly one element, either
// as a true scalar or as a one-element simple dataspace.
func (m *Dataspace) IsScalar() bool {
	return m.SpaceType == DataspaceScalar || (m.SpaceType == DataspaceSimple && m.NumElements() == 1)
}

func parseDataspace(data []byte, cfg binary.Config) (*Dataspace, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("dataspace message too short")
	}
	ds := &Dataspace{Version: data[0]}
	rank := int(data[1])
	hasMax := data[2]&0x01 != 0

	offset := 4
	switch ds.Version {
	case 1:
		offset = 8
		ds.SpaceType = DataspaceSimple
		if rank == 0 {
			ds.SpaceType = DataspaceScalar
		}
	case 2:
		ds.SpaceType = DataspaceType(data[3])
	default:
		return nil, fmt.Errorf("unsupported dataspace version: %d", ds.Version)
	}
	if ds.SpaceType != DataspaceSimple || rank == 0 {
		return ds, nil
	}

	if len(data) < offset {
		return nil, fmt.Errorf("dataspace message truncated")
	}
	r := binary.NewBytesReader(data[offset:], cfg)
	read := func() ([]uint64, error) {
		dims := make([]uint64, rank)
		for i := range dims {
			v, err := r.ReadLength()
			if err != nil {
				return nil, fmt.Errorf("dataspace message truncated reading dimensions")
			}
			dims[i] = v
		}
		return dims, nil
	}
	var err error
	if ds.Dimensions, err = read(); err != nil {
		return nil, err
	}
	if hasMax {
		if ds.MaxDims, err = read(); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// Serialize writes a version 2 dataspace message body.
func (m *Dataspace) Serialize(w *binary.Writer) error {
	var flags uint8
	if len(m.MaxDims) > 0 {
		flags = 0x01
	}
	for _, b := range []uint8{2, uint8(len(m.Dimensions)), flags, uint8(m.SpaceType)} {
		if err := w.WriteUint8(b); err != nil {
			return err
		}
	}
	for _, d := range append(append([]uint64(nil), m.Dimensions...), m.MaxDims...) {
		if err := w.WriteLength(d); err != nil {
			return err
		}
	}
	return nil
}

// NewScalarDataspace returns a version 2 scalar dataspace.
func NewScalarDataspace() *Dataspace {
	return &Dataspace{Version: 2, SpaceType: DataspaceScalar}
}

// NewSimpleDataspace returns a fixed-size simple dataspace.
func NewSimpleDataspace(dims ...uint64) *Dataspace {
	return &Dataspace{Version: 2, SpaceType: DataspaceSimple, Dimensions: dims}
}

// NewNullDataspace returns a dataspace with no elements.
func NewNullDataspace() *Dataspace {
	return &Dataspace{Version: 2, SpaceType: DataspaceNull}
}
