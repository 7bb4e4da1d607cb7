package heap

import (
	"fmt"

	"github.com/robert-malhotra/ncattr/internal/binary"
)

// Collection is a decoded global heap collection.
type Collection struct {
	Address uint64
	Size    uint64
	objects map[uint16][]byte
}

// GlobalHeapID names one object in a global heap collection.
type GlobalHeapID struct {
	CollectionAddress uint64
	ObjectIndex       uint32
}

// objectHeaderSize is index(2) + refcount(2) + reserved(4) + size(L).
func objectHeaderSize(lengthSize int) int { return 8 + lengthSize }

// collectionHeaderSize is "GCOL"(4) + version(1) + reserved(3) + size(L).
func collectionHeaderSize(lengthSize int) int { return 8 + lengthSize }

// ReadCollection reads the global heap collection at address.
func ReadCollection(r *binary.Reader, address uint64) (*Collection, error) {
	if address == 0 || r.IsUndefinedOffset(address) {
		return nil, fmt.Errorf("invalid global heap address %#x", address)
	}
	hr := r.At(int64(address))

	sig, err := hr.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("reading global heap signature: %w", err)
	}
	if string(sig) != "GCOL" {
		return nil, fmt.Errorf("invalid global heap signature: %q", sig)
	}
	version, err := hr.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("unsupported global heap version: %d", version)
	}
	hr.Skip(3)
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}

	c := &Collection{Address: address, Size: size, objects: make(map[uint16][]byte)}
	end := int64(address + size)
	ohs := int64(objectHeaderSize(r.LengthSize()))

	for hr.Pos()+ohs <= end {
		index, err := hr.ReadUint16()
		if err != nil {
			return nil, err
		}
		if index == 0 {
			// Free space runs to the end of the collection.
			break
		}
		hr.Skip(2 + 4)
		n, err := hr.ReadLength()
		if err != nil {
			return nil, err
		}
		if hr.Pos()+int64(n) > end {
			return nil, fmt.Errorf("global heap object %d overruns its collection", index)
		}
		data, err := hr.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		c.objects[index] = data
		hr.Skip(int64(pad8(int(n))))
	}
	return c, nil
}

// Object returns a copy of the object with the given index.
func (c *Collection) Object(index uint16) ([]byte, error) {
	data, ok := c.objects[index]
	if !ok {
		return nil, fmt.Errorf("object index %d not found in global heap at %#x", index, c.Address)
	}
	return append([]byte(nil), data...), nil
}

// Len returns the number of objects in the collection.
func (c *Collection) Len() int { return len(c.objects) }

// VarLen is the in-file descriptor of a variable-length value: the number
// of base elements (bytes, for strings) and where they are stored.
type VarLen struct {
	Length uint32
	ID     GlobalHeapID
}

// VarLenSize is the encoded size of a VarLen descriptor.
func VarLenSize(offsetSize int) int { return 4 + offsetSize + 4 }

// ParseVarLen decodes a VarLen descriptor.
func ParseVarLen(data []byte, cfg binary.Config) (VarLen, error) {
	if len(data) < VarLenSize(cfg.OffsetSize) {
		return VarLen{}, fmt.Errorf("variable-length descriptor too short: need %d bytes, have %d",
			VarLenSize(cfg.OffsetSize), len(data))
	}
	r := binary.NewBytesReader(data, cfg)
	var v VarLen
	v.Length, _ = r.ReadUint32()
	v.ID.CollectionAddress, _ = r.ReadOffset()
	v.ID.ObjectIndex, _ = r.ReadUint32()
	return v, nil
}

// Encode returns the encoded descriptor.
func (v VarLen) Encode(cfg binary.Config) []byte {
	buf := &binary.Buffer{}
	w := binary.NewWriter(buf, cfg)
	_ = w.WriteUint32(v.Length)
	_ = w.WriteOffset(v.ID.CollectionAddress)
	_ = w.WriteUint32(v.ID.ObjectIndex)
	return buf.Bytes()
}

func pad8(n int) int { return (8 - n%8) % 8 }
