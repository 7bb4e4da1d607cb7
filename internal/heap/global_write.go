package heap

import (
	"fmt"

	"github.com/robert-malhotra/ncattr/internal/binary"
)

// MinCollectionSize is the smallest collection the HDF5 library expects to
// read in one piece.
const MinCollectionSize = 4096

// Allocator hands out file space for a new collection.
type Allocator func(size int64) uint64

// Writer accumulates objects for one new global heap collection.
type Writer struct {
	w       *binary.Writer
	alloc   Allocator
	objects [][]byte
}

// NewWriter creates a Writer that places its collection with alloc.
func NewWriter(w *binary.Writer, alloc Allocator) *Writer {
	return &Writer{w: w, alloc: alloc}
}

// AddString queues s as a heap object. The object holds the string bytes
// without a terminator; the descriptor carries the length.
func (hw *Writer) AddString(s string) uint16 {
	hw.objects = append(hw.objects, []byte(s))
	return uint16(len(hw.objects))
}

// Write allocates and writes the collection and returns one ID per queued
// object, in the order they were added.
func (hw *Writer) Write() ([]GlobalHeapID, error) {
	if len(hw.objects) == 0 {
		return nil, nil
	}
	if len(hw.objects) > 0xffff {
		return nil, fmt.Errorf("too many global heap objects: %d", len(hw.objects))
	}
	ls := hw.w.LengthSize()
	ohs := objectHeaderSize(ls)

	used := collectionHeaderSize(ls)
	for _, obj := range hw.objects {
		used += ohs + len(obj) + pad8(len(obj))
	}
	size := used + ohs
	size += pad8(size)
	if size < MinCollectionSize {
		size = MinCollectionSize
	}

	addr := hw.alloc(int64(size))
	buf := &binary.Buffer{}
	w := binary.NewWriter(buf, hw.w.Config())

	if err := w.WriteBytes([]byte{'G', 'C', 'O', 'L', 1, 0, 0, 0}); err != nil {
		return nil, err
	}
	if err := w.WriteLength(uint64(size)); err != nil {
		return nil, err
	}

	ids := make([]GlobalHeapID, len(hw.objects))
	for i, obj := range hw.objects {
		index := uint16(i + 1)
		if err := writeObjectHeader(w, index, 1, uint64(len(obj))); err != nil {
			return nil, err
		}
		if err := w.WriteBytes(obj); err != nil {
			return nil, err
		}
		if err := w.WriteZeros(pad8(len(obj))); err != nil {
			return nil, err
		}
		ids[i] = GlobalHeapID{CollectionAddress: addr, ObjectIndex: uint32(index)}
	}

	// The free-space object's size includes its own header.
	free := size - int(w.Pos())
	if err := writeObjectHeader(w, 0, 0, uint64(free)); err != nil {
		return nil, err
	}
	if err := w.WriteZeros(size - int(w.Pos())); err != nil {
		return nil, err
	}

	if err := hw.w.At(int64(addr)).WriteBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("writing global heap at %#x: %w", addr, err)
	}
	return ids, nil
}

func writeObjectHeader(w *binary.Writer, index, refs uint16, size uint64) error {
	if err := w.WriteUint16(index); err != nil {
		return err
	}
	if err := w.WriteUint16(refs); err != nil {
		return err
	}
	if err := w.WriteZeros(4); err != nil {
		return err
	}
	return w.WriteLength(size)
}
