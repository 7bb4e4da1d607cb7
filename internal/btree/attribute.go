package btree

import (
	"fmt"

	"github.com/robert-malhotra/ncattr/internal/binary"
)

// heapIDSize is the width of the fractal heap ID in attribute records.
const heapIDSize = 8

// attributeNameRecordSize is heap ID, message flags, creation order and
// name hash.
const attributeNameRecordSize = heapIDSize + 1 + 4 + 4

// FlagShared marks a record whose heap object is a shared message
// reference rather than the attribute message itself.
const FlagShared uint8 = 0x02

// AttributeRecord is one record of a dense attribute name index.
type AttributeRecord struct {
	HeapID        []byte
	Flags         uint8
	CreationOrder uint32
	NameHash      uint32
}

// ReadAttributeNameIndex returns the records of the type 8 B-tree at addr
// in name hash order.
func ReadAttributeNameIndex(r *binary.Reader, addr uint64) ([]AttributeRecord, error) {
	raw, err := readRecords(r, addr, TypeAttributeName)
	if err != nil {
		return nil, err
	}
	order := r.ByteOrder()
	recs := make([]AttributeRecord, len(raw))
	for i, b := range raw {
		if len(b) < attributeNameRecordSize {
			return nil, fmt.Errorf("attribute name record of %d bytes, want %d", len(b), attributeNameRecordSize)
		}
		recs[i] = AttributeRecord{
			HeapID:        b[:heapIDSize],
			Flags:         b[heapIDSize],
			CreationOrder: order.Uint32(b[heapIDSize+1:]),
			NameHash:      order.Uint32(b[heapIDSize+5:]),
		}
	}
	return recs, nil
}
