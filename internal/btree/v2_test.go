package btree

import (
	"bytes"
	stdbinary "encoding/binary"
	"errors"
	"testing"

	"github.com/robert-malhotra/ncattr/internal/binary"
)

var le = stdbinary.LittleEndian

// nameRecord builds a type 8 record whose heap ID starts with id.
func nameRecord(id byte, order uint32) []byte {
	b := []byte{0, id, 0, 0, 0, 0, 0, 0} // heap ID
	b = append(b, 0)                     // message flags
	b = le.AppendUint32(b, order)
	return le.AppendUint32(b, uint32(id)*7) // name hash
}

func treeHeader(typ uint8, depth uint16, root uint64, nroot uint16, total uint64) []byte {
	b := []byte("BTHD")
	b = append(b, 0, typ)
	b = le.AppendUint32(b, 512) // node size
	b = le.AppendUint16(b, attributeNameRecordSize)
	b = le.AppendUint16(b, depth)
	b = append(b, 100, 40)
	b = le.AppendUint64(b, root)
	b = le.AppendUint16(b, nroot)
	b = le.AppendUint64(b, total)
	return le.AppendUint32(b, binary.Lookup3Checksum(b))
}

func node(sig string, recs [][]byte, children ...[]byte) []byte {
	b := append([]byte(sig), 0, TypeAttributeName)
	for _, r := range recs {
		b = append(b, r...)
	}
	for _, c := range children {
		b = append(b, c...)
	}
	return append(b, 0, 0, 0, 0) // checksum, not verified for nodes
}

// childPointer is an address plus a one-byte record count: a 512-byte node
// holds 29 records, so counts fit in one byte.
func childPointer(addr uint64, n byte) []byte {
	return append(le.AppendUint64(nil, addr), n)
}

func reader(b []byte) *binary.Reader {
	return binary.NewReader(bytes.NewReader(b), binary.DefaultConfig())
}

func TestReadAttributeNameIndexLeaf(t *testing.T) {
	recs := [][]byte{nameRecord(1, 2), nameRecord(2, 0), nameRecord(3, 1)}
	file := treeHeader(TypeAttributeName, 0, 64, 3, 3)
	file = append(file, make([]byte, 64-len(file))...)
	file = append(file, node("BTLF", recs)...)

	got, err := ReadAttributeNameIndex(reader(file), 0)
	if err != nil {
		t.Fatalf("ReadAttributeNameIndex: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	for i, want := range []struct {
		id    byte
		order uint32
	}{{1, 2}, {2, 0}, {3, 1}} {
		if got[i].HeapID[1] != want.id || got[i].CreationOrder != want.order {
			t.Errorf("record %d = %+v, want id %d order %d", i, got[i], want.id, want.order)
		}
		if len(got[i].HeapID) != heapIDSize {
			t.Errorf("record %d heap ID is %d bytes", i, len(got[i].HeapID))
		}
		if got[i].NameHash != uint32(want.id)*7 {
			t.Errorf("record %d hash = %d", i, got[i].NameHash)
		}
	}
}

func TestReadAttributeNameIndexInternal(t *testing.T) {
	// Root at 64 holds record 20 between a left leaf (10, 11) and a right
	// leaf (30).
	const rootAddr, leftAddr, rightAddr = 64, 256, 384
	file := treeHeader(TypeAttributeName, 1, rootAddr, 1, 4)
	pad := func(to int) { file = append(file, make([]byte, to-len(file))...) }

	pad(rootAddr)
	file = append(file, node("BTIN", [][]byte{nameRecord(20, 2)},
		childPointer(leftAddr, 2), childPointer(rightAddr, 1))...)
	pad(leftAddr)
	file = append(file, node("BTLF", [][]byte{nameRecord(10, 0), nameRecord(11, 1)})...)
	pad(rightAddr)
	file = append(file, node("BTLF", [][]byte{nameRecord(30, 3)})...)

	got, err := ReadAttributeNameIndex(reader(file), 0)
	if err != nil {
		t.Fatalf("ReadAttributeNameIndex: %v", err)
	}
	var ids []byte
	for _, r := range got {
		ids = append(ids, r.HeapID[1])
	}
	if !bytes.Equal(ids, []byte{10, 11, 20, 30}) {
		t.Errorf("records in order %v, want [10 11 20 30]", ids)
	}
}

func TestReadAttributeNameIndexEmpty(t *testing.T) {
	file := treeHeader(TypeAttributeName, 0, ^uint64(0), 0, 0)
	got, err := ReadAttributeNameIndex(reader(file), 0)
	if err != nil || len(got) != 0 {
		t.Errorf("empty tree = %v, %v", got, err)
	}
}

func TestReadAttributeNameIndexRejects(t *testing.T) {
	file := treeHeader(10, 0, 64, 0, 0)
	if _, err := ReadAttributeNameIndex(reader(file), 0); err == nil {
		t.Error("expected error for a chunk index tree")
	}

	file = treeHeader(TypeAttributeName, 0, 64, 1, 1)
	file[8] ^= 0xff
	if _, err := ReadAttributeNameIndex(reader(file), 0); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}

	file = treeHeader(TypeAttributeName, 0, 64, 1, 1)
	file = append(file, make([]byte, 64-len(file))...)
	file = append(file, node("BTIN", [][]byte{nameRecord(1, 0)})...)
	if _, err := ReadAttributeNameIndex(reader(file), 0); err == nil {
		t.Error("expected error for a leaf with the wrong signature")
	}
}

func TestLayoutWidths(t *testing.T) {
	h := &v2Header{NodeSize: 512, RecordSize: attributeNameRecordSize, Depth: 2}
	if err := h.layout(8); err != nil {
		t.Fatalf("layout: %v", err)
	}
	if h.nrecSize != 1 {
		t.Errorf("nrecSize = %d, want 1", h.nrecSize)
	}
	// Depth 1 nodes hold (502-9)/26 = 18 records over 19 leaves of 29:
	// 18 + 19*29 = 569 records, two bytes.
	if h.totalSize[1] != 2 {
		t.Errorf("totalSize[1] = %d, want 2", h.totalSize[1])
	}
	if got := h.pointerSize(8, 2); got != 8+1+2 {
		t.Errorf("pointerSize(depth 2) = %d, want 11", got)
	}

	for n, want := range map[uint64]int{0: 1, 1: 1, 255: 1, 256: 2, 65535: 2, 65536: 3} {
		if got := encodedSize(n); got != want {
			t.Errorf("encodedSize(%d) = %d, want %d", n, got, want)
		}
	}
}
