package heap

import (
	"bytes"
	stdbinary "encoding/binary"
	"errors"
	"testing"

	"github.com/robert-malhotra/ncattr/internal/binary"
)

var le = stdbinary.LittleEndian

const undef = ^uint64(0)

type heapParams struct {
	idLen      uint16
	maxManaged uint32
	width      uint16
	startBlock uint64
	maxDirect  uint64
	heapBits   uint16
	rootAddr   uint64
	rootRows   uint16
}

func fractalHeader(p heapParams) []byte {
	b := []byte("FRHP")
	b = append(b, 0)
	b = le.AppendUint16(b, p.idLen)
	b = le.AppendUint16(b, 0) // no filters
	b = append(b, 0)
	b = le.AppendUint32(b, p.maxManaged)
	b = le.AppendUint64(b, 0)     // next huge ID
	b = le.AppendUint64(b, undef) // huge object B-tree
	b = le.AppendUint64(b, 0)     // free space
	b = le.AppendUint64(b, undef) // free space manager
	for i := 0; i < 8; i++ {
		b = le.AppendUint64(b, 0) // managed, huge and tiny statistics
	}
	b = le.AppendUint16(b, p.width)
	b = le.AppendUint64(b, p.startBlock)
	b = le.AppendUint64(b, p.maxDirect)
	b = le.AppendUint16(b, p.heapBits)
	b = le.AppendUint16(b, 1)
	b = le.AppendUint64(b, p.rootAddr)
	b = le.AppendUint16(b, p.rootRows)
	return le.AppendUint32(b, binary.Lookup3Checksum(b))
}

// indirectBlock lays out an FHIB block of a heap with 2-byte offsets.
func indirectBlock(blockOffset uint16, children ...uint64) []byte {
	b := []byte("FHIB")
	b = append(b, 0)
	b = le.AppendUint64(b, 0) // heap header address
	b = le.AppendUint16(b, blockOffset)
	for _, c := range children {
		b = le.AppendUint64(b, c)
	}
	return append(b, 0, 0, 0, 0)
}

// managedID encodes a 4-byte offset and a 2-byte length.
func managedID(off uint32, n uint16) []byte {
	id := le.AppendUint32([]byte{0}, off)
	return append(le.AppendUint16(id, n), 0)
}

func place(buf *binary.Buffer, addr uint64, b []byte) {
	buf.WriteAt(b, int64(addr))
}

func readHeap(t *testing.T, buf *binary.Buffer) *FractalHeap {
	t.Helper()
	r := binary.NewReader(bytes.NewReader(buf.Bytes()), binary.DefaultConfig())
	h, err := ReadFractalHeap(r, 0)
	if err != nil {
		t.Fatalf("ReadFractalHeap: %v", err)
	}
	return h
}

func TestFractalHeapRootDirectBlock(t *testing.T) {
	buf := &binary.Buffer{}
	place(buf, 0, fractalHeader(heapParams{
		idLen: 8, maxManaged: 4096, width: 4, startBlock: 512, maxDirect: 65536,
		heapBits: 32, rootAddr: 256,
	}))
	place(buf, 256, make([]byte, 512))
	place(buf, 256+17, []byte("first"))
	place(buf, 256+22, []byte("second"))

	h := readHeap(t, buf)
	if h.offBytes != 4 || h.lenBytes != 2 {
		t.Fatalf("ID widths = %d/%d, want 4/2", h.offBytes, h.lenBytes)
	}
	for _, tt := range []struct {
		id   []byte
		want string
	}{
		{managedID(17, 5), "first"},
		{managedID(22, 6), "second"},
	} {
		got, err := h.Object(tt.id)
		if err != nil || string(got) != tt.want {
			t.Errorf("Object(%v) = %q, %v; want %q", tt.id, got, err, tt.want)
		}
	}
	if _, err := h.Object(managedID(510, 5)); err == nil {
		t.Error("expected error for an object past the root block")
	}
}

func TestFractalHeapIndirectBlocks(t *testing.T) {
	// Width 2, 64-byte starting blocks, 128-byte direct blocks: rows 0-2
	// hold direct blocks and row 3 holds 256-byte indirect blocks.
	const rootAddr, direct1, nested, direct2 = 512, 1024, 1536, 2048
	buf := &binary.Buffer{}
	place(buf, 0, fractalHeader(heapParams{
		idLen: 8, maxManaged: 128, width: 2, startBlock: 64, maxDirect: 128,
		heapBits: 16, rootAddr: rootAddr, rootRows: 4,
	}))
	place(buf, rootAddr, indirectBlock(0,
		undef, undef, // row 0: [0,128)
		direct1, undef, // row 1: [128,256)
		undef, undef, // row 2: [256,512)
		nested, undef, // row 3: [512,1024)
	))
	// The nested block at heap offset 512 has two direct rows.
	place(buf, nested, indirectBlock(512, undef, undef, direct2, undef))
	place(buf, direct1, make([]byte, 64))
	place(buf, direct1+20, []byte("row one"))
	place(buf, direct2, make([]byte, 64))
	place(buf, direct2+60, []byte("deep"))

	h := readHeap(t, buf)
	if h.offBytes != 2 || h.lenBytes != 1 {
		t.Fatalf("ID widths = %d/%d, want 2/1", h.offBytes, h.lenBytes)
	}
	id := func(off uint16, n byte) []byte { return append(le.AppendUint16([]byte{0}, off), n) }

	got, err := h.Object(id(148, 7))
	if err != nil || string(got) != "row one" {
		t.Errorf("row 1 object = %q, %v", got, err)
	}
	got, err = h.Object(id(700, 4))
	if err != nil || string(got) != "deep" {
		t.Errorf("nested object = %q, %v", got, err)
	}
	if _, err := h.Object(id(10, 4)); err == nil {
		t.Error("expected error for an unallocated block")
	}
	if _, err := h.Object(id(190, 4)); err == nil {
		t.Error("expected error for an object crossing a block boundary")
	}
}

func TestFractalHeapTinyAndHuge(t *testing.T) {
	buf := &binary.Buffer{}
	place(buf, 0, fractalHeader(heapParams{
		idLen: 8, maxManaged: 4096, width: 4, startBlock: 512, maxDirect: 65536,
		heapBits: 32, rootAddr: undef,
	}))
	h := readHeap(t, buf)

	got, err := h.Object([]byte{0x20 | 2, 'a', 'b', 'c', 0, 0, 0, 0})
	if err != nil || string(got) != "abc" {
		t.Errorf("tiny object = %q, %v", got, err)
	}
	if _, err := h.Object([]byte{0x10, 0, 0, 0, 0, 0, 0, 0}); err == nil {
		t.Error("expected error for a huge object")
	}
	if _, err := h.Object(managedID(17, 4)); err == nil {
		t.Error("expected error for a heap without blocks")
	}
	if _, err := h.Object([]byte{0x40}); err == nil {
		t.Error("expected error for an unknown ID version")
	}
}

func TestReadFractalHeapRejects(t *testing.T) {
	hdr := fractalHeader(heapParams{
		idLen: 8, maxManaged: 4096, width: 4, startBlock: 512, maxDirect: 65536,
		heapBits: 32, rootAddr: undef,
	})
	hdr[10] ^= 0xff
	r := binary.NewReader(bytes.NewReader(hdr), binary.DefaultConfig())
	if _, err := ReadFractalHeap(r, 0); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}

	hdr = fractalHeader(heapParams{
		idLen: 8, maxManaged: 4096, width: 3, startBlock: 512, maxDirect: 65536,
		heapBits: 32, rootAddr: undef,
	})
	r = binary.NewReader(bytes.NewReader(hdr), binary.DefaultConfig())
	if _, err := ReadFractalHeap(r, 0); err == nil {
		t.Error("expected error for a table width that is not a power of two")
	}

	r = binary.NewReader(bytes.NewReader([]byte("GCOL and then some bytes")), binary.DefaultConfig())
	if _, err := ReadFractalHeap(r, 0); err == nil {
		t.Error("expected error for a bad signature")
	}
}
