// Package testfile builds small files for tests: HDF5 files in the layouts
// older HDF5 libraries write (a version 0 superblock and a version 1 root
// object header, optionally with its attributes in dense storage), and
// classic netCDF files with one variable.
package testfile

import (
	"encoding/binary"
	"os"
	"testing"

	h5binary "github.com/robert-malhotra/ncattr/internal/binary"
)

// Datatype and dataspace message bodies.
var (
	Int32LE   = []byte{0x10, 0x08, 0, 0, 4, 0, 0, 0, 0, 0, 32, 0}
	Float32LE = []byte{0x11, 0x20, 31, 0, 4, 0, 0, 0, 0, 0, 32, 0, 23, 8, 0, 23, 127, 0, 0, 0}

	ScalarV1 = []byte{1, 0, 0, 0, 0, 0, 0, 0}
	PairV1   = []byte{1, 1, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0}
)

const rootAddr = 96

var le = binary.LittleEndian

// FixedString is an n-byte null-terminated ASCII string datatype.
func FixedString(n int) []byte {
	return []byte{0x13, 0, 0, 0, byte(n), 0, 0, 0}
}

// LE32 encodes v little-endian.
func LE32(v int32) []byte { return le.AppendUint32(nil, uint32(v)) }

// Message is a raw header message.
type Message struct {
	Type uint16
	Data []byte
}

// Pad8 pads b with zeros to a multiple of eight bytes.
func Pad8(b []byte) []byte {
	for len(b)%8 != 0 {
		b = append(b, 0)
	}
	return b
}

// V1Attribute builds a version 1 attribute message.
func V1Attribute(name string, dt, ds, data []byte) Message {
	nameBytes := append([]byte(name), 0)
	b := []byte{1, 0}
	b = le.AppendUint16(b, uint16(len(nameBytes)))
	b = le.AppendUint16(b, uint16(len(dt)))
	b = le.AppendUint16(b, uint16(len(ds)))
	b = append(b, Pad8(nameBytes)...)
	b = append(b, Pad8(append([]byte(nil), dt...))...)
	b = append(b, Pad8(append([]byte(nil), ds...))...)
	b = append(b, data...)
	return Message{Type: 0x000C, Data: Pad8(b)}
}

// SymbolTable is the symbol table message of an old-style root group.
func SymbolTable() Message {
	b := le.AppendUint64(nil, 136)
	b = le.AppendUint64(b, 680)
	return Message{Type: 0x0011, Data: b}
}

// attributeInfo tracks creation order and points at dense storage.
func attributeInfo(maxIndex uint16, heapAddr, indexAddr uint64) Message {
	b := []byte{0, 0x01}
	b = le.AppendUint16(b, maxIndex)
	b = le.AppendUint64(b, heapAddr)
	b = le.AppendUint64(b, indexAddr)
	return Message{Type: 0x0015, Data: Pad8(b)}
}

// Legacy writes a v0 superblock followed by a v1 root header holding msgs.
func Legacy(t testing.TB, path string, msgs ...Message) {
	t.Helper()
	write(t, path, nil, msgs)
}

// Dense writes a legacy file whose root attributes, given as attribute
// messages, live in a fractal heap indexed by a name B-tree. Attributes
// get creation orders in argument order; the index lists them in reverse.
func Dense(t testing.TB, path string, attrs ...Message) {
	t.Helper()
	info := attributeInfo(uint16(len(attrs)), 0, 0)
	base := uint64(rootAddr + headerSize([]Message{SymbolTable(), info}))

	const heapHeaderSize = 146
	heapAddr := base
	block := align8(heapAddr + heapHeaderSize)
	objects := 17 // direct block header
	for _, a := range attrs {
		objects += len(a.Data)
	}
	blockSize := uint64(512)
	for blockSize < uint64(objects) {
		blockSize *= 2
	}
	indexAddr := block + blockSize
	leafAddr := align8(indexAddr + 38)

	tail := make([]byte, leafAddr+uint64(6+17*len(attrs)+4)-base)
	put := func(addr uint64, b []byte) { copy(tail[addr-base:], b) }

	put(heapAddr, fractalHeap(heapAddr, block, blockSize))

	db := []byte("FHDB")
	db = append(db, 0)
	db = le.AppendUint64(db, heapAddr)
	db = le.AppendUint32(db, 0)
	var records []byte
	off := uint32(len(db))
	for i, a := range attrs {
		db = append(db, a.Data...)
		id := le.AppendUint32([]byte{0}, off)
		id = append(le.AppendUint16(id, uint16(len(a.Data))), 0)
		rec := append(id, 0)
		rec = le.AppendUint32(rec, uint32(i))
		rec = le.AppendUint32(rec, uint32(i)*2654435761)
		records = append(rec, records...)
		off += uint32(len(a.Data))
	}
	put(block, db)

	put(indexAddr, nameIndex(leafAddr, len(attrs)))
	leaf := append([]byte("BTLF"), 0, 8)
	leaf = append(leaf, records...)
	put(leafAddr, append(leaf, 0, 0, 0, 0))

	write(t, path, tail, []Message{SymbolTable(), attributeInfo(uint16(len(attrs)), heapAddr, indexAddr)})
}

func fractalHeap(addr, root, blockSize uint64) []byte {
	b := []byte("FRHP")
	b = append(b, 0)
	b = le.AppendUint16(b, 8) // heap ID length
	b = le.AppendUint16(b, 0)
	b = append(b, 0)
	b = le.AppendUint32(b, 4096) // max managed object size
	b = le.AppendUint64(b, 0)
	b = le.AppendUint64(b, ^uint64(0))
	b = le.AppendUint64(b, 0)
	b = le.AppendUint64(b, ^uint64(0))
	for i := 0; i < 8; i++ {
		b = le.AppendUint64(b, 0)
	}
	b = le.AppendUint16(b, 4) // table width
	b = le.AppendUint64(b, blockSize)
	b = le.AppendUint64(b, 65536)
	b = le.AppendUint16(b, 32)
	b = le.AppendUint16(b, 1)
	b = le.AppendUint64(b, root)
	b = le.AppendUint16(b, 0)
	return le.AppendUint32(b, h5binary.Lookup3Checksum(b))
}

func nameIndex(leaf uint64, n int) []byte {
	b := []byte("BTHD")
	b = append(b, 0, 8)
	b = le.AppendUint32(b, 512)
	b = le.AppendUint16(b, 17)
	b = le.AppendUint16(b, 0)
	b = append(b, 100, 40)
	b = le.AppendUint64(b, leaf)
	b = le.AppendUint16(b, uint16(n))
	b = le.AppendUint64(b, uint64(n))
	return le.AppendUint32(b, h5binary.Lookup3Checksum(b))
}

func headerSize(msgs []Message) int {
	n := 16
	for _, m := range msgs {
		n += 8 + len(m.Data)
	}
	return n
}

func align8(v uint64) uint64 { return (v + 7) &^ 7 }

func write(t testing.TB, path string, tail []byte, msgs []Message) {
	t.Helper()
	var body []byte
	for _, m := range msgs {
		body = le.AppendUint16(body, m.Type)
		body = le.AppendUint16(body, uint16(len(m.Data)))
		body = append(body, 0, 0, 0, 0)
		body = append(body, m.Data...)
	}
	header := []byte{1, 0}
	header = le.AppendUint16(header, uint16(len(msgs)))
	header = le.AppendUint32(header, 1)
	header = le.AppendUint32(header, uint32(len(body)))
	header = append(header, 0, 0, 0, 0)
	header = append(header, body...)

	eof := uint64(rootAddr + len(header) + len(tail))

	sb := []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0, 0, 8, 8, 0}
	sb = le.AppendUint16(sb, 4)
	sb = le.AppendUint16(sb, 16)
	sb = le.AppendUint32(sb, 0)
	for _, v := range []uint64{0, ^uint64(0), eof, ^uint64(0), 0, rootAddr} {
		sb = le.AppendUint64(sb, v)
	}
	sb = le.AppendUint32(sb, 1)
	sb = le.AppendUint32(sb, 0)
	sb = le.AppendUint64(sb, 136)
	sb = le.AppendUint64(sb, 680)
	if len(sb) != rootAddr {
		t.Fatalf("superblock is %d bytes, want %d", len(sb), rootAddr)
	}

	out := append(sb, header...)
	if err := os.WriteFile(path, append(out, tail...), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
}
