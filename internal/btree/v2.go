package btree

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/ncattr/internal/binary"
)

// TypeAttributeName is the record type of a dense attribute name index.
const TypeAttributeName uint8 = 8

// ErrChecksumMismatch is returned when a B-tree header fails verification.
var ErrChecksumMismatch = errors.New("B-tree v2 header checksum mismatch")

// nodePrefix is the signature, version, type and checksum every node
// carries around its records.
const nodePrefix = 10

// v2Header represents a B-tree v2 header (BTHD).
type v2Header struct {
	Version        uint8
	Type           uint8
	NodeSize       uint32
	RecordSize     uint16
	Depth          uint16
	SplitPercent   uint8
	MergePercent   uint8
	RootAddr       uint64
	NumRootRecords uint16
	TotalRecords   uint64

	// nrecSize is the width of a child pointer's record count.
	nrecSize int
	// totalSize[d] is the width of the total record count kept for a
	// child at depth d.
	totalSize []int
}

// readRecords returns every record of the tree at addr in key order.
// Records are returned as raw bytes of the header's record size.
func readRecords(r *binary.Reader, addr uint64, typ uint8) ([][]byte, error) {
	h, err := readV2Header(r, addr)
	if err != nil {
		return nil, fmt.Errorf("reading B-tree v2 header: %w", err)
	}
	if h.Type != typ {
		return nil, fmt.Errorf("unexpected B-tree v2 type: %d (expected %d)", h.Type, typ)
	}
	if h.TotalRecords == 0 || r.IsUndefinedOffset(h.RootAddr) {
		return nil, nil
	}
	if err := h.layout(r.OffsetSize()); err != nil {
		return nil, err
	}
	return h.node(r, h.RootAddr, int(h.NumRootRecords), int(h.Depth))
}

// readV2Header reads and verifies the BTHD header.
func readV2Header(r *binary.Reader, address uint64) (*v2Header, error) {
	size := 4 + 1 + 1 + 4 + 2 + 2 + 1 + 1 + r.OffsetSize() + 2 + r.LengthSize()
	buf, err := r.At(int64(address)).ReadBytes(size + 4)
	if err != nil {
		return nil, err
	}
	if string(buf[:4]) != "BTHD" {
		return nil, fmt.Errorf("invalid B-tree v2 signature: %q (expected BTHD)", buf[:4])
	}
	order := r.ByteOrder()
	if !binary.VerifyLookup3(buf[:size], order.Uint32(buf[size:])) {
		return nil, ErrChecksumMismatch
	}

	h := &v2Header{Version: buf[4], Type: buf[5]}
	if h.Version != 0 {
		return nil, fmt.Errorf("unsupported B-tree v2 version: %d", h.Version)
	}
	p := 6
	next := func(n int) uint64 {
		v := binary.DecodeUint(buf[p:p+n], order)
		p += n
		return v
	}
	h.NodeSize = uint32(next(4))
	h.RecordSize = uint16(next(2))
	h.Depth = uint16(next(2))
	h.SplitPercent = uint8(next(1))
	h.MergePercent = uint8(next(1))
	h.RootAddr = next(r.OffsetSize())
	h.NumRootRecords = uint16(next(2))
	h.TotalRecords = next(r.LengthSize())
	return h, nil
}

// layout works out the widths of the child pointer fields, which depend on
// how many records fit below each depth.
func (h *v2Header) layout(offsetSize int) error {
	if h.RecordSize == 0 || int(h.NodeSize) <= nodePrefix {
		return fmt.Errorf("invalid B-tree v2 geometry: node %d, record %d", h.NodeSize, h.RecordSize)
	}
	leafMax := (int(h.NodeSize) - nodePrefix) / int(h.RecordSize)
	if leafMax == 0 {
		return fmt.Errorf("B-tree v2 node of %d bytes holds no records", h.NodeSize)
	}
	h.nrecSize = encodedSize(uint64(leafMax))
	h.totalSize = make([]int, int(h.Depth)+1)

	cum := uint64(leafMax)
	for d := 1; d <= int(h.Depth); d++ {
		ptr := h.pointerSize(offsetSize, d)
		maxRec := (int(h.NodeSize) - nodePrefix - ptr) / (int(h.RecordSize) + ptr)
		if maxRec <= 0 {
			return fmt.Errorf("B-tree v2 internal node of %d bytes holds no records", h.NodeSize)
		}
		cum = uint64(maxRec+1)*cum + uint64(maxRec)
		h.totalSize[d] = encodedSize(cum)
	}
	return nil
}

// pointerSize is the size of one child pointer in a node at depth.
func (h *v2Header) pointerSize(offsetSize, depth int) int {
	n := offsetSize + h.nrecSize
	if depth > 1 {
		n += h.totalSize[depth-1]
	}
	return n
}

// node reads the subtree rooted at address in key order. An internal node
// stores all of its records first, then one more child pointer than
// records.
func (h *v2Header) node(r *binary.Reader, address uint64, numRecords, depth int) ([][]byte, error) {
	sig := "BTLF"
	if depth > 0 {
		sig = "BTIN"
	}
	nr := r.At(int64(address))
	prefix, err := nr.ReadBytes(6)
	if err != nil {
		return nil, fmt.Errorf("reading %s node: %w", sig, err)
	}
	if string(prefix[:4]) != sig {
		return nil, fmt.Errorf("invalid B-tree v2 node signature: %q (expected %s)", prefix[:4], sig)
	}
	if prefix[4] != 0 {
		return nil, fmt.Errorf("unsupported B-tree v2 node version: %d", prefix[4])
	}
	if prefix[5] != h.Type {
		return nil, fmt.Errorf("B-tree v2 node type %d in a type %d tree", prefix[5], h.Type)
	}

	records := make([][]byte, numRecords)
	for i := range records {
		if records[i], err = nr.ReadBytes(int(h.RecordSize)); err != nil {
			return nil, fmt.Errorf("reading record %d: %w", i, err)
		}
	}
	if depth == 0 {
		return records, nil
	}

	var out [][]byte
	for i := 0; i <= numRecords; i++ {
		child, err := nr.ReadOffset()
		if err != nil {
			return nil, fmt.Errorf("reading child pointer %d: %w", i, err)
		}
		n, err := nr.ReadUintN(h.nrecSize)
		if err != nil {
			return nil, fmt.Errorf("reading child record count %d: %w", i, err)
		}
		if depth > 1 {
			nr.Skip(int64(h.totalSize[depth-1]))
		}
		sub, err := h.node(r, child, int(n), depth-1)
		if err != nil {
			return nil, fmt.Errorf("reading child node %d: %w", i, err)
		}
		out = append(out, sub...)
		if i < numRecords {
			out = append(out, records[i])
		}
	}
	return out, nil
}

// encodedSize is the number of bytes needed to store n.
func encodedSize(n uint64) int {
	if n == 0 {
		return 1
	}
	return (bits.Len64(n)-1)/8 + 1
}
