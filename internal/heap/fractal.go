package heap

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/robert-malhotra/ncattr/internal/binary"
)

// ErrChecksumMismatch is returned when a fractal heap header fails
// verification.
var ErrChecksumMismatch = errors.New("fractal heap header checksum mismatch")

// Heap ID types, from bits 4-5 of the first ID byte.
const (
	idManaged = 0
	idHuge    = 1
	idTiny    = 2
)

// FractalHeap is a read-only fractal heap ("FRHP"). Dense attribute
// storage keeps each attribute message in one.
//
// Managed objects are found by walking the doubling table from the root
// block; tiny objects live in the heap ID itself. Huge objects and
// filtered heaps are not supported.
type FractalHeap struct {
	r *binary.Reader

	idLen      int
	maxManaged uint32
	width      uint64
	startBlock uint64
	maxDirect  uint64
	rootAddr   uint64
	rootRows   int

	// offBytes and lenBytes are the widths of the offset and length of a
	// managed object ID.
	offBytes int
	lenBytes int
}

// ReadFractalHeap reads the fractal heap header at address.
func ReadFractalHeap(r *binary.Reader, address uint64) (*FractalHeap, error) {
	o, l := r.OffsetSize(), r.LengthSize()
	size := 22 + 12*l + 3*o
	buf, err := r.At(int64(address)).ReadBytes(size)
	if err != nil {
		return nil, fmt.Errorf("reading fractal heap header: %w", err)
	}
	if string(buf[:4]) != "FRHP" {
		return nil, fmt.Errorf("invalid fractal heap signature: %q", buf[:4])
	}
	if buf[4] != 0 {
		return nil, fmt.Errorf("unsupported fractal heap version: %d", buf[4])
	}

	order := r.ByteOrder()
	p := 5
	next := func(n int) uint64 {
		v := binary.DecodeUint(buf[p:p+n], order)
		p += n
		return v
	}
	h := &FractalHeap{r: r}
	h.idLen = int(next(2))
	if filterLen := next(2); filterLen != 0 {
		return nil, errors.New("fractal heaps with I/O filters are not supported")
	}
	p++ // flags
	h.maxManaged = uint32(next(4))
	p += 10*l + 2*o // huge object, free space and object statistics
	h.width = next(2)
	h.startBlock = next(l)
	h.maxDirect = next(l)
	maxHeapBits := int(next(2))
	p += 2 // starting rows of the root indirect block
	h.rootAddr = next(o)
	h.rootRows = int(next(2))

	stored, err := r.At(int64(address) + int64(size)).ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("reading fractal heap checksum: %w", err)
	}
	if !binary.VerifyLookup3(buf, stored) {
		return nil, ErrChecksumMismatch
	}

	if !isPow2(h.width) || !isPow2(h.startBlock) || !isPow2(h.maxDirect) || h.startBlock > h.maxDirect {
		return nil, fmt.Errorf("invalid fractal heap table: width %d, blocks %d..%d", h.width, h.startBlock, h.maxDirect)
	}
	if maxHeapBits < 1 || maxHeapBits > 64 {
		return nil, fmt.Errorf("invalid fractal heap size: %d bits", maxHeapBits)
	}
	h.offBytes = (maxHeapBits + 7) / 8
	h.lenBytes = min((log2(h.maxDirect)+7)/8, (bits.Len32(h.maxManaged)-1)/8+1)
	return h, nil
}

// Object returns the bytes of the object named by id.
func (h *FractalHeap) Object(id []byte) ([]byte, error) {
	if len(id) == 0 {
		return nil, errors.New("empty fractal heap ID")
	}
	if v := id[0] >> 6; v != 0 {
		return nil, fmt.Errorf("unsupported fractal heap ID version: %d", v)
	}
	switch (id[0] >> 4) & 0x03 {
	case idManaged:
		if len(id) < 1+h.offBytes+h.lenBytes {
			return nil, fmt.Errorf("fractal heap ID of %d bytes is too short", len(id))
		}
		order := h.r.ByteOrder()
		off := binary.DecodeUint(id[1:1+h.offBytes], order)
		n := binary.DecodeUint(id[1+h.offBytes:1+h.offBytes+h.lenBytes], order)
		if n == 0 || n > uint64(h.maxManaged) {
			return nil, fmt.Errorf("managed object length %d out of range", n)
		}
		addr, err := h.locate(off, n)
		if err != nil {
			return nil, err
		}
		return h.r.At(int64(addr)).ReadBytes(int(n))

	case idTiny:
		n, data := int(id[0]&0x0f)+1, id[1:]
		if h.idLen > 18 {
			if len(id) < 2 {
				return nil, errors.New("truncated tiny object ID")
			}
			n, data = int(id[0]&0x0f)<<8|int(id[1])+1, id[2:]
		}
		if n > len(data) {
			return nil, fmt.Errorf("tiny object of %d bytes in a %d byte ID", n, len(id))
		}
		return append([]byte(nil), data[:n]...), nil

	case idHuge:
		return nil, errors.New("huge fractal heap objects are not supported")
	default:
		return nil, fmt.Errorf("unknown fractal heap ID type: %#x", id[0])
	}
}

// locate returns the file address of the n bytes at heap offset off.
func (h *FractalHeap) locate(off, n uint64) (uint64, error) {
	if h.r.IsUndefinedOffset(h.rootAddr) {
		return 0, errors.New("fractal heap has no blocks")
	}
	if h.rootRows == 0 {
		if off+n > h.startBlock {
			return 0, fmt.Errorf("heap offset %d outside the root direct block", off)
		}
		return h.rootAddr + off, nil
	}
	return h.locateIn(h.rootAddr, 0, h.rootRows, off, n)
}

// locateIn searches the indirect block at address, which starts at heap
// offset base and has nrows rows.
func (h *FractalHeap) locateIn(address, base uint64, nrows int, off, n uint64) (uint64, error) {
	nr := h.r.At(int64(address))
	sig, err := nr.ReadBytes(5)
	if err != nil {
		return 0, fmt.Errorf("reading indirect block: %w", err)
	}
	if string(sig[:4]) != "FHIB" || sig[4] != 0 {
		return 0, fmt.Errorf("invalid fractal heap indirect block at %#x", address)
	}
	nr.Skip(int64(nr.OffsetSize() + h.offBytes)) // heap header address, block offset

	directRows := log2(h.maxDirect) - log2(h.startBlock) + 2
	start := base
	for row := 0; row < nrows; row++ {
		size := h.rowBlockSize(row)
		for col := uint64(0); col < h.width; col++ {
			child, err := nr.ReadOffset()
			if err != nil {
				return 0, fmt.Errorf("reading indirect block entry: %w", err)
			}
			if off < start || off >= start+size {
				start += size
				continue
			}
			if nr.IsUndefinedOffset(child) {
				return 0, fmt.Errorf("heap offset %d is in an unallocated block", off)
			}
			if row < directRows {
				if off+n > start+size {
					return 0, fmt.Errorf("object at heap offset %d crosses a block boundary", off)
				}
				return child + (off - start), nil
			}
			childRows := log2(size) - log2(h.startBlock*h.width) + 1
			return h.locateIn(child, start, childRows, off, n)
		}
	}
	return 0, fmt.Errorf("heap offset %d outside indirect block at %#x", off, address)
}

// rowBlockSize is the size of each block in a row of the doubling table:
// the first two rows hold starting-size blocks, later rows double.
func (h *FractalHeap) rowBlockSize(row int) uint64 {
	if row == 0 {
		return h.startBlock
	}
	return h.startBlock << (row - 1)
}

func isPow2(v uint64) bool { return v != 0 && v&(v-1) == 0 }

func log2(v uint64) int { return bits.Len64(v) - 1 }
