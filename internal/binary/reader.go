// Package binary reads and writes the variable-width fields found in HDF5
// and classic netCDF metadata.
package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// ErrInvalidSize is returned when an offset or length size is not 2, 4 or 8.
var ErrInvalidSize = errors.New("invalid offset/length size: must be 2, 4, or 8")

// Config describes the field widths of a file, as declared by its superblock.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int
	LengthSize int
}

// DefaultConfig is used before the superblock has been read.
func DefaultConfig() Config {
	return Config{ByteOrder: binary.LittleEndian, OffsetSize: 8, LengthSize: 8}
}

// Validate reports whether the offset and length sizes are usable.
func (c Config) Validate() error {
	for _, n := range []int{c.OffsetSize, c.LengthSize} {
		if n != 2 && n != 4 && n != 8 {
			return ErrInvalidSize
		}
	}
	return nil
}

// Undefined returns the all-ones "undefined address" value for n-byte fields.
func Undefined(n int) uint64 {
	if n >= 8 {
		return ^uint64(0)
	}
	return uint64(1)<<(8*n) - 1
}

// Reader is a positioned reader over an io.ReaderAt.
type Reader struct {
	r   io.ReaderAt
	cfg Config
	pos int64
}

// NewReader creates a reader at position 0.
func NewReader(r io.ReaderAt, cfg Config) *Reader {
	return &Reader{r: r, cfg: cfg}
}

// NewBytesReader creates a reader over an in-memory message body.
func NewBytesReader(data []byte, cfg Config) *Reader {
	return &Reader{r: bytes.NewReader(data), cfg: cfg}
}

// At returns a reader sharing the same source, positioned at offset.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{r: r.r, cfg: r.cfg, pos: offset}
}

// Config returns the field widths used by the reader.
func (r *Reader) Config() Config { return r.cfg }

func (r *Reader) Pos() int64                  { return r.pos }
func (r *Reader) Skip(n int64)                { r.pos += n }
func (r *Reader) OffsetSize() int             { return r.cfg.OffsetSize }
func (r *Reader) LengthSize() int             { return r.cfg.LengthSize }
func (r *Reader) ByteOrder() binary.ByteOrder { return r.cfg.ByteOrder }

// Align moves the position forward to the next multiple of n.
func (r *Reader) Align(n int64) {
	if n > 1 && r.pos%n != 0 {
		r.pos += n - r.pos%n
	}
}

// Peek reads n bytes without moving the position.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := r.r.ReadAt(buf, r.pos); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf, err := r.Peek(n)
	if err != nil {
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.ReadUintN(1)
	return uint8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadUintN(2)
	return uint16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.ReadUintN(4)
	return uint32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	return r.ReadUintN(8)
}

// ReadUintN reads an n-byte unsigned integer.
func (r *Reader) ReadUintN(n int) (uint64, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	return DecodeUint(buf, r.cfg.ByteOrder), nil
}

// ReadOffset reads a file address.
func (r *Reader) ReadOffset() (uint64, error) {
	return r.ReadUintN(r.cfg.OffsetSize)
}

// ReadLength reads a length field.
func (r *Reader) ReadLength() (uint64, error) {
	return r.ReadUintN(r.cfg.LengthSize)
}

// IsUndefinedOffset reports whether v is the undefined address.
func (r *Reader) IsUndefinedOffset(v uint64) bool {
	return v == Undefined(r.cfg.OffsetSize)
}

// DecodeUint decodes an unsigned integer occupying all of buf.
func DecodeUint(buf []byte, order binary.ByteOrder) uint64 {
	switch len(buf) {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(order.Uint16(buf))
	case 4:
		return uint64(order.Uint32(buf))
	case 8:
		return order.Uint64(buf)
	}
	var v uint64
	if order == binary.BigEndian {
		for _, b := range buf {
			v = v<<8 | uint64(b)
		}
		return v
	}
	for i := len(buf) - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v
}
