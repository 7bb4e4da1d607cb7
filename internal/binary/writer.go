package binary

import (
	"encoding/binary"
	"io"
)

// Writer is a positioned writer over an io.WriterAt.
type Writer struct {
	w   io.WriterAt
	cfg Config
	pos int64
}

// NewWriter creates a writer at position 0.
func NewWriter(w io.WriterAt, cfg Config) *Writer {
	return &Writer{w: w, cfg: cfg}
}

// At returns a writer sharing the same destination, positioned at offset.
func (w *Writer) At(offset int64) *Writer {
	return &Writer{w: w.w, cfg: w.cfg, pos: offset}
}

// Config returns the field widths used by the writer.
func (w *Writer) Config() Config { return w.cfg }

func (w *Writer) Pos() int64                  { return w.pos }
func (w *Writer) OffsetSize() int             { return w.cfg.OffsetSize }
func (w *Writer) LengthSize() int             { return w.cfg.LengthSize }
func (w *Writer) ByteOrder() binary.ByteOrder { return w.cfg.ByteOrder }

// WriteBytes writes data at the current position.
func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.w.WriteAt(data, w.pos)
	w.pos += int64(n)
	return err
}

func (w *Writer) WriteUint8(v uint8) error   { return w.WriteUintN(uint64(v), 1) }
func (w *Writer) WriteUint16(v uint16) error { return w.WriteUintN(uint64(v), 2) }
func (w *Writer) WriteUint32(v uint32) error { return w.WriteUintN(uint64(v), 4) }
func (w *Writer) WriteUint64(v uint64) error { return w.WriteUintN(v, 8) }

// WriteUintN writes v as an n-byte unsigned integer.
func (w *Writer) WriteUintN(v uint64, n int) error {
	buf := make([]byte, n)
	EncodeUint(buf, v, w.cfg.ByteOrder)
	return w.WriteBytes(buf)
}

// WriteOffset writes a file address.
func (w *Writer) WriteOffset(v uint64) error {
	return w.WriteUintN(v, w.cfg.OffsetSize)
}

// WriteLength writes a length field.
func (w *Writer) WriteLength(v uint64) error {
	return w.WriteUintN(v, w.cfg.LengthSize)
}

// UndefinedOffset returns the undefined address for this writer's offset size.
func (w *Writer) UndefinedOffset() uint64 {
	return Undefined(w.cfg.OffsetSize)
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) error {
	if n <= 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, n))
}

// EncodeUint stores v in all of buf.
func EncodeUint(buf []byte, v uint64, order binary.ByteOrder) {
	switch len(buf) {
	case 1:
		buf[0] = uint8(v)
	case 2:
		order.PutUint16(buf, uint16(v))
	case 4:
		order.PutUint32(buf, uint32(v))
	case 8:
		order.PutUint64(buf, v)
	default:
		for i := range buf {
			if order == binary.BigEndian {
				buf[len(buf)-1-i] = byte(v >> (8 * i))
			} else {
				buf[i] = byte(v >> (8 * i))
			}
		}
	}
}

// Buffer is a growable in-memory io.WriterAt. Metadata blocks are assembled
// in a Buffer so their checksum can be computed before they reach the file.
type Buffer struct {
	buf []byte
}

// WriteAt implements io.WriterAt.
func (b *Buffer) WriteAt(p []byte, off int64) (int, error) {
	if end := int(off) + len(p); end > len(b.buf) {
		grown := make([]byte, end)
		copy(grown, b.buf)
		b.buf = grown
	}
	copy(b.buf[off:], p)
	return len(p), nil
}

// Bytes returns the buffered data.
func (b *Buffer) Bytes() []byte { return b.buf }

// AppendChecksum appends the lookup3 checksum of everything buffered so far.
func (b *Buffer) AppendChecksum(order binary.ByteOrder) {
	sum := make([]byte, 4)
	order.PutUint32(sum, Lookup3Checksum(b.buf))
	b.buf = append(b.buf, sum...)
}
