package cdf

import (
	stdbinary "encoding/binary"
	"fmt"
	"io"
	"slices"

	"github.com/robert-malhotra/ncattr/internal/binary"
)

// List tags.
const (
	tagDimension uint32 = 0x0A
	tagVariable  uint32 = 0x0B
	tagAttribute uint32 = 0x0C
)

// Header is the decoded header of a classic file.
type Header struct {
	Version Version
	// NumRecs is the number of records, kept as stored: all ones means the
	// file is still being written.
	NumRecs uint64
	Dims    []Dimension
	Attrs   []Attribute
	Vars    []Variable
}

// Dimension is a named dimension. Len 0 marks the record dimension.
type Dimension struct {
	Name string
	Len  uint64
}

// Variable is a variable's header entry. Its data starts at Begin.
type Variable struct {
	Name   string
	DimIDs []uint64
	Attrs  []Attribute
	Type   Type
	VSize  uint64
	Begin  uint64
}

// Attribute is a global or variable attribute.
type Attribute struct {
	Name string
	Type Type
	// N is the number of values; for Char, the length in bytes.
	N uint64
	// Data holds the big-endian values without padding.
	Data []byte
}

// config maps a version's field widths onto the binary package: offsets
// are begin offsets and lengths are counts.
func config(v Version) binary.Config {
	return binary.Config{ByteOrder: stdbinary.BigEndian, OffsetSize: v.offsetSize(), LengthSize: v.countSize()}
}

// decoder reads header fields and keeps the first error.
type decoder struct {
	r     *binary.Reader
	limit int64
	err   error
}

func (d *decoder) fail(err error) {
	if d.err == nil && err != nil {
		d.err = fmt.Errorf("%w at byte %d: %v", ErrMalformed, d.r.Pos(), err)
	}
}

func (d *decoder) bytes(n uint64) []byte {
	if d.err != nil {
		return nil
	}
	if n > uint64(d.limit-d.r.Pos()) {
		d.fail(fmt.Errorf("field of %d bytes runs past the end of the file", n))
		return nil
	}
	b, err := d.r.ReadBytes(int(n))
	d.fail(err)
	return b
}

func (d *decoder) uint32() uint32 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadUint32()
	d.fail(err)
	return v
}

func (d *decoder) count() uint64 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadLength()
	d.fail(err)
	return v
}

func (d *decoder) offset() uint64 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadOffset()
	d.fail(err)
	return v
}

// padded reads n bytes and the zero padding up to a multiple of four.
func (d *decoder) padded(n uint64) []byte {
	b := d.bytes(n)
	d.bytes(uint64(pad4(int(n % 4))))
	return b
}

func (d *decoder) name() string {
	return string(d.padded(d.count()))
}

// list reads a list's tag and element count. An absent list is empty.
func (d *decoder) list(tag uint32) int {
	t, n := d.uint32(), d.count()
	if d.err != nil || (t == 0 && n == 0) {
		return 0
	}
	if t != tag {
		d.fail(fmt.Errorf("list tag %#x, want %#x", t, tag))
		return 0
	}
	// Every element takes at least four bytes.
	if n > uint64(d.limit-d.r.Pos())/4 {
		d.fail(fmt.Errorf("list of %d elements runs past the end of the file", n))
		return 0
	}
	return int(n)
}

func (d *decoder) attributes(v Version) []Attribute {
	n := d.list(tagAttribute)
	var attrs []Attribute
	for i := 0; i < n && d.err == nil; i++ {
		a := Attribute{Name: d.name(), Type: Type(d.uint32())}
		a.N = d.count()
		if d.err != nil {
			break
		}
		if !a.Type.valid(v) {
			d.fail(fmt.Errorf("attribute %q has %s, not allowed in %s", a.Name, a.Type, v))
			break
		}
		if a.N > uint64(d.limit) {
			d.fail(fmt.Errorf("attribute %q has %d values", a.Name, a.N))
			break
		}
		a.Data = d.padded(a.N * uint64(a.Type.Size()))
		attrs = append(attrs, a)
	}
	return attrs
}

// readHeader decodes the header at the start of r, a file of size bytes,
// and returns it with its encoded length.
func readHeader(r io.ReaderAt, size int64) (*Header, int64, error) {
	magic := make([]byte, 4)
	if _, err := r.ReadAt(magic, 0); err != nil || string(magic[:3]) != "CDF" {
		return nil, 0, ErrNotClassic
	}
	v := Version(magic[3])
	switch v {
	case Classic, Offset64, Data64:
	default:
		return nil, 0, fmt.Errorf("%w: unknown version byte %d", ErrNotClassic, magic[3])
	}

	d := &decoder{r: binary.NewReader(r, config(v)).At(4), limit: size}
	h := &Header{Version: v, NumRecs: d.count()}

	n := d.list(tagDimension)
	for i := 0; i < n && d.err == nil; i++ {
		h.Dims = append(h.Dims, Dimension{Name: d.name(), Len: d.count()})
	}
	h.Attrs = d.attributes(v)

	n = d.list(tagVariable)
	for i := 0; i < n && d.err == nil; i++ {
		vr := Variable{Name: d.name()}
		nd := d.count()
		if nd > uint64(len(h.Dims)) {
			d.fail(fmt.Errorf("variable %q has %d dimensions", vr.Name, nd))
			break
		}
		for j := uint64(0); j < nd; j++ {
			vr.DimIDs = append(vr.DimIDs, d.count())
		}
		vr.Attrs = d.attributes(v)
		vr.Type = Type(d.uint32())
		vr.VSize = d.count()
		vr.Begin = d.offset()
		h.Vars = append(h.Vars, vr)
	}
	if d.err != nil {
		return nil, 0, d.err
	}
	return h, d.r.Pos(), nil
}

// dataStart is where variable data begins: the lowest begin offset, or the
// end of the file when there are no variables.
func (h *Header) dataStart(size int64) int64 {
	if len(h.Vars) == 0 {
		return size
	}
	start := h.Vars[0].Begin
	for _, v := range h.Vars[1:] {
		start = min(start, v.Begin)
	}
	return int64(start)
}

// clone copies h deeply enough to edit its attributes and begin offsets.
func (h *Header) clone() *Header {
	c := *h
	c.Attrs = slices.Clone(h.Attrs)
	c.Vars = slices.Clone(h.Vars)
	return &c
}

// encoder writes header fields and keeps the first error.
type encoder struct {
	w   *binary.Writer
	err error
}

func (e *encoder) do(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *encoder) padded(b []byte) {
	e.do(e.w.WriteBytes(b))
	e.do(e.w.WriteZeros(pad4(len(b) % 4)))
}

func (e *encoder) name(s string) {
	e.do(e.w.WriteLength(uint64(len(s))))
	e.padded([]byte(s))
}

func (e *encoder) list(tag uint32, n int) {
	if n == 0 {
		tag = 0
	}
	e.do(e.w.WriteUint32(tag))
	e.do(e.w.WriteLength(uint64(n)))
}

func (e *encoder) attributes(attrs []Attribute) {
	e.list(tagAttribute, len(attrs))
	for _, a := range attrs {
		e.name(a.Name)
		e.do(e.w.WriteUint32(uint32(a.Type)))
		e.do(e.w.WriteLength(a.N))
		e.padded(a.Data)
	}
}

// encode lays out h. It fails when a begin offset does not fit the
// version's offset width, which is signed.
func (h *Header) encode() ([]byte, error) {
	cfg := config(h.Version)
	limit := binary.Undefined(cfg.OffsetSize) >> 1
	buf := &binary.Buffer{}
	e := &encoder{w: binary.NewWriter(buf, cfg)}

	e.do(e.w.WriteBytes([]byte{'C', 'D', 'F', byte(h.Version)}))
	e.do(e.w.WriteLength(h.NumRecs))
	e.list(tagDimension, len(h.Dims))
	for _, d := range h.Dims {
		e.name(d.Name)
		e.do(e.w.WriteLength(d.Len))
	}
	e.attributes(h.Attrs)
	e.list(tagVariable, len(h.Vars))
	for _, v := range h.Vars {
		if v.Begin > limit {
			return nil, fmt.Errorf("%w: variable %q would start at %d", ErrTooLarge, v.Name, v.Begin)
		}
		e.name(v.Name)
		e.do(e.w.WriteLength(uint64(len(v.DimIDs))))
		for _, id := range v.DimIDs {
			e.do(e.w.WriteLength(id))
		}
		e.attributes(v.Attrs)
		e.do(e.w.WriteUint32(uint32(v.Type)))
		e.do(e.w.WriteLength(v.VSize))
		e.do(e.w.WriteOffset(v.Begin))
	}
	if e.err != nil {
		return nil, e.err
	}
	return buf.Bytes(), nil
}

func pad4(rem int) int { return (4 - rem) % 4 }
