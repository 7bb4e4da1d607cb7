package hdf5

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/robert-malhotra/ncattr/internal/dtype"
	"github.com/robert-malhotra/ncattr/internal/heap"
	"github.com/robert-malhotra/ncattr/internal/message"
	"github.com/robert-malhotra/ncattr/internal/object"
)

// SetAttr creates or replaces an attribute of the root group and makes the
// change durable before returning.
//
// value may be any Go integer, float or string type. When an attribute of
// the same class already exists its datatype and dataspace are kept, so an
// int32 attribute stays an int32; a value that does not fit fails with
// dtype.ErrOutOfRange. Otherwise the type is derived from the value:
// 8-byte integers and floats, and fixed-length strings (variable-length
// UTF-8 when the text is not ASCII or WithVarLenString is given).
//
// The group's header is rewritten at the end of the file and the
// superblock repointed at it. Replacing an attribute keeps its position.
// Attributes in dense storage are moved into the new header first.
func (g *Group) SetAttr(name string, value any, opts ...AttrOption) error {
	f := g.file
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return ErrReadOnly
	}
	if name == "" {
		return errors.New("attribute name is empty")
	}
	options := &attrOptions{}
	for _, opt := range opts {
		opt(options)
	}

	v, err := normalizeValue(value)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}

	entries := append([]object.Entry(nil), g.header.Entries...)
	if g.DenseAttributes() {
		if entries, err = g.compactEntries(entries); err != nil {
			return err
		}
	}
	idx := -1
	var existing *message.Attribute
	for i, e := range entries {
		if a, ok := e.Message.(*message.Attribute); ok && a.Name == name {
			idx, existing = i, a
			break
		}
	}

	msg, err := f.buildAttribute(name, v, existing, options)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}
	cfg := f.reader.Config()
	entry, err := object.NewEntry(msg, cfg)
	if err != nil {
		return fmt.Errorf("encoding attribute %q: %w", name, err)
	}

	if idx >= 0 {
		entry.CreationOrder = entries[idx].CreationOrder
		entries[idx] = entry
	} else {
		if entries, err = g.assignCreationOrder(entries, &entry); err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	data, err := object.Encode(g.header, entries, object.MinGroupChunkSize)
	if err != nil {
		return fmt.Errorf("encoding group header: %w", err)
	}
	addr := f.allocate(int64(len(data)), "group header")
	if err := f.writer.At(int64(addr)).WriteBytes(data); err != nil {
		return fmt.Errorf("writing group header: %w", err)
	}

	f.superblock.RootGroupAddress = addr
	f.dirty = true
	if err := f.Flush(); err != nil {
		return err
	}
	return g.reload(addr)
}

// assignCreationOrder gives a new attribute entry the next creation index
// when the header or its Attribute Info message tracks creation order.
// entries is returned with an updated Attribute Info entry.
func (g *Group) assignCreationOrder(entries []object.Entry, entry *object.Entry) ([]object.Entry, error) {
	var next uint16
	for _, e := range entries {
		if e.Type == message.TypeAttribute && e.CreationOrder+1 > next {
			next = e.CreationOrder + 1
		}
	}

	for i, e := range entries {
		ai, ok := e.Message.(*message.AttributeInfo)
		if !ok || ai.Flags&message.FlagTrackCreationOrder == 0 {
			continue
		}
		if ai.MaxCreationIndex > next {
			next = ai.MaxCreationIndex
		}
		updated := *ai
		updated.MaxCreationIndex = next + 1
		ne, err := object.NewEntry(&updated, g.file.reader.Config())
		if err != nil {
			return nil, fmt.Errorf("encoding attribute info: %w", err)
		}
		ne.Flags = e.Flags
		ne.CreationOrder = e.CreationOrder
		entries[i] = ne
		break
	}

	if g.header.TracksCreationOrder() {
		entry.CreationOrder = next
	}
	return entries, nil
}

// buildAttribute encodes v as an attribute message, reusing the type and
// shape of existing when v is of the same class.
func (f *File) buildAttribute(name string, v any, existing *message.Attribute, o *attrOptions) (*message.Attribute, error) {
	var dt *message.Datatype
	var ds *message.Dataspace
	if existing != nil && existing.Datatype != nil && existing.Dataspace != nil &&
		(existing.Dataspace.IsScalar() || (existing.Dataspace.SpaceType == message.DataspaceNull && existing.Datatype.IsString())) {
		dt, ds = existing.Datatype, existing.Dataspace
	}

	switch v := v.(type) {
	case int64:
		if dt == nil || !dt.IsInteger() {
			dt, ds = message.NewFixedPointDatatype(8, true), message.NewSimpleDataspace(1)
		}
		data, err := dtype.EncodeSigned(dt, v)
		if err != nil {
			return nil, err
		}
		return message.NewAttribute(name, dt, ds, data), nil

	case uint64:
		if dt == nil || !dt.IsInteger() {
			dt, ds = message.NewFixedPointDatatype(8, false), message.NewSimpleDataspace(1)
		}
		data, err := dtype.EncodeUnsigned(dt, v)
		if err != nil {
			return nil, err
		}
		return message.NewAttribute(name, dt, ds, data), nil

	case float64:
		if dt == nil || !dt.IsFloat() {
			dt, ds = message.NewFloatDatatype(8), message.NewSimpleDataspace(1)
		}
		data, err := dtype.EncodeFloat(dt, v)
		if err != nil {
			return nil, err
		}
		return message.NewAttribute(name, dt, ds, data), nil

	case string:
		return f.buildStringAttribute(name, v, dt, ds, o)
	}
	return nil, fmt.Errorf("%w: value of type %T", ErrUnsupported, v)
}

func (f *File) buildStringAttribute(name, s string, dt *message.Datatype, ds *message.Dataspace, o *attrOptions) (*message.Attribute, error) {
	if !utf8.ValidString(s) {
		return nil, errors.New("string value is not valid UTF-8")
	}
	ascii := isASCII(s)
	varLen := o.varLenString || !ascii ||
		(dt != nil && dt.Class == message.ClassVarLen && dt.IsVarLenString)

	if varLen {
		cfg := f.reader.Config()
		if dt == nil || dt.Class != message.ClassVarLen || !dt.IsVarLenString ||
			(!ascii && dt.CharSet != message.CharsetUTF8) {
			dt = message.NewVarLenStringDatatype(message.CharsetUTF8, cfg.OffsetSize)
		}
		if ds == nil || ds.SpaceType == message.DataspaceNull {
			ds = message.NewSimpleDataspace(1)
		}
		hw := heap.NewWriter(f.writer, func(size int64) uint64 {
			return f.allocate(size, "global heap")
		})
		hw.AddString(s)
		ids, err := hw.Write()
		if err != nil {
			return nil, err
		}
		data := heap.VarLen{Length: uint32(len(s)), ID: ids[0]}.Encode(cfg)
		return message.NewAttribute(name, dt, ds, data), nil
	}

	cset := message.CharsetASCII
	if dt != nil && dt.Class == message.ClassString {
		cset = dt.CharSet
	}
	if s == "" {
		return message.NewAttribute(name, message.NewStringDatatype(1, cset), message.NewNullDataspace(), nil), nil
	}
	dt = message.NewStringDatatype(uint32(len(s)), cset)
	data, err := dtype.EncodeFixedString(dt, s)
	if err != nil {
		return nil, err
	}
	return message.NewAttribute(name, dt, message.NewScalarDataspace(), data), nil
}

// normalizeValue widens Go scalars to int64, uint64, float64 or string.
func normalizeValue(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: value of type %T", ErrUnsupported, value)
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
