package hdf5

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/robert-malhotra/ncattr/internal/binary"
	"github.com/robert-malhotra/ncattr/internal/btree"
	"github.com/robert-malhotra/ncattr/internal/heap"
	"github.com/robert-malhotra/ncattr/internal/message"
	"github.com/robert-malhotra/ncattr/internal/object"
)

// denseAttribute is an attribute kept in a group's fractal heap.
type denseAttribute struct {
	msg   *message.Attribute
	data  []byte
	order uint32
}

// readDenseAttributes loads the attributes ai keeps in dense storage, in
// creation order when ai tracks it and by name otherwise.
func (f *File) readDenseAttributes(ai *message.AttributeInfo) ([]denseAttribute, error) {
	fh, err := heap.ReadFractalHeap(f.reader, ai.FractalHeapAddr)
	if err != nil {
		return nil, fmt.Errorf("attribute heap: %w", err)
	}
	recs, err := btree.ReadAttributeNameIndex(f.reader, ai.NameIndexBTreeAddr)
	if err != nil {
		return nil, fmt.Errorf("attribute name index: %w", err)
	}

	cfg := f.reader.Config()
	attrs := make([]denseAttribute, 0, len(recs))
	for _, rec := range recs {
		if rec.Flags&btree.FlagShared != 0 {
			return nil, fmt.Errorf("%w: shared attribute message in dense storage", ErrUnsupported)
		}
		data, err := fh.Object(rec.HeapID)
		if err != nil {
			return nil, fmt.Errorf("dense attribute: %w", err)
		}
		msg, err := message.Parse(message.TypeAttribute, data, cfg)
		if err != nil {
			return nil, fmt.Errorf("dense attribute: %w", err)
		}
		attrs = append(attrs, denseAttribute{msg: msg.(*message.Attribute), data: data, order: rec.CreationOrder})
	}

	if ai.Flags&message.FlagTrackCreationOrder != 0 {
		slices.SortStableFunc(attrs, func(a, b denseAttribute) int { return cmp.Compare(a.order, b.order) })
	} else {
		slices.SortStableFunc(attrs, func(a, b denseAttribute) int { return cmp.Compare(a.msg.Name, b.msg.Name) })
	}
	return attrs, nil
}

// compactEntries moves the group's dense attributes into entries as
// header messages, byte for byte, and marks the Attribute Info message
// compact. The old heap and index stay in the file, unreferenced.
func (g *Group) compactEntries(entries []object.Entry) ([]object.Entry, error) {
	cfg := g.file.reader.Config()
	undef := binary.Undefined(cfg.OffsetSize)
	for i, e := range entries {
		ai, ok := e.Message.(*message.AttributeInfo)
		if !ok {
			continue
		}
		updated := *ai
		updated.FractalHeapAddr = undef
		updated.NameIndexBTreeAddr = undef
		updated.CreationOrderBTreeAddr = undef
		ne, err := object.NewEntry(&updated, cfg)
		if err != nil {
			return nil, fmt.Errorf("encoding attribute info: %w", err)
		}
		ne.Flags = e.Flags
		ne.CreationOrder = e.CreationOrder
		entries[i] = ne
	}
	for _, d := range g.dense {
		entries = append(entries, object.Entry{
			Type:          message.TypeAttribute,
			CreationOrder: uint16(d.order),
			Data:          d.data,
			Message:       d.msg,
		})
	}
	return entries, nil
}
