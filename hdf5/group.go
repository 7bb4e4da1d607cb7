package hdf5

import (
	"fmt"

	"github.com/robert-malhotra/ncattr/internal/message"
	"github.com/robert-malhotra/ncattr/internal/object"
)

// Group represents the root group of an HDF5 file.
type Group struct {
	file   *File
	path   string
	header *object.Header
	addr   uint64 // Object header address
	dense  []denseAttribute
}

// Name returns the group name.
func (g *Group) Name() string {
	return g.path
}

// Path returns the full path to this group.
func (g *Group) Path() string {
	return g.path
}

// Address returns the file address of the group's object header.
func (g *Group) Address() uint64 {
	return g.addr
}

// Attrs returns the group's attributes: those in the header in header
// order, then those in dense storage.
func (g *Group) Attrs() []*Attribute {
	msgs := g.messages()
	attrs := make([]*Attribute, len(msgs))
	for i, m := range msgs {
		attrs[i] = &Attribute{msg: m, file: g.file}
	}
	return attrs
}

// Attr returns the named attribute, or nil.
func (g *Group) Attr(name string) *Attribute {
	for _, m := range g.messages() {
		if m.Name == name {
			return &Attribute{msg: m, file: g.file}
		}
	}
	return nil
}

// AttrNames returns the attribute names in Attrs order.
func (g *Group) AttrNames() []string {
	msgs := g.messages()
	names := make([]string, len(msgs))
	for i, m := range msgs {
		names[i] = m.Name
	}
	return names
}

// DenseAttributes reports whether the group keeps its attributes in a
// fractal heap rather than in its object header. Setting an attribute
// moves them back into the header.
func (g *Group) DenseAttributes() bool {
	ai := g.header.AttributeInfo()
	return ai != nil && ai.Dense()
}

func (g *Group) messages() []*message.Attribute {
	msgs := g.header.Attributes()
	for _, d := range g.dense {
		msgs = append(msgs, d.msg)
	}
	return msgs
}

// reload re-reads the group's header, and its dense attributes, from addr.
func (g *Group) reload(addr uint64) error {
	h, err := object.Read(g.file.reader, addr)
	if err != nil {
		return fmt.Errorf("reading object header: %w", err)
	}
	var dense []denseAttribute
	if ai := h.AttributeInfo(); ai != nil && ai.Dense() {
		if dense, err = g.file.readDenseAttributes(ai); err != nil {
			return err
		}
	}
	g.header, g.addr, g.dense = h, addr, dense
	return nil
}
