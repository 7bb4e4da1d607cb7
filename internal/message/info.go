package message

import (
	"fmt"

	"github.com/robert-malhotra/ncattr/internal/binary"
)

// Info message flag bits shared by Link Info and Attribute Info.
const (
	FlagTrackCreationOrder uint8 = 0x01
	FlagIndexCreationOrder uint8 = 0x02
)

// AttributeInfo (0x0015) describes how an object stores its attributes.
// A defined FractalHeapAddr means the attributes live in dense storage
// rather than as Attribute messages in the header.
type AttributeInfo struct {
	Version                uint8
	Flags                  uint8
	MaxCreationIndex       uint16
	FractalHeapAddr        uint64
	NameIndexBTreeAddr     uint64
	CreationOrderBTreeAddr uint64

	undefined uint64
}

func (m *AttributeInfo) Type() Type { return TypeAttributeInfo }

// Dense reports whether attributes are kept in a fractal heap.
func (m *AttributeInfo) Dense() bool {
	return m.FractalHeapAddr != m.undefined
}

func parseAttributeInfo(data []byte, cfg binary.Config) (*AttributeInfo, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("attribute info message too short")
	}
	m := &AttributeInfo{Version: data[0], Flags: data[1], undefined: binary.Undefined(cfg.OffsetSize)}
	if m.Version != 0 {
		return nil, fmt.Errorf("unsupported attribute info version: %d", m.Version)
	}

	r := binary.NewBytesReader(data[2:], cfg)
	var err error
	if m.Flags&FlagTrackCreationOrder != 0 {
		if m.MaxCreationIndex, err = r.ReadUint16(); err != nil {
			return nil, fmt.Errorf("attribute info truncated: %w", err)
		}
	}
	if m.FractalHeapAddr, err = r.ReadOffset(); err != nil {
		return nil, fmt.Errorf("attribute info truncated: %w", err)
	}
	if m.NameIndexBTreeAddr, err = r.ReadOffset(); err != nil {
		return nil, fmt.Errorf("attribute info truncated: %w", err)
	}
	m.CreationOrderBTreeAddr = m.undefined
	if m.Flags&FlagIndexCreationOrder != 0 {
		if m.CreationOrderBTreeAddr, err = r.ReadOffset(); err != nil {
			return nil, fmt.Errorf("attribute info truncated: %w", err)
		}
	}
	return m, nil
}

// Serialize writes the Attribute Info message body.
func (m *AttributeInfo) Serialize(w *binary.Writer) error {
	if err := w.WriteUint8(m.Version); err != nil {
		return err
	}
	if err := w.WriteUint8(m.Flags); err != nil {
		return err
	}
	if m.Flags&FlagTrackCreationOrder != 0 {
		if err := w.WriteUint16(m.MaxCreationIndex); err != nil {
			return err
		}
	}
	if err := w.WriteOffset(m.FractalHeapAddr); err != nil {
		return err
	}
	if err := w.WriteOffset(m.NameIndexBTreeAddr); err != nil {
		return err
	}
	if m.Flags&FlagIndexCreationOrder != 0 {
		return w.WriteOffset(m.CreationOrderBTreeAddr)
	}
	return nil
}

// NewAttributeInfo returns an Attribute Info message for compact storage.
func NewAttributeInfo(cfg binary.Config, flags uint8) *AttributeInfo {
	u := binary.Undefined(cfg.OffsetSize)
	return &AttributeInfo{
		Flags:                  flags,
		FractalHeapAddr:        u,
		NameIndexBTreeAddr:     u,
		CreationOrderBTreeAddr: u,
		undefined:              u,
	}
}

// LinkInfo (0x0002) is present in every new-style group.
type LinkInfo struct {
	Version                uint8
	Flags                  uint8
	MaxCreationIndex       uint64
	FractalHeapAddr        uint64
	NameIndexBTreeAddr     uint64
	CreationOrderBTreeAddr uint64
}

func (m *LinkInfo) Type() Type { return TypeLinkInfo }

func parseLinkInfo(data []byte, cfg binary.Config) (*LinkInfo, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("link info message too short")
	}
	m := &LinkInfo{Version: data[0], Flags: data[1]}
	r := binary.NewBytesReader(data[2:], cfg)
	var err error
	if m.Flags&FlagTrackCreationOrder != 0 {
		if m.MaxCreationIndex, err = r.ReadUint64(); err != nil {
			return nil, fmt.Errorf("link info truncated: %w", err)
		}
	}
	if m.FractalHeapAddr, err = r.ReadOffset(); err != nil {
		return nil, fmt.Errorf("link info truncated: %w", err)
	}
	if m.NameIndexBTreeAddr, err = r.ReadOffset(); err != nil {
		return nil, fmt.Errorf("link info truncated: %w", err)
	}
	if m.Flags&FlagIndexCreationOrder != 0 {
		if m.CreationOrderBTreeAddr, err = r.ReadOffset(); err != nil {
			return nil, fmt.Errorf("link info truncated: %w", err)
		}
	}
	return m, nil
}

// Serialize writes the Link Info message body.
func (m *LinkInfo) Serialize(w *binary.Writer) error {
	if err := w.WriteUint8(m.Version); err != nil {
		return err
	}
	if err := w.WriteUint8(m.Flags); err != nil {
		return err
	}
	if m.Flags&FlagTrackCreationOrder != 0 {
		if err := w.WriteUint64(m.MaxCreationIndex); err != nil {
			return err
		}
	}
	if err := w.WriteOffset(m.FractalHeapAddr); err != nil {
		return err
	}
	if err := w.WriteOffset(m.NameIndexBTreeAddr); err != nil {
		return err
	}
	if m.Flags&FlagIndexCreationOrder != 0 {
		return w.WriteOffset(m.CreationOrderBTreeAddr)
	}
	return nil
}

// NewLinkInfo returns the Link Info of an empty compact group.
func NewLinkInfo(cfg binary.Config) *LinkInfo {
	undef := binary.Undefined(cfg.OffsetSize)
	return &LinkInfo{FractalHeapAddr: undef, NameIndexBTreeAddr: undef}
}

// GroupInfo (0x000A) carries a group's link storage hints. Only the
// default, flag-free form is written.
type GroupInfo struct {
	Version uint8
	Flags   uint8
}

func (m *GroupInfo) Type() Type { return TypeGroupInfo }

// Serialize writes the Group Info message body.
func (m *GroupInfo) Serialize(w *binary.Writer) error {
	if err := w.WriteUint8(m.Version); err != nil {
		return err
	}
	return w.WriteUint8(m.Flags)
}
