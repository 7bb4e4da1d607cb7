package object

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/ncattr/internal/binary"
	"github.com/robert-malhotra/ncattr/internal/message"
)

// MinGroupChunkSize is the smallest chunk #0 written for a new group, the
// size h5py uses.
const MinGroupChunkSize = 120

// NewEntry encodes m as a header entry.
func NewEntry(m message.Serializable, cfg binary.Config) (Entry, error) {
	data, err := message.Encode(m, cfg)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Type: m.Type(), Data: data, Message: m}, nil
}

// Encode lays out entries as a single-chunk version 2 object header.
// Header-level properties (timestamps, attribute phase change values,
// creation order tracking) are carried over from h when it is a version 2
// header. The chunk is padded with a NIL message up to minChunk bytes.
func Encode(h *Header, entries []Entry, minChunk int) ([]byte, error) {
	var flags uint8
	if h != nil && h.Version == 2 {
		flags = h.Flags & preservedHeaderFlags
	}

	prefix := 4
	if flags&FlagTrackCreation != 0 {
		prefix += 2
	}

	chunk := 0
	for _, e := range entries {
		if len(e.Data) > math.MaxUint16 {
			return nil, fmt.Errorf("%s message of %d bytes does not fit in a header", e.Type, len(e.Data))
		}
		chunk += prefix + len(e.Data)
	}
	pad := 0
	if chunk < minChunk {
		pad = minChunk - chunk
		chunk = minChunk
	}
	sizeField := chunkSizeFieldBytes(chunk)
	flags |= sizeFlag(sizeField)

	buf := &binary.Buffer{}
	w := binary.NewWriter(buf, binary.DefaultConfig())
	writes := []func() error{
		func() error { return w.WriteBytes([]byte("OHDR")) },
		func() error { return w.WriteUint8(2) },
		func() error { return w.WriteUint8(flags) },
	}
	if flags&FlagStoreTimes != 0 {
		for _, t := range []uint32{h.AccessTime, h.ModTime, h.ChangeTime, h.BirthTime} {
			t := t
			writes = append(writes, func() error { return w.WriteUint32(t) })
		}
	}
	if flags&FlagAttrPhaseChange != 0 {
		writes = append(writes,
			func() error { return w.WriteUint16(h.MaxCompactAttrs) },
			func() error { return w.WriteUint16(h.MinDenseAttrs) })
	}
	writes = append(writes, func() error { return w.WriteUintN(uint64(chunk), sizeField) })
	for _, write := range writes {
		if err := write(); err != nil {
			return nil, err
		}
	}

	for _, e := range entries {
		if err := writeMessage(w, flags, e.Type, e.Flags, e.CreationOrder, e.Data); err != nil {
			return nil, err
		}
	}
	switch {
	case pad >= prefix:
		if err := writeMessage(w, flags, message.TypeNIL, 0, 0, make([]byte, pad-prefix)); err != nil {
			return nil, err
		}
	case pad > 0:
		// Too small for a NIL message; left as a gap.
		if err := w.WriteZeros(pad); err != nil {
			return nil, err
		}
	}

	buf.AppendChecksum(w.ByteOrder())
	return buf.Bytes(), nil
}

func writeMessage(w *binary.Writer, headerFlags uint8, typ message.Type, flags uint8, order uint16, data []byte) error {
	if err := w.WriteUint8(uint8(typ)); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(len(data))); err != nil {
		return err
	}
	if err := w.WriteUint8(flags); err != nil {
		return err
	}
	if headerFlags&FlagTrackCreation != 0 {
		if err := w.WriteUint16(order); err != nil {
			return err
		}
	}
	return w.WriteBytes(data)
}

func chunkSizeFieldBytes(size int) int {
	switch {
	case size <= math.MaxUint8:
		return 1
	case size <= math.MaxUint16:
		return 2
	case size <= math.MaxUint32:
		return 4
	default:
		return 8
	}
}

// sizeFlag encodes a chunk size field width as the log2 stored in flag
// bits 0-1.
func sizeFlag(width int) uint8 {
	switch width {
	case 1:
		return 0
	case 2:
		return 1
	case 4:
		return 2
	default:
		return 3
	}
}

// NewGroupEntries returns the messages of an empty new-style group.
func NewGroupEntries(cfg binary.Config) ([]Entry, error) {
	var entries []Entry
	for _, m := range []message.Serializable{message.NewLinkInfo(cfg), &message.GroupInfo{}} {
		e, err := NewEntry(m, cfg)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
