package object

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/ncattr/internal/binary"
	"github.com/robert-malhotra/ncattr/internal/message"
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
)

// Version 2 header flag bits.
const (
	flagSizeMask          = 0x03
	FlagTrackCreation     = 0x04
	FlagIndexCreation     = 0x08
	FlagAttrPhaseChange   = 0x10
	FlagStoreTimes        = 0x20
	preservedHeaderFlags  = FlagTrackCreation | FlagIndexCreation | FlagAttrPhaseChange | FlagStoreTimes
	maxContinuationBlocks = 1024
)

// Entry is one header message as stored in the file.
type Entry struct {
	Type          message.Type
	Flags         uint8
	CreationOrder uint16
	Data          []byte
	Message       message.Message

	// ParseErr is set when Data could not be decoded. The entry is still
	// carried as an Unknown message.
	ParseErr error
}

// Header is a parsed object header. Continuation and NIL messages are
// consumed while reading and never appear in Entries.
type Header struct {
	Version  uint8
	Address  uint64
	Flags    uint8
	RefCount uint32

	AccessTime, ModTime, ChangeTime, BirthTime uint32
	MaxCompactAttrs, MinDenseAttrs             uint16

	// Chunks counts the header's storage blocks, including continuations.
	Chunks  int
	Entries []Entry
}

// Read parses the object header at address.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	hr := r.At(int64(address))
	peek, err := hr.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}

	switch {
	case string(peek) == "OHDR":
		return readV2(hr, address)
	case peek[0] == 1:
		return readV1(hr, address)
	default:
		return nil, fmt.Errorf("%w: unknown format at address %d", ErrInvalidHeader, address)
	}
}

// newEntry decodes a message body into an Entry.
func newEntry(typ message.Type, flags uint8, data []byte, cfg binary.Config) Entry {
	e := Entry{Type: typ, Flags: flags, Data: data}
	msg, err := message.Parse(typ, data, cfg)
	if err != nil {
		e.ParseErr = err
		msg = message.NewUnknown(typ, data)
	}
	e.Message = msg
	return e
}

// GetMessage returns the first message of the given type, or nil.
func (h *Header) GetMessage(typ message.Type) message.Message {
	for _, e := range h.Entries {
		if e.Type == typ {
			return e.Message
		}
	}
	return nil
}

// Attributes returns the decoded attribute messages in header order.
// Attribute messages that failed to decode are skipped.
func (h *Header) Attributes() []*message.Attribute {
	var out []*message.Attribute
	for _, e := range h.Entries {
		if a, ok := e.Message.(*message.Attribute); ok {
			out = append(out, a)
		}
	}
	return out
}

// AttributeInfo returns the Attribute Info message, or nil.
func (h *Header) AttributeInfo() *message.AttributeInfo {
	if ai, ok := h.GetMessage(message.TypeAttributeInfo).(*message.AttributeInfo); ok {
		return ai
	}
	return nil
}

// TracksCreationOrder reports whether every message carries a creation
// order field.
func (h *Header) TracksCreationOrder() bool {
	return h.Version == 2 && h.Flags&FlagTrackCreation != 0
}
