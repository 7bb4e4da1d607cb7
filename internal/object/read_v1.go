package object

import (
	"fmt"

	"github.com/robert-malhotra/ncattr/internal/binary"
	"github.com/robert-malhotra/ncattr/internal/message"
)

/*
Version 1 object header:

	0   1   version (1)
	1   1   reserved
	2   2   number of header messages
	4   4   object reference count
	8   4   header data size
	12  4   padding to an 8-byte boundary
	16  ... messages

Each message: type (2), data size (2), flags (1), reserved (3), data. Data
sizes are multiples of eight.
*/

func readV1(r *binary.Reader, address uint64) (*Header, error) {
	if _, err := r.ReadUint8(); err != nil {
		return nil, err
	}
	r.Skip(1)
	if _, err := r.ReadUint16(); err != nil {
		return nil, err
	}
	refCount, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	size, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	r.Skip(4)

	h := &Header{Version: 1, Address: address, RefCount: refCount}
	if err := h.readV1Block(r, r.Pos(), uint64(size), 0); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Header) readV1Block(r *binary.Reader, start int64, length uint64, depth int) error {
	if depth > maxContinuationBlocks {
		return fmt.Errorf("%w: too many continuation blocks", ErrInvalidHeader)
	}
	h.Chunks++
	br := r.At(start)
	end := start + int64(length)
	cfg := r.Config()

	for br.Pos()+8 <= end {
		typ, err := br.ReadUint16()
		if err != nil {
			return err
		}
		size, err := br.ReadUint16()
		if err != nil {
			return err
		}
		flags, err := br.ReadUint8()
		if err != nil {
			return err
		}
		br.Skip(3)
		data, err := br.ReadBytes(int(size))
		if err != nil {
			return fmt.Errorf("%w: message data: %v", ErrInvalidHeader, err)
		}
		if rem := (br.Pos() - start) % 8; rem != 0 {
			br.Skip(8 - rem)
		}

		switch message.Type(typ) {
		case message.TypeNIL:
		case message.TypeObjectHeaderContinuation:
			cont, err := message.ParseContinuation(data, cfg)
			if err != nil {
				return err
			}
			if err := h.readV1Block(r, int64(cont.Offset), cont.Length, depth+1); err != nil {
				return err
			}
		default:
			h.Entries = append(h.Entries, newEntry(message.Type(typ), flags, data, cfg))
		}
	}
	return nil
}
