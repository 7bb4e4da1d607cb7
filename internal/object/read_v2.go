package object

import (
	"fmt"

	"github.com/robert-malhotra/ncattr/internal/binary"
	"github.com/robert-malhotra/ncattr/internal/message"
)

/*
Version 2 object header:

	0   4   signature "OHDR"
	4   1   version (2)
	5   1   flags
	        bits 0-1: chunk #0 size field is 1 << n bytes
	        bit 2: creation order tracked, bit 3: creation order indexed
	        bit 4: attribute phase change values stored
	        bit 5: access/modification/change/birth times stored
	    16  four timestamps (flag bit 5)
	    4   max compact / min dense attributes (flag bit 4)
	    var chunk #0 size
	    ... messages: type (1), size (2), flags (1), [creation order (2)], data
	    4   checksum

Continuation blocks start with "OCHK" and end with a checksum.
*/

func readV2(r *binary.Reader, address uint64) (*Header, error) {
	start := r.Pos()
	r.Skip(4)
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, fmt.Errorf("%w: expected version 2, got %d", ErrUnsupportedVersion, version)
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	h := &Header{Version: 2, Address: address, Flags: flags, RefCount: 1}

	if flags&FlagStoreTimes != 0 {
		for _, f := range []*uint32{&h.AccessTime, &h.ModTime, &h.ChangeTime, &h.BirthTime} {
			if *f, err = r.ReadUint32(); err != nil {
				return nil, err
			}
		}
	}
	if flags&FlagAttrPhaseChange != 0 {
		if h.MaxCompactAttrs, err = r.ReadUint16(); err != nil {
			return nil, err
		}
		if h.MinDenseAttrs, err = r.ReadUint16(); err != nil {
			return nil, err
		}
	}
	chunk0, err := r.ReadUintN(1 << (flags & flagSizeMask))
	if err != nil {
		return nil, err
	}

	msgStart := r.Pos()
	msgEnd := msgStart + int64(chunk0)
	if err := verifyChecksum(r, start, msgEnd); err != nil {
		return nil, err
	}
	if err := h.readV2Messages(r, msgStart, msgEnd, 0); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Header) readV2Messages(r *binary.Reader, start, end int64, depth int) error {
	if depth > maxContinuationBlocks {
		return fmt.Errorf("%w: too many continuation blocks", ErrInvalidHeader)
	}
	h.Chunks++
	br := r.At(start)
	cfg := r.Config()

	prefix := int64(4)
	if h.TracksCreationOrder() {
		prefix += 2
	}

	// Fewer than prefix bytes at the end of a chunk is a gap, not a message.
	for br.Pos()+prefix <= end {
		typ, err := br.ReadUint8()
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
		var order uint16
		if h.TracksCreationOrder() {
			if order, err = br.ReadUint16(); err != nil {
				return err
			}
		}
		if br.Pos()+int64(size) > end {
			return fmt.Errorf("%w: message overruns chunk", ErrInvalidHeader)
		}
		data, err := br.ReadBytes(int(size))
		if err != nil {
			return err
		}

		switch message.Type(typ) {
		case message.TypeNIL:
		case message.TypeObjectHeaderContinuation:
			cont, err := message.ParseContinuation(data, cfg)
			if err != nil {
				return err
			}
			if err := h.readContinuation(r, cont, depth+1); err != nil {
				return err
			}
		default:
			e := newEntry(message.Type(typ), flags, data, cfg)
			e.CreationOrder = order
			h.Entries = append(h.Entries, e)
		}
	}
	return nil
}

func (h *Header) readContinuation(r *binary.Reader, cont *message.Continuation, depth int) error {
	start := int64(cont.Offset)
	sig, err := r.At(start).ReadBytes(4)
	if err != nil {
		return err
	}
	if string(sig) != "OCHK" {
		return fmt.Errorf("%w: bad continuation signature %q", ErrInvalidHeader, sig)
	}
	end := start + int64(cont.Length) - 4
	if err := verifyChecksum(r, start, end); err != nil {
		return err
	}
	return h.readV2Messages(r, start+4, end, depth)
}

// verifyChecksum checks the lookup3 checksum stored at end against the
// bytes in [start, end).
func verifyChecksum(r *binary.Reader, start, end int64) error {
	if end < start {
		return fmt.Errorf("%w: negative chunk size", ErrInvalidHeader)
	}
	body, err := r.At(start).ReadBytes(int(end - start))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	stored, err := r.At(end).ReadUint32()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if !binary.VerifyLookup3(body, stored) {
		return ErrChecksumMismatch
	}
	return nil
}
