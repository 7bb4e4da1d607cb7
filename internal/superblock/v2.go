package superblock

import (
	"io"

	binpkg "github.com/robert-malhotra/ncattr/internal/binary"
)

/*
Version 2/3 layout (O = size of offsets):

	0       8   signature
	8       1   version
	9       1   size of offsets
	10      1   size of lengths
	11      1   file consistency flags
	12      O   base address
	12+O    O   superblock extension address
	12+2O   O   end-of-file address
	12+3O   O   root group object header address
	12+4O   4   lookup3 checksum
*/

func (sb *Superblock) readV2(ra io.ReaderAt) error {
	head := make([]byte, 4)
	if _, err := ra.ReadAt(head, sb.FileOffset+8); err != nil {
		return err
	}
	sb.OffsetSize = head[1]
	sb.LengthSize = head[2]
	sb.FileConsistencyFlags = head[3]
	if err := sb.validateSizes(); err != nil {
		return err
	}

	r := binpkg.NewReader(ra, sb.ReaderConfig()).At(sb.FileOffset + 12)
	fields := []*uint64{&sb.BaseAddress, &sb.ExtensionAddress, &sb.EOFAddress, &sb.RootGroupAddress}
	for _, f := range fields {
		v, err := r.ReadOffset()
		if err != nil {
			return err
		}
		*f = v
	}

	body := make([]byte, r.Pos()-sb.FileOffset)
	if _, err := ra.ReadAt(body, sb.FileOffset); err != nil {
		return err
	}
	stored, err := r.ReadUint32()
	if err != nil {
		return err
	}
	if !binpkg.VerifyLookup3(body, stored) {
		return ErrInvalidSuperblock
	}
	return nil
}

// Write writes a v2/v3 superblock at the writer's position and returns the
// number of bytes written. Versions below 2 are written as version 2.
func (sb *Superblock) Write(w *binpkg.Writer) (int64, error) {
	buf := &binpkg.Buffer{}
	bw := binpkg.NewWriter(buf, sb.ReaderConfig())

	version := sb.Version
	if version < 2 {
		version = 2
	}
	ext := sb.ExtensionAddress
	if ext == 0 {
		ext = bw.UndefinedOffset()
	}

	if err := bw.WriteBytes(Signature); err != nil {
		return 0, err
	}
	for _, b := range []uint8{version, sb.OffsetSize, sb.LengthSize, sb.FileConsistencyFlags} {
		if err := bw.WriteUint8(b); err != nil {
			return 0, err
		}
	}
	for _, addr := range []uint64{sb.BaseAddress, ext, sb.EOFAddress, sb.RootGroupAddress} {
		if err := bw.WriteOffset(addr); err != nil {
			return 0, err
		}
	}
	buf.AppendChecksum(sb.ByteOrder)

	if err := w.WriteBytes(buf.Bytes()); err != nil {
		return 0, err
	}
	return int64(len(buf.Bytes())), nil
}

// Size returns the encoded size of a v2/v3 superblock.
func (sb *Superblock) Size() int {
	return 12 + 4*int(sb.OffsetSize) + 4
}

// New returns a version 3 superblock with 8-byte offsets and lengths.
func New() *Superblock {
	return &Superblock{
		Version:    3,
		OffsetSize: 8,
		LengthSize: 8,
		ByteOrder:  binpkg.DefaultConfig().ByteOrder,
	}
}
