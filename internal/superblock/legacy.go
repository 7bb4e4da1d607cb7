package superblock

import (
	"io"

	binpkg "github.com/robert-malhotra/ncattr/internal/binary"
)

/*
Version 0/1 layout (O = size of offsets):

	0       8   signature
	8       1   version
	9       1   free-space version
	10      1   root symbol table entry version
	11      1   reserved
	12      1   shared header message version
	13      1   size of offsets
	14      1   size of lengths
	15      1   reserved
	16      2   group leaf node K
	18      2   group internal node K
	20      4   file consistency flags
	24      4   indexed storage K + reserved (v1 only)
	...     O   base address
	        O   free-space info address
	        O   end-of-file address
	        O   driver info address
	        ... root symbol table entry:
	            O link name offset, O object header address,
	            4 cache type, 4 reserved, 16 scratch pad
*/

func (sb *Superblock) readLegacy(ra io.ReaderAt) error {
	head := make([]byte, 16)
	if _, err := ra.ReadAt(head, sb.FileOffset+8); err != nil {
		return err
	}
	sb.OffsetSize = head[5]
	sb.LengthSize = head[6]
	if err := sb.validateSizes(); err != nil {
		return err
	}

	pos := sb.FileOffset + 24
	if sb.Version == 1 {
		pos += 4
	}
	r := binpkg.NewReader(ra, sb.ReaderConfig()).At(pos)

	var err error
	if sb.BaseAddress, err = r.ReadOffset(); err != nil {
		return err
	}
	r.Skip(int64(sb.OffsetSize)) // free-space info
	sb.eofPos = r.Pos()
	if sb.EOFAddress, err = r.ReadOffset(); err != nil {
		return err
	}
	r.Skip(int64(sb.OffsetSize)) // driver info
	r.Skip(int64(sb.OffsetSize)) // link name offset
	sb.rootPos = r.Pos()
	if sb.RootGroupAddress, err = r.ReadOffset(); err != nil {
		return err
	}

	cacheType, err := r.ReadUint32()
	if err != nil {
		return err
	}
	r.Skip(4)
	if cacheType == 1 {
		if sb.RootBTreeAddress, err = r.ReadOffset(); err != nil {
			return err
		}
		if sb.RootHeapAddress, err = r.ReadOffset(); err != nil {
			return err
		}
	}
	return nil
}

// commitLegacy patches the two fields in place. The rest of a v0/v1
// superblock, including the root entry's scratch pad, stays valid because the
// group's B-tree and local heap do not move.
func (sb *Superblock) commitLegacy(w *binpkg.Writer) error {
	if err := w.At(sb.eofPos).WriteOffset(sb.EOFAddress); err != nil {
		return err
	}
	return w.At(sb.rootPos).WriteOffset(sb.RootGroupAddress)
}
