package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	binpkg "github.com/robert-malhotra/ncattr/internal/binary"
)

// Signature is the HDF5 format signature: 0x89 H D F \r \n 0x1a \n.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

var searchOffsets = []int64{0, 512, 1024, 2048}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock structure")
)

// Superblock holds the fields needed to reach and relocate the root group.
type Superblock struct {
	Version              uint8
	OffsetSize           uint8
	LengthSize           uint8
	FileConsistencyFlags uint8

	BaseAddress      uint64
	ExtensionAddress uint64 // v2/v3; undefined when absent
	EOFAddress       uint64
	RootGroupAddress uint64

	// Root symbol table entry scratch pad (v0/v1, cache type 1).
	RootBTreeAddress uint64
	RootHeapAddress  uint64

	ByteOrder  binary.ByteOrder
	FileOffset int64

	// Absolute positions of the fields Commit rewrites in v0/v1 files.
	eofPos  int64
	rootPos int64
}

// Read locates and parses the superblock.
func Read(r io.ReaderAt) (*Superblock, error) {
	sig := make([]byte, 9)
	for _, off := range searchOffsets {
		if _, err := r.ReadAt(sig, off); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if !bytes.Equal(sig[:8], Signature) {
			continue
		}

		sb := &Superblock{Version: sig[8], ByteOrder: binary.LittleEndian, FileOffset: off}
		var err error
		switch sb.Version {
		case 0, 1:
			err = sb.readLegacy(r)
		case 2, 3:
			err = sb.readV2(r)
		default:
			return nil, ErrUnsupportedVersion
		}
		if err != nil {
			return nil, err
		}
		return sb, nil
	}
	return nil, ErrNotHDF5
}

// ReaderConfig returns the field widths declared by this superblock.
func (sb *Superblock) ReaderConfig() binpkg.Config {
	return binpkg.Config{
		ByteOrder:  sb.ByteOrder,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

// Commit writes the current RootGroupAddress and EOFAddress back to the file.
func (sb *Superblock) Commit(w *binpkg.Writer) error {
	switch sb.Version {
	case 0, 1:
		return sb.commitLegacy(w)
	case 2, 3:
		_, err := sb.Write(w.At(sb.FileOffset))
		return err
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, sb.Version)
	}
}

func (sb *Superblock) validateSizes() error {
	if err := sb.ReaderConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSuperblock, err)
	}
	return nil
}
