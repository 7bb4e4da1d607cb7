package hdf5

// Info is a structural summary of a file, for diagnostics.
type Info struct {
	SuperblockVersion int
	OffsetSize        int
	LengthSize        int
	EOF               uint64

	RootAddress     uint64
	HeaderVersion   int
	HeaderChunks    int
	CreationOrder   bool
	DenseAttributes bool
	// DenseCount is the number of attributes in dense storage.
	DenseCount int
	Messages   []MessageInfo
}

// MessageInfo describes one message of the root group's object header.
type MessageInfo struct {
	Type          string
	Size          int
	Flags         uint8
	CreationOrder uint16
	// Err is set when the message body could not be decoded.
	Err error
}

// Info returns the structure of the file's superblock and root group.
func (f *File) Info() Info {
	sb, h := f.superblock, f.root.header
	info := Info{
		SuperblockVersion: int(sb.Version),
		OffsetSize:        int(sb.OffsetSize),
		LengthSize:        int(sb.LengthSize),
		EOF:               sb.EOFAddress,
		RootAddress:       f.root.addr,
		HeaderVersion:     int(h.Version),
		HeaderChunks:      h.Chunks,
		CreationOrder:     h.TracksCreationOrder(),
		DenseAttributes:   f.root.DenseAttributes(),
		DenseCount:        len(f.root.dense),
	}
	for _, e := range h.Entries {
		info.Messages = append(info.Messages, MessageInfo{
			Type:          e.Type.String(),
			Size:          len(e.Data),
			Flags:         e.Flags,
			CreationOrder: e.CreationOrder,
			Err:           e.ParseErr,
		})
	}
	return info
}

// Block is a region of the file written by this handle.
type Block struct {
	Addr uint64
	Size uint64
	Tag  string
}

// Appended lists the blocks this handle has written past the original end
// of file, oldest first. Superseded headers stay in the file, so the list
// also accounts for its growth. Read-only files return nil.
func (f *File) Appended() []Block {
	if f.allocator == nil {
		return nil
	}
	var out []Block
	for _, a := range f.allocator.Allocations() {
		out = append(out, Block{Addr: a.Addr, Size: a.Size, Tag: a.Tag})
	}
	return out
}
