package hdf5

import (
	"fmt"
	"os"

	"github.com/robert-malhotra/ncattr/internal/alloc"
	"github.com/robert-malhotra/ncattr/internal/binary"
	"github.com/robert-malhotra/ncattr/internal/message"
	"github.com/robert-malhotra/ncattr/internal/object"
	"github.com/robert-malhotra/ncattr/internal/superblock"
)

// Create creates a new HDF5 file at the given path with an empty root
// group. The file uses a version 3 superblock and version 2 object headers.
func Create(path string, opts ...FileOption) (*File, error) {
	options := defaultFileOptions()
	for _, opt := range opts {
		opt(options)
	}

	osFile, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*File, error) {
		osFile.Close()
		os.Remove(path)
		return nil, err
	}

	cfg := binary.Config{
		ByteOrder:  binary.DefaultConfig().ByteOrder,
		OffsetSize: options.offsetSize,
		LengthSize: options.lengthSize,
	}
	writer := binary.NewWriter(osFile, cfg)

	sb := superblock.New()
	sb.OffsetSize = uint8(options.offsetSize)
	sb.LengthSize = uint8(options.lengthSize)

	allocator := alloc.New(0)
	allocator.Alloc(uint64(sb.Size()), "superblock")

	entries, err := object.NewGroupEntries(cfg)
	if err != nil {
		return fail(err)
	}
	header := &object.Header{Version: 2}
	if options.creationOrder {
		header.Flags = object.FlagTrackCreation
		ai, err := object.NewEntry(message.NewAttributeInfo(cfg, message.FlagTrackCreationOrder), cfg)
		if err != nil {
			return fail(err)
		}
		entries = append(entries, ai)
	}
	data, err := object.Encode(header, entries, object.MinGroupChunkSize)
	if err != nil {
		return fail(fmt.Errorf("encoding root group: %w", err))
	}
	rootAddr := allocator.AllocAligned(uint64(len(data)), 8, "root group")
	if err := writer.At(int64(rootAddr)).WriteBytes(data); err != nil {
		return fail(err)
	}

	sb.RootGroupAddress = rootAddr
	sb.EOFAddress = allocator.EOF()
	if _, err := sb.Write(writer); err != nil {
		return fail(err)
	}

	f := &File{
		path:       path,
		file:       osFile,
		reader:     binary.NewReader(osFile, cfg),
		superblock: sb,
		writable:   true,
		writer:     writer,
		allocator:  allocator,
	}
	root, err := f.openGroupAt(rootAddr, "/")
	if err != nil {
		return fail(err)
	}
	f.root = root

	return f, nil
}

// OpenReadWrite opens an existing HDF5 file for reading and writing.
func OpenReadWrite(path string) (*File, error) {
	return openFile(path, os.O_RDWR)
}

// Flush makes pending changes durable. New blocks are synced before the
// superblock is repointed at them, so a crash in between leaves the
// previous root group in effect.
func (f *File) Flush() error {
	if !f.writable {
		return nil
	}
	if !f.dirty {
		return f.file.Sync()
	}

	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", f.path, err)
	}
	f.superblock.EOFAddress = f.allocator.EOF()
	if err := f.superblock.Commit(f.writer); err != nil {
		return fmt.Errorf("updating superblock: %w", err)
	}
	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", f.path, err)
	}
	f.dirty = false
	return nil
}

// allocate reserves 8-byte aligned space at the end of the file.
func (f *File) allocate(size int64, tag string) uint64 {
	return f.allocator.AllocAligned(uint64(size), 8, tag)
}
