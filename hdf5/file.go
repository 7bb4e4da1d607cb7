package hdf5

import (
	"errors"
	"fmt"
	"os"

	"github.com/robert-malhotra/ncattr/internal/alloc"
	"github.com/robert-malhotra/ncattr/internal/binary"
	"github.com/robert-malhotra/ncattr/internal/superblock"
)

// File represents an open HDF5 file.
type File struct {
	path       string
	file       *os.File
	reader     *binary.Reader
	superblock *superblock.Superblock
	root       *Group
	closed     bool

	// Write support fields
	writable  bool
	dirty     bool
	writer    *binary.Writer
	allocator *alloc.Allocator
}

// Open opens an HDF5 file for reading.
func Open(path string) (*File, error) {
	return openFile(path, os.O_RDONLY)
}

func openFile(path string, flag int) (*File, error) {
	osFile, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	sb, err := superblock.Read(osFile)
	if err != nil {
		osFile.Close()
		if errors.Is(err, superblock.ErrNotHDF5) {
			return nil, ErrNotHDF5
		}
		return nil, fmt.Errorf("reading superblock: %w", err)
	}
	if sb.BaseAddress != 0 {
		osFile.Close()
		return nil, fmt.Errorf("%w: base address %#x (user block)", ErrUnsupported, sb.BaseAddress)
	}

	cfg := sb.ReaderConfig()
	f := &File{
		path:       path,
		file:       osFile,
		reader:     binary.NewReader(osFile, cfg),
		superblock: sb,
	}

	if flag&(os.O_RDWR|os.O_WRONLY) != 0 {
		info, err := osFile.Stat()
		if err != nil {
			osFile.Close()
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		eof := sb.EOFAddress
		if size := uint64(info.Size()); size > eof {
			eof = size
		}
		f.writable = true
		f.writer = binary.NewWriter(osFile, cfg)
		f.allocator = alloc.New(eof)
	}

	root, err := f.openGroupAt(sb.RootGroupAddress, "/")
	if err != nil {
		osFile.Close()
		return nil, fmt.Errorf("opening root group: %w", err)
	}
	f.root = root

	return f, nil
}

// Close closes the file. Pending writes of a writable file are flushed
// first.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	if f.writable {
		if err := f.Flush(); err != nil {
			f.file.Close()
			return err
		}
	}
	return f.file.Close()
}

// Root returns the root group of the file.
func (f *File) Root() *Group {
	return f.root
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Version returns the superblock version.
func (f *File) Version() int {
	return int(f.superblock.Version)
}

// IsWritable returns true if the file was opened for writing.
func (f *File) IsWritable() bool {
	return f.writable
}

// openGroupAt opens a group at the given address.
func (f *File) openGroupAt(address uint64, path string) (*Group, error) {
	g := &Group{file: f, path: path}
	if err := g.reload(address); err != nil {
		return nil, err
	}
	return g, nil
}

// ReadAttr reads the value of a root group attribute.
func (f *File) ReadAttr(name string) (any, error) {
	if f.closed {
		return nil, ErrClosed
	}
	attr := f.root.Attr(name)
	if attr == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return attr.Value()
}
