package cdf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
)

// growAlign is the granularity by which variable data moves when the
// header outgrows the space in front of it.
const growAlign = 512

// File is an open classic netCDF file.
type File struct {
	path     string
	file     *os.File
	header   *Header
	size     int64
	hdrLen   int64
	writable bool
	closed   bool
}

// Open opens a classic file for reading.
func Open(path string) (*File, error) {
	return openFile(path, os.O_RDONLY)
}

// OpenReadWrite opens a classic file for reading and writing.
func OpenReadWrite(path string) (*File, error) {
	return openFile(path, os.O_RDWR)
}

func openFile(path string, flag int) (*File, error) {
	osFile, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	f := &File{path: path, file: osFile, writable: flag&os.O_RDWR != 0}
	if err := f.load(); err != nil {
		osFile.Close()
		return nil, err
	}
	return f, nil
}

func (f *File) load() error {
	info, err := f.file.Stat()
	if err != nil {
		return err
	}
	h, n, err := readHeader(f.file, info.Size())
	if err != nil {
		return err
	}
	f.header, f.hdrLen, f.size = h, n, info.Size()
	return nil
}

// Close closes the file. Writes are durable when SetAttr returns, so there
// is nothing to flush.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.file.Close()
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Version returns the format version.
func (f *File) Version() Version { return f.header.Version }

// Header returns the decoded header. It must not be modified.
func (f *File) Header() *Header { return f.header }

// IsWritable reports whether the file was opened for writing.
func (f *File) IsWritable() bool { return f.writable }

// Attrs returns the global attributes in file order.
func (f *File) Attrs() []Attribute { return f.header.Attrs }

// Attr returns the global attribute called name.
func (f *File) Attr(name string) (Attribute, bool) {
	i := f.index(name)
	if i < 0 {
		return Attribute{}, false
	}
	return f.header.Attrs[i], true
}

func (f *File) index(name string) int {
	return slices.IndexFunc(f.header.Attrs, func(a Attribute) bool { return a.Name == name })
}

// SetAttr creates or replaces a global attribute and syncs the file before
// returning. value may be any Go integer, float or string; see the package
// documentation for how its type is chosen.
//
// A replaced attribute keeps its position and a new one goes last. If the
// header still fits in front of the variable data it is rewritten in
// place. Otherwise the data moves back by a multiple of 512 bytes through
// a temporary file that replaces the original.
func (f *File) SetAttr(name string, value any) error {
	if f.closed {
		return ErrClosed
	}
	if !f.writable {
		return ErrReadOnly
	}
	if err := checkName(name); err != nil {
		return err
	}

	h := f.header.clone()
	i := f.index(name)
	var existing *Attribute
	if i >= 0 {
		existing = &h.Attrs[i]
	}
	a, err := newAttribute(h.Version, name, value, existing)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}
	if i >= 0 {
		h.Attrs[i] = a
	} else {
		h.Attrs = append(h.Attrs, a)
	}

	enc, err := h.encode()
	if err != nil {
		return err
	}
	start := f.header.dataStart(f.size)
	if len(h.Vars) > 0 && start < f.hdrLen {
		return fmt.Errorf("%w: variable data starts inside the header", ErrMalformed)
	}
	if len(h.Vars) == 0 || int64(len(enc)) <= start {
		return f.writeInPlace(h, enc)
	}

	shift := (int64(len(enc)) - start + growAlign - 1) / growAlign * growAlign
	for i := range h.Vars {
		h.Vars[i].Begin += uint64(shift)
	}
	if enc, err = h.encode(); err != nil {
		return err
	}
	return f.rewrite(h, enc, start, shift)
}

func (f *File) writeInPlace(h *Header, enc []byte) error {
	buf := enc
	if n := f.hdrLen - int64(len(enc)); n > 0 {
		buf = append(slices.Clip(enc), make([]byte, n)...)
	}
	if _, err := f.file.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("syncing file: %w", err)
	}
	f.header, f.hdrLen = h, int64(len(enc))
	f.size = max(f.size, int64(len(buf)))
	return nil
}

// rewrite writes enc followed by the data that started at start, now at
// start+shift, to a temporary file and renames it over the original.
func (f *File) rewrite(h *Header, enc []byte, start, shift int64) (err error) {
	info, err := f.file.Stat()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(enc); err != nil {
		return err
	}
	if _, err = tmp.Write(make([]byte, start+shift-int64(len(enc)))); err != nil {
		return err
	}
	data := max(f.size-start, 0)
	if _, err = io.Copy(tmp, io.NewSectionReader(f.file, start, data)); err != nil {
		return fmt.Errorf("copying variable data: %w", err)
	}
	if err = tmp.Chmod(info.Mode().Perm()); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(f.path), err)
	}

	reopened, openErr := os.OpenFile(f.path, os.O_RDWR, 0)
	f.file.Close()
	if openErr != nil {
		f.closed = true
		return errors.Join(errors.New("file replaced but not reopened"), openErr)
	}
	f.file = reopened
	f.header, f.hdrLen = h, int64(len(enc))
	f.size = start + shift + data
	return nil
}
