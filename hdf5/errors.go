// Package hdf5 reads HDF5 files and edits the attributes of their root group.
package hdf5

import "errors"

// Common errors
var (
	ErrNotHDF5     = errors.New("not an HDF5 file")
	ErrNotFound    = errors.New("attribute not found")
	ErrUnsupported = errors.New("unsupported feature")
	ErrClosed      = errors.New("file is closed")
	ErrReadOnly    = errors.New("file is not open for writing")
)
