package hdf5

// FileOption configures file creation options.
type FileOption func(*fileOptions)

type fileOptions struct {
	offsetSize    int
	lengthSize    int
	creationOrder bool
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{
		offsetSize: 8,
		lengthSize: 8,
	}
}

// WithOffsetSize sets the size in bytes for file offsets (2, 4, or 8).
func WithOffsetSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 2 || size == 4 || size == 8 {
			o.offsetSize = size
		}
	}
}

// WithLengthSize sets the size in bytes for lengths (2, 4, or 8).
func WithLengthSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 2 || size == 4 || size == 8 {
			o.lengthSize = size
		}
	}
}

// WithCreationOrder makes the root group track attribute creation order,
// as netCDF-4 files do.
func WithCreationOrder() FileOption {
	return func(o *fileOptions) {
		o.creationOrder = true
	}
}

// AttrOption configures how SetAttr stores a value.
type AttrOption func(*attrOptions)

type attrOptions struct {
	varLenString bool
}

// WithVarLenString stores a string value as a variable-length UTF-8 string
// in the global heap instead of a fixed-length string.
func WithVarLenString() AttrOption {
	return func(o *attrOptions) {
		o.varLenString = true
	}
}
