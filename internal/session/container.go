package session

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/ncattr/hdf5"
	"github.com/robert-malhotra/ncattr/internal/cdf"
	"github.com/robert-malhotra/ncattr/internal/ncfile"
)

// Container is an open file whose global attributes a Session edits.
type Container interface {
	// Attributes returns the global attributes in file order, reserved
	// attributes excluded.
	Attributes() ([]Attribute, error)
	Write(name string, v Value) error
	Close() error
}

// Opener opens path for editing.
type Opener func(path string) (Container, error)

// OpenFile opens a netCDF-4 or classic netCDF file read-write. It is the
// default Opener.
func OpenFile(path string) (Container, error) {
	return openContainer(path, true)
}

// ReadSnapshot reads the global attributes of path without opening it for
// writing. Failures are returned as *OpenError.
func ReadSnapshot(path string) (*Snapshot, error) {
	c, err := openContainer(path, false)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	defer c.Close()
	attrs, err := c.Attributes()
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	return NewSnapshot(attrs), nil
}

// openContainer tries HDF5 first and falls back to the classic format when
// the file has no HDF5 signature.
func openContainer(path string, write bool) (Container, error) {
	open, openClassic := hdf5.Open, cdf.Open
	if write {
		open, openClassic = hdf5.OpenReadWrite, cdf.OpenReadWrite
	}
	f, err := open(path)
	if err == nil {
		return &hdf5Container{file: f}, nil
	}
	if !errors.Is(err, hdf5.ErrNotHDF5) {
		return nil, ncfile.Classify(err)
	}
	cf, err := openClassic(path)
	if err != nil {
		return nil, ncfile.Classify(err)
	}
	logger.Debug("classic file opened", "path", path, "format", cf.Version().String())
	return &classicContainer{file: cf}, nil
}

type hdf5Container struct {
	file *hdf5.File
}

func (c *hdf5Container) Attributes() ([]Attribute, error) {
	var out []Attribute
	for _, a := range c.file.Root().Attrs() {
		if ncfile.IsReserved(a.Name()) {
			continue
		}
		out = append(out, Attribute{Name: a.Name(), Value: valueOf(a)})
	}
	return out, nil
}

// valueOf converts a stored attribute. Anything that is not a scalar
// integer, float or string becomes Opaque.
func valueOf(a *hdf5.Attribute) Value {
	info := a.TypeInfo()
	raw, err := a.Value()
	if err != nil {
		logger.Debug("attribute not decoded", "name", a.Name(), "err", err)
		return Value{Kind: Opaque, Display: fmt.Sprintf("<%s>", info.Name), TypeName: info.Name}
	}
	if !a.IsScalar() {
		return Value{Kind: Opaque, Display: fmt.Sprint(raw), TypeName: fmt.Sprintf("%s%v", typeName(info), a.Shape())}
	}
	switch v := raw.(type) {
	case int64:
		return Value{Kind: Integer, Int: v, Width: info.Size}
	case uint64:
		return Value{Kind: Integer, Int: int64(v), Unsigned: true, Width: info.Size}
	case float64:
		return Value{Kind: Float, Float: v, Width: info.Size}
	case string:
		return Value{Kind: Text, Text: v, VarLen: info.VarLen}
	default:
		return Value{Kind: Opaque, Display: fmt.Sprint(raw), TypeName: info.Name}
	}
}

func typeName(info hdf5.TypeInfo) string {
	switch info.Class {
	case hdf5.ClassInteger:
		if info.Signed {
			return fmt.Sprintf("int%d", info.Size*8)
		}
		return fmt.Sprintf("uint%d", info.Size*8)
	case hdf5.ClassFloat:
		return fmt.Sprintf("float%d", info.Size*8)
	default:
		return info.Name
	}
}

func (c *hdf5Container) Write(name string, v Value) error {
	root := c.file.Root()
	var err error
	switch v.Kind {
	case Integer:
		if v.Unsigned {
			err = root.SetAttr(name, uint64(v.Int))
		} else {
			err = root.SetAttr(name, v.Int)
		}
	case Float:
		err = root.SetAttr(name, v.Float)
	case Text:
		var opts []hdf5.AttrOption
		if v.VarLen {
			opts = append(opts, hdf5.WithVarLenString())
		}
		err = root.SetAttr(name, v.Text, opts...)
	default:
		return ErrReadOnly
	}
	if err != nil {
		return ncfile.Classify(err)
	}
	var grown uint64
	blocks := c.file.Appended()
	for _, b := range blocks {
		grown += b.Size
	}
	logger.Debug("root header rewritten", "name", name, "blocks", len(blocks), "bytes_appended", grown)
	return nil
}

func (c *hdf5Container) Close() error { return c.file.Close() }

type classicContainer struct {
	file *cdf.File
}

func (c *classicContainer) Attributes() ([]Attribute, error) {
	var out []Attribute
	for _, a := range c.file.Attrs() {
		if ncfile.IsReserved(a.Name) {
			continue
		}
		out = append(out, Attribute{Name: a.Name, Value: classicValue(a)})
	}
	return out, nil
}

// classicValue converts a header attribute. Arrays become Opaque.
func classicValue(a cdf.Attribute) Value {
	raw := a.Value()
	if !a.IsScalar() {
		return Value{Kind: Opaque, Display: fmt.Sprint(raw), TypeName: fmt.Sprintf("%s[%d]", a.Type, a.N)}
	}
	size := a.Type.Size()
	switch v := raw.(type) {
	case int64:
		return Value{Kind: Integer, Int: v, Width: size}
	case uint64:
		return Value{Kind: Integer, Int: int64(v), Unsigned: true, Width: size}
	case float64:
		return Value{Kind: Float, Float: v, Width: size}
	case string:
		return Value{Kind: Text, Text: v}
	default:
		return Value{Kind: Opaque, Display: fmt.Sprint(raw), TypeName: a.Type.String()}
	}
}

func (c *classicContainer) Write(name string, v Value) error {
	var err error
	switch v.Kind {
	case Integer:
		if v.Unsigned {
			err = c.file.SetAttr(name, uint64(v.Int))
		} else {
			err = c.file.SetAttr(name, v.Int)
		}
	case Float:
		err = c.file.SetAttr(name, v.Float)
	case Text:
		err = c.file.SetAttr(name, v.Text)
	default:
		return ErrReadOnly
	}
	if err != nil {
		return ncfile.Classify(err)
	}
	logger.Debug("classic header rewritten", "name", name, "format", c.file.Version().String())
	return nil
}

func (c *classicContainer) Close() error { return c.file.Close() }
