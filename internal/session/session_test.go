package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/ncattr/hdf5"
	"github.com/robert-malhotra/ncattr/internal/ncfile"
	"github.com/robert-malhotra/ncattr/internal/testfile"
)

var (
	yes = ConfirmFunc(func(string) bool { return true })
	no  = ConfirmFunc(func(string) bool { return false })
)

// sondeFile writes a netCDF-4 style file with a few global attributes.
func sondeFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "D20240101_120000_PQC.nc")
	f, err := hdf5.Create(path, hdf5.WithCreationOrder())
	require.NoError(t, err)
	root := f.Root()
	require.NoError(t, root.SetAttr("_NCProperties", "version=2,netcdf=4.9.2,hdf5=1.14.3"))
	require.NoError(t, root.SetAttr("title", "Dropsonde"))
	require.NoError(t, root.SetAttr("launch_count", int64(3)))
	require.NoError(t, root.SetAttr("scale", 0.5))
	require.NoError(t, f.Close())
	return path
}

func openSession(t *testing.T, path string) *Session {
	t.Helper()
	s := New()
	_, err := s.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenLoadsSnapshot(t *testing.T) {
	path := sondeFile(t)
	s := New()
	defer s.Close()

	res, err := s.Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.False(t, res.ExtensionWarning)
	assert.Equal(t, 3, res.Count)

	assert.True(t, s.IsOpen())
	assert.Equal(t, path, s.Path())
	assert.Equal(t, []string{"title", "launch_count", "scale"}, s.Suggestions())
	assert.Equal(t, s.Snapshot().Names(), s.Suggestions())
	assert.Equal(t, Status{Info, "Loaded 3 global attributes."}, s.Status())
	assert.Equal(t, "- title: Dropsonde\n- launch_count: 3\n- scale: 0.5\n", s.Snapshot().Render())
	assert.NotEmpty(t, s.ID)
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.nc")
	f, err := hdf5.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s := openSession(t, path)
	assert.Equal(t, 0, s.Snapshot().Len())
	assert.Equal(t, EmptyMessage, s.Snapshot().Render())
	assert.Equal(t, "No global attributes found.", s.Status().Message)
}

func TestOpenMissingPath(t *testing.T) {
	s := New()
	_, err := s.Open(filepath.Join(t.TempDir(), "missing.nc"))
	assert.ErrorIs(t, err, ErrNotExist)
	assert.False(t, s.IsOpen())
	assert.Empty(t, s.Path())
	assert.Nil(t, s.Snapshot())
	assert.Equal(t, Status{Error, "Error: File not found."}, s.Status())
}

func TestOpenMissingPathKeepsCurrentFile(t *testing.T) {
	path := sondeFile(t)
	s := openSession(t, path)
	_, err := s.Open(filepath.Join(t.TempDir(), "missing.nc"))
	assert.ErrorIs(t, err, ErrNotExist)
	assert.True(t, s.IsOpen())
	assert.Equal(t, path, s.Path())
}

func TestOpenNotContainerResets(t *testing.T) {
	s := openSession(t, sondeFile(t))

	bogus := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(bogus, []byte("just some text, no superblock here"), 0o644))
	res, err := s.Open(bogus)
	assert.ErrorIs(t, err, ErrOpen)
	assert.ErrorIs(t, err, ncfile.ErrNotContainer)
	assert.True(t, res.ExtensionWarning)
	assert.Equal(t, bogus, res.Path)
	assert.Equal(t, 1, strings.Count(err.Error(), bogus), err.Error())
	assert.False(t, s.IsOpen())
	assert.Empty(t, s.Path())
	assert.Equal(t, 0, s.Snapshot().Len())
	assert.Equal(t, Status{Error, "Error opening file."}, s.Status())
}

func TestOpenExtensionWarning(t *testing.T) {
	src := sondeFile(t)
	path := filepath.Join(t.TempDir(), "sonde.h5")
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	s := New()
	defer s.Close()
	res, err := s.Open(path)
	require.NoError(t, err)
	assert.True(t, res.ExtensionWarning)

	s2 := New(WithExtensions([]string{".h5"}))
	defer s2.Close()
	res, err = s2.Open(path)
	require.NoError(t, err)
	assert.False(t, res.ExtensionWarning)
}

func TestLookup(t *testing.T) {
	s := openSession(t, sondeFile(t))

	v, err := s.Lookup("  launch_count ")
	require.NoError(t, err)
	assert.Equal(t, "3", v.String())
	assert.Equal(t, "Current value of 'launch_count' loaded.", s.Status().Message)

	_, err = s.Lookup("   ")
	assert.ErrorIs(t, err, ErrNoName)
	assert.Equal(t, Status{Warning, "No attribute name entered."}, s.Status())

	_, err = s.Lookup("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, Status{Warning, "Attribute not found."}, s.Status())

	_, err = s.Lookup("_NCProperties")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetExistingInteger(t *testing.T) {
	path := sondeFile(t)
	s := openSession(t, path)

	res, err := s.Set("launch_count", "42", nil)
	require.NoError(t, err)
	assert.Equal(t, Updated, res.Action)
	assert.Nil(t, res.Coercion)
	assert.Equal(t, "Successfully updated 'launch_count' to '42'.", s.Status().Message)

	v, ok := s.Snapshot().Get("launch_count")
	require.True(t, ok)
	assert.Equal(t, Integer, v.Kind)
	assert.Equal(t, int64(42), v.Int)

	snap, err := ReadSnapshot(path)
	require.NoError(t, err)
	v, _ = snap.Get("launch_count")
	assert.Equal(t, IntValue(42), v)
	assert.Equal(t, []string{"title", "launch_count", "scale"}, snap.Names())
}

func TestSetExistingIntegerCoercesToText(t *testing.T) {
	s := openSession(t, sondeFile(t))

	res, err := s.Set("launch_count", "abc", nil)
	require.NoError(t, err)
	require.NotNil(t, res.Coercion)
	assert.Equal(t, Integer, res.Coercion.Kind)
	assert.Equal(t, "abc", res.Coercion.Raw)
	assert.Equal(t, Status{Warning, "Stored 'launch_count' as string: 'abc'."}, s.Status())

	v, _ := s.Snapshot().Get("launch_count")
	assert.Equal(t, TextValue("abc"), v)
}

func TestSetExistingFloatAndText(t *testing.T) {
	s := openSession(t, sondeFile(t))

	_, err := s.Set("scale", "2.25", nil)
	require.NoError(t, err)
	v, _ := s.Snapshot().Get("scale")
	assert.Equal(t, FloatValue(2.25), v)

	// Text stays text even when it looks numeric.
	_, err = s.Set("title", "12", nil)
	require.NoError(t, err)
	v, _ = s.Snapshot().Get("title")
	assert.Equal(t, TextValue("12"), v)
}

func TestSetNewAttribute(t *testing.T) {
	path := sondeFile(t)
	s := openSession(t, path)
	before, err := os.Stat(path)
	require.NoError(t, err)

	res, err := s.Set("units", "meters", no)
	require.NoError(t, err)
	assert.Equal(t, Cancelled, res.Action)
	assert.Equal(t, "User cancelled adding new attribute.", s.Status().Message)
	_, ok := s.Snapshot().Get("units")
	assert.False(t, ok)

	res, err = s.Set("units", "meters", nil)
	require.NoError(t, err)
	assert.Equal(t, Cancelled, res.Action)

	// Declining leaves the file alone.
	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.Size(), after.Size())
	assert.Equal(t, before.ModTime(), after.ModTime())
	snap, err := ReadSnapshot(path)
	require.NoError(t, err)
	_, ok = snap.Get("units")
	assert.False(t, ok)

	var asked string
	res, err = s.Set("units", "meters", ConfirmFunc(func(name string) bool {
		asked = name
		return true
	}))
	require.NoError(t, err)
	assert.Equal(t, "units", asked)
	assert.Equal(t, Added, res.Action)
	assert.Equal(t, "Successfully added 'units' to 'meters'.", s.Status().Message)
	assert.Equal(t, []string{"title", "launch_count", "scale", "units"}, s.Suggestions())

	_, err = s.Set("altitude", "1200", yes)
	require.NoError(t, err)
	_, err = s.Set("lapse", "-6.5", yes)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	snap, err = ReadSnapshot(path)
	require.NoError(t, err)
	v, _ := snap.Get("units")
	assert.Equal(t, TextValue("meters"), v)
	v, _ = snap.Get("altitude")
	assert.Equal(t, IntValue(1200), v)
	v, _ = snap.Get("lapse")
	assert.Equal(t, FloatValue(-6.5), v)
}

func TestSetNonASCIITextIsVarLen(t *testing.T) {
	s := openSession(t, sondeFile(t))
	_, err := s.Set("site", "Zürich", yes)
	require.NoError(t, err)
	v, _ := s.Snapshot().Get("site")
	assert.Equal(t, "Zürich", v.Text)
	assert.True(t, v.VarLen)
}

func TestSetGuards(t *testing.T) {
	s := New()
	_, err := s.Set("title", "x", yes)
	assert.ErrorIs(t, err, ErrNoFile)
	assert.Equal(t, Status{Error, "No file open to edit."}, s.Status())
	assert.False(t, s.NeedsConfirmation("title"))

	s = openSession(t, sondeFile(t))
	_, err = s.Set(" ", "x", yes)
	assert.ErrorIs(t, err, ErrNoName)
	assert.Equal(t, Status{Warning, "No attribute name entered for setting."}, s.Status())

	_, err = s.Set("_NCProperties", "x", yes)
	assert.ErrorIs(t, err, ErrReserved)
	assert.False(t, s.NeedsConfirmation("_NCProperties"))

	assert.True(t, s.NeedsConfirmation("units"))
	assert.False(t, s.NeedsConfirmation(" title "))
}

// fakeContainer serves attributes from memory.
type fakeContainer struct {
	attrs    []Attribute
	readErr  error
	writeErr error
	closeErr error
	closed   bool
}

func (f *fakeContainer) Attributes() ([]Attribute, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.attrs, nil
}

func (f *fakeContainer) Write(name string, v Value) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	for i := range f.attrs {
		if f.attrs[i].Name == name {
			f.attrs[i].Value = v
			return nil
		}
	}
	f.attrs = append(f.attrs, Attribute{Name: name, Value: v})
	return nil
}

func (f *fakeContainer) Close() error {
	f.closed = true
	return f.closeErr
}

func fakeSession(t *testing.T, c *fakeContainer) *Session {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake.nc")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	s := New(WithOpener(func(string) (Container, error) { return c, nil }))
	_, err := s.Open(path)
	require.NoError(t, err)
	return s
}

func TestSetWriteFailureKeepsSnapshot(t *testing.T) {
	c := &fakeContainer{attrs: []Attribute{{Name: "count", Value: IntValue(1)}}}
	s := fakeSession(t, c)
	c.writeErr = errors.New("disk full")

	_, err := s.Set("count", "2", nil)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, Status{Error, "Error setting attribute."}, s.Status())
	assert.True(t, s.IsOpen())
	v, _ := s.Snapshot().Get("count")
	assert.Equal(t, IntValue(1), v)
}

func TestSetReloadFailure(t *testing.T) {
	c := &fakeContainer{attrs: []Attribute{{Name: "count", Value: IntValue(1)}, {Name: "title", Value: TextValue("x")}}}
	s := fakeSession(t, c)
	c.readErr = errors.New("header checksum mismatch")

	res, err := s.Set("count", "2", nil)
	require.NoError(t, err)
	assert.Equal(t, Updated, res.Action)
	assert.Equal(t, Status{Error, "Stored 'count', but re-reading the file failed."}, s.Status())
	v, _ := s.Snapshot().Get("count")
	assert.Equal(t, IntValue(2), v)

	_, err = s.Set("units", "K", yes)
	require.NoError(t, err)
	assert.Equal(t, []string{"count", "title", "units"}, s.Snapshot().Names())
}

func TestSetOpaqueRefused(t *testing.T) {
	c := &fakeContainer{attrs: []Attribute{{Name: "range", Value: Value{Kind: Opaque, Display: "[1 2]"}}}}
	s := fakeSession(t, c)

	_, err := s.Set("range", "3", yes)
	assert.ErrorIs(t, err, ErrReadOnly)
	v, err := s.Lookup("range")
	require.NoError(t, err)
	assert.Equal(t, "[1 2]", v.String())
}

func TestOpenClosesPrevious(t *testing.T) {
	first := &fakeContainer{}
	calls := 0
	s := New(WithOpener(func(path string) (Container, error) {
		calls++
		if calls == 1 {
			return first, nil
		}
		return OpenFile(path)
	}))
	fake := filepath.Join(t.TempDir(), "fake.nc")
	require.NoError(t, os.WriteFile(fake, nil, 0o644))
	_, err := s.Open(fake)
	require.NoError(t, err)
	assert.False(t, first.closed)

	_, err = s.Open(sondeFile(t))
	require.NoError(t, err)
	defer s.Close()
	assert.True(t, first.closed)
	assert.Equal(t, 3, s.Snapshot().Len())
}

func TestClose(t *testing.T) {
	path := sondeFile(t)
	s := openSession(t, path)
	require.NoError(t, s.Close())
	assert.False(t, s.IsOpen())
	assert.Equal(t, "NetCDF file closed.", s.Status().Message)
	require.NoError(t, s.Close())

	// The file can be opened for writing again.
	s2 := openSession(t, path)
	_, err := s2.Set("title", "Reopened", nil)
	require.NoError(t, err)

	c := &fakeContainer{closeErr: errors.New("flush failed")}
	s3 := fakeSession(t, c)
	assert.Error(t, s3.Close())
	assert.Equal(t, Error, s3.Status().Level)
	assert.False(t, s3.IsOpen())
}

func TestCancelSelection(t *testing.T) {
	s := New()
	s.CancelSelection()
	assert.Equal(t, Status{Info, "File selection cancelled."}, s.Status())
}

func TestOpenErrorCause(t *testing.T) {
	cause := errors.New("permission denied")
	path := filepath.Join(t.TempDir(), "locked.nc")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	s := New(WithOpener(func(string) (Container, error) { return nil, cause }))

	_, err := s.Open(path)
	var oe *OpenError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, path, oe.Path)
	assert.Same(t, cause, oe.Err)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestReadSnapshotErrorsNamePathOnce(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.nc")
	_, err := ReadSnapshot(missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOpen)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 1, strings.Count(err.Error(), missing), err.Error())

	text := filepath.Join(dir, "notes.nc")
	require.NoError(t, os.WriteFile(text, []byte("plain text"), 0o644))
	_, err = ReadSnapshot(text)
	assert.ErrorIs(t, err, ncfile.ErrNotContainer)
	assert.Equal(t, 1, strings.Count(err.Error(), text), err.Error())
}

func TestDenseAttributesEditable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dense.nc")
	str := func(name, v string) testfile.Message {
		return testfile.V1Attribute(name, testfile.FixedString(len(v)), testfile.ScalarV1, []byte(v))
	}
	testfile.Dense(t, path,
		str("title", "Dropsonde"),
		str("institution", "NCAR"),
		testfile.V1Attribute("count", testfile.Int32LE, testfile.ScalarV1, testfile.LE32(3)),
	)

	s := openSession(t, path)
	assert.Equal(t, []string{"title", "institution", "count"}, s.Suggestions())

	_, err := s.Set("count", "4", nil)
	require.NoError(t, err)
	v, _ := s.Snapshot().Get("count")
	assert.Equal(t, Value{Kind: Integer, Int: 4, Width: 4}, v)
	require.NoError(t, s.Close())

	snap, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "institution", "count"}, snap.Names())
	v, _ = snap.Get("title")
	assert.Equal(t, "Dropsonde", v.Text)
}

func TestClassicFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.nc")
	testfile.Classic(t, path, 1,
		testfile.CharAttr("title", "Dropsonde"),
		testfile.IntAttr("count", 3),
		testfile.DoubleAttr("scale", 0.5),
		testfile.IntAttr("range", 1, 9),
	)

	s := openSession(t, path)
	assert.Equal(t, "- title: Dropsonde\n- count: 3\n- scale: 0.5\n- range: [1 9]\n", s.Snapshot().Render())
	v, _ := s.Snapshot().Get("range")
	assert.Equal(t, "int32[2]", v.Type())

	_, err := s.Set("count", "40", nil)
	require.NoError(t, err)
	v, _ = s.Snapshot().Get("count")
	assert.Equal(t, Value{Kind: Integer, Int: 40, Width: 4}, v)

	_, err = s.Set("history", "edited", yes)
	require.NoError(t, err)
	_, err = s.Set("big", "5000000000", yes)
	assert.ErrorIs(t, err, ErrWrite)
	_, err = s.Set("range", "1", nil)
	assert.ErrorIs(t, err, ErrReadOnly)
	require.NoError(t, s.Close())

	snap, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "count", "scale", "range", "history"}, snap.Names())
	v, _ = snap.Get("history")
	assert.Equal(t, TextValue("edited"), v)
}
