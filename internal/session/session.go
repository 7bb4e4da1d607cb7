// Package session edits the global attributes of one netCDF-4 file at a
// time. A Session owns the open file and the attribute snapshot; every
// operation ends by setting exactly one status message.
package session

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/robert-malhotra/ncattr/internal/ncfile"
)

// Level grades a status message.
type Level int

const (
	Info Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Status is the most recent outcome message.
type Status struct {
	Level   Level
	Message string
}

// Action is what a Set did.
type Action int

const (
	Cancelled Action = iota
	Added
	Updated
)

func (a Action) String() string {
	switch a {
	case Added:
		return "added"
	case Updated:
		return "updated"
	default:
		return "cancelled"
	}
}

// Confirmer decides whether a new attribute may be created.
type Confirmer interface {
	ConfirmCreate(name string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(name string) bool

func (f ConfirmFunc) ConfirmCreate(name string) bool { return f(name) }

// Option configures a Session.
type Option func(*Session)

// WithOpener replaces OpenFile.
func WithOpener(o Opener) Option {
	return func(s *Session) { s.opener = o }
}

// WithExtensions sets the file name extensions treated as netCDF.
func WithExtensions(exts []string) Option {
	return func(s *Session) { s.extensions = exts }
}

// Session holds at most one open file and the snapshot of its global
// attributes. It is not safe for concurrent use.
type Session struct {
	ID string

	opener     Opener
	extensions []string

	file     Container
	path     string
	snapshot *Snapshot
	status   Status
	log      *slog.Logger
}

// New returns an empty session.
func New(opts ...Option) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		opener:     OpenFile,
		extensions: ncfile.DefaultExtensions,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.With("session_id", s.ID)
	return s
}

// OpenResult describes a successful Open.
type OpenResult struct {
	Path string
	// ExtensionWarning is set when the file name has no netCDF extension.
	ExtensionWarning bool
	Count            int
}

// Open closes any open file, opens path and loads its attributes. A missing
// path returns ErrNotExist and leaves the session untouched. Any other
// failure resets the session and returns an *OpenError; the result still
// carries ExtensionWarning.
func (s *Session) Open(path string) (OpenResult, error) {
	if _, err := os.Stat(path); err != nil {
		s.setStatus(Error, "Error: File not found.")
		s.log.Warn("file not found", "path", path, "err", err)
		return OpenResult{}, fmt.Errorf("%s: %w", path, ErrNotExist)
	}
	res := OpenResult{Path: path, ExtensionWarning: !ncfile.HasKnownExtension(path, s.extensions)}
	if res.ExtensionWarning {
		s.log.Warn("unrecognised file extension", "path", path)
	}

	if s.file != nil {
		if err := s.file.Close(); err != nil {
			s.log.Error("closing previous file", "path", s.path, "err", err)
		}
		s.reset()
	}

	c, err := s.opener(path)
	if err != nil {
		s.reset()
		s.setStatus(Error, "Error opening file.")
		s.log.Error("open failed", "path", path, "err", err)
		return res, &OpenError{Path: path, Err: err}
	}
	s.file, s.path = c, path
	s.log.Info("file opened", "path", path)

	if err := s.Load(); err != nil {
		c.Close()
		s.reset()
		s.setStatus(Error, "Error opening file.")
		return res, &OpenError{Path: path, Err: err}
	}
	res.Count = s.snapshot.Len()
	return res, nil
}

// Load rebuilds the snapshot from the open file.
func (s *Session) Load() error {
	if s.file == nil {
		s.setStatus(Error, "No file open.")
		return ErrNoFile
	}
	attrs, err := s.file.Attributes()
	if err != nil {
		s.setStatus(Error, "Error reading attributes.")
		s.log.Error("reading attributes", "path", s.path, "err", err)
		return err
	}
	s.snapshot = NewSnapshot(attrs)
	if n := s.snapshot.Len(); n > 0 {
		s.setStatus(Info, fmt.Sprintf("Loaded %d global attributes.", n))
	} else {
		s.setStatus(Info, "No global attributes found.")
	}
	s.log.Debug("attributes loaded", "count", s.snapshot.Len())
	return nil
}

// CancelSelection records that the user dismissed the file chooser.
func (s *Session) CancelSelection() {
	s.setStatus(Info, "File selection cancelled.")
}

// Lookup returns the current value of the named attribute.
func (s *Session) Lookup(name string) (Value, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		s.setStatus(Warning, "No attribute name entered.")
		return Value{}, ErrNoName
	}
	v, ok := s.snapshot.Get(name)
	if !ok {
		s.setStatus(Warning, "Attribute not found.")
		return Value{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	s.setStatus(Info, fmt.Sprintf("Current value of '%s' loaded.", name))
	return v, nil
}

// NeedsConfirmation reports whether setting name would create a new
// attribute. Reserved names never do, since Set refuses them.
func (s *Session) NeedsConfirmation(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || s.file == nil || ncfile.IsReserved(name) {
		return false
	}
	_, ok := s.snapshot.Get(name)
	return !ok
}

// SetResult describes the outcome of Set.
type SetResult struct {
	Action Action
	Value  Value
	// Coercion is set when raw did not parse as the existing kind and was
	// stored as text.
	Coercion *CoercionError
}

// Set writes raw to the named attribute. An existing attribute keeps its
// kind; raw that does not parse as that kind is stored as text and reported
// in SetResult.Coercion. A new attribute needs confirm to agree, a nil
// confirm declines, and its kind is inferred from raw.
func (s *Session) Set(name, raw string, confirm Confirmer) (SetResult, error) {
	if s.file == nil {
		s.setStatus(Error, "No file open to edit.")
		return SetResult{}, ErrNoFile
	}
	name = strings.TrimSpace(name)
	if name == "" {
		s.setStatus(Warning, "No attribute name entered for setting.")
		return SetResult{}, ErrNoName
	}
	if ncfile.IsReserved(name) {
		s.setStatus(Error, fmt.Sprintf("'%s' is reserved.", name))
		return SetResult{}, fmt.Errorf("%q: %w", name, ErrReserved)
	}

	res := SetResult{Action: Updated}
	old, exists := s.snapshot.Get(name)
	switch {
	case exists && old.Kind == Opaque:
		s.setStatus(Error, fmt.Sprintf("'%s' cannot be edited.", name))
		return SetResult{}, fmt.Errorf("%q: %w", name, ErrReadOnly)
	case exists:
		v, err := old.Parse(raw)
		if err != nil {
			res.Coercion = &CoercionError{Name: name, Raw: raw, Kind: old.Kind, Err: err}
			v = TextValue(raw)
		}
		res.Value = v
	default:
		if confirm == nil || !confirm.ConfirmCreate(name) {
			s.setStatus(Info, "User cancelled adding new attribute.")
			return SetResult{Action: Cancelled}, nil
		}
		res.Action = Added
		res.Value = Infer(raw)
	}

	if err := s.file.Write(name, res.Value); err != nil {
		s.setStatus(Error, "Error setting attribute.")
		s.log.Error("write failed", "name", name, "err", err)
		return SetResult{}, fmt.Errorf("%w %q: %w", ErrWrite, name, err)
	}
	s.log.Info("attribute written", "name", name, "action", res.Action, "type", res.Value.Type())

	if err := s.Load(); err != nil {
		s.log.Error("reload after write", "err", err)
		s.snapshot = s.snapshot.With(name, res.Value)
		s.setStatus(Error, fmt.Sprintf("Stored '%s', but re-reading the file failed.", name))
		return res, nil
	}
	if res.Coercion != nil {
		s.setStatus(Warning, fmt.Sprintf("Stored '%s' as string: '%s'.", name, raw))
		s.log.Warn("value stored as text", "name", name, "err", res.Coercion)
	} else {
		s.setStatus(Info, fmt.Sprintf("Successfully %s '%s' to '%s'.", res.Action, name, res.Value))
	}
	return res, nil
}

// Close closes the open file, if any.
func (s *Session) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.log.Info("file closed", "path", s.path, "err", err)
	s.reset()
	if err != nil {
		s.setStatus(Error, fmt.Sprintf("Error closing file: %v", err))
		return err
	}
	s.setStatus(Info, "NetCDF file closed.")
	return nil
}

// IsOpen reports whether a file is open.
func (s *Session) IsOpen() bool { return s.file != nil }

// Path returns the open file's path, or "".
func (s *Session) Path() string { return s.path }

// Snapshot returns the attributes as of the last load. It is nil when no
// file is open.
func (s *Session) Snapshot() *Snapshot { return s.snapshot }

// Suggestions returns the attribute names for the name input.
func (s *Session) Suggestions() []string { return s.snapshot.Names() }

// Status returns the most recent status message.
func (s *Session) Status() Status { return s.status }

func (s *Session) setStatus(l Level, msg string) {
	s.status = Status{Level: l, Message: msg}
}

func (s *Session) reset() {
	s.file, s.path, s.snapshot = nil, "", nil
}
