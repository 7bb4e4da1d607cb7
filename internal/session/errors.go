package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotExist = errors.New("file does not exist")
	ErrOpen     = errors.New("could not open file")
	ErrNoName   = errors.New("no attribute name entered")
	ErrNotFound = errors.New("attribute not found")
	ErrNoFile   = errors.New("no file is open")
	ErrReadOnly = errors.New("attribute is read-only")
	ErrReserved = errors.New("attribute is reserved by the netCDF library")
	ErrWrite    = errors.New("could not write attribute")
)

// CoercionError reports raw text that does not parse as an attribute's
// kind. Set recovers from it by storing the text as a string.
type CoercionError struct {
	Name string
	Raw  string
	Kind Kind
	Err  error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("could not convert %q to the %s type of %q: %v", e.Raw, e.Kind, e.Name, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// OpenError reports a file that exists but could not be opened or read. It
// matches ErrOpen. The path appears once in the message, even when Err
// already names it.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	msg := e.Err.Error()
	if strings.Contains(msg, e.Path) {
		return msg
	}
	return e.Path + ": " + msg
}

func (e *OpenError) Unwrap() error { return e.Err }

func (e *OpenError) Is(target error) bool { return target == ErrOpen }
