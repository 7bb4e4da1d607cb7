package session

import (
	"slices"
	"strings"
)

// EmptyMessage is shown instead of an empty attribute listing.
const EmptyMessage = "No global attributes found in this file."

// Attribute is one named global attribute.
type Attribute struct {
	Name  string
	Value Value
}

// Snapshot is an immutable copy of a file's global attributes in file
// order.
type Snapshot struct {
	attrs []Attribute
	index map[string]int
}

// NewSnapshot builds a snapshot from attrs. Later duplicates of a name are
// ignored.
func NewSnapshot(attrs []Attribute) *Snapshot {
	s := &Snapshot{index: make(map[string]int, len(attrs))}
	for _, a := range attrs {
		if _, dup := s.index[a.Name]; dup {
			continue
		}
		s.index[a.Name] = len(s.attrs)
		s.attrs = append(s.attrs, a)
	}
	return s
}

// Len returns the number of attributes. A nil snapshot is empty.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.attrs)
}

// Names returns the attribute names in file order.
func (s *Snapshot) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		names[i] = a.Name
	}
	return names
}

// Get returns the named value.
func (s *Snapshot) Get(name string) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Value{}, false
	}
	return s.attrs[i].Value, true
}

// Attributes returns a copy of the attributes in file order.
func (s *Snapshot) Attributes() []Attribute {
	if s == nil {
		return nil
	}
	return slices.Clone(s.attrs)
}

// With returns a copy of s with name set to v. A new name goes last.
func (s *Snapshot) With(name string, v Value) *Snapshot {
	attrs := s.Attributes()
	if s != nil {
		if i, ok := s.index[name]; ok {
			attrs[i].Value = v
			return NewSnapshot(attrs)
		}
	}
	return NewSnapshot(append(attrs, Attribute{Name: name, Value: v}))
}

// Render returns one "- name: value" line per attribute, or EmptyMessage.
func (s *Snapshot) Render() string {
	if s.Len() == 0 {
		return EmptyMessage
	}
	var b strings.Builder
	for _, a := range s.attrs {
		b.WriteString("- ")
		b.WriteString(a.Name)
		b.WriteString(": ")
		b.WriteString(a.Value.String())
		b.WriteByte('\n')
	}
	return b.String()
}
