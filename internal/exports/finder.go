// Package exports locates the shared library that exports a procedure.
package exports

import (
	"errors"
	"io"
)

// Finder maps a procedure name to the library exporting it
type Finder interface {
	TryFindDllNameExact(name string) (string, bool)
}

// Multi queries finders in order; the first hit wins
type Multi struct {
	finders []Finder
}

// NewMulti combines finders. Nil entries are skipped.
func NewMulti(finders ...Finder) *Multi {
	m := &Multi{}
	for _, f := range finders {
		if f != nil {
			m.finders = append(m.finders, f)
		}
	}
	return m
}

// Len returns the number of combined finders
func (m *Multi) Len() int {
	return len(m.finders)
}

// TryFindDllNameExact implements Finder
func (m *Multi) TryFindDllNameExact(name string) (string, bool) {
	for _, f := range m.finders {
		if dll, ok := f.TryFindDllNameExact(name); ok {
			return dll, true
		}
	}
	return "", false
}

// Close closes every finder that holds resources
func (m *Multi) Close() error {
	var errs []error
	for _, f := range m.finders {
		if c, ok := f.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
