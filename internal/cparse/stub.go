//go:build !cgo

package cparse

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the tree-sitter C grammar is not compiled in.
var ErrUnavailable = errors.New("C header parsing requires CGO (tree-sitter)")

// Parser is a stub for non-CGO builds
type Parser struct{}

// NewParser returns nil when CGO is disabled
func NewParser() *Parser {
	return nil
}

// IsAvailable reports whether header parsing is compiled in
func IsAvailable() bool {
	return false
}

// Parse always fails in non-CGO builds
func (p *Parser) Parse(ctx context.Context, source []byte) (*Result, error) {
	return nil, ErrUnavailable
}
