package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the loader and the renderers
// matches exactly one of these under errors.Is.
var (
	ErrFileAccess  = errors.New("file access")
	ErrParse       = errors.New("parse")
	ErrKeyMismatch = errors.New("key mismatch")
	ErrRender      = errors.New("render")
	ErrSave        = errors.New("save")
)

// ParseError locates a malformed cell, row or header in a reading file.
type ParseError struct {
	Source string // file path or reader name
	Line   int    // 1-based, header is line 1; 0 when unknown
	Column string // header of the offending column, if any
	Err    error
}

func (e *ParseError) Error() string {
	loc := e.Source
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Line)
	}
	if e.Column != "" {
		loc = fmt.Sprintf("%s [%s]", loc, e.Column)
	}
	return fmt.Sprintf("parse %s: %v", loc, e.Err)
}

// Unwrap exposes both ErrParse and the underlying cause.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}
