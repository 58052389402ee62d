package teldata

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord marks a structural shape violation: a missing
	// field, a value of the wrong shape or a sequence of the wrong arity.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrTypeMismatch marks a value outside the declared type or range of
	// its field.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrDanglingReference marks a hit-group index outside the event.
	ErrDanglingReference = errors.New("dangling reference")
)

// FieldError locates a MalformedRecord or TypeMismatch inside a record.
type FieldError struct {
	Kind    error
	Path    string
	Message string
}

func (e *FieldError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%v at %s: %s", e.Kind, e.Path, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

func malformed(path string, format string, args ...any) error {
	return &FieldError{Kind: ErrMalformedRecord, Path: path, Message: fmt.Sprintf(format, args...)}
}

func mismatch(path string, format string, args ...any) error {
	return &FieldError{Kind: ErrTypeMismatch, Path: path, Message: fmt.Sprintf(format, args...)}
}

// ReferenceError is a hit-group index that does not fit the event.
type ReferenceError struct {
	Path  string
	Index int
	Len   int
}

func (e *ReferenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: hit group %d of %d", ErrDanglingReference, e.Index, e.Len)
	}
	return fmt.Sprintf("%v at %s: hit group %d of %d", ErrDanglingReference, e.Path, e.Index, e.Len)
}

func (e *ReferenceError) Unwrap() error {
	return ErrDanglingReference
}

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error {
	return e.Err
}

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}

// ErrOpenTable represents an error when opening or reading a stored table.
type ErrOpenTable struct {
	TableName string
	Err       error
}

func (e *ErrOpenTable) Error() string {
	return fmt.Sprintf("error reading table %q: %v", e.TableName, e.Err)
}

func (e *ErrOpenTable) Unwrap() error {
	return e.Err
}
