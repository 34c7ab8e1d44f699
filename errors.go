package kmerdb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBackend marks failures of the underlying storage: an artifact that
	// cannot be created, opened, committed to or removed, or data that fails
	// to decode.
	ErrBackend = errors.New("backend failure")

	// ErrClosed is returned by operations on a closed container.
	ErrClosed = errors.New("container closed")

	// ErrInvalidName is returned for group and collection names that are not
	// a single path segment.
	ErrInvalidName = errors.New("invalid name")

	// ErrKindMismatch is returned when a path is opened as a different kind
	// of node than it was created as, e.g. a group as a collection.
	ErrKindMismatch = errors.New("node kind mismatch")

	// ErrRemoved is returned by operations on a removed collection.
	ErrRemoved = errors.New("collection removed")
)

// DataError describes persisted bytes that could not be decoded.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrBackend, e.Err}
	}
	return []error{ErrBackend}
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x", e.Msg, e.Off, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x", e.Msg, e.Off, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s at %d: %v: (%d) %x...%x", e.Msg, e.Off, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s at %d: (%d) %x...%x", e.Msg, e.Off, n, p, s)
		}
	}
}

// PathError is an error scoped to a node of a container's namespace.
type PathError struct {
	Container string
	Path      string
	Key       []byte
	Msg       string
	Err       error
}

func pathErrf(c *Container, path []string, key []byte, err error, format string, args ...any) error {
	var name string
	if c != nil {
		name = c.name
	}
	return &PathError{name, joinPath(path), key, fmt.Sprintf(format, args...), err}
}

// backendErrf is pathErrf for storage failures; the result matches ErrBackend.
func backendErrf(c *Container, path []string, err error, format string, args ...any) error {
	switch {
	case err == nil:
		err = ErrBackend
	case errors.Is(err, ErrBackend), errors.Is(err, ErrClosed):
	default:
		err = fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return pathErrf(c, path, nil, err, format, args...)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func (e *PathError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Container)
	buf.WriteByte(':')
	buf.WriteString(e.Path)
	if e.Key != nil {
		buf.WriteByte('#')
		buf.WriteString(hexstr(e.Key))
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
		if e.Err != nil {
			buf.WriteString(": ")
			buf.WriteString(e.Err.Error())
		}
	} else if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
