package store

import (
	"errors"
	"fmt"
)

// ErrInvalidUTF8 is returned by Set and Append for a key, list name
// or value that is not valid UTF-8. Nothing is changed.
var ErrInvalidUTF8 = errors.New("not valid UTF-8")

// WriteFailure is returned by Set and Append when the backing file
// couldn't be written. The in-memory change has already happened
// but it is not durable.
type WriteFailure struct {
	Path string
	Err  error
}

func (e *WriteFailure) Error() string {
	return fmt.Sprintf("failed to write '%s': %s", e.Path, e.Err)
}

func (e *WriteFailure) Unwrap() error {
	return e.Err
}

// IsWriteFailure returns true if err is, or wraps, a *WriteFailure
func IsWriteFailure(err error) bool {
	var wf *WriteFailure
	return errors.As(err, &wf)
}

// LoadAnomaly describes a backing file that exists but couldn't be
// read or decoded. The store recovers by starting that map empty.
type LoadAnomaly struct {
	Path string
	Err  error
}

func (a *LoadAnomaly) Error() string {
	return fmt.Sprintf("ignoring '%s', starting empty: %s", a.Path, a.Err)
}

func (a *LoadAnomaly) Unwrap() error {
	return a.Err
}
