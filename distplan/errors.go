package distplan

import (
	"errors"
	"fmt"
)

// ErrNilNode is returned when a nil node handle is supplied.
var ErrNilNode = errors.New("nil node handle")

// UnknownNodeError is returned when an operation names a node id that is not
// part of the plan graph.
type UnknownNodeError struct {
	ID int64
}

// NewUnknownNodeError constructs a new UnknownNodeError.
func NewUnknownNodeError(id int64) UnknownNodeError {
	return UnknownNodeError{ID: id}
}

func (e UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %d", e.ID)
}

// Is returns true if the target is an UnknownNodeError.
func (e UnknownNodeError) Is(target error) bool {
	_, ok := target.(UnknownNodeError)
	return ok
}

// MissingFragmentError is returned when a node without a fragment is
// rendered.
type MissingFragmentError struct {
	ID int64
}

// NewMissingFragmentError constructs a new MissingFragmentError.
func NewMissingFragmentError(id int64) MissingFragmentError {
	return MissingFragmentError{ID: id}
}

func (e MissingFragmentError) Error() string {
	return fmt.Sprintf("node %d has no fragment", e.ID)
}

// Is returns true if the target is a MissingFragmentError.
func (e MissingFragmentError) Is(target error) bool {
	_, ok := target.(MissingFragmentError)
	return ok
}

// SerializationError wraps a failure to render a node's fragment.
type SerializationError struct {
	ID  int64
	Err error
}

// NewSerializationError constructs a new SerializationError.
func NewSerializationError(id int64, err error) SerializationError {
	return SerializationError{ID: id, Err: err}
}

func (e SerializationError) Error() string {
	return fmt.Sprintf("failed to render fragment of node %d: %s", e.ID, e.Err)
}

// Is returns true if the target is a SerializationError.
func (e SerializationError) Is(target error) bool {
	_, ok := target.(SerializationError)
	return ok
}

func (e SerializationError) Unwrap() error {
	return e.Err
}
