package catalog

import (
	"errors"
	"fmt"
)

// ErrEmptyName is returned when a descriptor without a name is stored.
var ErrEmptyName = errors.New("descriptor name is empty")

// NodeNotFoundError is returned when a name is not in the catalog.
type NodeNotFoundError struct {
	Name string
}

// NewNodeNotFoundError constructs a new NodeNotFoundError.
func NewNodeNotFoundError(name string) NodeNotFoundError {
	return NodeNotFoundError{Name: name}
}

func (e NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %s not found", e.Name)
}

// Is returns true if the target is a NodeNotFoundError.
func (e NodeNotFoundError) Is(target error) bool {
	_, ok := target.(NodeNotFoundError)
	return ok
}
