package planspec

import (
	"errors"
	"fmt"
)

// ErrCatalogRequired is returned when a node references a catalog entry but
// no catalog was supplied.
var ErrCatalogRequired = errors.New("catalog reference requires a catalog")

// UnknownNameError is returned when an edge names a node that is not declared.
type UnknownNameError struct {
	Name string
}

// NewUnknownNameError constructs a new UnknownNameError.
func NewUnknownNameError(name string) UnknownNameError {
	return UnknownNameError{Name: name}
}

func (e UnknownNameError) Error() string {
	return fmt.Sprintf("unknown node name: %s", e.Name)
}

// Is returns true if the target is an UnknownNameError.
func (e UnknownNameError) Is(target error) bool {
	_, ok := target.(UnknownNameError)
	return ok
}

// DuplicateNameError is returned when two nodes in a spec share a name.
type DuplicateNameError struct {
	Name string
}

// NewDuplicateNameError constructs a new DuplicateNameError.
func NewDuplicateNameError(name string) DuplicateNameError {
	return DuplicateNameError{Name: name}
}

func (e DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate node name: %s", e.Name)
}

// Is returns true if the target is a DuplicateNameError.
func (e DuplicateNameError) Is(target error) bool {
	_, ok := target.(DuplicateNameError)
	return ok
}
