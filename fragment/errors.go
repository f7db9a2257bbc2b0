package fragment

import "fmt"

// InvalidFragmentError is returned when an operator has the wrong arguments
// or inputs.
type InvalidFragmentError struct {
	Operator string
	Reason   string
}

// NewInvalidFragmentError constructs a new InvalidFragmentError.
func NewInvalidFragmentError(operator, reason string) InvalidFragmentError {
	return InvalidFragmentError{Operator: operator, Reason: reason}
}

func (e InvalidFragmentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Operator, e.Reason)
}

// Is returns true if the target is an InvalidFragmentError.
func (e InvalidFragmentError) Is(target error) bool {
	_, ok := target.(InvalidFragmentError)
	return ok
}
