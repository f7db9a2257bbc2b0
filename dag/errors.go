package dag

import (
	"fmt"
	"strings"
)

// CycleError is returned when an ordering is requested of a graph that
// contains a cycle.
type CycleError struct {
	Nodes []int64
}

// NewCycleError constructs a new CycleError.
func NewCycleError(nodes []int64) CycleError {
	return CycleError{Nodes: nodes}
}

func (e CycleError) Error() string {
	ids := make([]string, len(e.Nodes))
	for i, id := range e.Nodes {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("graph contains a cycle through nodes [%s]", strings.Join(ids, " "))
}

// Is returns true if the target is a CycleError.
func (e CycleError) Is(target error) bool {
	_, ok := target.(CycleError)
	return ok
}
