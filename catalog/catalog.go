package catalog

import (
	"context"

	"github.com/wkalt/distplan/distplan"
)

/*
The catalog is the registry of physical nodes available to the planner. The
plan graph consumes descriptors from it but never writes to it; keeping it
behind this interface lets tests run against memory while the CLI keeps its
registry in sqlite.
*/

////////////////////////////////////////////////////////////////////////////////

// Catalog stores node descriptors keyed by name.
type Catalog interface {
	// Put inserts or replaces the descriptor with the same name.
	Put(ctx context.Context, descriptor distplan.Descriptor) error

	// Get returns the descriptor with the given name.
	Get(ctx context.Context, name string) (distplan.Descriptor, error)

	// List returns all descriptors sorted by name.
	List(ctx context.Context) ([]distplan.Descriptor, error)

	// Delete removes a descriptor. Deleting a missing name is not an error.
	Delete(ctx context.Context, name string) error
}
