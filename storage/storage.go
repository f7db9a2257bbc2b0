package storage

import (
	"context"
	"errors"
)

/*
Storage providers hold rendered plans until the nodes they are addressed to
pick them up. Keys are slash-separated paths.
*/

////////////////////////////////////////////////////////////////////////////////

// ErrObjectNotFound is returned when a key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Provider is an object store.
type Provider interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
	String() string
}
