package catalog

import (
	"context"
	"sync"

	"github.com/wkalt/distplan/distplan"
	"github.com/wkalt/distplan/util"
)

/*
memcatalog is an in-memory implementation of the catalog interface.
*/

////////////////////////////////////////////////////////////////////////////////

type memcatalog struct {
	descriptors map[string]distplan.Descriptor
	mtx         *sync.RWMutex
}

// NewMemCatalog returns a new in-memory catalog.
func NewMemCatalog() Catalog {
	return &memcatalog{
		descriptors: make(map[string]distplan.Descriptor),
		mtx:         &sync.RWMutex{},
	}
}

func (c *memcatalog) Put(_ context.Context, descriptor distplan.Descriptor) error {
	if descriptor.Name == "" {
		return ErrEmptyName
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.descriptors[descriptor.Name] = descriptor
	return nil
}

func (c *memcatalog) Get(_ context.Context, name string) (distplan.Descriptor, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	descriptor, ok := c.descriptors[name]
	if !ok {
		return distplan.Descriptor{}, NewNodeNotFoundError(name)
	}
	return descriptor, nil
}

func (c *memcatalog) List(_ context.Context) ([]distplan.Descriptor, error) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	names := util.Okeys(c.descriptors)
	descriptors := make([]distplan.Descriptor, len(names))
	for i, name := range names {
		descriptors[i] = c.descriptors[name]
	}
	return descriptors, nil
}

func (c *memcatalog) Delete(_ context.Context, name string) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	delete(c.descriptors, name)
	return nil
}
