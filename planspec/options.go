package planspec

import "github.com/wkalt/distplan/catalog"

// BuildOption is a functional option for Build.
type BuildOption func(*BuildOptions)

// BuildOptions contains options for Build.
type BuildOptions struct {
	Catalog  catalog.Catalog
	Validate bool
}

// WithCatalog sets the catalog used to resolve node references.
func WithCatalog(c catalog.Catalog) BuildOption {
	return func(opts *BuildOptions) {
		opts.Catalog = c
	}
}

// WithValidation controls whether the built graph is checked for cycles.
func WithValidation(validate bool) BuildOption {
	return func(opts *BuildOptions) {
		opts.Validate = validate
	}
}
