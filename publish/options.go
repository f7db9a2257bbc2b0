package publish

// PublishOption is a functional option for the publisher.
type PublishOption func(*PublishOptions)

// PublishOptions contains options for the publisher.
type PublishOptions struct {
	Concurrency int
}

// WithConcurrency sets the maximum number of objects written at once. Values
// below one are treated as one.
func WithConcurrency(n int) PublishOption {
	return func(opts *PublishOptions) {
		opts.Concurrency = max(n, 1)
	}
}
