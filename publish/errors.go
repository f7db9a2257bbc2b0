package publish

import "errors"

// ErrMissingQueryID is returned when a plan without a query id is published.
var ErrMissingQueryID = errors.New("plan has no query id")
