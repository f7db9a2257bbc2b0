package planwire

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// WriteJSON writes the plan as indented JSON. Fragments are base64 encoded.
func (p *DistributedPlan) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(p); err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	return nil
}

// ReadJSON decodes a plan previously written with WriteJSON.
func ReadJSON(r io.Reader) (*DistributedPlan, error) {
	plan := &DistributedPlan{}
	if err := json.NewDecoder(r).Decode(plan); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPlan, err)
	}
	if plan.Version != Version {
		return nil, NewUnsupportedVersionError(plan.Version)
	}
	return plan, nil
}
