package domain

import (
	"encoding/json"
	"fmt"
)

// Component is one labeled slice of a decomposed answer. Its wire form is a
// single-key object, {"Label": "text"}, and slice order carries meaning.
type Component struct {
	Label string
	Text  string
}

// MarshalJSON emits the single-key object form.
func (c Component) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{c.Label: c.Text})
}

// UnmarshalJSON reads the single-key object form.
func (c *Component) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("component must carry exactly one key, got %d", len(m))
	}
	for label, text := range m {
		c.Label = label
		c.Text = text
	}
	return nil
}

// DecomposedResponse is the decomposition agent's output: the original answer
// reproduced verbatim, the ordered component list, and one explanation per
// component label.
type DecomposedResponse struct {
	Response     string            `json:"response"`
	Components   []Component       `json:"components"`
	Explanations map[string]string `json:"explanations"`
}

// Validate enforces the structural contract: a non-empty response, at least
// one component, unique non-empty labels, and explanations keyed by exactly
// the labels present.
func (d *DecomposedResponse) Validate() error {
	if d.Response == "" {
		return fmt.Errorf("empty response text")
	}
	if len(d.Components) == 0 {
		return fmt.Errorf("no components")
	}
	if len(d.Explanations) != len(d.Components) {
		return fmt.Errorf("%d explanations for %d components", len(d.Explanations), len(d.Components))
	}
	seen := make(map[string]bool, len(d.Components))
	for i, c := range d.Components {
		if c.Label == "" {
			return fmt.Errorf("component %d has an empty label", i)
		}
		if seen[c.Label] {
			return fmt.Errorf("duplicate component label %q", c.Label)
		}
		seen[c.Label] = true
		if _, ok := d.Explanations[c.Label]; !ok {
			return fmt.Errorf("no explanation for component %q", c.Label)
		}
	}
	return nil
}

// Labels returns the component labels in order. The reported output structure
// is always derived from this list, never cached separately.
func (d *DecomposedResponse) Labels() []string {
	labels := make([]string, len(d.Components))
	for i, c := range d.Components {
		labels[i] = c.Label
	}
	return labels
}
