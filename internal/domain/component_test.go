package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentJSONRoundTrip(t *testing.T) {
	c := Component{Label: "Greeting", Text: "Hello there"}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Greeting": "Hello there"}`, string(data))

	var back Component
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c, back)
}

func TestComponentUnmarshalRejectsMultipleKeys(t *testing.T) {
	var c Component
	err := json.Unmarshal([]byte(`{"a": "1", "b": "2"}`), &c)
	assert.Error(t, err)
}

func validDecomposition() DecomposedResponse {
	return DecomposedResponse{
		Response: "Starters: soup.\nMains: steak.",
		Components: []Component{
			{Label: "Starters", Text: "Starters: soup."},
			{Label: "Mains", Text: "Mains: steak."},
		},
		Explanations: map[string]string{
			"Starters": "the opening section",
			"Mains":    "the main course section",
		},
	}
}

func TestDecomposedResponseValidate(t *testing.T) {
	d := validDecomposition()
	assert.NoError(t, d.Validate())
	assert.Equal(t, []string{"Starters", "Mains"}, d.Labels())

	t.Run("empty response", func(t *testing.T) {
		d := validDecomposition()
		d.Response = ""
		assert.Error(t, d.Validate())
	})

	t.Run("no components", func(t *testing.T) {
		d := validDecomposition()
		d.Components = nil
		assert.Error(t, d.Validate())
	})

	t.Run("missing explanation", func(t *testing.T) {
		d := validDecomposition()
		delete(d.Explanations, "Mains")
		assert.Error(t, d.Validate())
	})

	t.Run("duplicate label", func(t *testing.T) {
		d := validDecomposition()
		d.Components[1].Label = "Starters"
		assert.Error(t, d.Validate())
	})

	t.Run("explanation for unknown label", func(t *testing.T) {
		d := validDecomposition()
		delete(d.Explanations, "Mains")
		d.Explanations["Dessert"] = "not a component"
		assert.Error(t, d.Validate())
	})
}

func TestFeedbackValidate(t *testing.T) {
	fb := Feedback{Ratings: []int{5, 4, 3, 5, 5, 2, 4, 4, 5, 3}}
	assert.NoError(t, fb.Validate())

	fb.Ratings = fb.Ratings[:9]
	assert.Error(t, fb.Validate())
}
