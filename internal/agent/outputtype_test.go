package agent

import "testing"

func TestClassifyOutput(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Here is the email you asked for: Dear team, ...", OutputEmail},
		{"Quarterly Report: revenue grew 4%", OutputReport},
		{"An EMAIL summarizing the report", OutputEmail},
		{"Step 1: preheat the oven. Step 2: mix the batter.", OutputDocument},
		{"", OutputDocument},
	}

	for _, tt := range tests {
		if got := ClassifyOutput(tt.text); got != tt.want {
			t.Errorf("ClassifyOutput(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
