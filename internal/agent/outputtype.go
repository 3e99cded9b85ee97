package agent

import "strings"

// Output categories reported alongside a decomposition.
const (
	OutputEmail    = "email"
	OutputReport   = "report"
	OutputDocument = "document"
)

// ClassifyOutput picks an output category by keyword-matching the
// decomposed text. Email wins over report when both appear; anything
// else is a generic document.
func ClassifyOutput(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "email"):
		return OutputEmail
	case strings.Contains(lower, "report"):
		return OutputReport
	default:
		return OutputDocument
	}
}
