package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultSystemPrompt seeds every conversation chain that has no explicit
// system prompt.
const DefaultSystemPrompt = "You are a helpful AI assistant."

// NormalizeResponseFormat validates a requested response format. It returns
// false for an absent format and for the empty-object sentinel "{}". A
// format that is not a JSON object is logged and skipped so the chat
// proceeds unstructured.
func NormalizeResponseFormat(raw json.RawMessage) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false
	}

	var schema map[string]any
	if err := json.Unmarshal(trimmed, &schema); err != nil {
		log.Warn().Msg("Invalid structure given for response format. Skipping.")
		return nil, false
	}
	if len(schema) == 0 {
		return nil, false
	}
	return trimmed, true
}

// AppendSchemaInstruction extends a system prompt with the required JSON
// output block. Prompts that already mention JSON are left unchanged.
func AppendSchemaInstruction(prompt string, schema json.RawMessage) string {
	if strings.Contains(strings.ToLower(prompt), "json") {
		return prompt
	}
	return prompt + "\n\nRequired JSON output: ```json\n" + string(schema) + "\n```"
}

// RegenerateInstruction composes the single-component edit instruction for
// the regenerate flow. The model is asked for the replacement text of one
// component, not a new component list.
func RegenerateInstruction(originalPrompt, originalResponse, componentTitle, componentText, instruction string) string {
	return fmt.Sprintf(`Original user request:
%s

Original assistant response:
%s

You are editing the component titled '%s'. Its current text is:
%s

Edit only that component using the user's instruction: %s
Return only the updated text for this component.`,
		originalPrompt, originalResponse, componentTitle, componentText, instruction)
}

// ExtractJSON extracts a JSON document from a model reply, tolerating
// markdown code fences around the payload.
func ExtractJSON(content string) string {
	if body := extractFromCodeBlock(content, "```json", "```"); body != "" {
		return body
	}
	if body := extractFromCodeBlock(content, "```", "```"); body != "" {
		return body
	}
	return strings.TrimSpace(content)
}

func extractFromCodeBlock(content, startMarker, endMarker string) string {
	startIdx := strings.Index(content, startMarker)
	if startIdx == -1 {
		return ""
	}

	contentStart := startIdx + len(startMarker)
	// Skip newline after marker
	if contentStart < len(content) && content[contentStart] == '\n' {
		contentStart++
	}

	endIdx := strings.Index(content[contentStart:], endMarker)
	if endIdx == -1 {
		return ""
	}

	return strings.TrimSpace(content[contentStart : contentStart+endIdx])
}
