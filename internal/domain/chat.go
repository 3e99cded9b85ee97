package domain

// FileRef points at a previously uploaded file by its stored path.
type FileRef struct {
	Path string `json:"path"`
}

// ChatRequest is the inbound chat body.
type ChatRequest struct {
	Message        string         `json:"message" validate:"required"`
	Model          string         `json:"model" validate:"required"`
	Vendor         string         `json:"vendor" validate:"required"`
	UserToken      string         `json:"userToken"`
	Settings       map[string]any `json:"settings"`
	Files          []FileRef      `json:"files"`
	Decompose      bool           `json:"decompose"`
	SessionID      string         `json:"session_id"`
	ConversationID string         `json:"conversation_id"`
}

// FilePaths returns the non-empty paths of the referenced files.
func (r *ChatRequest) FilePaths() []string {
	var paths []string
	for _, f := range r.Files {
		if f.Path != "" {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

// ChatResponse is the chat reply. The decomposition fields appear only when
// the agent round trip succeeded.
type ChatResponse struct {
	Text            string      `json:"text"`
	Model           string      `json:"model"`
	Vendor          string      `json:"vendor"`
	ConversationID  string      `json:"conversation_id"`
	Components      []Component `json:"components,omitempty"`
	OutputType      string      `json:"outputType,omitempty"`
	OutputStructure []string    `json:"outputStructure,omitempty"`
}

// RegenerateRequest asks for a single named component to be rewritten using
// the original exchange as context.
type RegenerateRequest struct {
	Text             string         `json:"text" validate:"required"`
	Prompt           string         `json:"prompt" validate:"required"`
	Model            string         `json:"model" validate:"required"`
	Vendor           string         `json:"vendor" validate:"required"`
	Settings         map[string]any `json:"settings"`
	ConversationID   string         `json:"conversation_id" validate:"required"`
	SessionID        string         `json:"session_id"`
	ComponentTitle   string         `json:"component_title"`
	OriginalResponse string         `json:"original_response"`
	OriginalPrompt   string         `json:"original_prompt"`
}

// RegenerateResponse carries the replacement text for the edited component.
type RegenerateResponse struct {
	Text           string `json:"text"`
	ConversationID string `json:"conversation_id"`
}
