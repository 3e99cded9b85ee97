package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/modchat/modchat/internal/domain"
	"github.com/modchat/modchat/internal/llm"
)

var templates = llm.Templates("Ollama")

// Vendor returns the catalog descriptor for a local Ollama server. No API
// key is required; configuration is the host URL alone.
func Vendor() llm.Vendor {
	return llm.Vendor{
		ID:   "ollama",
		Name: "Ollama",
		Models: []llm.ModelInfo{
			{ID: "llama3.1", Name: "Llama 3.1"},
		},
		DefaultModel:   "llama3.1",
		RequiresAPIKey: false,
		Templates:      templates,
		Build:          NewHandle,
	}
}

// Handle invokes one Ollama model over the local chat API.
type Handle struct {
	host     string
	model    string
	settings llm.Settings
	client   *http.Client
	jsonMode bool
}

// NewHandle builds an Ollama handle.
func NewHandle(cfg llm.VendorConfig, model string, settings llm.Settings) (llm.Handle, error) {
	return &Handle{
		host:     cfg.Host,
		model:    model,
		settings: settings,
		client:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Invoke sends the message history to the chat endpoint. Local models get
// no max-token cap; generation length is left to the model.
func (h *Handle) Invoke(ctx context.Context, messages []domain.Message) (string, error) {
	msgs := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	chatReq := chatRequest{
		Model:    h.model,
		Messages: msgs,
		Stream:   false,
		Options: map[string]any{
			"temperature": h.settings.Temperature,
			"top_p":       h.settings.TopP,
		},
	}
	if h.jsonMode {
		chatReq.Format = "json"
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return "", llm.ClassifyTransport(templates, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return "", llm.ClassifyStatus(templates, resp.StatusCode, msg)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return chatResp.Message.Content, nil
}

// Structured returns a copy of the handle that asks for JSON format output.
func (h *Handle) Structured(_ json.RawMessage) llm.Handle {
	clone := *h
	clone.jsonMode = true
	return &clone
}
