package google

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/modchat/modchat/internal/domain"
	"github.com/modchat/modchat/internal/llm"
)

var templates = llm.Templates("Google")

// Vendor returns the catalog descriptor for the Gemini API.
func Vendor() llm.Vendor {
	return llm.Vendor{
		ID:   "google",
		Name: "Google",
		Models: []llm.ModelInfo{
			{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash"},
		},
		DefaultModel:   "gemini-2.5-flash",
		RequiresAPIKey: true,
		Templates:      templates,
		Build:          NewHandle,
	}
}

// Handle invokes one Gemini model with fixed settings. The genai client is
// opened per invocation and closed before returning.
type Handle struct {
	apiKey     string
	model      string
	settings   llm.Settings
	timeout    time.Duration
	jsonOutput bool
}

// NewHandle builds a Gemini handle.
func NewHandle(cfg llm.VendorConfig, model string, settings llm.Settings) (llm.Handle, error) {
	return &Handle{
		apiKey:   cfg.APIKey,
		model:    model,
		settings: settings,
		timeout:  cfg.Timeout,
	}, nil
}

// Invoke replays the history through a chat session and sends the last user
// message. System messages become the model's system instruction.
func (h *Handle) Invoke(ctx context.Context, messages []domain.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(h.apiKey))
	if err != nil {
		return "", classify(err)
	}
	defer client.Close()

	model := client.GenerativeModel(h.model)
	temperature := float32(h.settings.Temperature)
	topP := float32(h.settings.TopP)
	maxTokens := int32(h.settings.MaxTokens)
	model.Temperature = &temperature
	model.TopP = &topP
	model.MaxOutputTokens = &maxTokens
	if h.jsonOutput {
		model.ResponseMIMEType = "application/json"
	}

	var system []string
	var history []*genai.Content
	var last string
	for i, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			if i == len(messages)-1 {
				last = m.Content
			} else {
				history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
			}
		}
	}
	if last == "" {
		return "", llm.ClassifyTransport(templates, errors.New("no user message to send"))
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", llm.ClassifyTransport(templates, errors.New("empty response"))
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Structured returns a copy of the handle that requests JSON output via the
// response MIME type.
func (h *Handle) Structured(_ json.RawMessage) llm.Handle {
	clone := *h
	clone.jsonOutput = true
	return &clone
}

func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return llm.ClassifyStatus(templates, apiErr.Code, apiErr.Message)
	}
	return llm.ClassifyTransport(templates, err)
}
