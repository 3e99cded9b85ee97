package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/modchat/modchat/internal/domain"
	"github.com/modchat/modchat/internal/llm"
)

var templates = llm.Templates("Anthropic")

// Vendor returns the catalog descriptor for the Anthropic messages API.
func Vendor() llm.Vendor {
	return llm.Vendor{
		ID:   "anthropic",
		Name: "Anthropic",
		Models: []llm.ModelInfo{
			{ID: "claude-3-opus-latest", Name: "Claude 3 Opus"},
			{ID: "claude-3-7-sonnet-latest", Name: "Claude 3.7 Sonnet"},
			{ID: "claude-3-5-haiku-latest", Name: "Claude 3.5 Haiku"},
		},
		DefaultModel:   "claude-3-5-haiku-latest",
		RequiresAPIKey: true,
		Templates:      templates,
		Build:          NewHandle,
	}
}

// Handle invokes one Anthropic model with fixed settings.
type Handle struct {
	client   *anthropic.Client
	model    string
	settings llm.Settings
	timeout  time.Duration
}

// NewHandle builds a handle over the official client.
func NewHandle(cfg llm.VendorConfig, model string, settings llm.Settings) (llm.Handle, error) {
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Handle{
		client:   &client,
		model:    model,
		settings: settings,
		timeout:  cfg.Timeout,
	}, nil
}

// Invoke sends the message history to the messages API. System messages go
// through the dedicated system field, not the message list.
func (h *Handle) Invoke(ctx context.Context, messages []domain.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(h.model),
		MaxTokens:   int64(h.settings.MaxTokens),
		Temperature: anthropic.Float(h.settings.Temperature),
		TopP:        anthropic.Float(h.settings.TopP),
	}
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case domain.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	resp, err := h.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return sb.String(), nil
}

// Structured returns a copy of the handle. There is no native JSON mode
// here; the schema instruction in the prompt does the constraining.
func (h *Handle) Structured(_ json.RawMessage) llm.Handle {
	clone := *h
	return &clone
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return llm.ClassifyStatus(templates, apiErr.StatusCode, apiErr.Error())
	}
	return llm.ClassifyTransport(templates, err)
}
