package openai

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/modchat/modchat/internal/domain"
	"github.com/modchat/modchat/internal/llm"
)

var templates = llm.Templates("OpenAI")

// Vendor returns the catalog descriptor for the OpenAI chat API.
func Vendor() llm.Vendor {
	return llm.Vendor{
		ID:   "openai",
		Name: "OpenAI",
		Models: []llm.ModelInfo{
			{ID: "gpt-4.1-mini", Name: "GPT-4.1 Mini"},
			{ID: "gpt-4.1-nano", Name: "GPT-4.1 Nano"},
			{ID: "gpt-4.1", Name: "GPT-4.1"},
		},
		DefaultModel:   "gpt-4.1-mini",
		RequiresAPIKey: true,
		Templates:      templates,
		Build:          NewHandle,
	}
}

// Handle invokes one OpenAI chat model with fixed settings.
type Handle struct {
	client   *openai.Client
	model    string
	settings llm.Settings
	timeout  time.Duration
	jsonMode bool
}

// NewHandle builds a handle over the official client.
func NewHandle(cfg llm.VendorConfig, model string, settings llm.Settings) (llm.Handle, error) {
	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Handle{
		client:   &client,
		model:    model,
		settings: settings,
		timeout:  cfg.Timeout,
	}, nil
}

// Invoke sends the message history to the chat completions API.
func (h *Handle) Invoke(ctx context.Context, messages []domain.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:               h.model,
		Messages:            buildMessages(messages),
		Temperature:         openai.Float(h.settings.Temperature),
		TopP:                openai.Float(h.settings.TopP),
		MaxCompletionTokens: openai.Int(int64(h.settings.MaxTokens)),
	}
	if h.jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := h.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.ClassifyTransport(templates, errors.New("no choices returned"))
	}
	return resp.Choices[0].Message.Content, nil
}

// Structured returns a copy of the handle with native JSON mode enabled.
func (h *Handle) Structured(_ json.RawMessage) llm.Handle {
	clone := *h
	clone.jsonMode = true
	return &clone
}

func buildMessages(messages []domain.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case domain.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return llm.ClassifyStatus(templates, apiErr.StatusCode, apiErr.Error())
	}
	return llm.ClassifyTransport(templates, err)
}
