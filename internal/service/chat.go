package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/modchat/modchat/internal/a2a"
	"github.com/modchat/modchat/internal/conversation"
	"github.com/modchat/modchat/internal/domain"
	"github.com/modchat/modchat/internal/llm"
)

// FileExtractor turns previously uploaded files into document context for a
// prompt. Files it cannot read are skipped, not fatal.
type FileExtractor interface {
	Extract(ctx context.Context, filenames []string) (string, error)
}

// AgentClient is the remote decomposition round trip.
type AgentClient interface {
	SendTask(ctx context.Context, text, userToken, conversationID string) (*a2a.Task, error)
}

// ChatService orchestrates chat and regenerate requests: model resolution,
// prompt assembly, conversation state and the optional decomposition call.
type ChatService struct {
	factory       *llm.Factory
	conversations *conversation.Manager
	extractor     FileExtractor
	agent         AgentClient
}

// NewChatService creates a chat service. The extractor and agent may be nil;
// file context and decomposition then degrade to no-ops.
func NewChatService(
	factory *llm.Factory,
	conversations *conversation.Manager,
	extractor FileExtractor,
	agent AgentClient,
) *ChatService {
	return &ChatService{
		factory:       factory,
		conversations: conversations,
		extractor:     extractor,
		agent:         agent,
	}
}

// Chat runs one conversational turn. Decomposition failures never fail the
// request; the undecorated reply is returned instead.
func (s *ChatService) Chat(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	// 1. Resolve the model handle
	handle, err := s.factory.Resolve(req.Vendor, req.Model, req.Settings)
	if err != nil {
		return nil, err
	}

	// 2. Assemble the system prompt
	settings := llm.ParseSettings(req.Settings)
	systemPrompt := settings.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = llm.DefaultSystemPrompt
	}
	if schema, ok := llm.NormalizeResponseFormat(settings.ResponseFormat); ok {
		systemPrompt = llm.AppendSchemaInstruction(systemPrompt, schema)
		handle = handle.Structured(schema)
	}

	// 3. Fold uploaded documents into the message
	input := req.Message
	if paths := req.FilePaths(); s.extractor != nil && len(paths) > 0 {
		doc, err := s.extractor.Extract(ctx, paths)
		if err != nil {
			log.Warn().Err(err).Msg("file extraction failed, continuing without document context")
		} else if doc != "" {
			input += "\n\nRelevant document content:\n" + doc
		}
	}

	// 4. Resolve the conversation
	conversationID, chain, err := s.conversations.CreateChain(handle, systemPrompt, req.SessionID, req.UserToken, req.ConversationID)
	if err != nil {
		return nil, err
	}
	s.conversations.RecordMetadata(ctx, conversationID, map[string]any{
		"model":    req.Model,
		"vendor":   req.Vendor,
		"settings": req.Settings,
	})

	// 5. Invoke with full history
	history, err := chain.Invoke(ctx, input)
	if err != nil {
		return nil, err
	}

	resp := &domain.ChatResponse{
		Text:           history[len(history)-1].Content,
		Model:          req.Model,
		Vendor:         req.Vendor,
		ConversationID: conversationID,
	}

	// 6. Decompose on request
	if req.Decompose {
		s.decorate(ctx, resp, req.UserToken, conversationID)
	}
	return resp, nil
}

// Regenerate rewrites one component of an earlier reply. The edit runs on
// the conversation's edit thread, keyed by the bare conversation id, so it
// never interleaves with the main chat history.
func (s *ChatService) Regenerate(ctx context.Context, req *domain.RegenerateRequest) (*domain.RegenerateResponse, error) {
	handle, err := s.factory.Resolve(req.Vendor, req.Model, req.Settings)
	if err != nil {
		return nil, err
	}

	settings := llm.ParseSettings(req.Settings)
	systemPrompt := settings.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = llm.DefaultSystemPrompt
	}

	chain, err := s.conversations.CreateEditChain(handle, systemPrompt, req.ConversationID)
	if err != nil {
		return nil, err
	}
	s.conversations.RecordMetadata(ctx, req.ConversationID, map[string]any{
		"model":    req.Model,
		"vendor":   req.Vendor,
		"settings": req.Settings,
	})

	instruction := llm.RegenerateInstruction(req.OriginalPrompt, req.OriginalResponse, req.ComponentTitle, req.Text, req.Prompt)
	history, err := chain.Invoke(ctx, instruction)
	if err != nil {
		return nil, err
	}

	return &domain.RegenerateResponse{
		Text:           history[len(history)-1].Content,
		ConversationID: req.ConversationID,
	}, nil
}

// decorate attaches decomposition output to a chat response. Every failure
// path logs and leaves the response untouched.
func (s *ChatService) decorate(ctx context.Context, resp *domain.ChatResponse, userToken, conversationID string) {
	if s.agent == nil {
		log.Warn().Msg("decomposition requested but no agent is configured")
		return
	}

	task, err := s.agent.SendTask(ctx, resp.Text, userToken, conversationID)
	if err != nil {
		log.Warn().Err(err).Msg("decomposition call failed, returning undecomposed response")
		return
	}

	data := task.DataPart()
	if data == nil {
		log.Warn().Msg("decomposition reply carried no data artifact")
		return
	}

	raw, err := json.Marshal(data["components"])
	if err != nil {
		log.Warn().Err(err).Msg("decomposition components were not serializable")
		return
	}
	var components []domain.Component
	if err := json.Unmarshal(raw, &components); err != nil {
		log.Warn().Err(err).Msg("decomposition components were malformed")
		return
	}
	if len(components) == 0 {
		log.Warn().Msg("decomposition returned no components")
		return
	}

	resp.Components = components
	if outputType, ok := data["outputType"].(string); ok {
		resp.OutputType = outputType
	}
	// The reported structure is recomputed from the component order, not
	// read back from the wire.
	labels := make([]string, len(components))
	for i, c := range components {
		labels[i] = c.Label
	}
	resp.OutputStructure = labels
}
