package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/modchat/modchat/internal/a2a"
	"github.com/modchat/modchat/internal/checkpoint"
	"github.com/modchat/modchat/internal/conversation"
	"github.com/modchat/modchat/internal/domain"
	"github.com/modchat/modchat/internal/llm"
)

// scriptedHandle is an llm.Handle that replays a fixed reply and records
// every invocation.
type scriptedHandle struct {
	mu         sync.Mutex
	reply      string
	err        error
	structured bool
	schema     json.RawMessage
	calls      [][]domain.Message
}

func (h *scriptedHandle) Invoke(_ context.Context, messages []domain.Message) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := make([]domain.Message, len(messages))
	copy(cp, messages)
	h.calls = append(h.calls, cp)
	if h.err != nil {
		return "", h.err
	}
	return h.reply, nil
}

func (h *scriptedHandle) Structured(schema json.RawMessage) llm.Handle {
	h.mu.Lock()
	h.structured = true
	h.schema = schema
	h.mu.Unlock()
	return h
}

func (h *scriptedHandle) lastCall() []domain.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.calls) == 0 {
		return nil
	}
	return h.calls[len(h.calls)-1]
}

// memoryStore is an in-memory checkpoint.Store.
type memoryStore struct {
	mu   sync.Mutex
	data map[string][]domain.Message
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]domain.Message)}
}

func (s *memoryStore) Get(_ context.Context, threadKey string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, ok := s.data[threadKey]
	if !ok {
		return nil, checkpoint.ErrNotFound
	}
	cp := make([]domain.Message, len(history))
	copy(cp, history)
	return cp, nil
}

func (s *memoryStore) Put(_ context.Context, threadKey string, messages []domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]domain.Message, len(messages))
	copy(cp, messages)
	s.data[threadKey] = cp
	return nil
}

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) history(threadKey string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[threadKey]
}

// newChatFixture wires a factory over a single fake vendor and a manager
// over an in-memory store.
func newChatFixture(handle *scriptedHandle) (*llm.Factory, *conversation.Manager, *memoryStore) {
	registry := llm.NewRegistry()
	registry.Register(llm.Vendor{
		ID:     "acme",
		Name:   "Acme",
		Models: []llm.ModelInfo{{ID: "acme-small", Name: "Acme Small"}},
		Build: func(_ llm.VendorConfig, _ string, _ llm.Settings) (llm.Handle, error) {
			return handle, nil
		},
	})
	factory := llm.NewFactory(registry, llm.Config{})
	store := newMemoryStore()
	manager := conversation.NewManager(store, nil, nil, 0)
	return factory, manager, store
}

func TestChatService_Chat(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path persists the exchange", func(t *testing.T) {
		handle := &scriptedHandle{reply: "hello back"}
		factory, manager, store := newChatFixture(handle)
		svc := NewChatService(factory, manager, nil, nil)

		resp, err := svc.Chat(ctx, &domain.ChatRequest{
			Message:   "hello",
			Model:     "acme-small",
			Vendor:    "acme",
			UserToken: "alice",
		})
		require.NoError(t, err)
		assert.Equal(t, "hello back", resp.Text)
		assert.Equal(t, "acme-small", resp.Model)
		assert.Equal(t, "acme", resp.Vendor)
		assert.NotEmpty(t, resp.ConversationID)
		assert.Empty(t, resp.Components)

		history := store.history("alice-" + resp.ConversationID)
		require.Len(t, history, 2)
		assert.Equal(t, domain.RoleUser, history[0].Role)
		assert.Equal(t, "hello back", history[1].Content)
	})

	t.Run("default system prompt leads the invocation", func(t *testing.T) {
		handle := &scriptedHandle{reply: "ok"}
		factory, manager, _ := newChatFixture(handle)
		svc := NewChatService(factory, manager, nil, nil)

		_, err := svc.Chat(ctx, &domain.ChatRequest{Message: "hi", Model: "acme-small", Vendor: "acme"})
		require.NoError(t, err)

		call := handle.lastCall()
		require.NotEmpty(t, call)
		assert.Equal(t, domain.RoleSystem, call[0].Role)
		assert.Equal(t, llm.DefaultSystemPrompt, call[0].Content)
	})

	t.Run("settings system prompt wins over the default", func(t *testing.T) {
		handle := &scriptedHandle{reply: "ok"}
		factory, manager, _ := newChatFixture(handle)
		svc := NewChatService(factory, manager, nil, nil)

		_, err := svc.Chat(ctx, &domain.ChatRequest{
			Message:  "hi",
			Model:    "acme-small",
			Vendor:   "acme",
			Settings: map[string]any{"systemPrompt": "You are terse."},
		})
		require.NoError(t, err)
		assert.Equal(t, "You are terse.", handle.lastCall()[0].Content)
	})

	t.Run("response format constrains the handle and the prompt", func(t *testing.T) {
		handle := &scriptedHandle{reply: "{}"}
		factory, manager, _ := newChatFixture(handle)
		svc := NewChatService(factory, manager, nil, nil)

		_, err := svc.Chat(ctx, &domain.ChatRequest{
			Message:  "summarize",
			Model:    "acme-small",
			Vendor:   "acme",
			Settings: map[string]any{"responseFormat": map[string]any{"summary": "string"}},
		})
		require.NoError(t, err)
		assert.True(t, handle.structured)
		assert.Contains(t, handle.lastCall()[0].Content, "Required JSON output")
	})

	t.Run("malformed response format proceeds unstructured", func(t *testing.T) {
		handle := &scriptedHandle{reply: "ok"}
		factory, manager, _ := newChatFixture(handle)
		svc := NewChatService(factory, manager, nil, nil)

		_, err := svc.Chat(ctx, &domain.ChatRequest{
			Message:  "hi",
			Model:    "acme-small",
			Vendor:   "acme",
			Settings: map[string]any{"responseFormat": "{{{not json"},
		})
		require.NoError(t, err)
		assert.False(t, handle.structured)
		assert.Equal(t, llm.DefaultSystemPrompt, handle.lastCall()[0].Content)
	})

	t.Run("unsupported vendor fails fast", func(t *testing.T) {
		handle := &scriptedHandle{reply: "ok"}
		factory, manager, _ := newChatFixture(handle)
		svc := NewChatService(factory, manager, nil, nil)

		_, err := svc.Chat(ctx, &domain.ChatRequest{Message: "hi", Model: "gpt-9", Vendor: "nope"})
		require.Error(t, err)
		ce, ok := domain.AsChatError(err)
		require.True(t, ok)
		assert.Equal(t, domain.ErrUnsupportedVendor, ce.Code)
		assert.Equal(t, 400, ce.Status)
	})

	t.Run("model failure propagates untouched", func(t *testing.T) {
		handle := &scriptedHandle{err: domain.Fatal(domain.ErrProviderAPIError, 502, "Acme API error: boom")}
		factory, manager, store := newChatFixture(handle)
		svc := NewChatService(factory, manager, nil, nil)

		_, err := svc.Chat(ctx, &domain.ChatRequest{Message: "hi", Model: "acme-small", Vendor: "acme", ConversationID: "c0ffee"})
		require.Error(t, err)
		ce, ok := domain.AsChatError(err)
		require.True(t, ok)
		assert.Equal(t, domain.ErrProviderAPIError, ce.Code)
		assert.Empty(t, store.history("-c0ffee"))
	})
}

func TestChatService_Chat_Files(t *testing.T) {
	ctx := context.Background()

	t.Run("document context is appended to the message", func(t *testing.T) {
		handle := &scriptedHandle{reply: "ok"}
		factory, manager, _ := newChatFixture(handle)
		extractor := new(MockFileExtractor)
		extractor.On("Extract", mock.Anything, []string{"notes.txt"}).Return("project notes", nil)
		svc := NewChatService(factory, manager, extractor, nil)

		_, err := svc.Chat(ctx, &domain.ChatRequest{
			Message: "what do my notes say?",
			Model:   "acme-small",
			Vendor:  "acme",
			Files:   []domain.FileRef{{Path: "notes.txt"}},
		})
		require.NoError(t, err)

		call := handle.lastCall()
		userTurn := call[len(call)-1]
		assert.Equal(t, "what do my notes say?\n\nRelevant document content:\nproject notes", userTurn.Content)
		extractor.AssertExpectations(t)
	})

	t.Run("extraction failure continues without context", func(t *testing.T) {
		handle := &scriptedHandle{reply: "ok"}
		factory, manager, _ := newChatFixture(handle)
		extractor := new(MockFileExtractor)
		extractor.On("Extract", mock.Anything, []string{"gone.txt"}).Return("", errors.New("read failed"))
		svc := NewChatService(factory, manager, extractor, nil)

		resp, err := svc.Chat(ctx, &domain.ChatRequest{
			Message: "hello",
			Model:   "acme-small",
			Vendor:  "acme",
			Files:   []domain.FileRef{{Path: "gone.txt"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Text)

		call := handle.lastCall()
		assert.Equal(t, "hello", call[len(call)-1].Content)
	})
}

func TestChatService_Chat_Decompose(t *testing.T) {
	ctx := context.Background()

	completedTask := func(data map[string]any) *a2a.Task {
		return &a2a.Task{
			ID:     "task-1",
			Status: a2a.TaskStatus{State: a2a.TaskCompleted},
			Artifacts: []a2a.Artifact{{
				ArtifactID: "decomposition",
				Parts:      []a2a.Part{{Kind: "data", Data: data}},
			}},
		}
	}

	t.Run("components decorate the response", func(t *testing.T) {
		handle := &scriptedHandle{reply: "Intro text. Body text."}
		factory, manager, _ := newChatFixture(handle)
		agent := new(MockAgentClient)
		agent.On("SendTask", mock.Anything, "Intro text. Body text.", "alice", mock.AnythingOfType("string")).
			Return(completedTask(map[string]any{
				"components": []any{
					map[string]any{"Intro": "Intro text."},
					map[string]any{"Body": "Body text."},
				},
				"outputType":      "report",
				"outputStructure": []any{"Intro", "Body"},
			}), nil)
		svc := NewChatService(factory, manager, nil, agent)

		resp, err := svc.Chat(ctx, &domain.ChatRequest{
			Message:   "write a report",
			Model:     "acme-small",
			Vendor:    "acme",
			UserToken: "alice",
			Decompose: true,
		})
		require.NoError(t, err)
		require.Len(t, resp.Components, 2)
		assert.Equal(t, "Intro", resp.Components[0].Label)
		assert.Equal(t, "Body text.", resp.Components[1].Text)
		assert.Equal(t, "report", resp.OutputType)
		assert.Equal(t, []string{"Intro", "Body"}, resp.OutputStructure)
		agent.AssertExpectations(t)
	})

	t.Run("agent failure returns the plain answer", func(t *testing.T) {
		handle := &scriptedHandle{reply: "plain answer"}
		factory, manager, _ := newChatFixture(handle)
		agent := new(MockAgentClient)
		agent.On("SendTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("agent unreachable"))
		svc := NewChatService(factory, manager, nil, agent)

		resp, err := svc.Chat(ctx, &domain.ChatRequest{
			Message:   "hello",
			Model:     "acme-small",
			Vendor:    "acme",
			Decompose: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "plain answer", resp.Text)
		assert.Empty(t, resp.Components)
		assert.Empty(t, resp.OutputType)
	})

	t.Run("empty component list leaves the response plain", func(t *testing.T) {
		handle := &scriptedHandle{reply: "answer"}
		factory, manager, _ := newChatFixture(handle)
		agent := new(MockAgentClient)
		agent.On("SendTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(completedTask(map[string]any{"components": []any{}, "outputType": "report"}), nil)
		svc := NewChatService(factory, manager, nil, agent)

		resp, err := svc.Chat(ctx, &domain.ChatRequest{
			Message:   "hello",
			Model:     "acme-small",
			Vendor:    "acme",
			Decompose: true,
		})
		require.NoError(t, err)
		assert.Empty(t, resp.Components)
		assert.Empty(t, resp.OutputType)
	})

	t.Run("no agent configured returns the plain answer", func(t *testing.T) {
		handle := &scriptedHandle{reply: "answer"}
		factory, manager, _ := newChatFixture(handle)
		svc := NewChatService(factory, manager, nil, nil)

		resp, err := svc.Chat(ctx, &domain.ChatRequest{
			Message:   "hello",
			Model:     "acme-small",
			Vendor:    "acme",
			Decompose: true,
		})
		require.NoError(t, err)
		assert.Empty(t, resp.Components)
	})
}

func TestChatService_Regenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("edit runs on the bare conversation thread", func(t *testing.T) {
		handle := &scriptedHandle{reply: "rewritten component"}
		factory, manager, store := newChatFixture(handle)
		svc := NewChatService(factory, manager, nil, nil)

		resp, err := svc.Regenerate(ctx, &domain.RegenerateRequest{
			Text:             "old component text",
			Prompt:           "make it formal",
			Model:            "acme-small",
			Vendor:           "acme",
			ConversationID:   "conv42",
			ComponentTitle:   "Greeting",
			OriginalResponse: "full original response",
			OriginalPrompt:   "write an email",
		})
		require.NoError(t, err)
		assert.Equal(t, "rewritten component", resp.Text)
		assert.Equal(t, "conv42", resp.ConversationID)

		// Edit history keys on the conversation id alone.
		require.Len(t, store.history("conv42"), 2)

		call := handle.lastCall()
		instruction := call[len(call)-1].Content
		for _, fragment := range []string{"write an email", "full original response", "Greeting", "old component text", "make it formal"} {
			assert.True(t, strings.Contains(instruction, fragment), "instruction missing %q", fragment)
		}
	})

	t.Run("missing conversation id is rejected", func(t *testing.T) {
		handle := &scriptedHandle{reply: "x"}
		factory, manager, _ := newChatFixture(handle)
		svc := NewChatService(factory, manager, nil, nil)

		_, err := svc.Regenerate(ctx, &domain.RegenerateRequest{
			Text:   "t",
			Prompt: "p",
			Model:  "acme-small",
			Vendor: "acme",
		})
		require.Error(t, err)
		ce, ok := domain.AsChatError(err)
		require.True(t, ok)
		assert.Equal(t, domain.ErrConversationCreation, ce.Code)
	})
}
