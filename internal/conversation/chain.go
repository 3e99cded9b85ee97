package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/modchat/modchat/internal/checkpoint"
	"github.com/modchat/modchat/internal/domain"
	"github.com/modchat/modchat/internal/llm"
)

// Chain is an invocable binding of a model handle, a system prompt and one
// checkpoint thread. Invocations against the same thread are serialized by
// the manager.
type Chain struct {
	manager      *Manager
	handle       llm.Handle
	systemPrompt string
	threadKey    string
}

// ThreadKey returns the checkpoint partition this chain reads and writes.
func (c *Chain) ThreadKey() string { return c.threadKey }

// Invoke appends the user input to the thread's history, invokes the model
// with the full context and persists both new turns. It returns the
// updated history; the last entry is the assistant reply. The user turn is
// not persisted when the invocation fails.
func (c *Chain) Invoke(ctx context.Context, input string) ([]domain.Message, error) {
	tl := c.manager.lockThread(c.threadKey)
	defer c.manager.unlockThread(c.threadKey, tl)

	history, err := c.manager.store.Get(ctx, c.threadKey)
	if err != nil && !errors.Is(err, checkpoint.ErrNotFound) {
		return nil, fmt.Errorf("failed to restore conversation state: %w", err)
	}

	invocation := make([]domain.Message, 0, len(history)+2)
	if c.systemPrompt != "" {
		invocation = append(invocation, domain.Message{Role: domain.RoleSystem, Content: c.systemPrompt})
	}
	invocation = append(invocation, history...)
	userTurn := domain.Message{Role: domain.RoleUser, Content: input}
	invocation = append(invocation, userTurn)

	reply, err := c.handle.Invoke(ctx, invocation)
	if err != nil {
		return nil, err
	}

	history = append(history, userTurn, domain.Message{Role: domain.RoleAssistant, Content: reply})
	if err := c.manager.store.Put(ctx, c.threadKey, history); err != nil {
		return nil, fmt.Errorf("failed to save conversation state: %w", err)
	}
	return history, nil
}
