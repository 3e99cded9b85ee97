package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a synchronous task round trip. Decomposition
// runs a full model call on the agent side, so this is generous.
const DefaultTimeout = 300 * time.Second

const (
	wellKnownPath = "/.well-known/agent.json"
	sendPath      = "/tasks/send"
)

// Client talks to a single decomposition agent.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the agent at baseURL. A non-positive
// timeout falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Discover fetches the agent's capability card.
func (c *Client) Discover(ctx context.Context) (*AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+wellKnownPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent discovery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent discovery failed: status %d", resp.StatusCode)
	}

	var card AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("failed to decode agent card: %w", err)
	}
	return &card, nil
}

// SendTask submits text to the agent and waits for the completed task.
// userToken and conversationID ride along for traceability.
func (c *Client) SendTask(ctx context.Context, text, userToken, conversationID string) (*Task, error) {
	task := Task{
		ID:             uuid.NewString(),
		UserToken:      userToken,
		ConversationID: conversationID,
		Message: &Message{
			Role:  "user",
			Parts: []Part{{Kind: "text", Text: text}},
		},
	}

	body, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("task send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("task send failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var result Task
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode task response: %w", err)
	}
	if result.Status.State != TaskCompleted {
		return nil, fmt.Errorf("task ended in state %q", result.Status.State)
	}
	return &result, nil
}
