package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single conversation turn as stored in a checkpoint. Histories
// are append-only: turns are never mutated or removed, and reload order must
// match append order. Checkpoints hold user and assistant turns only; the
// system prompt is prepended at invocation time.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
