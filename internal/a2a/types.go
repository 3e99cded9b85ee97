// Package a2a implements the task envelope protocol spoken between the
// chat gateway and the decomposition agent, plus the discovery card the
// agent serves at its well-known path.
package a2a

// Part is one piece of a message or artifact. Text parts carry prompt
// payloads, data parts carry structured results.
type Part struct {
	Kind string         `json:"kind,omitempty"`
	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// Message is the conversational payload of a task request.
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Task states. A task sent over /tasks/send is answered synchronously,
// so clients only ever observe the terminal states.
const (
	TaskSubmitted = "submitted"
	TaskWorking   = "working"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

// TaskStatus wraps the lifecycle state of a task.
type TaskStatus struct {
	State string `json:"state"`
}

// Artifact is a named output produced by the agent for a task.
type Artifact struct {
	ArtifactID string `json:"artifactId"`
	Name       string `json:"name,omitempty"`
	Parts      []Part `json:"parts"`
}

// Task is the request and response envelope of the protocol. Outbound
// tasks carry a message; completed tasks come back with artifacts.
type Task struct {
	ID             string     `json:"id"`
	ContextID      string     `json:"contextId,omitempty"`
	UserToken      string     `json:"userToken,omitempty"`
	ConversationID string     `json:"conversation_id,omitempty"`
	Message        *Message   `json:"message,omitempty"`
	Status         TaskStatus `json:"status"`
	Artifacts      []Artifact `json:"artifacts,omitempty"`
}

// Text returns the first text part of the task's message, or "".
func (t *Task) Text() string {
	if t.Message == nil {
		return ""
	}
	for _, part := range t.Message.Parts {
		if part.Text != "" {
			return part.Text
		}
	}
	return ""
}

// DataPart returns the first data part across the task's artifacts, or
// nil when the task carries no structured output.
func (t *Task) DataPart() map[string]any {
	for _, artifact := range t.Artifacts {
		for _, part := range artifact.Parts {
			if part.Data != nil {
				return part.Data
			}
		}
	}
	return nil
}

// AgentCapabilities advertises optional protocol features.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming"`
	PushNotifications bool `json:"pushNotifications"`
}

// AgentCard is the static capability descriptor served at
// /.well-known/agent.json.
type AgentCard struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	URL          string            `json:"url"`
	Version      string            `json:"version"`
	Capabilities AgentCapabilities `json:"capabilities"`
}
