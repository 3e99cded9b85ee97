package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modchat/modchat/internal/domain"
	"github.com/modchat/modchat/internal/llm"
)

type stubHandle struct {
	reply  string
	err    error
	schema json.RawMessage
	calls  [][]domain.Message
}

func (h *stubHandle) Invoke(_ context.Context, messages []domain.Message) (string, error) {
	h.calls = append(h.calls, messages)
	if h.err != nil {
		return "", h.err
	}
	return h.reply, nil
}

func (h *stubHandle) Structured(schema json.RawMessage) llm.Handle {
	h.schema = schema
	return h
}

const goodReply = `{
  "response": "Draft the email first. Then send the email to the team.",
  "components": [
    {"Draft": "Draft the email first."},
    {"Send": "Then send the email to the team."}
  ],
  "explanations": {
    "Draft": "The message has to exist before it can go out.",
    "Send": "Delivery completes the task."
  }
}`

func TestNewDecomposer_ConstrainsHandle(t *testing.T) {
	stub := &stubHandle{}
	NewDecomposer(stub)

	require.NotNil(t, stub.schema)
	assert.Contains(t, string(stub.schema), "components")
	assert.Contains(t, string(stub.schema), "explanations")
}

func TestDecompose_ParsesReply(t *testing.T) {
	stub := &stubHandle{reply: goodReply}
	d := NewDecomposer(stub)

	got, err := d.Decompose(context.Background(), "Draft the email first. Then send the email to the team.")
	require.NoError(t, err)

	assert.Equal(t, "Draft the email first. Then send the email to the team.", got.Response)
	assert.Equal(t, []string{"Draft", "Send"}, got.Labels())
	assert.Equal(t, "Draft the email first.", got.Components[0].Text)

	require.Len(t, stub.calls, 1)
	require.Len(t, stub.calls[0], 2)
	assert.Equal(t, domain.RoleSystem, stub.calls[0][0].Role)
	assert.Equal(t, rolePrompt, stub.calls[0][0].Content)
	assert.Equal(t, domain.RoleUser, stub.calls[0][1].Role)
}

func TestDecompose_StripsCodeFence(t *testing.T) {
	stub := &stubHandle{reply: "```json\n" + goodReply + "\n```"}
	d := NewDecomposer(stub)

	got, err := d.Decompose(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, got.Components, 2)
}

func TestDecompose_EmptyText(t *testing.T) {
	d := NewDecomposer(&stubHandle{reply: goodReply})

	_, err := d.Decompose(context.Background(), "")
	ce, ok := domain.AsChatError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrDecompositionFailed, ce.Code)
	assert.True(t, ce.Recoverable)
}

func TestDecompose_ModelError(t *testing.T) {
	d := NewDecomposer(&stubHandle{err: errors.New("provider down")})

	_, err := d.Decompose(context.Background(), "some answer")
	ce, ok := domain.AsChatError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrDecompositionFailed, ce.Code)
	assert.True(t, ce.Recoverable)
}

func TestDecompose_MalformedReply(t *testing.T) {
	d := NewDecomposer(&stubHandle{reply: "I could not produce JSON, sorry."})

	_, err := d.Decompose(context.Background(), "some answer")
	require.Error(t, err)
	ce, ok := domain.AsChatError(err)
	require.True(t, ok)
	assert.True(t, ce.Recoverable)
}

func TestDecompose_ContractViolation(t *testing.T) {
	// Explanations are missing a label, which Validate must catch.
	reply := `{
	  "response": "Step one. Step two.",
	  "components": [{"One": "Step one."}, {"Two": "Step two."}],
	  "explanations": {"One": "The first step."}
	}`
	d := NewDecomposer(&stubHandle{reply: reply})

	_, err := d.Decompose(context.Background(), "Step one. Step two.")
	ce, ok := domain.AsChatError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrDecompositionFailed, ce.Code)
}
