package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/modchat/modchat/internal/domain"
	"github.com/modchat/modchat/internal/llm"
)

// Decomposer runs the one-step decomposition agent: a single model call
// under the decomposition role, no branching, no internal retries.
type Decomposer struct {
	handle llm.Handle
}

// NewDecomposer wires a model handle into the agent. The handle is
// swapped for its structured-output variant up front so every
// invocation is constrained to the response schema.
func NewDecomposer(handle llm.Handle) *Decomposer {
	return &Decomposer{handle: handle.Structured(json.RawMessage(responseSchema))}
}

// Decompose breaks text into labeled components. Every failure mode
// comes back as a recoverable decomposition error; the caller decides
// whether to surface or absorb it.
func (d *Decomposer) Decompose(ctx context.Context, text string) (*domain.DecomposedResponse, error) {
	if text == "" {
		return nil, domain.Recoverable(domain.ErrDecompositionFailed, "no response text provided")
	}

	messages := []domain.Message{
		{Role: domain.RoleSystem, Content: rolePrompt},
		{Role: domain.RoleUser, Content: text},
	}

	reply, err := d.handle.Invoke(ctx, messages)
	if err != nil {
		return nil, domain.Recoverable(domain.ErrDecompositionFailed, fmt.Sprintf("model invocation failed: %s", err))
	}

	var decomposed domain.DecomposedResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(reply)), &decomposed); err != nil {
		log.Debug().Str("reply", reply).Msg("decomposition reply was not valid JSON")
		return nil, domain.Recoverable(domain.ErrDecompositionFailed, fmt.Sprintf("malformed decomposition output: %s", err))
	}
	if err := decomposed.Validate(); err != nil {
		return nil, domain.Recoverable(domain.ErrDecompositionFailed, fmt.Sprintf("decomposition violated its contract: %s", err))
	}
	return &decomposed, nil
}
