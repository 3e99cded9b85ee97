package llm

import (
	"context"
	"encoding/json"

	"github.com/modchat/modchat/internal/domain"
)

// Handle is a ready-to-invoke binding of a vendor, model and settings.
// Handles are immutable: Structured returns a derived handle and never
// mutates the receiver, so cached handles stay safe to share.
type Handle interface {
	// Invoke sends the message history to the model and returns the
	// assistant reply. Messages with RoleSystem are delivered through
	// the vendor's system channel where one exists.
	Invoke(ctx context.Context, messages []domain.Message) (string, error)

	// Structured returns a variant of this handle that constrains the
	// model to JSON output, using the vendor's native JSON mode when one
	// exists. The schema itself travels in the prompt; the handle only
	// switches the output mode.
	Structured(schema json.RawMessage) Handle
}
