package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modchat/modchat/internal/domain"
)

// ErrNotFound reports that no checkpoint exists for a thread key. Callers
// treat it as "new conversation", not as a failure.
var ErrNotFound = errors.New("checkpoint not found")

// Store persists one ordered message list per thread key.
type Store interface {
	Get(ctx context.Context, threadKey string) ([]domain.Message, error)
	Put(ctx context.Context, threadKey string, messages []domain.Message) error
	Close() error
}

// Factory opens a store from a DSN.
type Factory func(ctx context.Context, dsn string) (Store, error)

// Registry dispatches DSN schemes to registered backends.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a backend under a DSN scheme.
func (r *Registry) Register(scheme string, f Factory) {
	r.factories[scheme] = f
}

// Open creates a store for the DSN, dispatching on its scheme.
func (r *Registry) Open(ctx context.Context, dsn string) (Store, error) {
	scheme := Scheme(dsn)
	f, ok := r.factories[scheme]
	if !ok {
		return nil, fmt.Errorf("unsupported checkpoint backend: %s", scheme)
	}
	return f(ctx, dsn)
}

// Scheme extracts the backend scheme from a DSN. A DSN without a scheme is
// a sqlite file path.
func Scheme(dsn string) string {
	if i := strings.Index(dsn, "://"); i > 0 {
		return dsn[:i]
	}
	return "sqlite"
}

// state is the stored record shape: the ordered message list lives under
// the channel_values.messages path on every backend.
type state struct {
	ChannelValues channelValues `json:"channel_values"`
}

type channelValues struct {
	Messages []domain.Message `json:"messages"`
}

// EncodeState serializes a message list into the stored record shape.
func EncodeState(messages []domain.Message) ([]byte, error) {
	return json.Marshal(state{ChannelValues: channelValues{Messages: messages}})
}

// DecodeState deserializes a stored record back into its message list.
func DecodeState(data []byte) ([]domain.Message, error) {
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("corrupt checkpoint state: %w", err)
	}
	return s.ChannelValues.Messages, nil
}
