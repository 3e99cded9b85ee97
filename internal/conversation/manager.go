package conversation

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/modchat/modchat/internal/checkpoint"
	"github.com/modchat/modchat/internal/domain"
	"github.com/modchat/modchat/internal/llm"
	"github.com/modchat/modchat/internal/security"
)

// DefaultMaxEntries bounds the in-memory conversation index.
const DefaultMaxEntries = 100

// ThreadKey derives the checkpoint partition key for a conversation. The
// user token is always prefixed, even when empty, so an anonymous
// conversation keys as "-<id>". Distinctness across (token, id) pairs
// relies on conversation ids being UUIDs.
func ThreadKey(userToken, conversationID string) string {
	return userToken + "-" + conversationID
}

// MetadataStore receives per-conversation metadata writes. Implementations
// are best-effort sinks; failures are logged, never propagated.
type MetadataStore interface {
	SetMetadata(ctx context.Context, conversationID string, metadata map[string]any) error
}

type entry struct {
	sessionID    string
	userToken    string
	lastAccessed time.Time
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

// Manager owns thread-key resolution and the checkpoint read/write path.
// It keeps a bounded in-memory index of recently used conversations and
// serializes invocations per thread key.
type Manager struct {
	store      checkpoint.Store
	metadata   MetadataStore
	events     domain.EventRepository
	validator  *security.IdentifierValidator
	maxEntries int

	mu      sync.Mutex
	entries map[string]*entry
	locks   map[string]*threadLock
}

// NewManager creates a manager over a checkpoint store. The metadata store
// and event repository may be nil; recording then becomes a no-op.
func NewManager(store checkpoint.Store, metadata MetadataStore, events domain.EventRepository, maxEntries int) *Manager {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Manager{
		store:      store,
		metadata:   metadata,
		events:     events,
		validator:  security.NewIdentifierValidator(),
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
		locks:      make(map[string]*threadLock),
	}
}

// CreateChain resolves or creates a conversation and binds it to a model
// handle and system prompt. A missing conversation id gets a fresh UUID;
// a supplied one must pass identifier validation, as must a non-empty user
// token. The returned id identifies the conversation in responses.
func (m *Manager) CreateChain(handle llm.Handle, systemPrompt, sessionID, userToken, conversationID string) (string, *Chain, error) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	} else if err := m.validator.Validate("conversation_id", conversationID); err != nil {
		return "", nil, creationFailed(err)
	}
	if userToken != "" {
		if err := m.validator.Validate("user_token", userToken); err != nil {
			return "", nil, creationFailed(err)
		}
	}

	m.touch(conversationID, sessionID, userToken)

	return conversationID, &Chain{
		manager:      m,
		handle:       handle,
		systemPrompt: systemPrompt,
		threadKey:    ThreadKey(userToken, conversationID),
	}, nil
}

// CreateEditChain binds a model handle to the edit thread of an existing
// conversation. Edit threads key on the bare conversation id so component
// edits never interleave with the main chat history.
func (m *Manager) CreateEditChain(handle llm.Handle, systemPrompt, conversationID string) (*Chain, error) {
	if conversationID == "" {
		return nil, creationFailed(fmt.Errorf("conversation_id is required"))
	}
	if err := m.validator.Validate("conversation_id", conversationID); err != nil {
		return nil, creationFailed(err)
	}

	return &Chain{
		manager:      m,
		handle:       handle,
		systemPrompt: systemPrompt,
		threadKey:    conversationID,
	}, nil
}

func creationFailed(err error) error {
	return domain.Fatal(domain.ErrConversationCreation, http.StatusBadRequest,
		fmt.Sprintf("Failed to create conversation: %s", err))
}

// touch refreshes the index entry for a conversation, inserting it when new
// and evicting the oldest entries past the bound. Only the index is
// bounded; checkpoint rows are never deleted.
func (m *Manager) touch(conversationID, sessionID, userToken string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[conversationID]
	if !ok {
		e = &entry{}
		m.entries[conversationID] = e
	}
	if sessionID != "" {
		e.sessionID = sessionID
	}
	e.userToken = userToken
	e.lastAccessed = time.Now()

	m.evictLocked()
}

func (m *Manager) evictLocked() {
	for len(m.entries) > m.maxEntries {
		var oldestID string
		var oldest time.Time
		for id, e := range m.entries {
			if oldestID == "" || e.lastAccessed.Before(oldest) {
				oldestID = id
				oldest = e.lastAccessed
			}
		}
		delete(m.entries, oldestID)
	}
}

// IndexSize reports the number of conversations currently indexed.
func (m *Manager) IndexSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Manager) lockThread(key string) *threadLock {
	m.mu.Lock()
	tl, ok := m.locks[key]
	if !ok {
		tl = &threadLock{}
		m.locks[key] = tl
	}
	tl.refs++
	m.mu.Unlock()

	tl.mu.Lock()
	return tl
}

func (m *Manager) unlockThread(key string, tl *threadLock) {
	tl.mu.Unlock()

	m.mu.Lock()
	tl.refs--
	if tl.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()
}

// RecordMetadata attaches metadata to a conversation. Best effort: failures
// are logged and swallowed.
func (m *Manager) RecordMetadata(ctx context.Context, conversationID string, metadata map[string]any) {
	if m.metadata == nil {
		return
	}
	if err := m.metadata.SetMetadata(ctx, conversationID, metadata); err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to record conversation metadata")
	}
}

// RecordEvent appends an event to the activity log. Best effort: failures
// are logged and swallowed.
func (m *Manager) RecordEvent(ctx context.Context, event *domain.Event) {
	if m.events == nil {
		return
	}
	if err := m.events.Create(ctx, event); err != nil {
		log.Error().Err(err).Str("event_type", event.Type).Msg("failed to record event")
	}
}
