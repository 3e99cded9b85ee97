package handler

import (
	"encoding/json"
	"net/http"

	"github.com/modchat/modchat/internal/api/response"
	"github.com/modchat/modchat/internal/conversation"
	"github.com/modchat/modchat/internal/domain"
)

// EventHandler records client interaction events
type EventHandler struct {
	conversations *conversation.Manager
}

// NewEventHandler creates a new event handler
func NewEventHandler(conversations *conversation.Manager) *EventHandler {
	return &EventHandler{conversations: conversations}
}

// Log appends one event to the activity log. Events without a conversation
// are filed under "global".
func (h *EventHandler) Log(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventType      string         `json:"event_type"`
		ConversationID string         `json:"conversation_id"`
		SessionID      string         `json:"session_id"`
		Data           map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if req.EventType == "" {
		response.BadRequest(w, "Missing event_type")
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = "global"
	}

	h.conversations.RecordEvent(r.Context(), &domain.Event{
		Type:           req.EventType,
		ConversationID: req.ConversationID,
		SessionID:      req.SessionID,
		Payload:        req.Data,
	})

	response.JSON(w, http.StatusOK, map[string]any{"success": true})
}
