package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/modchat/modchat/internal/api/response"
	"github.com/modchat/modchat/internal/domain"
	"github.com/modchat/modchat/internal/service"
)

var validate = validator.New()

// ChatHandler handles chat and regenerate endpoints
type ChatHandler struct {
	chatService *service.ChatService
	debug       bool
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService, debug bool) *ChatHandler {
	return &ChatHandler{chatService: chatService, debug: debug}
}

// Chat handles one conversational exchange
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, chatValidationMessage(err))
		return
	}

	result, err := h.chatService.Chat(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, h.debug)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// Regenerate rewrites one component of an earlier reply
func (h *ChatHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	var req domain.RegenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, regenerateValidationMessage(err))
		return
	}

	result, err := h.chatService.Regenerate(r.Context(), &req)
	if err != nil {
		response.FromError(w, err, h.debug)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

func chatValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Message":
			return "Empty message"
		case "Model":
			return "No model selected"
		case "Vendor":
			return "No vendor specified"
		}
	}
	return "invalid request"
}

func regenerateValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Text":
			return "Empty text"
		case "Prompt":
			return "Empty prompt"
		case "Model":
			return "No model selected"
		case "Vendor":
			return "No vendor specified"
		case "ConversationID":
			return "Missing conversation_id"
		}
	}
	return "invalid request"
}
