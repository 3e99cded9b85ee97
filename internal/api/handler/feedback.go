package handler

import (
	"encoding/json"
	"net/http"

	"github.com/modchat/modchat/internal/api/response"
	"github.com/modchat/modchat/internal/domain"
	"github.com/modchat/modchat/internal/service"
)

// FeedbackHandler handles survey submissions
type FeedbackHandler struct {
	feedbackService *service.FeedbackService
	debug           bool
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(feedbackService *service.FeedbackService, debug bool) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService, debug: debug}
}

// Submit stores one survey submission
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ratings  []int  `json:"ratings"`
		Comments string `json:"comments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	feedback := &domain.Feedback{
		Ratings:  req.Ratings,
		Comments: req.Comments,
	}
	if err := h.feedbackService.Submit(r.Context(), feedback); err != nil {
		response.FromError(w, err, h.debug)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{"success": true})
}
