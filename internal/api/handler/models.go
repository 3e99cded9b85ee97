package handler

import (
	"net/http"

	"github.com/modchat/modchat/internal/api/response"
	"github.com/modchat/modchat/internal/llm"
)

// ModelsHandler serves the vendor and model catalog
type ModelsHandler struct {
	registry *llm.Registry
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(registry *llm.Registry) *ModelsHandler {
	return &ModelsHandler{registry: registry}
}

// List returns every supported vendor with its model catalog
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"vendors": h.registry.Vendors(),
	})
}
