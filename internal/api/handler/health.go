package handler

import (
	"net/http"

	"github.com/modchat/modchat/internal/api/response"
	"github.com/modchat/modchat/internal/llm"
	"github.com/modchat/modchat/internal/service"
)

// HealthHandler reports liveness plus per-vendor credential presence
type HealthHandler struct {
	registry *llm.Registry
	factory  *llm.Factory
	uploads  *service.UploadService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(registry *llm.Registry, factory *llm.Factory, uploads *service.UploadService) *HealthHandler {
	return &HealthHandler{registry: registry, factory: factory, uploads: uploads}
}

// Health returns service status, which vendors hold credentials, the
// advertised upload types and the vendor id list.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	apiKeys := make(map[string]bool)
	vendors := make([]string, 0)
	for _, card := range h.registry.Vendors() {
		apiKeys[card.ID] = h.factory.Configured(card.ID)
		vendors = append(vendors, card.ID)
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"api_keys":   apiKeys,
		"file_types": h.uploads.SupportedTypes(),
		"vendors":    vendors,
	})
}
