package handler

import (
	"encoding/json"
	"net/http"

	"github.com/modchat/modchat/internal/api/response"
)

// SettingsHandler validates client settings
type SettingsHandler struct{}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler() *SettingsHandler {
	return &SettingsHandler{}
}

// Save validates a settings map and echoes it back. The client owns
// settings storage; chat requests carry the settings on every call.
func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	var settings map[string]any
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if raw, ok := settings["temperature"]; ok {
		temp, ok := numericValue(raw)
		if !ok || temp < 0 || temp > 1 {
			response.BadRequest(w, "Temperature must be between 0 and 1")
			return
		}
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"settings": settings,
	})
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
