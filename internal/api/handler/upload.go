package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/modchat/modchat/internal/api/response"
	"github.com/modchat/modchat/internal/service"
)

// UploadHandler handles file upload endpoints
type UploadHandler struct {
	uploadService *service.UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService *service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload stores one multipart upload. Unsupported types are stored too;
// the response flags whether the file can feed chat context.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.uploadService.MaxSize()); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "no file uploaded")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		log.Warn().Msg("Upload request with empty filename")
		response.BadRequest(w, "No selected file")
		return
	}

	result, err := h.uploadService.Save(header.Filename, file)
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("failed to store upload")
		response.Error(w, http.StatusInternalServerError, "File upload failed")
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"filename":  result.Filename,
		"file_path": result.Path,
		"supported": result.Supported,
	})
}
