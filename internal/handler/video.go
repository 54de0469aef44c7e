package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/community-hub/internal/auth"
	"github.com/sakif/community-hub/internal/service"
)

// VideoHandler covers the shared YouTube video list.
type VideoHandler struct {
	videos *service.VideoService
	logger *slog.Logger
}

func NewVideoHandler(videos *service.VideoService, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{videos: videos, logger: logger}
}

// HandleList returns all videos.
//
// HTTP: GET /api/videos
func (h *VideoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	videos, err := h.videos.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

type videoRequest struct {
	Name        string `json:"name" validate:"required,max=150"`
	YouTubeLink string `json:"youtubeLink" validate:"required,url"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// HandleCreate adds a video; the YouTube video ID is derived
// server-side from the link.
//
// HTTP: POST /api/videos
func (h *VideoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actorID, _ := auth.UserIDFromContext(r.Context())
	video, err := h.videos.Create(r.Context(), actorID, req.Name, req.YouTubeLink, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, video)
}

// HandleDelete removes a video.
//
// HTTP: DELETE /api/videos/{id}
func (h *VideoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	if err := h.videos.Delete(r.Context(), actorID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUploadThumbnail stores a custom thumbnail for a video.
//
// HTTP: POST /api/videos/{id}/thumbnail (multipart, field "file")
func (h *VideoHandler) HandleUploadThumbnail(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request is not a valid multipart form",
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "multipart field \"file\" is required",
			Field:   "file",
		})
		return
	}
	defer file.Close()

	actorID, _ := auth.UserIDFromContext(r.Context())
	video, err := h.videos.UploadThumbnail(r.Context(), actorID, r.PathValue("id"), header.Filename, file, header.Size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}
