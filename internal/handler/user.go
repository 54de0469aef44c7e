package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/community-hub/internal/auth"
	"github.com/sakif/community-hub/internal/model"
	"github.com/sakif/community-hub/internal/service"
	"github.com/sakif/community-hub/internal/storage"
)

// maxImageUpload bounds multipart parsing; the storage layer enforces
// its own per-file limit on top.
const maxImageUpload = 10 << 20

// UserHandler covers profiles, the member list, the partner directory,
// and the admin console user actions.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleList returns every account. Admin console view.
//
// HTTP: GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleGet returns one account.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleListPartners returns the public partner directory.
//
// HTTP: GET /api/partners
func (h *UserHandler) HandleListPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := h.users.ListPartners(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, partners)
}

type profileRequest struct {
	Username           *string  `json:"username" validate:"omitempty,min=3,max=30"`
	Bio                *string  `json:"bio" validate:"omitempty,max=500"`
	Theme              *string  `json:"theme" validate:"omitempty,oneof=dark light"`
	PartnerDescription *string  `json:"partnerDescription" validate:"omitempty,max=1000"`
	PartnerLinks       []string `json:"partnerLinks" validate:"omitempty,max=10,dive,url"`
}

// HandleUpdateProfile edits the signed-in user's own profile.
//
// HTTP: PUT /api/me/profile
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	user, err := h.users.UpdateProfile(r.Context(), userID, service.ProfileUpdate{
		Username:           req.Username,
		Bio:                req.Bio,
		Theme:              req.Theme,
		PartnerDescription: req.PartnerDescription,
		PartnerLinks:       req.PartnerLinks,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUploadAvatar stores a new profile picture.
//
// HTTP: POST /api/me/avatar (multipart, field "file")
func (h *UserHandler) HandleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, storage.KindAvatar)
}

// HandleUploadBackground stores a new profile background.
//
// HTTP: POST /api/me/background (multipart, field "file")
func (h *UserHandler) HandleUploadBackground(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, storage.KindBackground)
}

func (h *UserHandler) handleUpload(w http.ResponseWriter, r *http.Request, kind string) {
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

	userID, _ := auth.UserIDFromContext(r.Context())
	user, err := h.users.UploadImage(r.Context(), userID, kind, header.Filename, file, header.Size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

// HandleChangeRole sets a user's role, subject to the role policy.
//
// HTTP: PUT /api/users/{id}/role
func (h *UserHandler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actorID, _ := auth.UserIDFromContext(r.Context())
	user, err := h.users.ChangeRole(r.Context(), actorID, r.PathValue("id"), model.Role(req.Role))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type banRequest struct {
	Banned *bool `json:"banned" validate:"required"`
}

// HandleBan bans or unbans a user.
//
// HTTP: PUT /api/users/{id}/ban
func (h *UserHandler) HandleBan(w http.ResponseWriter, r *http.Request) {
	var req banRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actorID, _ := auth.UserIDFromContext(r.Context())
	user, err := h.users.SetBanned(r.Context(), actorID, r.PathValue("id"), *req.Banned)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDelete removes an account and all its content.
//
// HTTP: DELETE /api/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	if err := h.users.Delete(r.Context(), actorID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
