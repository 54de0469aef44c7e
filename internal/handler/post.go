package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/community-hub/internal/auth"
	"github.com/sakif/community-hub/internal/service"
)

// PostHandler covers the announcement board: posts, comments,
// reactions.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

// HandleList returns all posts newest-first with comments and reactions
// attached.
//
// HTTP: GET /api/posts
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleGet returns one post.
//
// HTTP: GET /api/posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

type postRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=20000"`
}

// HandleCreate publishes a post. Staff only; the policy denial carries
// the reason.
//
// HTTP: POST /api/posts
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actorID, _ := auth.UserIDFromContext(r.Context())
	post, err := h.posts.Create(r.Context(), actorID, req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HandleDelete removes a post (author or staff).
//
// HTTP: DELETE /api/posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	if err := h.posts.Delete(r.Context(), actorID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type commentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// HandleAddComment appends a comment to a post.
//
// HTTP: POST /api/posts/{id}/comments
func (h *PostHandler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actorID, _ := auth.UserIDFromContext(r.Context())
	comment, err := h.posts.AddComment(r.Context(), actorID, r.PathValue("id"), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// HandleToggleReaction flips the caller's emoji reaction on a post.
//
// HTTP: PUT /api/posts/{id}/reactions/{emoji}
func (h *PostHandler) HandleToggleReaction(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	set, err := h.posts.ToggleReaction(r.Context(), actorID, r.PathValue("id"), r.PathValue("emoji"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"reacted": set})
}
