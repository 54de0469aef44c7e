package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/community-hub/internal/auth"
	"github.com/sakif/community-hub/internal/service"
)

// SubmissionHandler covers sections, the moderated submission queue,
// and the public code feed.
type SubmissionHandler struct {
	submissions *service.SubmissionService
	sections    *service.SectionService
	logger      *slog.Logger
}

func NewSubmissionHandler(submissions *service.SubmissionService, sections *service.SectionService, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, sections: sections, logger: logger}
}

// HandleListSections returns all sections.
//
// HTTP: GET /api/sections
func (h *SubmissionHandler) HandleListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.sections.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

type sectionRequest struct {
	Name string `json:"name" validate:"required,max=60"`
}

// HandleCreateSection adds a section. Admins and the founder only.
//
// HTTP: POST /api/sections
func (h *SubmissionHandler) HandleCreateSection(w http.ResponseWriter, r *http.Request) {
	var req sectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actorID, _ := auth.UserIDFromContext(r.Context())
	section, err := h.sections.Create(r.Context(), actorID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, section)
}

// HandleDeleteSection removes a section; its submissions survive with
// the section reference cleared.
//
// HTTP: DELETE /api/sections/{id}
func (h *SubmissionHandler) HandleDeleteSection(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	if err := h.sections.Delete(r.Context(), actorID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFeed returns approved submissions newest-first, optionally
// filtered with ?section=<id>. This endpoint never shows pending or
// rejected entries.
//
// HTTP: GET /api/feed
func (h *SubmissionHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.submissions.Feed(r.Context(), r.URL.Query().Get("section"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

type submissionRequest struct {
	Title     string `json:"title" validate:"required,max=120"`
	Code      string `json:"codeContent" validate:"required,max=100000"`
	Language  string `json:"language" validate:"omitempty,max=40"`
	SectionID string `json:"sectionId" validate:"omitempty,max=40"`
}

// HandleSubmit queues a code post for moderation.
//
// HTTP: POST /api/submissions
func (h *SubmissionHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actorID, _ := auth.UserIDFromContext(r.Context())
	sub, err := h.submissions.Submit(r.Context(), actorID, req.Title, req.Code, req.Language, req.SectionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// HandlePending returns the moderation queue. Staff only.
//
// HTTP: GET /api/submissions/pending
func (h *SubmissionHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	queue, err := h.submissions.Pending(r.Context(), actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queue)
}

// HandleMine returns the caller's own submissions in every status.
//
// HTTP: GET /api/me/submissions
func (h *SubmissionHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	mine, err := h.submissions.Mine(r.Context(), actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mine)
}

// HandleApprove publishes a pending submission to the feed.
//
// HTTP: PUT /api/submissions/{id}/approve
func (h *SubmissionHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

// HandleReject declines a pending submission.
//
// HTTP: PUT /api/submissions/{id}/reject
func (h *SubmissionHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

func (h *SubmissionHandler) review(w http.ResponseWriter, r *http.Request, approve bool) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	sub, err := h.submissions.Review(r.Context(), actorID, r.PathValue("id"), approve)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
