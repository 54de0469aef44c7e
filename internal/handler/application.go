package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/community-hub/internal/auth"
	"github.com/sakif/community-hub/internal/service"
)

// ApplicationHandler covers the partner program: the question form,
// applying, and review.
type ApplicationHandler struct {
	applications *service.ApplicationService
	logger       *slog.Logger
}

func NewApplicationHandler(applications *service.ApplicationService, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, logger: logger}
}

// HandleQuestions returns the application form. Public so members can
// read it before applying.
//
// HTTP: GET /api/applications/questions
func (h *ApplicationHandler) HandleQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.applications.Questions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

type questionsRequest struct {
	Questions []string `json:"questions" validate:"required,max=20,dive,required,max=300"`
}

// HandleReplaceQuestions swaps the whole form. Leadership only.
//
// HTTP: PUT /api/applications/questions
func (h *ApplicationHandler) HandleReplaceQuestions(w http.ResponseWriter, r *http.Request) {
	var req questionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actorID, _ := auth.UserIDFromContext(r.Context())
	questions, err := h.applications.ReplaceQuestions(r.Context(), actorID, req.Questions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

type applyRequest struct {
	Answers []string `json:"answers" validate:"required,dive,required,max=2000"`
}

// HandleApply submits a partner application.
//
// HTTP: POST /api/applications
func (h *ApplicationHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actorID, _ := auth.UserIDFromContext(r.Context())
	app, err := h.applications.Apply(r.Context(), actorID, req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// HandlePending returns the review queue. Staff only.
//
// HTTP: GET /api/applications/pending
func (h *ApplicationHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	queue, err := h.applications.Pending(r.Context(), actorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queue)
}

// HandleApprove approves an application, promoting the applicant to
// partner in the same transaction.
//
// HTTP: PUT /api/applications/{id}/approve
func (h *ApplicationHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

// HandleDeny declines an application.
//
// HTTP: PUT /api/applications/{id}/deny
func (h *ApplicationHandler) HandleDeny(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

func (h *ApplicationHandler) review(w http.ResponseWriter, r *http.Request, approve bool) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	app, err := h.applications.Review(r.Context(), actorID, r.PathValue("id"), approve)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}
