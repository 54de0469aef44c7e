package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/community-hub/internal/auth"
	"github.com/sakif/community-hub/internal/handler"
	"github.com/sakif/community-hub/internal/model"
)

func TestSubmissionHandler_ModerationGate(t *testing.T) {
	env := newTestEnv(t)
	founder := env.seedUser(t, "founder", model.RoleFounder)
	member := env.seedUser(t, "member", model.RoleMember)
	h := handler.NewSubmissionHandler(env.submissionService(), env.sectionService(), env.logger)

	feed := func() []model.Submission {
		req := httptest.NewRequest(http.MethodGet, "/api/feed", nil)
		rr := httptest.NewRecorder()
		h.HandleFeed(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var entries []model.Submission
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&entries))
		return entries
	}

	// Member submits; the response is pending regardless of the payload.
	body := `{"title":"fizzbuzz","codeContent":"print(1)","language":"python"}`
	req := httptest.NewRequest(http.MethodPost, "/api/submissions", bytes.NewBufferString(body))
	req = req.WithContext(auth.WithUserID(req.Context(), member.ID))
	rr := httptest.NewRecorder()
	h.HandleSubmit(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var sub model.Submission
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&sub))
	assert.Equal(t, model.StatusPending, sub.Status)
	assert.Empty(t, feed(), "pending submission must not reach the feed")

	// Member cannot approve their own work.
	req = httptest.NewRequest(http.MethodPut, "/api/submissions/"+sub.ID+"/approve", nil)
	req.SetPathValue("id", sub.ID)
	req = req.WithContext(auth.WithUserID(req.Context(), member.ID))
	rr = httptest.NewRecorder()
	h.HandleApprove(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Founder approves; the submission surfaces with audit fields set.
	req = httptest.NewRequest(http.MethodPut, "/api/submissions/"+sub.ID+"/approve", nil)
	req.SetPathValue("id", sub.ID)
	req = req.WithContext(auth.WithUserID(req.Context(), founder.ID))
	rr = httptest.NewRecorder()
	h.HandleApprove(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var approved model.Submission
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&approved))
	assert.Equal(t, model.StatusApproved, approved.Status)
	assert.Equal(t, founder.ID, approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	entries := feed()
	require.Len(t, entries, 1)
	assert.Equal(t, sub.ID, entries[0].ID)
}

func TestSubmissionHandler_Sections(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin", model.RoleAdmin)
	co := env.seedUser(t, "co", model.RoleCoFounder)
	h := handler.NewSubmissionHandler(env.submissionService(), env.sectionService(), env.logger)

	t.Run("admin creates section", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sections",
			bytes.NewBufferString(`{"name":"Algorithms"}`))
		req = req.WithContext(auth.WithUserID(req.Context(), admin.ID))
		rr := httptest.NewRecorder()

		h.HandleCreateSection(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("co-founder cannot manage sections", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sections",
			bytes.NewBufferString(`{"name":"Frontend"}`))
		req = req.WithContext(auth.WithUserID(req.Context(), co.ID))
		rr := httptest.NewRecorder()

		h.HandleCreateSection(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sections",
			bytes.NewBufferString(`{"name":"Algorithms"}`))
		req = req.WithContext(auth.WithUserID(req.Context(), admin.ID))
		rr := httptest.NewRecorder()

		h.HandleCreateSection(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestSubmissionHandler_PendingQueueStaffOnly(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "founder", model.RoleFounder)
	member := env.seedUser(t, "member", model.RoleMember)
	h := handler.NewSubmissionHandler(env.submissionService(), env.sectionService(), env.logger)

	req := httptest.NewRequest(http.MethodGet, "/api/submissions/pending", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), member.ID))
	rr := httptest.NewRecorder()

	h.HandlePending(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
