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

func TestUserHandler_ChangeRole(t *testing.T) {
	env := newTestEnv(t)
	founder := env.seedUser(t, "founder", model.RoleFounder)
	admin := env.seedUser(t, "admin", model.RoleAdmin)
	member := env.seedUser(t, "member", model.RoleMember)
	h := handler.NewUserHandler(env.userService(), env.logger)

	change := func(actorID, targetID, role string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/users/"+targetID+"/role",
			bytes.NewBufferString(`{"role":"`+role+`"}`))
		req.SetPathValue("id", targetID)
		req = req.WithContext(auth.WithUserID(req.Context(), actorID))
		rr := httptest.NewRecorder()
		h.HandleChangeRole(rr, req)
		return rr
	}

	t.Run("founder promotes member", func(t *testing.T) {
		rr := change(founder.ID, member.ID, "partner")
		require.Equal(t, http.StatusOK, rr.Code)

		var user model.User
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&user))
		assert.Equal(t, model.RolePartner, user.Role)
	})

	t.Run("admin cannot demote founder", func(t *testing.T) {
		rr := change(admin.ID, founder.ID, "member")
		require.Equal(t, http.StatusForbidden, rr.Code)

		var resp handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Contains(t, resp.Message, "founder")
	})

	t.Run("admin cannot grant co-founder", func(t *testing.T) {
		rr := change(admin.ID, member.ID, "co-founder")
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		rr := change(founder.ID, member.ID, "emperor")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestUserHandler_Ban(t *testing.T) {
	env := newTestEnv(t)
	founder := env.seedUser(t, "founder", model.RoleFounder)
	member := env.seedUser(t, "member", model.RoleMember)
	h := handler.NewUserHandler(env.userService(), env.logger)

	ban := func(actorID, targetID string, banned bool) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]bool{"banned": banned})
		req := httptest.NewRequest(http.MethodPut, "/api/users/"+targetID+"/ban", bytes.NewBuffer(body))
		req.SetPathValue("id", targetID)
		req = req.WithContext(auth.WithUserID(req.Context(), actorID))
		rr := httptest.NewRecorder()
		h.HandleBan(rr, req)
		return rr
	}

	t.Run("founder bans member", func(t *testing.T) {
		rr := ban(founder.ID, member.ID, true)
		require.Equal(t, http.StatusOK, rr.Code)

		var user model.User
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&user))
		assert.True(t, user.IsBanned)
	})

	t.Run("self-ban denied", func(t *testing.T) {
		rr := ban(founder.ID, founder.ID, true)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestUserHandler_Delete(t *testing.T) {
	env := newTestEnv(t)
	founder := env.seedUser(t, "founder", model.RoleFounder)
	member := env.seedUser(t, "member", model.RoleMember)
	h := handler.NewUserHandler(env.userService(), env.logger)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/"+member.ID, nil)
	req.SetPathValue("id", member.ID)
	req = req.WithContext(auth.WithUserID(req.Context(), founder.ID))
	rr := httptest.NewRecorder()

	h.HandleDelete(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/api/users/"+member.ID, nil)
	getReq.SetPathValue("id", member.ID)
	getRR := httptest.NewRecorder()
	h.HandleGet(getRR, getReq)
	assert.Equal(t, http.StatusNotFound, getRR.Code)
}

func TestUserHandler_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	founder := env.seedUser(t, "founder", model.RoleFounder)
	h := handler.NewUserHandler(env.userService(), env.logger)

	t.Run("valid update", func(t *testing.T) {
		body := `{"bio":"hello","theme":"light"}`
		req := httptest.NewRequest(http.MethodPut, "/api/me/profile", bytes.NewBufferString(body))
		req = req.WithContext(auth.WithUserID(req.Context(), founder.ID))
		rr := httptest.NewRecorder()

		h.HandleUpdateProfile(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var user model.User
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&user))
		assert.Equal(t, "hello", user.Bio)
		assert.Equal(t, "light", user.Theme)
	})

	t.Run("bad theme rejected by validator", func(t *testing.T) {
		body := `{"theme":"sepia"}`
		req := httptest.NewRequest(http.MethodPut, "/api/me/profile", bytes.NewBufferString(body))
		req = req.WithContext(auth.WithUserID(req.Context(), founder.ID))
		rr := httptest.NewRecorder()

		h.HandleUpdateProfile(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestUserHandler_PartnerDirectoryHidesBanned(t *testing.T) {
	env := newTestEnv(t)
	founder := env.seedUser(t, "founder", model.RoleFounder)
	partner := env.seedUser(t, "partner", model.RolePartner)
	hidden := env.seedUser(t, "hidden", model.RolePartner)
	h := handler.NewUserHandler(env.userService(), env.logger)

	_, err := env.userService().SetBanned(t.Context(), founder.ID, hidden.ID, true)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/partners", nil)
	rr := httptest.NewRecorder()
	h.HandleListPartners(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var partners []model.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&partners))
	require.Len(t, partners, 1)
	assert.Equal(t, partner.ID, partners[0].ID)
}
