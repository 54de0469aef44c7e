package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// echoUserID responds with whatever user ID the middleware put in the
// request context, so tests can observe it from the outside.
func echoUserID() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := UserIDFromContext(r.Context())
		w.Write([]byte(id))
	})
}

func TestRequireAuth_ValidCookie(t *testing.T) {
	tokens := newTestTokenService(t)
	token, err := tokens.Generate("user-42")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rr := httptest.NewRecorder()

	RequireAuth(tokens)(echoUserID()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got := rr.Body.String(); got != "user-42" {
		t.Errorf("user ID in context = %q, want user-42", got)
	}
}

func TestRequireAuth_MissingCookie(t *testing.T) {
	tokens := newTestTokenService(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rr := httptest.NewRecorder()

	RequireAuth(tokens)(echoUserID()).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	tokens := newTestTokenService(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "not-a-jwt"})
	rr := httptest.NewRecorder()

	RequireAuth(tokens)(echoUserID()).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	tokens := newTestTokenService(t)
	token, err := tokens.GenerateWithDuration("user-42", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rr := httptest.NewRecorder()

	RequireAuth(tokens)(echoUserID()).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}
