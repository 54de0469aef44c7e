package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/community-hub/internal/apperror"
	"github.com/sakif/community-hub/internal/auth"
	"github.com/sakif/community-hub/internal/model"
	"github.com/sakif/community-hub/internal/repository/sqlite"
)

type fakeMailer struct {
	lastEmail string
	lastToken string
}

func (m *fakeMailer) SendPasswordReset(toEmail, token string) error {
	m.lastEmail = toEmail
	m.lastToken = token
	return nil
}

func newAuthService(t *testing.T) (*AuthService, *sqlite.DB, *fakeMailer) {
	t.Helper()
	db := newTestDB(t)
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars", 0)
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}
	mailer := &fakeMailer{}
	svc := NewAuthService(db, db, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), mailer, testLogger())
	return svc, db, mailer
}

func TestRegister_FirstUserIsFounder(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if first.User.Role != model.RoleFounder {
		t.Errorf("first user role = %s, want founder", first.User.Role)
	}
	if first.Token == "" {
		t.Error("expected a session token")
	}

	second, err := svc.Register(ctx, "bob", "bob@example.com", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if second.User.Role != model.RoleMember {
		t.Errorf("second user role = %s, want member", second.User.Role)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"short username", "ab", "a@example.com", "password123"},
		{"bad email", "alice", "not-an-email", "password123"},
		{"short password", "alice", "a@example.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Login(ctx, "Alice@Example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.Username != "alice" {
		t.Errorf("logged in user = %s, want alice", result.User.Username)
	}

	if _, err := svc.Login(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("wrong password error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("unknown email error = %v, want ErrUnauthorized", err)
	}
}

func TestLogin_OAuthAccountHasNoPassword(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	gh := &auth.GitHubUser{ID: 42, Login: "octo", Email: "octo@example.com"}
	if _, err := svc.LoginOrRegisterGitHub(ctx, gh); err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}

	_, err := svc.Login(ctx, "octo@example.com", "anything")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("password login on OAuth account error = %v, want ErrUnauthorized", err)
	}
}

func TestLoginOrRegisterGitHub_KeepsAccount(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	gh := &auth.GitHubUser{ID: 42, Login: "octo", Email: "octo@example.com", AvatarURL: "a1"}
	first, err := svc.LoginOrRegisterGitHub(ctx, gh)
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}

	gh.AvatarURL = "a2"
	second, err := svc.LoginOrRegisterGitHub(ctx, gh)
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Errorf("second login created a new account: %s != %s", second.User.ID, first.User.ID)
	}
	if second.User.AvatarURL != "a2" {
		t.Errorf("avatar not refreshed: %s", second.User.AvatarURL)
	}
}

func TestValidateToken_RoundTrip(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	userID, err := svc.ValidateToken(result.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if userID != result.User.ID {
		t.Errorf("token subject = %s, want %s", userID, result.User.ID)
	}

	if _, err := svc.ValidateToken("garbage"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("garbage token error = %v, want ErrUnauthorized", err)
	}
}

func TestPasswordReset_Flow(t *testing.T) {
	svc, _, mailer := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if mailer.lastToken == "" {
		t.Fatal("expected a reset token to be mailed")
	}
	if mailer.lastEmail != "alice@example.com" {
		t.Errorf("reset mailed to %s", mailer.lastEmail)
	}

	if err := svc.ConfirmPasswordReset(ctx, mailer.lastToken, "new-password-1"); err != nil {
		t.Fatalf("ConfirmPasswordReset() error = %v", err)
	}

	if _, err := svc.Login(ctx, "alice@example.com", "password123"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("old password still works after reset")
	}
	if _, err := svc.Login(ctx, "alice@example.com", "new-password-1"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	// Single use.
	if err := svc.ConfirmPasswordReset(ctx, mailer.lastToken, "another-pass-1"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("reused token error = %v, want ErrUnauthorized", err)
	}
}

func TestPasswordReset_UnknownEmailSilent(t *testing.T) {
	svc, _, mailer := newAuthService(t)

	if err := svc.RequestPasswordReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if mailer.lastToken != "" {
		t.Error("no mail should be sent for unknown addresses")
	}
}
