// Package service implements the business rules between the HTTP
// handlers and the repositories.
//
//	Handler (HTTP)  → Service (rules)  → Repository (SQL)
//	                ↘ policy (permissions)
//	                ↘ live (change events)
//
// Every mutator follows the same shape: resolve the acting user, ask
// the policy package for permission, assign server-side fields
// (timestamps, audit columns), make a single repository call, publish a
// live event. Services accept primitives and return domain errors; they
// never see HTTP types.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/sakif/community-hub/internal/apperror"
	"github.com/sakif/community-hub/internal/auth"
	"github.com/sakif/community-hub/internal/model"
	"github.com/sakif/community-hub/internal/repository"
)

const (
	MinPasswordLength = 8
	MaxUsernameLength = 30
	resetTokenTTL     = time.Hour
)

// ResetMailer is the slice of the mailer AuthService needs; tests
// substitute a recording fake.
type ResetMailer interface {
	SendPasswordReset(toEmail, token string) error
}

// AuthService handles signup, login, GitHub OAuth, and password reset.
type AuthService struct {
	users     repository.UserRepository
	resets    repository.ResetTokenRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	mailer    ResetMailer
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	resets repository.ResetTokenRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	mailer ResetMailer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		resets:    resets,
		tokens:    tokens,
		passwords: passwords,
		mailer:    mailer,
		logger:    logger,
	}
}

// AuthResult bundles the user and their session token so the handler
// can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates an email/password account and signs it in. The
// repository decides the role: the very first account becomes founder,
// everyone after that member.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if len(username) < 3 || len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be between 3 and %d characters", MaxUsernameLength))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "email address is invalid")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Theme:        "dark",
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
		slog.String("role", string(user.Role)),
	)

	return s.issue(user)
}

// Login verifies an email/password pair. A wrong email and a wrong
// password return the same message so the endpoint cannot be used to
// probe which addresses have accounts. Banned users may still sign in;
// the ban blocks mutations, not reading.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, err
	}

	// OAuth accounts have no password hash; same message as a bad
	// password.
	if user.PasswordHash == "" {
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

// LoginOrRegisterGitHub completes the OAuth callback: upsert the
// account keyed by GitHub ID, then sign it in. First-time GitHub users
// go through the same founder bootstrap as email signups.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID:  ghUser.ID,
		Username:  ghUser.Login,
		Email:     strings.ToLower(ghUser.Email),
		AvatarURL: ghUser.AvatarURL,
		Theme:     "dark",
	}
	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return s.issue(user)
}

// GetUserByID looks up the signed-in user's record. Used by /api/me
// after the middleware validates the cookie.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthorized("you must be signed in")
	}
	return s.users.GetUserByID(ctx, id)
}

// ValidateToken returns the user ID a session token encodes.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", apperror.Unauthorized("session is invalid or expired")
	}
	return userID, nil
}

// RequestPasswordReset issues a single-use reset token and mails it to
// the account. Unknown addresses succeed silently so the endpoint does
// not reveal which emails are registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	if err := s.resets.CreateResetToken(ctx, token, user.ID, time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(user.Email, token); err != nil {
		s.logger.Error("failed to send password reset email",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("service/auth: sending reset email: %w", err)
	}

	s.logger.Info("password reset issued", slog.String("userID", user.ID))
	return nil
}

// ConfirmPasswordReset consumes the token and sets the new password.
// The token is deleted even if it turns out expired, so it can never be
// retried.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	userID, err := s.resets.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Unauthorized("reset link is invalid or expired")
		}
		return err
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return apperror.ValidationFailed("password", err.Error())
	}
	if err := s.users.SetPassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("password reset completed", slog.String("userID", userID))
	return nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// newResetToken returns 32 bytes of crypto-grade randomness as hex.
// Reset tokens guard account takeover, so xid (which encodes time and
// machine ID) is not good enough here.
func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("service/auth: generating reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
