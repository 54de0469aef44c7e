package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/community-hub/internal/apperror"
	"github.com/sakif/community-hub/internal/live"
	"github.com/sakif/community-hub/internal/model"
	"github.com/sakif/community-hub/internal/policy"
	"github.com/sakif/community-hub/internal/repository"
	"github.com/sakif/community-hub/internal/storage"
)

const (
	MaxBioLength          = 500
	MaxPartnerDescription = 1000
	MaxPartnerLinks       = 10
)

// UserService covers profiles, the member directory, and the admin
// console actions (role changes, bans, account deletion).
type UserService struct {
	users  repository.UserRepository
	store  storage.ObjectStore // nil when object storage is not configured
	events live.Publisher
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, store storage.ObjectStore, events live.Publisher, logger *slog.Logger) *UserService {
	return &UserService{users: users, store: store, events: events, logger: logger}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetUserByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.ListUsers(ctx)
}

// ListPartners is the public partner directory: partner-role accounts
// that are not banned.
func (s *UserService) ListPartners(ctx context.Context) ([]model.User, error) {
	return s.users.ListPartners(ctx)
}

// ProfileUpdate carries the self-editable profile fields. Nil pointers
// mean "leave unchanged".
type ProfileUpdate struct {
	Username           *string
	Bio                *string
	Theme              *string
	PartnerDescription *string
	PartnerLinks       []string
}

// UpdateProfile lets a user edit their own profile. Role and ban status
// are not reachable from here; they have dedicated admin mutators.
func (s *UserService) UpdateProfile(ctx context.Context, actorID string, update ProfileUpdate) (*model.User, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireActive(actor); err != nil {
		return nil, err
	}

	if update.Username != nil {
		name := strings.TrimSpace(*update.Username)
		if len(name) < 3 || len(name) > MaxUsernameLength {
			return nil, apperror.ValidationFailed("username",
				fmt.Sprintf("username must be between 3 and %d characters", MaxUsernameLength))
		}
		actor.Username = name
	}
	if update.Bio != nil {
		if len(*update.Bio) > MaxBioLength {
			return nil, apperror.ValidationFailed("bio",
				fmt.Sprintf("bio must be %d characters or less", MaxBioLength))
		}
		actor.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.Theme != nil {
		theme := *update.Theme
		if theme != "dark" && theme != "light" {
			return nil, apperror.ValidationFailed("theme", "theme must be dark or light")
		}
		actor.Theme = theme
	}
	if update.PartnerDescription != nil || update.PartnerLinks != nil {
		if actor.Role != model.RolePartner && !actor.Role.Staff() {
			return nil, apperror.Forbidden("only partners can edit partner info")
		}
		if actor.Partner == nil {
			actor.Partner = &model.Partner{}
		}
		if update.PartnerDescription != nil {
			if len(*update.PartnerDescription) > MaxPartnerDescription {
				return nil, apperror.ValidationFailed("partnerDescription",
					fmt.Sprintf("partner description must be %d characters or less", MaxPartnerDescription))
			}
			actor.Partner.Description = strings.TrimSpace(*update.PartnerDescription)
		}
		if update.PartnerLinks != nil {
			if len(update.PartnerLinks) > MaxPartnerLinks {
				return nil, apperror.ValidationFailed("partnerLinks",
					fmt.Sprintf("at most %d links are allowed", MaxPartnerLinks))
			}
			actor.Partner.Links = update.PartnerLinks
		}
	}

	if err := s.users.UpdateProfile(ctx, actor); err != nil {
		return nil, err
	}

	s.events.Publish(live.TopicUsers, "updated", actor.ID)
	if actor.Role == model.RolePartner {
		s.events.Publish(live.TopicPartners, "updated", actor.ID)
	}
	return actor, nil
}

// UploadImage stores a profile picture or background and saves its URL
// on the account. kind is storage.KindAvatar or storage.KindBackground.
func (s *UserService) UploadImage(ctx context.Context, actorID, kind, fileName string, file io.Reader, size int64) (*model.User, error) {
	if s.store == nil {
		return nil, apperror.ValidationFailed("file", "image uploads are not enabled on this server")
	}

	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireActive(actor); err != nil {
		return nil, err
	}

	var oldURL string
	switch kind {
	case storage.KindAvatar:
		oldURL = actor.AvatarURL
	case storage.KindBackground:
		oldURL = actor.BackgroundURL
	default:
		return nil, fmt.Errorf("service/user: unknown image kind %q", kind)
	}

	url, err := s.store.UploadImage(ctx, kind, fileName, file, size)
	if err != nil {
		return nil, err
	}

	switch kind {
	case storage.KindAvatar:
		actor.AvatarURL = url
	case storage.KindBackground:
		actor.BackgroundURL = url
	}

	if err := s.users.UpdateProfile(ctx, actor); err != nil {
		return nil, err
	}

	// The replaced object is dead weight in the bucket once the new URL
	// is saved; a failed delete only leaks storage, so it never fails
	// the request.
	if objectName := s.store.ObjectNameFromURL(oldURL); objectName != "" {
		if err := s.store.DeleteImage(ctx, objectName); err != nil {
			s.logger.Warn("failed to delete replaced image",
				slog.String("object", objectName),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("profile image updated",
		slog.String("userID", actor.ID),
		slog.String("kind", kind),
	)
	s.events.Publish(live.TopicUsers, "updated", actor.ID)
	return actor, nil
}

// ChangeRole sets target's role, subject to the role policy: staff
// only, never your own role, the founder is immutable, admins cannot
// touch or grant staff roles.
func (s *UserService) ChangeRole(ctx context.Context, actorID, targetID string, newRole model.Role) (*model.User, error) {
	if !newRole.Valid() {
		return nil, apperror.ValidationFailed("role", fmt.Sprintf("unknown role %q", newRole))
	}

	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanChangeRole(actor, target, newRole); err != nil {
		return nil, err
	}

	if err := s.users.SetRole(ctx, targetID, newRole); err != nil {
		return nil, err
	}

	s.logger.Info("role changed",
		slog.String("actorID", actorID),
		slog.String("targetID", targetID),
		slog.String("from", string(target.Role)),
		slog.String("to", string(newRole)),
	)
	s.events.Publish(live.TopicUsers, "updated", targetID)
	if target.Role == model.RolePartner || newRole == model.RolePartner {
		s.events.Publish(live.TopicPartners, "updated", targetID)
	}

	target.Role = newRole
	return target, nil
}

// SetBanned bans or unbans target. Banned accounts keep read access
// but every mutation is denied at the policy layer.
func (s *UserService) SetBanned(ctx context.Context, actorID, targetID string, banned bool) (*model.User, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanBan(actor, target); err != nil {
		return nil, err
	}

	if err := s.users.SetBanned(ctx, targetID, banned); err != nil {
		return nil, err
	}

	s.logger.Info("ban status changed",
		slog.String("actorID", actorID),
		slog.String("targetID", targetID),
		slog.Bool("banned", banned),
	)
	s.events.Publish(live.TopicUsers, "updated", targetID)

	target.IsBanned = banned
	return target, nil
}

// Delete removes target's account and everything they authored in one
// transaction.
func (s *UserService) Delete(ctx context.Context, actorID, targetID string) error {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return err
	}
	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return err
	}
	if err := policy.CanDeleteUser(actor, target); err != nil {
		return err
	}

	if err := s.users.DeleteUserCascade(ctx, targetID); err != nil {
		return err
	}

	s.logger.Info("user deleted",
		slog.String("actorID", actorID),
		slog.String("targetID", targetID),
	)
	s.events.Publish(live.TopicUsers, "deleted", targetID)
	s.events.Publish(live.TopicPosts, "deleted", targetID)
	return nil
}
