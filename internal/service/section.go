package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/community-hub/internal/apperror"
	"github.com/sakif/community-hub/internal/live"
	"github.com/sakif/community-hub/internal/model"
	"github.com/sakif/community-hub/internal/policy"
	"github.com/sakif/community-hub/internal/repository"
)

const MaxSectionNameLength = 60

// SectionService manages the sections the code feed is organised into.
type SectionService struct {
	sections repository.SectionRepository
	users    repository.UserRepository
	events   live.Publisher
	logger   *slog.Logger
}

func NewSectionService(sections repository.SectionRepository, users repository.UserRepository, events live.Publisher, logger *slog.Logger) *SectionService {
	return &SectionService{sections: sections, users: users, events: events, logger: logger}
}

func (s *SectionService) Create(ctx context.Context, actorID, name string) (*model.Section, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanManageSections(actor); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "section name is required")
	}
	if len(name) > MaxSectionNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("section name must be %d characters or less", MaxSectionNameLength))
	}

	section := &model.Section{Name: name, CreatedBy: actor.ID}
	if err := s.sections.CreateSection(ctx, section); err != nil {
		return nil, err
	}

	s.logger.Info("section created",
		slog.String("sectionID", section.ID),
		slog.String("name", section.Name),
		slog.String("actorID", actorID),
	)
	s.events.Publish(live.TopicSections, "created", section.ID)
	return section, nil
}

func (s *SectionService) List(ctx context.Context) ([]model.Section, error) {
	return s.sections.ListSections(ctx)
}

// Delete removes a section. Its submissions survive with their section
// reference cleared; the repository runs both steps in one transaction.
func (s *SectionService) Delete(ctx context.Context, actorID, sectionID string) error {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return err
	}
	if err := policy.CanManageSections(actor); err != nil {
		return err
	}

	if err := s.sections.DeleteSection(ctx, sectionID); err != nil {
		return err
	}

	s.logger.Info("section deleted",
		slog.String("sectionID", sectionID),
		slog.String("actorID", actorID),
	)
	s.events.Publish(live.TopicSections, "deleted", sectionID)
	s.events.Publish(live.TopicFeed, "updated", sectionID)
	return nil
}
