package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/community-hub/internal/apperror"
	"github.com/sakif/community-hub/internal/live"
	"github.com/sakif/community-hub/internal/model"
	"github.com/sakif/community-hub/internal/policy"
	"github.com/sakif/community-hub/internal/repository"
)

const (
	MaxQuestionLength = 300
	MaxAnswerLength   = 2000
	MaxQuestions      = 20
)

// ApplicationService runs the partner program: the leadership curates
// the question list, members apply, staff review, and approval promotes
// the applicant to partner.
type ApplicationService struct {
	applications repository.ApplicationRepository
	users        repository.UserRepository
	events       live.Publisher
	logger       *slog.Logger
}

func NewApplicationService(
	applications repository.ApplicationRepository,
	users repository.UserRepository,
	events live.Publisher,
	logger *slog.Logger,
) *ApplicationService {
	return &ApplicationService{
		applications: applications,
		users:        users,
		events:       events,
		logger:       logger,
	}
}

// Questions returns the live application form. Public: applicants need
// it before they are partners.
func (s *ApplicationService) Questions(ctx context.Context) ([]model.Question, error) {
	return s.applications.ListQuestions(ctx)
}

// ReplaceQuestions swaps the whole form atomically. Leadership only.
func (s *ApplicationService) ReplaceQuestions(ctx context.Context, actorID string, prompts []string) ([]model.Question, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanManageQuestions(actor); err != nil {
		return nil, err
	}

	if len(prompts) > MaxQuestions {
		return nil, apperror.ValidationFailed("questions",
			fmt.Sprintf("at most %d questions are allowed", MaxQuestions))
	}
	cleaned := make([]string, 0, len(prompts))
	for _, prompt := range prompts {
		prompt = strings.TrimSpace(prompt)
		if prompt == "" {
			return nil, apperror.ValidationFailed("questions", "questions must not be empty")
		}
		if len(prompt) > MaxQuestionLength {
			return nil, apperror.ValidationFailed("questions",
				fmt.Sprintf("questions must be %d characters or less", MaxQuestionLength))
		}
		cleaned = append(cleaned, prompt)
	}

	questions, err := s.applications.ReplaceQuestions(ctx, cleaned)
	if err != nil {
		return nil, err
	}

	s.logger.Info("application questions replaced",
		slog.String("actorID", actorID),
		slog.Int("count", len(questions)),
	)
	s.events.Publish(live.TopicApplications, "updated", "questions")
	return questions, nil
}

// Apply submits a partner application. One pending application per
// user; partners and staff have nothing to apply for.
func (s *ApplicationService) Apply(ctx context.Context, actorID string, answers []string) (*model.Application, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireActive(actor); err != nil {
		return nil, err
	}
	if actor.Role != model.RoleMember {
		return nil, apperror.Forbidden("only members can apply for the partner program")
	}

	questions, err := s.applications.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if len(answers) != len(questions) {
		return nil, apperror.ValidationFailed("answers",
			fmt.Sprintf("expected %d answers, got %d", len(questions), len(answers)))
	}
	for i, answer := range answers {
		if strings.TrimSpace(answer) == "" {
			return nil, apperror.ValidationFailed("answers",
				fmt.Sprintf("answer %d must not be empty", i+1))
		}
		if len(answer) > MaxAnswerLength {
			return nil, apperror.ValidationFailed("answers",
				fmt.Sprintf("answers must be %d characters or less", MaxAnswerLength))
		}
	}

	pending, err := s.applications.HasPendingApplication(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, apperror.Conflict("application", actor.ID)
	}

	app := &model.Application{
		ApplicantID: actor.ID,
		Status:      model.ApplicationPending,
		Answers:     answers,
	}
	if err := s.applications.CreateApplication(ctx, app); err != nil {
		return nil, err
	}

	s.logger.Info("partner application submitted",
		slog.String("applicationID", app.ID),
		slog.String("applicantID", actor.ID),
	)
	s.events.Publish(live.TopicApplications, "created", app.ID)
	return app, nil
}

// Pending returns the review queue. Staff only.
func (s *ApplicationService) Pending(ctx context.Context, actorID string) ([]model.Application, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReviewApplications(actor); err != nil {
		return nil, err
	}
	return s.applications.ListPendingApplications(ctx)
}

// Review approves or denies an application. Approval promotes the
// applicant member→partner in the same transaction as the status
// change; a crash can never leave an approved application with an
// unpromoted applicant.
func (s *ApplicationService) Review(ctx context.Context, actorID, applicationID string, approve bool) (*model.Application, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanReviewApplications(actor); err != nil {
		return nil, err
	}

	app, err := s.applications.GetApplicationByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	status := model.ApplicationDenied
	action := "denied"
	if approve {
		status = model.ApplicationApproved
		action = "approved"
	}

	now := time.Now()
	if err := s.applications.ReviewApplication(ctx, applicationID, status, actor.ID, now, approve); err != nil {
		return nil, err
	}

	s.logger.Info("partner application reviewed",
		slog.String("applicationID", applicationID),
		slog.String("reviewerID", actor.ID),
		slog.String("status", string(status)),
	)
	s.events.Publish(live.TopicApplications, action, applicationID)
	if approve {
		s.events.Publish(live.TopicUsers, "updated", app.ApplicantID)
		s.events.Publish(live.TopicPartners, "created", app.ApplicantID)
	}

	app.Status = status
	app.ReviewedBy = actor.ID
	app.ReviewedAt = &now
	return app, nil
}
