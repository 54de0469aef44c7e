package service

import (
	"context"
	"errors"
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
	MaxSubmissionTitle = 120
	MaxSubmissionCode  = 100000
)

// SubmissionService runs the moderated code-sharing pipeline: anyone
// may submit, every submission starts pending, and only approved
// submissions reach the public feed.
type SubmissionService struct {
	submissions repository.SubmissionRepository
	sections    repository.SectionRepository
	users       repository.UserRepository
	events      live.Publisher
	logger      *slog.Logger
}

func NewSubmissionService(
	submissions repository.SubmissionRepository,
	sections repository.SectionRepository,
	users repository.UserRepository,
	events live.Publisher,
	logger *slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		sections:    sections,
		users:       users,
		events:      events,
		logger:      logger,
	}
}

// Submit queues a code post for review. The status is always pending
// here, whatever the submitter's role; staff go through the same queue.
func (s *SubmissionService) Submit(ctx context.Context, actorID, title, code, language, sectionID string) (*model.Submission, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanSubmitCode(actor); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "submission title is required")
	}
	if len(title) > MaxSubmissionTitle {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("submission title must be %d characters or less", MaxSubmissionTitle))
	}
	if strings.TrimSpace(code) == "" {
		return nil, apperror.ValidationFailed("codeContent", "code content is required")
	}
	if len(code) > MaxSubmissionCode {
		return nil, apperror.ValidationFailed("codeContent",
			fmt.Sprintf("code must be %d characters or less", MaxSubmissionCode))
	}

	sectionID = strings.TrimSpace(sectionID)
	if sectionID != "" {
		if _, err := s.sections.GetSectionByID(ctx, sectionID); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return nil, apperror.ValidationFailed("sectionId", "section does not exist")
			}
			return nil, err
		}
	}

	sub := &model.Submission{
		Title:      title,
		Code:       code,
		Language:   strings.TrimSpace(language),
		AuthorID:   actor.ID,
		AuthorName: actor.Username,
		SectionID:  sectionID,
		Status:     model.StatusPending,
	}
	if err := s.submissions.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("submission queued",
		slog.String("submissionID", sub.ID),
		slog.String("authorID", actor.ID),
	)
	s.events.Publish(live.TopicSubmissions, "created", sub.ID)
	return sub, nil
}

// Feed returns the approved submissions newest-first, optionally
// filtered to one section. Pending and rejected entries never appear
// here regardless of the caller.
func (s *SubmissionService) Feed(ctx context.Context, sectionID string) ([]model.Submission, error) {
	return s.submissions.ListApproved(ctx, strings.TrimSpace(sectionID))
}

// Pending returns the review queue. Staff only.
func (s *SubmissionService) Pending(ctx context.Context, actorID string) ([]model.Submission, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanModerate(actor); err != nil {
		return nil, err
	}
	return s.submissions.ListPending(ctx)
}

// Mine returns the actor's own submissions in every status, so users
// can see where their work stands.
func (s *SubmissionService) Mine(ctx context.Context, actorID string) ([]model.Submission, error) {
	return s.submissions.ListByAuthor(ctx, actorID)
}

// Review approves or rejects a pending submission. The audit fields
// (reviewer, time) are assigned here, never taken from the request.
func (s *SubmissionService) Review(ctx context.Context, actorID, submissionID string, approve bool) (*model.Submission, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanModerate(actor); err != nil {
		return nil, err
	}

	sub, err := s.submissions.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != model.StatusPending {
		return nil, apperror.Conflict("submission", submissionID)
	}

	status := model.StatusRejected
	action := "rejected"
	if approve {
		status = model.StatusApproved
		action = "approved"
	}

	now := time.Now()
	if err := s.submissions.SetSubmissionStatus(ctx, submissionID, status, actor.ID, now); err != nil {
		return nil, err
	}

	s.logger.Info("submission reviewed",
		slog.String("submissionID", submissionID),
		slog.String("reviewerID", actor.ID),
		slog.String("status", string(status)),
	)
	s.events.Publish(live.TopicSubmissions, action, submissionID)
	if approve {
		s.events.Publish(live.TopicFeed, "created", submissionID)
	}

	sub.Status = status
	sub.ApprovedBy = actor.ID
	sub.ApprovedAt = &now
	return sub, nil
}
