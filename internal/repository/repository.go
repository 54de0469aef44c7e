// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation;
// tests substitute in-memory fakes.
//
// Mutations that touch more than one row (user deletion cascading to
// the user's content, section deletion clearing submission references,
// application review promoting the applicant) are single interface
// calls so the implementation can run them in one transaction; a
// partial cascade must never be observable.
package repository

import (
	"context"
	"time"

	"github.com/sakif/community-hub/internal/model"
)

type UserRepository interface {
	// CreateUser inserts a new account. The very first account in the
	// store is assigned the founder role, everyone after it member;
	// the count-and-insert runs atomically so two concurrent first
	// signups cannot both become founder.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	// UpsertGitHub inserts or refreshes an account keyed by GitHub ID.
	// New accounts go through the same founder bootstrap as Create.
	UpsertGitHub(ctx context.Context, user *model.User) error
	ListUsers(ctx context.Context) ([]model.User, error)
	ListPartners(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	SetPassword(ctx context.Context, id, passwordHash string) error
	SetRole(ctx context.Context, id string, role model.Role) error
	SetBanned(ctx context.Context, id string, banned bool) error
	// DeleteUserCascade removes the user together with their posts (and
	// those posts' comments/reactions), their comments and reactions
	// elsewhere, and their submissions, all in one transaction.
	DeleteUserCascade(ctx context.Context, id string) error
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id string) (*model.Post, error)
	// ListPosts returns posts newest-first with comments and reactions
	// attached.
	ListPosts(ctx context.Context) ([]model.Post, error)
	DeletePost(ctx context.Context, id string) error
	AddComment(ctx context.Context, comment *model.Comment) error
	// ToggleReaction adds the user's reaction if absent and removes it
	// if present, reporting whether it is now set.
	ToggleReaction(ctx context.Context, postID, emoji, userID string) (bool, error)
}

type SectionRepository interface {
	CreateSection(ctx context.Context, section *model.Section) error
	GetSectionByID(ctx context.Context, id string) (*model.Section, error)
	ListSections(ctx context.Context) ([]model.Section, error)
	// DeleteSection removes the section and clears SectionID on its
	// submissions in one transaction. Submissions are never deleted.
	DeleteSection(ctx context.Context, id string) error
}

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, sub *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	// ListApproved is the public feed query: approved only,
	// newest-first, optionally filtered to one section.
	ListApproved(ctx context.Context, sectionID string) ([]model.Submission, error)
	ListPending(ctx context.Context) ([]model.Submission, error)
	ListByAuthor(ctx context.Context, authorID string) ([]model.Submission, error)
	// SetSubmissionStatus records a moderation decision with its audit fields.
	SetSubmissionStatus(ctx context.Context, id string, status model.Status, reviewerID string, at time.Time) error
}

type ApplicationRepository interface {
	CreateApplication(ctx context.Context, app *model.Application) error
	GetApplicationByID(ctx context.Context, id string) (*model.Application, error)
	ListPendingApplications(ctx context.Context) ([]model.Application, error)
	HasPendingApplication(ctx context.Context, applicantID string) (bool, error)
	// ReviewApplication records the decision and, when promote is true,
	// moves the applicant from member to partner in the same transaction.
	ReviewApplication(ctx context.Context, id string, status model.ApplicationStatus, reviewerID string, at time.Time, promote bool) error
	ListQuestions(ctx context.Context) ([]model.Question, error)
	// ReplaceQuestions swaps the whole application form atomically.
	ReplaceQuestions(ctx context.Context, prompts []string) ([]model.Question, error)
}

type VideoRepository interface {
	CreateVideo(ctx context.Context, video *model.Video) error
	GetVideoByID(ctx context.Context, id string) (*model.Video, error)
	ListVideos(ctx context.Context) ([]model.Video, error)
	DeleteVideo(ctx context.Context, id string) error
	SetVideoThumbnail(ctx context.Context, id, url string) error
}

type ResetTokenRepository interface {
	CreateResetToken(ctx context.Context, token, userID string, expiresAt time.Time) error
	// ConsumeResetToken deletes the token and returns its user ID;
	// expired or unknown tokens are a not-found error.
	ConsumeResetToken(ctx context.Context, token string) (string, error)
}
