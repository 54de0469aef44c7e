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

const (
	MaxPostTitleLength   = 200
	MaxPostContentLength = 20000
	MaxCommentLength     = 2000
	MaxEmojiLength       = 16
)

// PostService handles announcement posts, their comments, and
// reactions. Creating a post is a staff action; commenting and reacting
// are open to every active account.
type PostService struct {
	posts  repository.PostRepository
	users  repository.UserRepository
	events live.Publisher
	logger *slog.Logger
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository, events live.Publisher, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, users: users, events: events, logger: logger}
}

func (s *PostService) Create(ctx context.Context, actorID, title, content string) (*model.Post, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanCreatePost(actor); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "post title is required")
	}
	if len(title) > MaxPostTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("post title must be %d characters or less", MaxPostTitleLength))
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "post content is required")
	}
	if len(content) > MaxPostContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("post content must be %d characters or less", MaxPostContentLength))
	}

	post := &model.Post{
		Title:          title,
		Content:        content,
		AuthorID:       actor.ID,
		AuthorUsername: actor.Username,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post created",
		slog.String("postID", post.ID),
		slog.String("authorID", actor.ID),
	)
	s.events.Publish(live.TopicPosts, "created", post.ID)
	return post, nil
}

func (s *PostService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}
	return s.posts.GetPostByID(ctx, id)
}

func (s *PostService) List(ctx context.Context) ([]model.Post, error) {
	return s.posts.ListPosts(ctx)
}

// Delete removes a post. Staff may delete any post; the author may
// delete their own.
func (s *PostService) Delete(ctx context.Context, actorID, postID string) error {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return err
	}
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return err
	}

	if post.AuthorID != actor.ID {
		if err := policy.CanModerate(actor); err != nil {
			return err
		}
	} else if err := policy.RequireActive(actor); err != nil {
		return err
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return err
	}

	s.logger.Info("post deleted",
		slog.String("postID", postID),
		slog.String("actorID", actorID),
	)
	s.events.Publish(live.TopicPosts, "deleted", postID)
	return nil
}

func (s *PostService) AddComment(ctx context.Context, actorID, postID, text string) (*model.Comment, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanComment(actor); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("text", "comment text is required")
	}
	if len(text) > MaxCommentLength {
		return nil, apperror.ValidationFailed("text",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}

	comment := &model.Comment{
		PostID:         postID,
		AuthorID:       actor.ID,
		AuthorUsername: actor.Username,
		Text:           text,
	}
	if err := s.posts.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	s.events.Publish(live.TopicPosts, "updated", postID)
	return comment, nil
}

// ToggleReaction flips the actor's emoji reaction on a post and reports
// whether it is now set.
func (s *PostService) ToggleReaction(ctx context.Context, actorID, postID, emoji string) (bool, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return false, err
	}
	if err := policy.CanComment(actor); err != nil {
		return false, err
	}

	emoji = strings.TrimSpace(emoji)
	if emoji == "" || len(emoji) > MaxEmojiLength {
		return false, apperror.ValidationFailed("emoji", "reaction emoji is invalid")
	}

	set, err := s.posts.ToggleReaction(ctx, postID, emoji, actor.ID)
	if err != nil {
		return false, err
	}

	s.events.Publish(live.TopicPosts, "updated", postID)
	return set, nil
}
