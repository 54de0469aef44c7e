package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sakif/community-hub/internal/apperror"
	"github.com/sakif/community-hub/internal/live"
	"github.com/sakif/community-hub/internal/model"
	"github.com/sakif/community-hub/internal/policy"
	"github.com/sakif/community-hub/internal/repository"
	"github.com/sakif/community-hub/internal/storage"
)

const (
	MaxVideoNameLength        = 150
	MaxVideoDescriptionLength = 2000
)

// VideoService manages the shared YouTube video list. Staff curate it;
// everyone can read it.
type VideoService struct {
	videos repository.VideoRepository
	users  repository.UserRepository
	store  storage.ObjectStore // nil when object storage is not configured
	events live.Publisher
	logger *slog.Logger
}

func NewVideoService(
	videos repository.VideoRepository,
	users repository.UserRepository,
	store storage.ObjectStore,
	events live.Publisher,
	logger *slog.Logger,
) *VideoService {
	return &VideoService{videos: videos, users: users, store: store, events: events, logger: logger}
}

func (s *VideoService) Create(ctx context.Context, actorID, name, youtubeLink, description string) (*model.Video, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanManageVideos(actor); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "video name is required")
	}
	if len(name) > MaxVideoNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("video name must be %d characters or less", MaxVideoNameLength))
	}
	if len(description) > MaxVideoDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxVideoDescriptionLength))
	}

	videoID, err := ExtractYouTubeID(youtubeLink)
	if err != nil {
		return nil, err
	}

	video := &model.Video{
		Name:           name,
		YouTubeLink:    strings.TrimSpace(youtubeLink),
		YouTubeVideoID: videoID,
		Description:    strings.TrimSpace(description),
		AuthorID:       actor.ID,
	}
	if err := s.videos.CreateVideo(ctx, video); err != nil {
		return nil, err
	}

	s.logger.Info("video added",
		slog.String("videoID", video.ID),
		slog.String("youtubeVideoID", videoID),
		slog.String("actorID", actorID),
	)
	s.events.Publish(live.TopicVideos, "created", video.ID)
	return video, nil
}

func (s *VideoService) List(ctx context.Context) ([]model.Video, error) {
	return s.videos.ListVideos(ctx)
}

func (s *VideoService) Delete(ctx context.Context, actorID, videoID string) error {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return err
	}
	if err := policy.CanManageVideos(actor); err != nil {
		return err
	}

	if err := s.videos.DeleteVideo(ctx, videoID); err != nil {
		return err
	}

	s.logger.Info("video removed",
		slog.String("videoID", videoID),
		slog.String("actorID", actorID),
	)
	s.events.Publish(live.TopicVideos, "deleted", videoID)
	return nil
}

// UploadThumbnail stores a custom thumbnail and saves its URL on the
// video.
func (s *VideoService) UploadThumbnail(ctx context.Context, actorID, videoID, fileName string, file io.Reader, size int64) (*model.Video, error) {
	if s.store == nil {
		return nil, apperror.ValidationFailed("file", "image uploads are not enabled on this server")
	}

	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanManageVideos(actor); err != nil {
		return nil, err
	}

	video, err := s.videos.GetVideoByID(ctx, videoID)
	if err != nil {
		return nil, err
	}

	thumbURL, err := s.store.UploadImage(ctx, storage.KindThumbnail, fileName, file, size)
	if err != nil {
		return nil, err
	}
	if err := s.videos.SetVideoThumbnail(ctx, videoID, thumbURL); err != nil {
		return nil, err
	}

	// Replacing a thumbnail orphans the old object; reclaim it, but a
	// failed delete never fails the request.
	if objectName := s.store.ObjectNameFromURL(video.ThumbnailURL); objectName != "" {
		if err := s.store.DeleteImage(ctx, objectName); err != nil {
			s.logger.Warn("failed to delete replaced thumbnail",
				slog.String("object", objectName),
				slog.String("error", err.Error()),
			)
		}
	}

	s.events.Publish(live.TopicVideos, "updated", videoID)
	video.ThumbnailURL = thumbURL
	return video, nil
}

// ExtractYouTubeID pulls the 11-character video ID out of the usual
// YouTube URL shapes: watch?v=, youtu.be/, shorts/, embed/.
func ExtractYouTubeID(link string) (string, error) {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "", apperror.ValidationFailed("youtubeLink", "link is not a valid URL")
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	var id string
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		case strings.HasPrefix(u.Path, "/live/"):
			id = strings.TrimPrefix(u.Path, "/live/")
		}
	case "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	}

	id = strings.TrimSuffix(id, "/")
	if !validYouTubeID(id) {
		return "", apperror.ValidationFailed("youtubeLink", "link does not point to a YouTube video")
	}
	return id, nil
}

func validYouTubeID(id string) bool {
	if len(id) != 11 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
