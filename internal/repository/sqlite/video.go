package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/community-hub/internal/apperror"
	"github.com/sakif/community-hub/internal/model"
	"github.com/sakif/community-hub/internal/repository"
)

var _ repository.VideoRepository = (*DB)(nil)

func (db *DB) CreateVideo(ctx context.Context, video *model.Video) error {
	video.ID = xid.New().String()
	video.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO videos (id, name, youtube_link, youtube_video_id, description, thumbnail_url, author_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		video.ID, video.Name, video.YouTubeLink, video.YouTubeVideoID,
		video.Description, video.ThumbnailURL, video.AuthorID, video.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting video: %w", err)
	}
	return nil
}

func (db *DB) GetVideoByID(ctx context.Context, id string) (*model.Video, error) {
	var v model.Video
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, youtube_link, youtube_video_id, description, thumbnail_url, author_id, created_at
		 FROM videos WHERE id = ?`, id,
	).Scan(&v.ID, &v.Name, &v.YouTubeLink, &v.YouTubeVideoID,
		&v.Description, &v.ThumbnailURL, &v.AuthorID, &v.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("video", id)
		}
		return nil, fmt.Errorf("sqlite: getting video %s: %w", id, err)
	}
	return &v, nil
}

func (db *DB) ListVideos(ctx context.Context) ([]model.Video, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, youtube_link, youtube_video_id, description, thumbnail_url, author_id, created_at
		 FROM videos ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing videos: %w", err)
	}
	defer rows.Close()

	videos := []model.Video{}
	for rows.Next() {
		var v model.Video
		if err := rows.Scan(&v.ID, &v.Name, &v.YouTubeLink, &v.YouTubeVideoID,
			&v.Description, &v.ThumbnailURL, &v.AuthorID, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning video row: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func (db *DB) DeleteVideo(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting video %s: %w", id, err)
	}
	return requireRow(res, "video", id)
}

func (db *DB) SetVideoThumbnail(ctx context.Context, id, url string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE videos SET thumbnail_url = ? WHERE id = ?`, url, id)
	if err != nil {
		return fmt.Errorf("sqlite: setting thumbnail of video %s: %w", id, err)
	}
	return requireRow(res, "video", id)
}
