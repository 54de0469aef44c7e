package model

import "time"

// Video is a YouTube link shared on the site's video page.
// YouTubeVideoID is derived from YouTubeLink server-side so the client
// can embed without re-parsing the URL.
type Video struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	YouTubeLink    string    `json:"youtubeLink"`
	YouTubeVideoID string    `json:"youtubeVideoId"`
	Description    string    `json:"description"`
	ThumbnailURL   string    `json:"thumbnailUrl"`
	AuthorID       string    `json:"authorId"`
	CreatedAt      time.Time `json:"timestamp"`
}
