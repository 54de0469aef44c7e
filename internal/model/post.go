package model

import "time"

// Post is an announcement-style forum post. Creation is restricted to
// staff roles; comments and reactions are open to any signed-in user.
//
// AuthorUsername is denormalised onto the post so feeds render without
// a join against users, the same shape the site stores remotely.
type Post struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Content        string              `json:"content"`
	AuthorID       string              `json:"authorId"`
	AuthorUsername string              `json:"authorUsername"`
	Reactions      map[string][]string `json:"reactions"` // emoji → user IDs
	Comments       []Comment           `json:"comments"`
	CreatedAt      time.Time           `json:"timestamp"`
}

// Comment is a reply on a post, ordered by creation time.
type Comment struct {
	ID             string    `json:"id"`
	PostID         string    `json:"postId"`
	AuthorID       string    `json:"authorId"`
	AuthorUsername string    `json:"authorUsername"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"timestamp"`
}
