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

var _ repository.PostRepository = (*DB)(nil)

func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()
	post.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, author_id, author_username, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		post.ID, post.Title, post.Content, post.AuthorID, post.AuthorUsername, post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting post: %w", err)
	}
	return nil
}

func (db *DB) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, content, author_id, author_username, created_at
		 FROM posts WHERE id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.AuthorUsername, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}

	if err := db.attachPostDetails(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPosts returns every post newest-first with comments and reactions
// attached. The site renders the whole board on each change, so there
// is no pagination at the current scale.
func (db *DB) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, content, author_id, author_username, created_at
		 FROM posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.AuthorUsername, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range posts {
		if err := db.attachPostDetails(ctx, &posts[i]); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func (db *DB) DeletePost(ctx context.Context, id string) error {
	// Comments and reactions go via ON DELETE CASCADE.
	res, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}
	return requireRow(res, "post", id)
}

func (db *DB) AddComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	comment.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, author_id, author_username, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID, comment.PostID, comment.AuthorID, comment.AuthorUsername,
		comment.Text, comment.CreatedAt,
	)
	if err != nil {
		// FK violation means the post is gone.
		return apperror.NotFound("post", comment.PostID)
	}
	return nil
}

// ToggleReaction flips the (post, emoji, user) reaction and reports
// whether it is now set. The primary key makes the insert-or-delete
// race-free: two concurrent toggles resolve to insert-then-delete in
// some order, never a duplicate row.
func (db *DB) ToggleReaction(ctx context.Context, postID, emoji, userID string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM reactions WHERE post_id = ? AND emoji = ? AND user_id = ?`,
		postID, emoji, userID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: removing reaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO reactions (post_id, emoji, user_id) VALUES (?, ?, ?)`,
		postID, emoji, userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race against an identical toggle; the reaction is set.
			return true, nil
		}
		return false, apperror.NotFound("post", postID)
	}
	return true, nil
}

func (db *DB) attachPostDetails(ctx context.Context, p *model.Post) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, post_id, author_id, author_username, body, created_at
		 FROM comments WHERE post_id = ? ORDER BY created_at`, p.ID)
	if err != nil {
		return fmt.Errorf("sqlite: listing comments of %s: %w", p.ID, err)
	}
	defer rows.Close()

	p.Comments = []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorUsername, &c.Text, &c.CreatedAt); err != nil {
			return fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		p.Comments = append(p.Comments, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	reactionRows, err := db.conn.QueryContext(ctx,
		`SELECT emoji, user_id FROM reactions WHERE post_id = ? ORDER BY emoji`, p.ID)
	if err != nil {
		return fmt.Errorf("sqlite: listing reactions of %s: %w", p.ID, err)
	}
	defer reactionRows.Close()

	p.Reactions = map[string][]string{}
	for reactionRows.Next() {
		var emoji, userID string
		if err := reactionRows.Scan(&emoji, &userID); err != nil {
			return fmt.Errorf("sqlite: scanning reaction row: %w", err)
		}
		p.Reactions[emoji] = append(p.Reactions[emoji], userID)
	}
	return reactionRows.Err()
}
