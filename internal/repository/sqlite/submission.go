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

var _ repository.SubmissionRepository = (*DB)(nil)

const submissionColumns = `id, title, code, language, author_id, author_name,
	section_id, status, approved_by, approved_at, created_at`

func (db *DB) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	sub.ID = xid.New().String()
	sub.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO submissions (id, title, code, language, author_id, author_name, section_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Title, sub.Code, sub.Language, sub.AuthorID, sub.AuthorName,
		sub.SectionID, sub.Status, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting submission: %w", err)
	}
	return nil
}

func (db *DB) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id)

	sub, err := scanSubmission(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("submission", id)
		}
		return nil, fmt.Errorf("sqlite: getting submission %s: %w", id, err)
	}
	return sub, nil
}

// ListApproved is the moderation gate made into a query: the public
// feed can only ever see rows whose status is approved.
func (db *DB) ListApproved(ctx context.Context, sectionID string) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE status = ?`
	args := []any{model.StatusApproved}
	if sectionID != "" {
		query += ` AND section_id = ?`
		args = append(args, sectionID)
	}
	query += ` ORDER BY created_at DESC`
	return db.listSubmissions(ctx, query, args...)
}

func (db *DB) ListPending(ctx context.Context) ([]model.Submission, error) {
	return db.listSubmissions(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		 WHERE status = ? ORDER BY created_at`, model.StatusPending)
}

func (db *DB) ListByAuthor(ctx context.Context, authorID string) ([]model.Submission, error) {
	return db.listSubmissions(ctx,
		`SELECT `+submissionColumns+` FROM submissions
		 WHERE author_id = ? ORDER BY created_at DESC`, authorID)
}

// SetSubmissionStatus records a moderation decision. The reviewer and
// timestamp are stored for approvals and rejections alike; for a move
// back to pending they are cleared.
func (db *DB) SetSubmissionStatus(ctx context.Context, id string, status model.Status, reviewerID string, at time.Time) error {
	var (
		approvedBy string
		approvedAt any
	)
	if status != model.StatusPending {
		approvedBy = reviewerID
		approvedAt = at
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE submissions SET status = ?, approved_by = ?, approved_at = ? WHERE id = ?`,
		status, approvedBy, approvedAt, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting status of submission %s: %w", id, err)
	}
	return requireRow(res, "submission", id)
}

func (db *DB) listSubmissions(ctx context.Context, query string, args ...any) ([]model.Submission, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing submissions: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning submission row: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func scanSubmission(s scanner) (*model.Submission, error) {
	var (
		sub        model.Submission
		approvedAt sql.NullTime
	)
	err := s.Scan(
		&sub.ID, &sub.Title, &sub.Code, &sub.Language, &sub.AuthorID,
		&sub.AuthorName, &sub.SectionID, &sub.Status, &sub.ApprovedBy,
		&approvedAt, &sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if approvedAt.Valid {
		sub.ApprovedAt = &approvedAt.Time
	}
	return &sub, nil
}
