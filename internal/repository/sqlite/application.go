package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/community-hub/internal/apperror"
	"github.com/sakif/community-hub/internal/model"
	"github.com/sakif/community-hub/internal/repository"
)

var _ repository.ApplicationRepository = (*DB)(nil)

func (db *DB) CreateApplication(ctx context.Context, app *model.Application) error {
	app.ID = xid.New().String()
	app.CreatedAt = time.Now()

	answers, err := json.Marshal(app.Answers)
	if err != nil {
		return fmt.Errorf("sqlite: encoding answers: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO applications (id, applicant_id, status, answers, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		app.ID, app.ApplicantID, app.Status, string(answers), app.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting application: %w", err)
	}
	return nil
}

func (db *DB) GetApplicationByID(ctx context.Context, id string) (*model.Application, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, applicant_id, status, answers, reviewed_by, reviewed_at, created_at
		 FROM applications WHERE id = ?`, id)

	app, err := scanApplication(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("application", id)
		}
		return nil, fmt.Errorf("sqlite: getting application %s: %w", id, err)
	}
	return app, nil
}

func (db *DB) ListPendingApplications(ctx context.Context) ([]model.Application, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, applicant_id, status, answers, reviewed_by, reviewed_at, created_at
		 FROM applications WHERE status = ? ORDER BY created_at`, model.ApplicationPending)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing applications: %w", err)
	}
	defer rows.Close()

	apps := []model.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning application row: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

func (db *DB) HasPendingApplication(ctx context.Context, applicantID string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications WHERE applicant_id = ? AND status = ?`,
		applicantID, model.ApplicationPending,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: counting pending applications: %w", err)
	}
	return count > 0, nil
}

// ReviewApplication records the decision and optionally promotes the
// applicant in the same transaction, so an approval and its role change
// are one observable event. Only a pending application can be reviewed;
// reviewing twice is a conflict.
func (db *DB) ReviewApplication(ctx context.Context, id string, status model.ApplicationStatus, reviewerID string, at time.Time, promote bool) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var applicantID string
		var current model.ApplicationStatus
		err := tx.QueryRowContext(ctx,
			`SELECT applicant_id, status FROM applications WHERE id = ?`, id,
		).Scan(&applicantID, &current)
		if err != nil {
			if err == sql.ErrNoRows {
				return apperror.NotFound("application", id)
			}
			return fmt.Errorf("sqlite: getting application %s: %w", id, err)
		}
		if current != model.ApplicationPending {
			return apperror.Conflict("application", id)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE applications SET status = ?, reviewed_by = ?, reviewed_at = ? WHERE id = ?`,
			status, reviewerID, at, id,
		); err != nil {
			return fmt.Errorf("sqlite: reviewing application %s: %w", id, err)
		}

		if promote {
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET role = ?, updated_at = ? WHERE id = ? AND role = ?`,
				model.RolePartner, at, applicantID, model.RoleMember,
			); err != nil {
				return fmt.Errorf("sqlite: promoting applicant %s: %w", applicantID, err)
			}
		}
		return nil
	})
}

func (db *DB) ListQuestions(ctx context.Context) ([]model.Question, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, prompt, position FROM questions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing questions: %w", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Prompt, &q.Position); err != nil {
			return nil, fmt.Errorf("sqlite: scanning question row: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ReplaceQuestions swaps the whole application form in one transaction
// so an applicant loading the form mid-edit sees the old list or the
// new one, never a mix.
func (db *DB) ReplaceQuestions(ctx context.Context, prompts []string) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(prompts))
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM questions`); err != nil {
			return fmt.Errorf("sqlite: clearing questions: %w", err)
		}
		for i, prompt := range prompts {
			q := model.Question{ID: xid.New().String(), Prompt: prompt, Position: i}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO questions (id, prompt, position) VALUES (?, ?, ?)`,
				q.ID, q.Prompt, q.Position,
			); err != nil {
				return fmt.Errorf("sqlite: inserting question %d: %w", i, err)
			}
			questions = append(questions, q)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func scanApplication(s scanner) (*model.Application, error) {
	var (
		app        model.Application
		answers    string
		reviewedAt sql.NullTime
	)
	err := s.Scan(&app.ID, &app.ApplicantID, &app.Status, &answers,
		&app.ReviewedBy, &reviewedAt, &app.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &app.Answers); err != nil {
		return nil, fmt.Errorf("decoding answers: %w", err)
	}
	if reviewedAt.Valid {
		app.ReviewedAt = &reviewedAt.Time
	}
	return &app, nil
}
