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

var _ repository.SectionRepository = (*DB)(nil)

func (db *DB) CreateSection(ctx context.Context, section *model.Section) error {
	section.ID = xid.New().String()
	section.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sections (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`,
		section.ID, section.Name, section.CreatedBy, section.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("section", section.Name)
		}
		return fmt.Errorf("sqlite: inserting section: %w", err)
	}
	return nil
}

func (db *DB) GetSectionByID(ctx context.Context, id string) (*model.Section, error) {
	var s model.Section
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, created_by, created_at FROM sections WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.CreatedBy, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("section", id)
		}
		return nil, fmt.Errorf("sqlite: getting section %s: %w", id, err)
	}
	return &s, nil
}

func (db *DB) ListSections(ctx context.Context) ([]model.Section, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, created_by, created_at FROM sections ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing sections: %w", err)
	}
	defer rows.Close()

	sections := []model.Section{}
	for rows.Next() {
		var s model.Section
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedBy, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning section row: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// DeleteSection removes the section and detaches its submissions in one
// transaction. Submissions survive with an empty section reference; a
// section is a shelf, not an owner.
func (db *DB) DeleteSection(ctx context.Context, id string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting section %s: %w", id, err)
		}
		if err := requireRow(res, "section", id); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE submissions SET section_id = '' WHERE section_id = ?`, id,
		); err != nil {
			return fmt.Errorf("sqlite: detaching submissions of section %s: %w", id, err)
		}
		return nil
	})
}
