package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/community-hub/internal/apperror"
	"github.com/sakif/community-hub/internal/repository"
)

var _ repository.ResetTokenRepository = (*DB)(nil)

func (db *DB) CreateResetToken(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO reset_tokens (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken is single-use by construction: the lookup and the
// delete run in one transaction, so two concurrent confirms with the
// same token cannot both succeed.
func (db *DB) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	var userID string
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var expiresAt time.Time
		err := tx.QueryRowContext(ctx,
			`SELECT user_id, expires_at FROM reset_tokens WHERE token = ?`, token,
		).Scan(&userID, &expiresAt)
		if err != nil {
			if err == sql.ErrNoRows {
				return apperror.NotFound("reset token", token)
			}
			return fmt.Errorf("sqlite: getting reset token: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM reset_tokens WHERE token = ?`, token); err != nil {
			return fmt.Errorf("sqlite: deleting reset token: %w", err)
		}

		if time.Now().After(expiresAt) {
			return apperror.NotFound("reset token", token)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return userID, nil
}
