package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/community-hub/internal/apperror"
	"github.com/sakif/community-hub/internal/model"
	"github.com/sakif/community-hub/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, password_hash, role, avatar_url,
	background_url, bio, theme, is_banned, github_id,
	partner_description, partner_links, created_at, updated_at`

// CreateUser inserts a new account. The role is decided inside the same
// transaction as the insert: the first row in the users table becomes
// the founder, every later one a member. The transaction holds the
// write lock from BEGIN (the pool opens with _txlock=immediate), so
// two concurrent first signups cannot both see an empty table.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	return db.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
			return fmt.Errorf("sqlite: counting users: %w", err)
		}
		if count == 0 {
			user.Role = model.RoleFounder
		} else {
			user.Role = model.RoleMember
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			user.ID, user.Username, user.Email, user.PasswordHash, user.Role,
			user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("user", user.Username)
			}
			return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
		}
		return nil
	})
}

// UpsertGitHub inserts or refreshes an account keyed by its GitHub ID.
// First login creates the account (through the same founder bootstrap
// as CreateUser); later logins refresh username, email and avatar.
func (db *DB) UpsertGitHub(ctx context.Context, user *model.User) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var existingID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
		).Scan(&existingID)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
		}

		if existingID != "" {
			user.ID = existingID
			user.UpdatedAt = time.Now()
			_, err = tx.ExecContext(ctx,
				`UPDATE users SET email = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
				user.Email, user.AvatarURL, user.UpdatedAt, user.ID,
			)
			if err != nil {
				return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
			}
			return tx.QueryRowContext(ctx,
				`SELECT role, is_banned FROM users WHERE id = ?`, user.ID,
			).Scan(&user.Role, &user.IsBanned)
		}

		now := time.Now()
		user.ID = xid.New().String()
		user.CreatedAt = now
		user.UpdatedAt = now

		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
			return fmt.Errorf("sqlite: counting users: %w", err)
		}
		if count == 0 {
			user.Role = model.RoleFounder
		} else {
			user.Role = model.RoleMember
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (id, username, email, role, github_id, avatar_url, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			user.ID, user.Username, user.Email, user.Role, user.GitHubID,
			user.AvatarURL, user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("user", user.Username)
			}
			return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
		}
		return nil
	})
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `id = ?`, id)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `email = ?`, email)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, `username = ?`, username)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user %v: %w", arg, err)
	}
	return u, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	return db.listUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
}

func (db *DB) ListPartners(ctx context.Context) ([]model.User, error) {
	return db.listUsers(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE role = ? AND is_banned = 0 ORDER BY username`, model.RolePartner)
}

func (db *DB) listUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateProfile writes the self-editable fields only. Role and ban
// status have their own mutators guarded by their own policy rules.
func (db *DB) UpdateProfile(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	partnerDesc, partnerLinks := "", "[]"
	if user.Partner != nil {
		partnerDesc = user.Partner.Description
		b, err := json.Marshal(user.Partner.Links)
		if err != nil {
			return fmt.Errorf("sqlite: encoding partner links: %w", err)
		}
		partnerLinks = string(b)
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, bio = ?, theme = ?, avatar_url = ?,
			background_url = ?, partner_description = ?, partner_links = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username, user.Bio, user.Theme, user.AvatarURL,
		user.BackgroundURL, partnerDesc, partnerLinks, user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: updating profile %s: %w", user.ID, err)
	}
	return requireRow(res, "user", user.ID)
}

func (db *DB) SetPassword(ctx context.Context, id, passwordHash string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting password of %s: %w", id, err)
	}
	return requireRow(res, "user", id)
}

func (db *DB) SetRole(ctx context.Context, id string, role model.Role) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		role, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting role of %s: %w", id, err)
	}
	return requireRow(res, "user", id)
}

func (db *DB) SetBanned(ctx context.Context, id string, banned bool) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET is_banned = ?, updated_at = ? WHERE id = ?`,
		banned, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting ban of %s: %w", id, err)
	}
	return requireRow(res, "user", id)
}

// DeleteUserCascade removes the account and everything it authored in one
// transaction: a crash mid-way leaves either the whole cascade or none
// of it. Comments and reactions on the user's posts go with the posts
// via ON DELETE CASCADE.
func (db *DB) DeleteUserCascade(ctx context.Context, id string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
		}
		if err := requireRow(res, "user", id); err != nil {
			return err
		}

		for _, stmt := range []string{
			`DELETE FROM posts WHERE author_id = ?`,
			`DELETE FROM comments WHERE author_id = ?`,
			`DELETE FROM reactions WHERE user_id = ?`,
			`DELETE FROM submissions WHERE author_id = ?`,
			`DELETE FROM applications WHERE applicant_id = ?`,
			`DELETE FROM reset_tokens WHERE user_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("sqlite: cascading delete of user %s: %w", id, err)
			}
		}
		return nil
	})
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u            model.User
		partnerDesc  string
		partnerLinks string
	)
	err := s.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.AvatarURL, &u.BackgroundURL, &u.Bio, &u.Theme, &u.IsBanned,
		&u.GitHubID, &partnerDesc, &partnerLinks, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if u.Role == model.RolePartner || partnerDesc != "" || partnerLinks != "[]" {
		var links []string
		if err := json.Unmarshal([]byte(partnerLinks), &links); err != nil {
			return nil, fmt.Errorf("decoding partner links: %w", err)
		}
		u.Partner = &model.Partner{Description: partnerDesc, Links: links}
	}
	return &u, nil
}

// requireRow converts a zero-row update/delete into a NotFound error.
func requireRow(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

// isUniqueViolation detects UNIQUE constraint failures without tying the
// caller to the driver's error type.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
