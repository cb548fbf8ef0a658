package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connectify/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

const userColumns = `id, email, username, display_name, status, created_at, updated_at, last_login_at`

func (s *UsersStore) CreateUser(ctx context.Context, email, username, displayName, passwordHash string) (domain.User, error) {
	const q = `
		INSERT INTO users (email, username, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	u, err := scanUser(s.pool.QueryRow(ctx, q, nullIfEmpty(email), username, nullIfEmpty(displayName), passwordHash))
	if err != nil {
		return domain.User{}, mapUserWriteError(err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetUserByLogin resolves a username or email. Emails are stored
// lower-cased, so the email branch lower-cases the comparand; usernames
// stay case-sensitive.
func (s *UsersStore) GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error) {
	const q = `
		SELECT ` + userColumns + `, password_hash
		FROM users
		WHERE username = $1 OR (email IS NOT NULL AND email = lower($1))
		ORDER BY (username = $1) DESC
		LIMIT 1
	`

	var u domain.UserWithPassword
	var err error
	u.User, u.PasswordHash, err = scanUserWithPassword(s.pool.QueryRow(ctx, q, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, fmt.Errorf("get user by login: %w", err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, q, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (s *UsersStore) SetLastLogin(ctx context.Context, userID string, when time.Time) error {
	const q = `
		UPDATE users
		SET last_login_at = $2, updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, q, userID, when); err != nil {
		return fmt.Errorf("set last login: %w", err)
	}
	return nil
}

// SearchUsers matches username prefixes, excluding the searching user.
func (s *UsersStore) SearchUsers(ctx context.Context, selfID, query string, limit int) ([]domain.UserSummary, error) {
	const q = `
		SELECT id, username, display_name
		FROM users
		WHERE status = 'active' AND id <> $1 AND username ILIKE $2 || '%'
		ORDER BY username ASC
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, q, selfID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var out []domain.UserSummary
	for rows.Next() {
		var (
			idUUID      pgtype.UUID
			username    string
			displayName pgtype.Text
		)
		if err := rows.Scan(&idUUID, &username, &displayName); err != nil {
			return nil, fmt.Errorf("scan user summary: %w", err)
		}
		out = append(out, domain.UserSummary{
			ID:          uuidOrEmpty(idUUID),
			Username:    username,
			DisplayName: textOrEmpty(displayName),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return out, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u           domain.User
		idUUID      pgtype.UUID
		emailText   pgtype.Text
		displayText pgtype.Text
		lastLoginTS pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&emailText,
		&u.Username,
		&displayText,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginTS,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = uuidOrEmpty(idUUID)
	u.Email = textOrEmpty(emailText)
	u.DisplayName = textOrEmpty(displayText)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)
	return u, nil
}

func scanUserWithPassword(row pgx.Row) (domain.User, string, error) {
	var (
		u           domain.User
		idUUID      pgtype.UUID
		emailText   pgtype.Text
		displayText pgtype.Text
		lastLoginTS pgtype.Timestamptz
		hash        string
	)
	err := row.Scan(
		&idUUID,
		&emailText,
		&u.Username,
		&displayText,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginTS,
		&hash,
	)
	if err != nil {
		return domain.User{}, "", err
	}
	u.ID = uuidOrEmpty(idUUID)
	u.Email = textOrEmpty(emailText)
	u.DisplayName = textOrEmpty(displayText)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)
	return u, hash, nil
}

func mapUserWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		switch pgerr.ConstraintName {
		case "users_username_uq":
			return domain.ErrUsernameTaken
		case "users_email_uq":
			return domain.ErrEmailTaken
		default:
			return fmt.Errorf("unique violation (%s): %w", pgerr.ConstraintName, err)
		}
	}
	return fmt.Errorf("create user: %w", err)
}
