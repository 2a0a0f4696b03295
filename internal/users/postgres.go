package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, email, username, role, bio, avatar_url, password_hash,
followers, following, favorites_count, watchlist_count, total_reviews, total_comments,
created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Role, &u.Bio, &u.AvatarURL, &u.PasswordHash,
		&u.Stats.Followers, &u.Stats.Following, &u.Stats.FavoritesCount, &u.Stats.WatchlistCount,
		&u.Stats.TotalReviews, &u.Stats.TotalComments, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *PostgresStore) Insert(ctx context.Context, u User) (User, error) {
	u.ID = uuid.NewString()
	if u.Role == "" {
		u.Role = RoleUser
	}
	now := time.Now().UTC()
	_, err := s.db.Exec(ctx, `
INSERT INTO users (id, email, username, role, bio, avatar_url, password_hash, created_at, updated_at)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $8)`,
		u.ID, u.Email, u.Username, u.Role, u.Bio, u.AvatarURL, u.PasswordHash, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, apperr.InvalidOperation("email or username already taken")
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return u, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1::uuid`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound("user", id)
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetByLogin(ctx context.Context, login string) (User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `
SELECT `+userColumns+` FROM users
WHERE lower(email) = lower($1) OR lower(username) = lower($1)
LIMIT 1`, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound("user", login)
		}
		return User{}, fmt.Errorf("get user by login: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id, bio, avatarURL string) (User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `
UPDATE users
SET bio = COALESCE(NULLIF($2, ''), bio),
    avatar_url = COALESCE(NULLIF($3, ''), avatar_url),
    updated_at = now()
WHERE id = $1::uuid
RETURNING `+userColumns, id, bio, avatarURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound("user", id)
		}
		return User{}, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1::uuid`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user", id)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1::uuid)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) SetRelationCounts(ctx context.Context, id string, followers, following, favorites, watchlist int) error {
	tag, err := s.db.Exec(ctx, `
UPDATE users SET followers=$2, following=$3, favorites_count=$4, watchlist_count=$5 WHERE id=$1::uuid`,
		id, followers, following, favorites, watchlist)
	if err != nil {
		return fmt.Errorf("set relation counts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user", id)
	}
	return nil
}

func (s *PostgresStore) SetEngagementCounts(ctx context.Context, id string, totalReviews, totalComments int) error {
	tag, err := s.db.Exec(ctx, `
UPDATE users SET total_reviews=$2, total_comments=$3 WHERE id=$1::uuid`,
		id, totalReviews, totalComments)
	if err != nil {
		return fmt.Errorf("set engagement counts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user", id)
	}
	return nil
}

func (s *PostgresStore) AllUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM users`)
	if err != nil {
		return nil, fmt.Errorf("all user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
