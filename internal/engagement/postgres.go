package engagement

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

// PostgresStore backs reviews and comments. The one-review-per-user-per-anime
// rule is a unique index on (anime_id, user_id), enforced by the database
// rather than a read-then-write.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const reviewColumns = `id, anime_id, user_id, rating, title, body, created_at, updated_at`

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.AnimeID, &r.UserID, &r.Rating, &r.Title, &r.Body, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *PostgresStore) InsertReview(ctx context.Context, r Review) (Review, error) {
	r.ID = uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.Exec(ctx, `
INSERT INTO reviews (id, anime_id, user_id, rating, title, body, created_at, updated_at)
VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, $6, $7, $7)`,
		r.ID, r.AnimeID, r.UserID, r.Rating, r.Title, r.Body, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Review{}, apperr.InvalidOperation("user already reviewed this anime")
		}
		return Review{}, fmt.Errorf("insert review: %w", err)
	}
	r.CreatedAt, r.UpdatedAt = now, now
	return r, nil
}

func (s *PostgresStore) GetReview(ctx context.Context, id string) (Review, error) {
	row := s.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1::uuid`, id)
	r, err := scanReview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, apperr.NotFound("review", id)
		}
		return Review{}, fmt.Errorf("get review: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) UpdateReview(ctx context.Context, r Review) (Review, error) {
	row := s.db.QueryRow(ctx, `
UPDATE reviews SET rating=$2, title=$3, body=$4, updated_at=now()
WHERE id=$1::uuid
RETURNING `+reviewColumns, r.ID, r.Rating, r.Title, r.Body)
	out, err := scanReview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, apperr.NotFound("review", r.ID)
		}
		return Review{}, fmt.Errorf("update review: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteReview(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1::uuid`, id)
	if err != nil {
		return false, fmt.Errorf("delete review: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ReviewsByAnime(ctx context.Context, animeID string) ([]Review, error) {
	return s.reviewList(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE anime_id = $1::uuid ORDER BY created_at DESC`, animeID)
}

func (s *PostgresStore) ReviewsByUser(ctx context.Context, userID string) ([]Review, error) {
	return s.reviewList(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE user_id = $1::uuid ORDER BY created_at DESC`, userID)
}

func (s *PostgresStore) reviewList(ctx context.Context, query string, arg any) ([]Review, error) {
	rows, err := s.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) RatingStats(ctx context.Context, animeID string) (float64, int, error) {
	var avg float64
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE anime_id = $1::uuid`,
		animeID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("rating stats: %w", err)
	}
	return avg, count, nil
}

func (s *PostgresStore) CountReviewsByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM reviews WHERE user_id = $1::uuid`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) InsertComment(ctx context.Context, c Comment) (Comment, error) {
	c.ID = uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.Exec(ctx, `
INSERT INTO comments (id, episode_id, user_id, body, created_at)
VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5)`,
		c.ID, c.EpisodeID, c.UserID, c.Body, now)
	if err != nil {
		return Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	c.CreatedAt = now
	return c, nil
}

func (s *PostgresStore) GetComment(ctx context.Context, id string) (Comment, error) {
	var c Comment
	err := s.db.QueryRow(ctx,
		`SELECT id, episode_id, user_id, body, created_at FROM comments WHERE id = $1::uuid`, id).
		Scan(&c.ID, &c.EpisodeID, &c.UserID, &c.Body, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, apperr.NotFound("comment", id)
		}
		return Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) DeleteComment(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM comments WHERE id = $1::uuid`, id)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) CommentsByEpisode(ctx context.Context, episodeID string) ([]Comment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, episode_id, user_id, body, created_at FROM comments WHERE episode_id = $1::uuid ORDER BY created_at DESC`,
		episodeID)
	if err != nil {
		return nil, fmt.Errorf("comments by episode: %w", err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.EpisodeID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountCommentsByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM comments WHERE user_id = $1::uuid`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) AllReviewedAnimeIDs(ctx context.Context) ([]string, error) {
	return s.idList(ctx, `SELECT DISTINCT anime_id FROM reviews`)
}

func (s *PostgresStore) AllCommentedEpisodeIDs(ctx context.Context) ([]string, error) {
	return s.idList(ctx, `SELECT DISTINCT episode_id FROM comments`)
}

func (s *PostgresStore) AllAuthorIDs(ctx context.Context) ([]string, error) {
	return s.idList(ctx, `SELECT user_id FROM reviews UNION SELECT user_id FROM comments`)
}

func (s *PostgresStore) DeleteReviewsByAnime(ctx context.Context, animeID string) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM reviews WHERE anime_id = $1::uuid`, animeID)
	if err != nil {
		return 0, fmt.Errorf("delete reviews by anime: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) DeleteCommentsByEpisode(ctx context.Context, episodeID string) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM comments WHERE episode_id = $1::uuid`, episodeID)
	if err != nil {
		return 0, fmt.Errorf("delete comments by episode: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) idList(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("id list: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
