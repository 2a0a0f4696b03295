package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, rec Record) (Record, error) {
	rec.ID = uuid.NewString()
	if rec.WatchedAt.IsZero() {
		rec.WatchedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
INSERT INTO watch_history (id, user_id, anime_id, episode_id, watched_at)
VALUES ($1::uuid, $2::uuid, $3::uuid, $4::uuid, $5)`,
		rec.ID, rec.UserID, rec.AnimeID, rec.EpisodeID, rec.WatchedAt)
	if err != nil {
		return Record{}, fmt.Errorf("append watch record: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string, limit int, cursor *Cursor) ([]Record, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := `
SELECT id, user_id, anime_id, episode_id, watched_at
FROM watch_history
WHERE user_id = $1::uuid`
	args := []any{userID}
	if cursor != nil {
		q += ` AND (watched_at, id) < ($2, $3::uuid)`
		args = append(args, cursor.WatchedAt, cursor.ID)
	}
	q += fmt.Sprintf(` ORDER BY watched_at DESC, id DESC LIMIT %d`, limit)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list watch history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.AnimeID, &rec.EpisodeID, &rec.WatchedAt); err != nil {
			return nil, fmt.Errorf("scan watch record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
