package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
)

// PostgresStore is the production Postgres-backed implementation. The child
// reference arrays are kept alongside the child's parent-id column, matching
// the document layout; Link/Unlink are array set operations so retries and
// racing calls converge.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const animeColumns = `id, title, description, genres, release_date, status,
cover_url, cover_asset_id, season_ids, average_rating, review_count, created_at, updated_at`

func (s *PostgresStore) scanAnime(row pgx.Row) (Anime, error) {
	var a Anime
	var genresJSON []byte
	if err := row.Scan(&a.ID, &a.Title, &a.Description, &genresJSON, &a.ReleaseDate, &a.Status,
		&a.Cover.URL, &a.Cover.AssetID, &a.SeasonIDs, &a.AverageRating, &a.ReviewCount,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return Anime{}, err
	}
	_ = json.Unmarshal(genresJSON, &a.Genres)
	if a.SeasonIDs == nil {
		a.SeasonIDs = []string{}
	}
	return a, nil
}

// ── Anime ──────────────────────────────────────────────────────────────────

func (s *PostgresStore) InsertAnime(ctx context.Context, a Anime) (Anime, error) {
	genresJSON, _ := json.Marshal(a.Genres)
	now := time.Now().UTC()
	a.ID = uuid.NewString()
	_, err := s.db.Exec(ctx, `
INSERT INTO anime (id, title, description, genres, release_date, status, cover_url, cover_asset_id, season_ids, average_rating, review_count, created_at, updated_at)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, '{}', 0, 0, $9, $9)`,
		a.ID, a.Title, a.Description, genresJSON, a.ReleaseDate, a.Status,
		a.Cover.URL, a.Cover.AssetID, now)
	if err != nil {
		if isUniqueViolation(err) {
			return Anime{}, apperr.InvalidOperation("anime title already in use")
		}
		return Anime{}, fmt.Errorf("insert anime: %w", err)
	}
	a.SeasonIDs = []string{}
	a.AverageRating, a.ReviewCount = 0, 0
	a.CreatedAt, a.UpdatedAt = now, now
	return a, nil
}

func (s *PostgresStore) GetAnime(ctx context.Context, id string) (Anime, error) {
	row := s.db.QueryRow(ctx, `SELECT `+animeColumns+` FROM anime WHERE id = $1::uuid`, id)
	a, err := s.scanAnime(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Anime{}, apperr.NotFound("anime", id)
		}
		return Anime{}, fmt.Errorf("get anime: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) GetAnimeByTitle(ctx context.Context, title string) (Anime, error) {
	row := s.db.QueryRow(ctx, `SELECT `+animeColumns+` FROM anime WHERE lower(title) = lower($1)`, title)
	a, err := s.scanAnime(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Anime{}, apperr.NotFound("anime", title)
		}
		return Anime{}, fmt.Errorf("get anime by title: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListAnime(ctx context.Context, limit, offset int) ([]Anime, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.Query(ctx, `SELECT `+animeColumns+` FROM anime ORDER BY title ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list anime: %w", err)
	}
	defer rows.Close()

	out := []Anime{}
	for rows.Next() {
		a, err := s.scanAnime(rows)
		if err != nil {
			return nil, fmt.Errorf("scan anime: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateAnime(ctx context.Context, a Anime) (Anime, error) {
	genresJSON, _ := json.Marshal(a.Genres)
	row := s.db.QueryRow(ctx, `
UPDATE anime
SET title=$2, description=$3, genres=$4, release_date=$5, status=$6, cover_url=$7, cover_asset_id=$8, updated_at=now()
WHERE id=$1::uuid
RETURNING `+animeColumns,
		a.ID, a.Title, a.Description, genresJSON, a.ReleaseDate, a.Status, a.Cover.URL, a.Cover.AssetID)
	out, err := s.scanAnime(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Anime{}, apperr.NotFound("anime", a.ID)
		}
		if isUniqueViolation(err) {
			return Anime{}, apperr.InvalidOperation("anime title already in use")
		}
		return Anime{}, fmt.Errorf("update anime: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateAnimeStats(ctx context.Context, id string, avg float64, count int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE anime SET average_rating=$2, review_count=$3, updated_at=now() WHERE id=$1::uuid`,
		id, avg, count)
	if err != nil {
		return fmt.Errorf("update anime stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("anime", id)
	}
	return nil
}

func (s *PostgresStore) DeleteAnime(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM anime WHERE id = $1::uuid`, id)
	if err != nil {
		return false, fmt.Errorf("delete anime: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) LinkSeason(ctx context.Context, animeID, seasonID string) error {
	// Set-add: appending an already-linked id is a no-op.
	tag, err := s.db.Exec(ctx, `
UPDATE anime SET season_ids = array_append(season_ids, $2), updated_at = now()
WHERE id = $1::uuid AND NOT (season_ids @> ARRAY[$2])`, animeID, seasonID)
	if err != nil {
		return fmt.Errorf("link season: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM anime WHERE id=$1::uuid)`, animeID).Scan(&exists); err != nil {
			return fmt.Errorf("link season: %w", err)
		}
		if !exists {
			return apperr.NotFound("anime", animeID)
		}
	}
	return nil
}

func (s *PostgresStore) UnlinkSeason(ctx context.Context, animeID, seasonID string) error {
	_, err := s.db.Exec(ctx, `
UPDATE anime SET season_ids = array_remove(season_ids, $2), updated_at = now()
WHERE id = $1::uuid`, animeID, seasonID)
	if err != nil {
		return fmt.Errorf("unlink season: %w", err)
	}
	return nil
}

// ── Seasons ────────────────────────────────────────────────────────────────

const seasonColumns = `id, anime_id, number, title, description, release_date,
cover_url, cover_asset_id, episode_ids, created_at`

func scanSeason(row pgx.Row) (Season, error) {
	var sn Season
	if err := row.Scan(&sn.ID, &sn.AnimeID, &sn.Number, &sn.Title, &sn.Description,
		&sn.ReleaseDate, &sn.Cover.URL, &sn.Cover.AssetID, &sn.EpisodeIDs, &sn.CreatedAt); err != nil {
		return Season{}, err
	}
	if sn.EpisodeIDs == nil {
		sn.EpisodeIDs = []string{}
	}
	return sn, nil
}

func (s *PostgresStore) InsertSeason(ctx context.Context, sn Season) (Season, error) {
	sn.ID = uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.Exec(ctx, `
INSERT INTO seasons (id, anime_id, number, title, description, release_date, cover_url, cover_asset_id, episode_ids, created_at)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, '{}', $9)`,
		sn.ID, sn.AnimeID, sn.Number, sn.Title, sn.Description, sn.ReleaseDate,
		sn.Cover.URL, sn.Cover.AssetID, now)
	if err != nil {
		return Season{}, fmt.Errorf("insert season: %w", err)
	}
	sn.EpisodeIDs = []string{}
	sn.CreatedAt = now
	return sn, nil
}

func (s *PostgresStore) GetSeason(ctx context.Context, id string) (Season, error) {
	row := s.db.QueryRow(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE id = $1::uuid`, id)
	sn, err := scanSeason(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Season{}, apperr.NotFound("season", id)
		}
		return Season{}, fmt.Errorf("get season: %w", err)
	}
	return sn, nil
}

func (s *PostgresStore) SeasonsByAnime(ctx context.Context, animeID string) ([]Season, error) {
	rows, err := s.db.Query(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE anime_id = $1::uuid ORDER BY number ASC`, animeID)
	if err != nil {
		return nil, fmt.Errorf("seasons by anime: %w", err)
	}
	defer rows.Close()

	var out []Season
	for rows.Next() {
		sn, err := scanSeason(rows)
		if err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		out = append(out, sn)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteSeason(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM seasons WHERE id = $1::uuid`, id)
	if err != nil {
		return false, fmt.Errorf("delete season: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) LinkEpisode(ctx context.Context, seasonID, episodeID string) error {
	tag, err := s.db.Exec(ctx, `
UPDATE seasons SET episode_ids = array_append(episode_ids, $2)
WHERE id = $1::uuid AND NOT (episode_ids @> ARRAY[$2])`, seasonID, episodeID)
	if err != nil {
		return fmt.Errorf("link episode: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM seasons WHERE id=$1::uuid)`, seasonID).Scan(&exists); err != nil {
			return fmt.Errorf("link episode: %w", err)
		}
		if !exists {
			return apperr.NotFound("season", seasonID)
		}
	}
	return nil
}

func (s *PostgresStore) UnlinkEpisode(ctx context.Context, seasonID, episodeID string) error {
	_, err := s.db.Exec(ctx, `
UPDATE seasons SET episode_ids = array_remove(episode_ids, $2) WHERE id = $1::uuid`, seasonID, episodeID)
	if err != nil {
		return fmt.Errorf("unlink episode: %w", err)
	}
	return nil
}

// ── Episodes ───────────────────────────────────────────────────────────────

const episodeColumns = `id, season_id, number, title, description, video_url,
thumbnail_url, duration_minutes, air_date, created_at`

func scanEpisode(row pgx.Row) (Episode, error) {
	var e Episode
	err := row.Scan(&e.ID, &e.SeasonID, &e.Number, &e.Title, &e.Description,
		&e.VideoURL, &e.ThumbnailURL, &e.DurationMinutes, &e.AirDate, &e.CreatedAt)
	return e, err
}

func (s *PostgresStore) InsertEpisode(ctx context.Context, e Episode) (Episode, error) {
	e.ID = uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.Exec(ctx, `
INSERT INTO episodes (id, season_id, number, title, description, video_url, thumbnail_url, duration_minutes, air_date, created_at)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.SeasonID, e.Number, e.Title, e.Description, e.VideoURL, e.ThumbnailURL,
		e.DurationMinutes, e.AirDate, now)
	if err != nil {
		return Episode{}, fmt.Errorf("insert episode: %w", err)
	}
	e.CreatedAt = now
	return e, nil
}

func (s *PostgresStore) GetEpisode(ctx context.Context, id string) (Episode, error) {
	row := s.db.QueryRow(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = $1::uuid`, id)
	e, err := scanEpisode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Episode{}, apperr.NotFound("episode", id)
		}
		return Episode{}, fmt.Errorf("get episode: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) EpisodesBySeason(ctx context.Context, seasonID string) ([]Episode, error) {
	rows, err := s.db.Query(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE season_id = $1::uuid ORDER BY number ASC`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("episodes by season: %w", err)
	}
	defer rows.Close()

	var out []Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteEpisode(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM episodes WHERE id = $1::uuid`, id)
	if err != nil {
		return false, fmt.Errorf("delete episode: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ── Reconciliation reads ───────────────────────────────────────────────────

func (s *PostgresStore) AllAnimeIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM anime ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("all anime ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan anime id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) AllSeasons(ctx context.Context) ([]Season, error) {
	rows, err := s.db.Query(ctx, `SELECT `+seasonColumns+` FROM seasons`)
	if err != nil {
		return nil, fmt.Errorf("all seasons: %w", err)
	}
	defer rows.Close()

	var out []Season
	for rows.Next() {
		sn, err := scanSeason(rows)
		if err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		out = append(out, sn)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AllEpisodes(ctx context.Context) ([]Episode, error) {
	rows, err := s.db.Query(ctx, `SELECT `+episodeColumns+` FROM episodes`)
	if err != nil {
		return nil, fmt.Errorf("all episodes: %w", err)
	}
	defer rows.Close()

	var out []Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
