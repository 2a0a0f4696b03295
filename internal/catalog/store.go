package catalog

import "context"

// Store is the persistence contract for catalog documents.
//
// Inserting a child and linking it into its parent are deliberately separate
// operations: the manager performs them in document-then-link order and there
// is no cross-document atomicity between them. Link and Unlink are set
// operations at the storage primitive level; both are idempotent so racing or
// retried calls converge.
type Store interface {
	// Anime
	InsertAnime(ctx context.Context, a Anime) (Anime, error)
	GetAnime(ctx context.Context, id string) (Anime, error)
	GetAnimeByTitle(ctx context.Context, title string) (Anime, error)
	ListAnime(ctx context.Context, limit, offset int) ([]Anime, error)
	UpdateAnime(ctx context.Context, a Anime) (Anime, error)
	// UpdateAnimeStats writes both aggregate fields in a single update.
	UpdateAnimeStats(ctx context.Context, id string, averageRating float64, reviewCount int) error
	// DeleteAnime reports false when the id was already absent.
	DeleteAnime(ctx context.Context, id string) (bool, error)
	LinkSeason(ctx context.Context, animeID, seasonID string) error
	UnlinkSeason(ctx context.Context, animeID, seasonID string) error

	// Seasons
	InsertSeason(ctx context.Context, s Season) (Season, error)
	GetSeason(ctx context.Context, id string) (Season, error)
	SeasonsByAnime(ctx context.Context, animeID string) ([]Season, error)
	DeleteSeason(ctx context.Context, id string) (bool, error)
	LinkEpisode(ctx context.Context, seasonID, episodeID string) error
	UnlinkEpisode(ctx context.Context, seasonID, episodeID string) error

	// Episodes
	InsertEpisode(ctx context.Context, e Episode) (Episode, error)
	GetEpisode(ctx context.Context, id string) (Episode, error)
	EpisodesBySeason(ctx context.Context, seasonID string) ([]Episode, error)
	DeleteEpisode(ctx context.Context, id string) (bool, error)

	// Reconciliation reads
	AllAnimeIDs(ctx context.Context) ([]string, error)
	AllSeasons(ctx context.Context) ([]Season, error)
	AllEpisodes(ctx context.Context) ([]Episode, error)
}

var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
