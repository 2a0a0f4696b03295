// Package catalog owns the anime → season → episode tree: creation linking,
// cascading deletion, and the parent/child reference arrays. No other package
// mutates catalog documents.
package catalog

import (
	"time"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/assets"
)

// Status is the publication state of an anime.
type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusOngoing || s == StatusCompleted
}

// MaxGenres bounds the genre list on an anime.
const MaxGenres = 5

// NodeKind names a level of the catalog tree.
type NodeKind string

const (
	KindAnime   NodeKind = "anime"
	KindSeason  NodeKind = "season"
	KindEpisode NodeKind = "episode"
)

// Anime is the root catalog document. AverageRating and ReviewCount are
// denormalized aggregates owned by the engagement recomputer.
type Anime struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Genres        []string     `json:"genres"`
	ReleaseDate   time.Time    `json:"release_date"`
	Status        Status       `json:"status"`
	Cover         assets.Asset `json:"cover"`
	SeasonIDs     []string     `json:"season_ids"`
	AverageRating float64      `json:"average_rating"`
	ReviewCount   int          `json:"review_count"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Season is the middle tree level.
type Season struct {
	ID          string       `json:"id"`
	AnimeID     string       `json:"anime_id"`
	Number      int          `json:"number"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ReleaseDate time.Time    `json:"release_date"`
	Cover       assets.Asset `json:"cover"`
	EpisodeIDs  []string     `json:"episode_ids"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Episode is the leaf level. It carries playback URLs but owns no hosted
// asset handle of its own.
type Episode struct {
	ID              string    `json:"id"`
	SeasonID        string    `json:"season_id"`
	Number          int       `json:"number"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	VideoURL        string    `json:"video_url"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	DurationMinutes int       `json:"duration_minutes"`
	AirDate         time.Time `json:"air_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// SeasonSubtree is a season with its episodes hydrated.
type SeasonSubtree struct {
	Season   Season    `json:"season"`
	Episodes []Episode `json:"episodes"`
}

// Subtree is a fully hydrated anime tree, the read model for detail pages.
type Subtree struct {
	Anime   Anime           `json:"anime"`
	Seasons []SeasonSubtree `json:"seasons"`
}
