// Package engagement owns reviews and comments, and the recomputation of the
// rating aggregates they feed. Aggregates are always re-derived from the
// current rows, never nudged incrementally.
package engagement

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's rating of one anime. At most one review exists per
// (anime, user) pair.
type Review struct {
	ID        string    `json:"id"`
	AnimeID   string    `json:"anime_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is a user remark on an episode. Comments carry no rating and do not
// touch anime aggregates; they only count toward the author's activity stats.
type Comment struct {
	ID        string    `json:"id"`
	EpisodeID string    `json:"episode_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
