// Package relations owns the social edges of the platform: user→user follows
// and user→anime favorites and watchlist entries. All three share one edge
// shape and one idempotent toggle path.
package relations

import "time"

// EdgeKind names a relationship type.
type EdgeKind string

const (
	KindFollow    EdgeKind = "follow"
	KindFavorite  EdgeKind = "favorite"
	KindWatchlist EdgeKind = "watchlist"
)

func (k EdgeKind) Valid() bool {
	return k == KindFollow || k == KindFavorite || k == KindWatchlist
}

// TargetsUsers reports whether the edge points at a user rather than an anime.
func (k EdgeKind) TargetsUsers() bool { return k == KindFollow }

// Edge is a single directed relationship row. One row carries both directions
// of a follow: "A follows B" and "B is followed by A" are the same edge read
// from opposite ends.
type Edge struct {
	Kind      EdgeKind  `json:"kind"`
	OwnerID   string    `json:"owner_id"`
	TargetID  string    `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ToggleResult reports the post-toggle state.
type ToggleResult struct {
	Kind     EdgeKind `json:"kind"`
	OwnerID  string   `json:"owner_id"`
	TargetID string   `json:"target_id"`
	// Active is true when the toggle created the edge and false when it
	// removed it. Under racing toggles one caller may observe a stale value;
	// the stored state itself always converges.
	Active bool `json:"active"`
	// OwnerCount is the owner's membership size for this kind after the
	// toggle, counted from the edge rows.
	OwnerCount int `json:"owner_count"`
}
