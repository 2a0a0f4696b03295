// Package history records what a user watched and when. Records are
// append-only; the list view is most-recent-first with keyset pagination.
package history

import (
	"context"
	"time"
)

// Record is one watch event.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AnimeID   string    `json:"anime_id"`
	EpisodeID string    `json:"episode_id"`
	WatchedAt time.Time `json:"watched_at"`
}

// Cursor is the decoded form of the opaque pagination cursor: the watched_at
// and id of the last record the client has seen.
type Cursor struct {
	WatchedAt time.Time
	ID        string
}

// Repository defines persistence for watch records.
type Repository interface {
	Append(ctx context.Context, r Record) (Record, error)
	// List returns up to limit records for the user, watched_at DESC. A
	// non-nil cursor is an exclusive upper bound for keyset pagination.
	List(ctx context.Context, userID string, limit int, cursor *Cursor) ([]Record, error)
}

var (
	_ Repository = (*InMemoryRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)
