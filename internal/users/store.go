package users

import "context"

// Store is the persistence contract for accounts.
type Store interface {
	// Insert fails with ErrInvalidOperation when the email or username is
	// already taken.
	Insert(ctx context.Context, u User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	// GetByLogin resolves an email or username, case-insensitively.
	GetByLogin(ctx context.Context, login string) (User, error)
	UpdateProfile(ctx context.Context, id, bio, avatarURL string) (User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Exists(ctx context.Context, id string) (bool, error)

	// SetRelationCounts and SetEngagementCounts overwrite the derived
	// counters; they are the only stats writers.
	SetRelationCounts(ctx context.Context, id string, followers, following, favorites, watchlist int) error
	SetEngagementCounts(ctx context.Context, id string, totalReviews, totalComments int) error

	// AllUserIDs is a reconciliation read.
	AllUserIDs(ctx context.Context) ([]string, error)
}

var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
