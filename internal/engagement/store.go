package engagement

import "context"

// Store is the persistence contract for reviews and comments.
type Store interface {
	// InsertReview fails with ErrInvalidOperation when the (anime, user)
	// pair already has a review.
	InsertReview(ctx context.Context, r Review) (Review, error)
	GetReview(ctx context.Context, id string) (Review, error)
	UpdateReview(ctx context.Context, r Review) (Review, error)
	// DeleteReview reports false when the id was already absent.
	DeleteReview(ctx context.Context, id string) (bool, error)
	ReviewsByAnime(ctx context.Context, animeID string) ([]Review, error)
	ReviewsByUser(ctx context.Context, userID string) ([]Review, error)
	// RatingStats computes the mean rating and review count over the current
	// rows for one anime. Zero values when no reviews exist.
	RatingStats(ctx context.Context, animeID string) (avg float64, count int, err error)
	CountReviewsByUser(ctx context.Context, userID string) (int, error)

	InsertComment(ctx context.Context, c Comment) (Comment, error)
	GetComment(ctx context.Context, id string) (Comment, error)
	DeleteComment(ctx context.Context, id string) (bool, error)
	CommentsByEpisode(ctx context.Context, episodeID string) ([]Comment, error)
	CountCommentsByUser(ctx context.Context, userID string) (int, error)

	// Reconciliation reads and repairs
	AllReviewedAnimeIDs(ctx context.Context) ([]string, error)
	AllCommentedEpisodeIDs(ctx context.Context) ([]string, error)
	AllAuthorIDs(ctx context.Context) ([]string, error)
	// DeleteReviewsByAnime and DeleteCommentsByEpisode remove every row
	// attached to a node that no longer exists, reporting how many went.
	DeleteReviewsByAnime(ctx context.Context, animeID string) (int, error)
	DeleteCommentsByEpisode(ctx context.Context, episodeID string) (int, error)
}

var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
