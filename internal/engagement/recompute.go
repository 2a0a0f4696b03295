package engagement

import "context"

// AnimeStats is the slice of the catalog store the recomputer writes to.
type AnimeStats interface {
	UpdateAnimeStats(ctx context.Context, id string, averageRating float64, reviewCount int) error
}

// SubtreeInvalidator drops cached read models built from the anime's
// aggregates. The catalog subtree cache satisfies it.
type SubtreeInvalidator interface {
	Invalidate(ctx context.Context, animeID string)
}

// Recomputer re-derives an anime's rating aggregates from its current
// reviews. It is the only writer of average_rating and review_count: every
// review mutation and every reconciler pass funnels through RecomputeAnime,
// so the stored aggregate can drift but never accumulate increment errors.
type Recomputer struct {
	store Store
	anime AnimeStats
	cache SubtreeInvalidator
}

// NewRecomputer wires the review store to the aggregate writer. cache may be
// nil when no read cache is configured.
func NewRecomputer(store Store, anime AnimeStats, cache SubtreeInvalidator) *Recomputer {
	return &Recomputer{store: store, anime: anime, cache: cache}
}

// RecomputeAnime reads the live reviews for the anime and writes the mean and
// count back in a single update, then drops any cached subtree so readers
// never serve the stale aggregate for a full TTL. An anime with no reviews
// gets 0/0.
func (r *Recomputer) RecomputeAnime(ctx context.Context, animeID string) error {
	avg, count, err := r.store.RatingStats(ctx, animeID)
	if err != nil {
		return err
	}
	if err := r.anime.UpdateAnimeStats(ctx, animeID, avg, count); err != nil {
		return err
	}
	if r.cache != nil {
		r.cache.Invalidate(ctx, animeID)
	}
	return nil
}
