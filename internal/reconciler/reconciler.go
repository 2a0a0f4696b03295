// Package reconciler is the background repair loop. The write paths give up
// cross-document atomicity, so drift is expected: stale aggregates, stale
// counters, unlinked or orphaned nodes, edges pointing at deleted targets.
// Every pass re-derives the truth from the source rows and repairs whatever
// disagrees. The reconciler never sits on a request path.
package reconciler

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/catalog"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/engagement"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/relations"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/users"
)

// Report counts the repairs performed by one pass.
type Report struct {
	AggregatesRepaired    int `json:"aggregates_repaired"`
	UserStatsRepaired     int `json:"user_stats_repaired"`
	OrphanSeasonsDeleted  int `json:"orphan_seasons_deleted"`
	OrphanEpisodesDeleted int `json:"orphan_episodes_deleted"`
	StaleLinksRemoved     int `json:"stale_links_removed"`
	OrphanEdgesRemoved    int `json:"orphan_edges_removed"`
	OrphanReviewsDeleted  int `json:"orphan_reviews_deleted"`
	OrphanCommentsDeleted int `json:"orphan_comments_deleted"`
}

func (r Report) Total() int {
	return r.AggregatesRepaired + r.UserStatsRepaired + r.OrphanSeasonsDeleted +
		r.OrphanEpisodesDeleted + r.StaleLinksRemoved + r.OrphanEdgesRemoved +
		r.OrphanReviewsDeleted + r.OrphanCommentsDeleted
}

// Reconciler sweeps the stores and closes out drift.
type Reconciler struct {
	Catalog    catalog.Store
	Engagement engagement.Store
	Edges      relations.EdgeStore
	Users      users.Store
	Interval   time.Duration
	Log        *zap.Logger
}

// Run executes a pass every Interval until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			report, err := r.RunOnce(ctx)
			if err != nil {
				r.Log.Warn("reconcile pass failed", zap.Error(err))
				continue
			}
			if report.Total() > 0 {
				r.Log.Info("reconcile pass repaired drift",
					zap.Int("aggregates", report.AggregatesRepaired),
					zap.Int("user_stats", report.UserStatsRepaired),
					zap.Int("orphan_seasons", report.OrphanSeasonsDeleted),
					zap.Int("orphan_episodes", report.OrphanEpisodesDeleted),
					zap.Int("stale_links", report.StaleLinksRemoved),
					zap.Int("orphan_edges", report.OrphanEdgesRemoved),
					zap.Int("orphan_reviews", report.OrphanReviewsDeleted),
					zap.Int("orphan_comments", report.OrphanCommentsDeleted))
			}
		}
	}
}

// RunOnce executes a single full pass and reports what it repaired.
func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	var report Report
	// Structural pruning first, so the recounts below run against the
	// post-repair row set.
	if err := r.pruneOrphans(ctx, &report); err != nil {
		return report, err
	}
	if err := r.pruneEdges(ctx, &report); err != nil {
		return report, err
	}
	if err := r.repairAggregates(ctx, &report); err != nil {
		return report, err
	}
	if err := r.repairUserStats(ctx, &report); err != nil {
		return report, err
	}
	return report, nil
}

// pruneOrphans deletes seasons whose anime is gone and episodes whose season
// is gone, drops parent references to children that no longer exist, and
// removes reviews and comments left behind by a cascade. This is the
// close-out for interrupted create-then-link and cascade-delete sequences.
func (r *Reconciler) pruneOrphans(ctx context.Context, report *Report) error {
	animeIDs, err := r.Catalog.AllAnimeIDs(ctx)
	if err != nil {
		return err
	}
	animeSet := make(map[string]bool, len(animeIDs))
	for _, id := range animeIDs {
		animeSet[id] = true
	}

	seasons, err := r.Catalog.AllSeasons(ctx)
	if err != nil {
		return err
	}
	seasonSet := make(map[string]bool, len(seasons))
	for _, sn := range seasons {
		if !animeSet[sn.AnimeID] {
			if ok, err := r.Catalog.DeleteSeason(ctx, sn.ID); err == nil && ok {
				report.OrphanSeasonsDeleted++
			}
			continue
		}
		seasonSet[sn.ID] = true
	}

	episodes, err := r.Catalog.AllEpisodes(ctx)
	if err != nil {
		return err
	}
	episodeSet := make(map[string]bool, len(episodes))
	for _, e := range episodes {
		if !seasonSet[e.SeasonID] {
			if ok, err := r.Catalog.DeleteEpisode(ctx, e.ID); err == nil && ok {
				report.OrphanEpisodesDeleted++
			}
			continue
		}
		episodeSet[e.ID] = true
	}

	// Drop references to children that no longer exist.
	for _, id := range animeIDs {
		a, err := r.Catalog.GetAnime(ctx, id)
		if err != nil {
			continue
		}
		for _, seasonID := range a.SeasonIDs {
			if !seasonSet[seasonID] {
				if err := r.Catalog.UnlinkSeason(ctx, id, seasonID); err == nil {
					report.StaleLinksRemoved++
				}
			}
		}
	}
	for _, sn := range seasons {
		if !seasonSet[sn.ID] {
			continue
		}
		for _, episodeID := range sn.EpisodeIDs {
			if !episodeSet[episodeID] {
				if err := r.Catalog.UnlinkEpisode(ctx, sn.ID, episodeID); err == nil {
					report.StaleLinksRemoved++
				}
			}
		}
	}

	// Reviews and comments attached to nodes removed by a cascade (or by
	// the pruning above) have no surviving parent to recompute against.
	reviewedAnime, err := r.Engagement.AllReviewedAnimeIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range reviewedAnime {
		if animeSet[id] {
			continue
		}
		n, err := r.Engagement.DeleteReviewsByAnime(ctx, id)
		if err != nil {
			r.Log.Warn("orphan review prune failed", zap.String("anime_id", id), zap.Error(err))
			continue
		}
		report.OrphanReviewsDeleted += n
	}
	commentedEpisodes, err := r.Engagement.AllCommentedEpisodeIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range commentedEpisodes {
		if episodeSet[id] {
			continue
		}
		n, err := r.Engagement.DeleteCommentsByEpisode(ctx, id)
		if err != nil {
			r.Log.Warn("orphan comment prune failed", zap.String("episode_id", id), zap.Error(err))
			continue
		}
		report.OrphanCommentsDeleted += n
	}
	return nil
}

func (r *Reconciler) repairAggregates(ctx context.Context, report *Report) error {
	ids, err := r.Catalog.AllAnimeIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		a, err := r.Catalog.GetAnime(ctx, id)
		if err != nil {
			continue
		}
		avg, count, err := r.Engagement.RatingStats(ctx, id)
		if err != nil {
			return err
		}
		if count == a.ReviewCount && math.Abs(avg-a.AverageRating) < 1e-9 {
			continue
		}
		if err := r.Catalog.UpdateAnimeStats(ctx, id, avg, count); err != nil {
			r.Log.Warn("aggregate repair failed", zap.String("anime_id", id), zap.Error(err))
			continue
		}
		report.AggregatesRepaired++
	}
	return nil
}

func (r *Reconciler) repairUserStats(ctx context.Context, report *Report) error {
	ids, err := r.Users.AllUserIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		u, err := r.Users.GetByID(ctx, id)
		if err != nil {
			continue
		}

		want := users.Stats{}
		if want.Followers, err = r.Edges.CountByTarget(ctx, relations.KindFollow, id); err != nil {
			return err
		}
		if want.Following, err = r.Edges.CountByOwner(ctx, relations.KindFollow, id); err != nil {
			return err
		}
		if want.FavoritesCount, err = r.Edges.CountByOwner(ctx, relations.KindFavorite, id); err != nil {
			return err
		}
		if want.WatchlistCount, err = r.Edges.CountByOwner(ctx, relations.KindWatchlist, id); err != nil {
			return err
		}
		if want.TotalReviews, err = r.Engagement.CountReviewsByUser(ctx, id); err != nil {
			return err
		}
		if want.TotalComments, err = r.Engagement.CountCommentsByUser(ctx, id); err != nil {
			return err
		}
		if u.Stats == want {
			continue
		}

		if err := r.Users.SetRelationCounts(ctx, id, want.Followers, want.Following, want.FavoritesCount, want.WatchlistCount); err != nil {
			r.Log.Warn("user stats repair failed", zap.String("user_id", id), zap.Error(err))
			continue
		}
		if err := r.Users.SetEngagementCounts(ctx, id, want.TotalReviews, want.TotalComments); err != nil {
			r.Log.Warn("user stats repair failed", zap.String("user_id", id), zap.Error(err))
			continue
		}
		report.UserStatsRepaired++
	}
	return nil
}

// pruneEdges removes relationship edges whose endpoints no longer exist, e.g.
// favorites of a deleted anime.
func (r *Reconciler) pruneEdges(ctx context.Context, report *Report) error {
	edges, err := r.Edges.AllEdges(ctx)
	if err != nil {
		return err
	}
	for _, e := range edges {
		var exists bool
		if ownerOK, err := r.Users.Exists(ctx, e.OwnerID); err != nil {
			return err
		} else if !ownerOK {
			exists = false
		} else if e.Kind.TargetsUsers() {
			exists, err = r.Users.Exists(ctx, e.TargetID)
			if err != nil {
				return err
			}
		} else {
			_, err := r.Catalog.GetAnime(ctx, e.TargetID)
			switch {
			case err == nil:
				exists = true
			case errors.Is(err, apperr.ErrNotFound):
				exists = false
			default:
				// A read failure is not evidence the anime is gone.
				return err
			}
		}
		if exists {
			continue
		}
		if ok, err := r.Edges.Remove(ctx, e.Kind, e.OwnerID, e.TargetID); err == nil && ok {
			report.OrphanEdgesRemoved++
		}
	}
	return nil
}
