package reconciler

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/catalog"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/engagement"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/relations"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/users"
)

func newReconciler() (*Reconciler, *catalog.InMemoryStore, *engagement.InMemoryStore, *relations.InMemoryEdgeStore, *users.InMemoryStore) {
	cat := catalog.NewInMemoryStore()
	eng := engagement.NewInMemoryStore()
	edges := relations.NewInMemoryEdgeStore()
	usr := users.NewInMemoryStore()
	r := &Reconciler{Catalog: cat, Engagement: eng, Edges: edges, Users: usr, Log: zap.NewNop()}
	return r, cat, eng, edges, usr
}

func TestRunOnceRepairsDriftedAggregate(t *testing.T) {
	r, cat, eng, _, usr := newReconciler()
	ctx := context.Background()

	a, err := cat.InsertAnime(ctx, catalog.Anime{Title: "Bebop", Description: "d", Status: catalog.StatusCompleted})
	if err != nil {
		t.Fatalf("insert anime: %v", err)
	}
	u, err := usr.Insert(ctx, users.User{Email: "a@b.io", Username: "alice", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if _, err := eng.InsertReview(ctx, engagement.Review{AnimeID: a.ID, UserID: u.ID, Rating: 4}); err != nil {
		t.Fatalf("insert review: %v", err)
	}
	// Seed drift: the stored aggregate disagrees with the reviews.
	if err := cat.UpdateAnimeStats(ctx, a.ID, 2.0, 9); err != nil {
		t.Fatalf("seed drift: %v", err)
	}

	report, err := r.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.AggregatesRepaired != 1 {
		t.Fatalf("aggregates repaired = %d, want 1", report.AggregatesRepaired)
	}
	got, _ := cat.GetAnime(ctx, a.ID)
	if math.Abs(got.AverageRating-4) > 1e-9 || got.ReviewCount != 1 {
		t.Fatalf("aggregate after repair = %v/%d, want 4/1", got.AverageRating, got.ReviewCount)
	}

	// Second pass finds nothing to do.
	report, err = r.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if report.Total() != 0 {
		t.Fatalf("second pass should be clean, got %+v", report)
	}
}

func TestRunOncePrunesOrphans(t *testing.T) {
	r, cat, _, _, _ := newReconciler()
	ctx := context.Background()

	a, err := cat.InsertAnime(ctx, catalog.Anime{Title: "Bebop", Description: "d", Status: catalog.StatusCompleted})
	if err != nil {
		t.Fatalf("insert anime: %v", err)
	}
	kept, err := cat.InsertSeason(ctx, catalog.Season{AnimeID: a.ID, Number: 1})
	if err != nil {
		t.Fatalf("insert season: %v", err)
	}
	if err := cat.LinkSeason(ctx, a.ID, kept.ID); err != nil {
		t.Fatalf("link season: %v", err)
	}

	// Orphans: a season under a deleted anime, an episode under a deleted
	// season, and parent links to children that were never created.
	orphanSeason, _ := cat.InsertSeason(ctx, catalog.Season{AnimeID: "gone-anime", Number: 1})
	orphanEpisode, _ := cat.InsertEpisode(ctx, catalog.Episode{SeasonID: "gone-season", Number: 1, VideoURL: "v"})
	if err := cat.LinkSeason(ctx, a.ID, "missing-season"); err != nil {
		t.Fatalf("seed stale season link: %v", err)
	}
	if err := cat.LinkEpisode(ctx, kept.ID, "missing-episode"); err != nil {
		t.Fatalf("seed stale episode link: %v", err)
	}

	report, err := r.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.OrphanSeasonsDeleted != 1 || report.OrphanEpisodesDeleted != 1 {
		t.Fatalf("orphans deleted = %d/%d, want 1/1", report.OrphanSeasonsDeleted, report.OrphanEpisodesDeleted)
	}
	if report.StaleLinksRemoved != 2 {
		t.Fatalf("stale links removed = %d, want 2", report.StaleLinksRemoved)
	}

	if _, err := cat.GetSeason(ctx, orphanSeason.ID); err == nil {
		t.Fatal("orphan season should be deleted")
	}
	if _, err := cat.GetEpisode(ctx, orphanEpisode.ID); err == nil {
		t.Fatal("orphan episode should be deleted")
	}
	got, _ := cat.GetAnime(ctx, a.ID)
	if len(got.SeasonIDs) != 1 || got.SeasonIDs[0] != kept.ID {
		t.Fatalf("anime links after repair = %v, want [%s]", got.SeasonIDs, kept.ID)
	}
}

func TestRunOnceRepairsUserStatsAndEdges(t *testing.T) {
	r, cat, eng, edges, usr := newReconciler()
	ctx := context.Background()

	a, err := cat.InsertAnime(ctx, catalog.Anime{Title: "Bebop", Description: "d", Status: catalog.StatusCompleted})
	if err != nil {
		t.Fatalf("insert anime: %v", err)
	}
	alice, _ := usr.Insert(ctx, users.User{Email: "a@b.io", Username: "alice", PasswordHash: "x"})
	bob, _ := usr.Insert(ctx, users.User{Email: "b@b.io", Username: "bob", PasswordHash: "x"})

	// Live rows the user counters should reflect.
	if _, err := edges.Add(ctx, relations.KindFollow, alice.ID, bob.ID); err != nil {
		t.Fatalf("add follow: %v", err)
	}
	if _, err := edges.Add(ctx, relations.KindFavorite, alice.ID, a.ID); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	if _, err := eng.InsertReview(ctx, engagement.Review{AnimeID: a.ID, UserID: alice.ID, Rating: 5}); err != nil {
		t.Fatalf("insert review: %v", err)
	}
	// An edge whose anime no longer exists.
	if _, err := edges.Add(ctx, relations.KindFavorite, alice.ID, "deleted-anime"); err != nil {
		t.Fatalf("add orphan edge: %v", err)
	}

	report, err := r.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.OrphanEdgesRemoved != 1 {
		t.Fatalf("orphan edges removed = %d, want 1", report.OrphanEdgesRemoved)
	}
	// Both users had zeroed counters; both get repaired.
	if report.UserStatsRepaired != 2 {
		t.Fatalf("user stats repaired = %d, want 2", report.UserStatsRepaired)
	}

	got, _ := usr.GetByID(ctx, alice.ID)
	want := users.Stats{Following: 1, FavoritesCount: 1, TotalReviews: 1}
	if got.Stats != want {
		t.Fatalf("alice stats = %+v, want %+v", got.Stats, want)
	}
	got, _ = usr.GetByID(ctx, bob.ID)
	if got.Stats.Followers != 1 {
		t.Fatalf("bob followers = %d, want 1", got.Stats.Followers)
	}
	if has, _ := edges.Has(ctx, relations.KindFavorite, alice.ID, "deleted-anime"); has {
		t.Fatal("orphan edge should be removed")
	}
}

func TestRunOncePrunesOrphanedEngagement(t *testing.T) {
	r, cat, eng, _, usr := newReconciler()
	ctx := context.Background()

	a, err := cat.InsertAnime(ctx, catalog.Anime{Title: "Bebop", Description: "d", Status: catalog.StatusCompleted})
	if err != nil {
		t.Fatalf("insert anime: %v", err)
	}
	alice, _ := usr.Insert(ctx, users.User{Email: "a@b.io", Username: "alice", PasswordHash: "x"})

	kept, err := eng.InsertReview(ctx, engagement.Review{AnimeID: a.ID, UserID: alice.ID, Rating: 5})
	if err != nil {
		t.Fatalf("insert review: %v", err)
	}
	// Rows left behind by a cascade: their anime and episode are gone.
	if _, err := eng.InsertReview(ctx, engagement.Review{AnimeID: "deleted-anime", UserID: alice.ID, Rating: 1}); err != nil {
		t.Fatalf("insert orphan review: %v", err)
	}
	if _, err := eng.InsertComment(ctx, engagement.Comment{EpisodeID: "deleted-episode", UserID: alice.ID, Body: "hi"}); err != nil {
		t.Fatalf("insert orphan comment: %v", err)
	}

	report, err := r.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.OrphanReviewsDeleted != 1 || report.OrphanCommentsDeleted != 1 {
		t.Fatalf("orphan engagement deleted = %d/%d, want 1/1",
			report.OrphanReviewsDeleted, report.OrphanCommentsDeleted)
	}
	if _, err := eng.GetReview(ctx, kept.ID); err != nil {
		t.Fatalf("review on a live anime must survive: %v", err)
	}
	if n, _ := eng.CountReviewsByUser(ctx, alice.ID); n != 1 {
		t.Fatalf("reviews by alice after prune = %d, want 1", n)
	}
	got, _ := usr.GetByID(ctx, alice.ID)
	if got.Stats.TotalReviews != 1 || got.Stats.TotalComments != 0 {
		t.Fatalf("alice counters after prune = %+v, want 1 review / 0 comments", got.Stats)
	}
}

// flakyCatalog fails GetAnime for one id, standing in for a transient
// backend error during a pass.
type flakyCatalog struct {
	catalog.Store
	failID string
}

func (f *flakyCatalog) GetAnime(ctx context.Context, id string) (catalog.Anime, error) {
	if id == f.failID {
		return catalog.Anime{}, errors.New("connection reset")
	}
	return f.Store.GetAnime(ctx, id)
}

func TestTransientReadErrorDoesNotPruneEdges(t *testing.T) {
	r, cat, _, edges, usr := newReconciler()
	ctx := context.Background()

	a, err := cat.InsertAnime(ctx, catalog.Anime{Title: "Bebop", Description: "d", Status: catalog.StatusCompleted})
	if err != nil {
		t.Fatalf("insert anime: %v", err)
	}
	alice, _ := usr.Insert(ctx, users.User{Email: "a@b.io", Username: "alice", PasswordHash: "x"})
	if _, err := edges.Add(ctx, relations.KindFavorite, alice.ID, a.ID); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	r.Catalog = &flakyCatalog{Store: cat, failID: a.ID}

	if _, err := r.RunOnce(ctx); err == nil {
		t.Fatal("a failing read should surface, not be treated as a missing anime")
	}
	if has, _ := edges.Has(ctx, relations.KindFavorite, alice.ID, a.ID); !has {
		t.Fatal("edge to a live anime must survive a transient read failure")
	}
}
