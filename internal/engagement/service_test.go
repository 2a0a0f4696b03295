package engagement

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
)

type fakeCatalog struct {
	anime    map[string]bool
	episodes map[string]bool
}

func (c *fakeCatalog) AnimeExists(_ context.Context, id string) (bool, error) {
	return c.anime[id], nil
}

func (c *fakeCatalog) EpisodeExists(_ context.Context, id string) (bool, error) {
	return c.episodes[id], nil
}

type statsRecorder struct {
	mu          sync.Mutex
	anime       map[string][2]float64 // avg, count
	users       map[string][2]int     // reviews, comments
	invalidated []string
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{anime: make(map[string][2]float64), users: make(map[string][2]int)}
}

func (r *statsRecorder) UpdateAnimeStats(_ context.Context, id string, avg float64, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anime[id] = [2]float64{avg, float64(count)}
	return nil
}

func (r *statsRecorder) SetUserEngagementCounts(_ context.Context, userID string, reviews, comments int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = [2]int{reviews, comments}
	return nil
}

func (r *statsRecorder) Invalidate(_ context.Context, animeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, animeID)
}

func (r *statsRecorder) invalidations(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.invalidated {
		if got == id {
			n++
		}
	}
	return n
}

func (r *statsRecorder) animeStats(id string) (float64, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.anime[id]
	return v[0], int(v[1])
}

func newEngagementService() (*Service, *statsRecorder) {
	store := NewInMemoryStore()
	rec := newStatsRecorder()
	cat := &fakeCatalog{
		anime:    map[string]bool{"bebop": true, "trigun": true},
		episodes: map[string]bool{"ep-1": true},
	}
	svc := NewService(store, NewRecomputer(store, rec, rec), cat, rec, nil, zap.NewNop())
	return svc, rec
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSubmitThenEditReview(t *testing.T) {
	svc, rec := newEngagementService()
	ctx := context.Background()

	r, err := svc.SubmitReview(ctx, SubmitReviewInput{AnimeID: "bebop", UserID: "alice", Rating: 4, Body: "good"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if avg, count := rec.animeStats("bebop"); !almostEqual(avg, 4) || count != 1 {
		t.Fatalf("after submit: avg=%v count=%d, want 4/1", avg, count)
	}

	// Editing the rating moves the mean but never the count.
	if _, err := svc.EditReview(ctx, r.ID, "alice", 3, "", ""); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if avg, count := rec.animeStats("bebop"); !almostEqual(avg, 3) || count != 1 {
		t.Fatalf("after edit: avg=%v count=%d, want 3/1", avg, count)
	}
}

func TestDeleteReviewRecomputes(t *testing.T) {
	svc, rec := newEngagementService()
	ctx := context.Background()

	var middle Review
	for user, rating := range map[string]int{"alice": 5, "bob": 3, "carol": 4} {
		r, err := svc.SubmitReview(ctx, SubmitReviewInput{AnimeID: "bebop", UserID: user, Rating: rating, Body: "x"})
		if err != nil {
			t.Fatalf("submit %s: %v", user, err)
		}
		if rating == 3 {
			middle = r
		}
	}
	if avg, count := rec.animeStats("bebop"); !almostEqual(avg, 4) || count != 3 {
		t.Fatalf("after submits: avg=%v count=%d, want 4/3", avg, count)
	}

	if err := svc.DeleteReview(ctx, middle.ID, "bob"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if avg, count := rec.animeStats("bebop"); !almostEqual(avg, 4.5) || count != 2 {
		t.Fatalf("after delete: avg=%v count=%d, want 4.5/2", avg, count)
	}
}

func TestDuplicateReviewRejected(t *testing.T) {
	svc, _ := newEngagementService()
	ctx := context.Background()
	in := SubmitReviewInput{AnimeID: "bebop", UserID: "alice", Rating: 5, Body: "x"}
	if _, err := svc.SubmitReview(ctx, in); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.SubmitReview(ctx, in); !errors.Is(err, apperr.ErrInvalidOperation) {
		t.Fatalf("expected invalid operation, got %v", err)
	}
}

func TestReviewValidation(t *testing.T) {
	svc, _ := newEngagementService()
	ctx := context.Background()

	_, err := svc.SubmitReview(ctx, SubmitReviewInput{AnimeID: "bebop"})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	_, err = svc.SubmitReview(ctx, SubmitReviewInput{AnimeID: "bebop", UserID: "alice", Rating: 6})
	if !errors.Is(err, apperr.ErrInvalidOperation) {
		t.Fatalf("expected invalid operation for rating 6, got %v", err)
	}

	_, err = svc.SubmitReview(ctx, SubmitReviewInput{AnimeID: "ghost", UserID: "alice", Rating: 4})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for missing anime, got %v", err)
	}
}

func TestEditByNonAuthorRejected(t *testing.T) {
	svc, _ := newEngagementService()
	ctx := context.Background()
	r, err := svc.SubmitReview(ctx, SubmitReviewInput{AnimeID: "bebop", UserID: "alice", Rating: 4, Body: "x"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.EditReview(ctx, r.ID, "bob", 1, "", ""); !errors.Is(err, apperr.ErrInvalidOperation) {
		t.Fatalf("expected invalid operation, got %v", err)
	}
	if err := svc.DeleteReview(ctx, r.ID, "bob"); !errors.Is(err, apperr.ErrInvalidOperation) {
		t.Fatalf("expected invalid operation, got %v", err)
	}
}

func TestCommentsFeedUserStats(t *testing.T) {
	svc, rec := newEngagementService()
	ctx := context.Background()

	c, err := svc.SubmitComment(ctx, SubmitCommentInput{EpisodeID: "ep-1", UserID: "alice", Body: "nice"})
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := svc.SubmitReview(ctx, SubmitReviewInput{AnimeID: "bebop", UserID: "alice", Rating: 5, Body: "x"}); err != nil {
		t.Fatalf("review: %v", err)
	}
	rec.mu.Lock()
	got := rec.users["alice"]
	rec.mu.Unlock()
	if got != [2]int{1, 1} {
		t.Fatalf("user stats = %v, want [1 1]", got)
	}

	if err := svc.DeleteComment(ctx, c.ID, "alice"); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	rec.mu.Lock()
	got = rec.users["alice"]
	rec.mu.Unlock()
	if got != [2]int{1, 0} {
		t.Fatalf("user stats after comment delete = %v, want [1 0]", got)
	}
}

func TestCommentMissingEpisode(t *testing.T) {
	svc, _ := newEngagementService()
	_, err := svc.SubmitComment(context.Background(), SubmitCommentInput{EpisodeID: "ghost", UserID: "alice", Body: "hi"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReviewMutationsDropCachedSubtree(t *testing.T) {
	svc, rec := newEngagementService()
	ctx := context.Background()

	r, err := svc.SubmitReview(ctx, SubmitReviewInput{AnimeID: "bebop", UserID: "alice", Rating: 4, Body: "good"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := rec.invalidations("bebop"); got != 1 {
		t.Fatalf("invalidations after submit = %d, want 1", got)
	}
	if _, err := svc.EditReview(ctx, r.ID, "alice", 3, "", "ok"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if got := rec.invalidations("bebop"); got != 2 {
		t.Fatalf("invalidations after edit = %d, want 2", got)
	}
	if err := svc.DeleteReview(ctx, r.ID, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := rec.invalidations("bebop"); got != 3 {
		t.Fatalf("invalidations after delete = %d, want 3", got)
	}
}
