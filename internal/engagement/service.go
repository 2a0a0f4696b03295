package engagement

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/events"
)

// Catalog answers existence questions for review and comment targets.
type Catalog interface {
	AnimeExists(ctx context.Context, id string) (bool, error)
	EpisodeExists(ctx context.Context, id string) (bool, error)
}

// StatsSink receives recomputed per-user activity counters.
type StatsSink interface {
	SetUserEngagementCounts(ctx context.Context, userID string, totalReviews, totalComments int) error
}

// Service implements review and comment operations. Every mutation that can
// move an anime's aggregates triggers a pull-based recompute before
// returning.
type Service struct {
	store     Store
	recompute *Recomputer
	catalog   Catalog
	stats     StatsSink
	events    *events.Publisher
	log       *zap.Logger
}

func NewService(store Store, rc *Recomputer, cat Catalog, stats StatsSink, pub *events.Publisher, log *zap.Logger) *Service {
	return &Service{store: store, recompute: rc, catalog: cat, stats: stats, events: pub, log: log}
}

// SubmitReviewInput carries a new review.
type SubmitReviewInput struct {
	AnimeID string
	UserID  string
	Rating  int
	Title   string
	Body    string
}

func (s *Service) SubmitReview(ctx context.Context, in SubmitReviewInput) (Review, error) {
	var missing []string
	if in.AnimeID == "" {
		missing = append(missing, "anime_id")
	}
	if in.UserID == "" {
		missing = append(missing, "user_id")
	}
	if in.Rating == 0 {
		missing = append(missing, "rating")
	}
	if len(missing) > 0 {
		return Review{}, &apperr.ValidationError{Missing: missing}
	}
	if in.Rating < MinRating || in.Rating > MaxRating {
		return Review{}, apperr.InvalidOperation(fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	if s.catalog != nil {
		ok, err := s.catalog.AnimeExists(ctx, in.AnimeID)
		if err != nil {
			return Review{}, err
		}
		if !ok {
			return Review{}, apperr.NotFound("anime", in.AnimeID)
		}
	}

	r, err := s.store.InsertReview(ctx, Review{
		AnimeID: in.AnimeID,
		UserID:  in.UserID,
		Rating:  in.Rating,
		Title:   in.Title,
		Body:    in.Body,
	})
	if err != nil {
		return Review{}, err
	}

	if err := s.recompute.RecomputeAnime(ctx, in.AnimeID); err != nil {
		s.log.Warn("aggregate recompute failed", zap.String("anime_id", in.AnimeID), zap.Error(err))
	}
	s.refreshUserStats(ctx, in.UserID)
	s.events.Publish(events.SubjectReviewChanged, "review_created", in.UserID, map[string]any{
		"anime_id": in.AnimeID, "review_id": r.ID, "rating": in.Rating,
	})
	return r, nil
}

// EditReview replaces the rating and text of an existing review. The review
// count is untouched; only the mean moves.
func (s *Service) EditReview(ctx context.Context, reviewID, userID string, rating int, title, body string) (Review, error) {
	r, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return Review{}, err
	}
	if r.UserID != userID {
		return Review{}, apperr.InvalidOperation("not the review author")
	}
	if rating != 0 {
		if rating < MinRating || rating > MaxRating {
			return Review{}, apperr.InvalidOperation(fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
		}
		r.Rating = rating
	}
	if title != "" {
		r.Title = title
	}
	if body != "" {
		r.Body = body
	}

	updated, err := s.store.UpdateReview(ctx, r)
	if err != nil {
		return Review{}, err
	}
	if err := s.recompute.RecomputeAnime(ctx, r.AnimeID); err != nil {
		s.log.Warn("aggregate recompute failed", zap.String("anime_id", r.AnimeID), zap.Error(err))
	}
	s.events.Publish(events.SubjectReviewChanged, "review_edited", userID, map[string]any{
		"anime_id": r.AnimeID, "review_id": reviewID, "rating": updated.Rating,
	})
	return updated, nil
}

func (s *Service) DeleteReview(ctx context.Context, reviewID, userID string) error {
	r, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if r.UserID != userID {
		return apperr.InvalidOperation("not the review author")
	}
	if _, err := s.store.DeleteReview(ctx, reviewID); err != nil {
		return err
	}
	if err := s.recompute.RecomputeAnime(ctx, r.AnimeID); err != nil {
		s.log.Warn("aggregate recompute failed", zap.String("anime_id", r.AnimeID), zap.Error(err))
	}
	s.refreshUserStats(ctx, userID)
	s.events.Publish(events.SubjectReviewChanged, "review_deleted", userID, map[string]any{
		"anime_id": r.AnimeID, "review_id": reviewID,
	})
	return nil
}

func (s *Service) ReviewsForAnime(ctx context.Context, animeID string) ([]Review, error) {
	return s.store.ReviewsByAnime(ctx, animeID)
}

func (s *Service) ReviewsForUser(ctx context.Context, userID string) ([]Review, error) {
	return s.store.ReviewsByUser(ctx, userID)
}

// SubmitCommentInput carries a new episode comment.
type SubmitCommentInput struct {
	EpisodeID string
	UserID    string
	Body      string
}

func (s *Service) SubmitComment(ctx context.Context, in SubmitCommentInput) (Comment, error) {
	var missing []string
	if in.EpisodeID == "" {
		missing = append(missing, "episode_id")
	}
	if in.UserID == "" {
		missing = append(missing, "user_id")
	}
	if in.Body == "" {
		missing = append(missing, "body")
	}
	if len(missing) > 0 {
		return Comment{}, &apperr.ValidationError{Missing: missing}
	}
	if s.catalog != nil {
		ok, err := s.catalog.EpisodeExists(ctx, in.EpisodeID)
		if err != nil {
			return Comment{}, err
		}
		if !ok {
			return Comment{}, apperr.NotFound("episode", in.EpisodeID)
		}
	}

	c, err := s.store.InsertComment(ctx, Comment{
		EpisodeID: in.EpisodeID,
		UserID:    in.UserID,
		Body:      in.Body,
	})
	if err != nil {
		return Comment{}, err
	}
	s.refreshUserStats(ctx, in.UserID)
	s.events.Publish(events.SubjectCommentChanged, "comment_created", in.UserID, map[string]any{
		"episode_id": in.EpisodeID, "comment_id": c.ID,
	})
	return c, nil
}

func (s *Service) DeleteComment(ctx context.Context, commentID, userID string) error {
	c, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return apperr.InvalidOperation("not the comment author")
	}
	if _, err := s.store.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	s.refreshUserStats(ctx, userID)
	s.events.Publish(events.SubjectCommentChanged, "comment_deleted", userID, map[string]any{
		"episode_id": c.EpisodeID, "comment_id": commentID,
	})
	return nil
}

func (s *Service) CommentsForEpisode(ctx context.Context, episodeID string) ([]Comment, error) {
	return s.store.CommentsByEpisode(ctx, episodeID)
}

// refreshUserStats re-derives the user's activity counters from the stored
// rows. Failures are logged; the reconciler repairs stale counters later.
func (s *Service) refreshUserStats(ctx context.Context, userID string) {
	if s.stats == nil {
		return
	}
	reviews, err := s.store.CountReviewsByUser(ctx, userID)
	if err != nil {
		s.log.Warn("user stats refresh failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	comments, err := s.store.CountCommentsByUser(ctx, userID)
	if err != nil {
		s.log.Warn("user stats refresh failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if err := s.stats.SetUserEngagementCounts(ctx, userID, reviews, comments); err != nil {
		s.log.Warn("user stats refresh failed", zap.String("user_id", userID), zap.Error(err))
	}
}
