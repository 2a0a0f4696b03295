package engagement

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
)

// InMemoryStore is the development and test implementation.
type InMemoryStore struct {
	mu       sync.RWMutex
	reviews  map[string]Review
	comments map[string]Comment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		reviews:  make(map[string]Review),
		comments: make(map[string]Comment),
	}
}

func (s *InMemoryStore) InsertReview(_ context.Context, r Review) (Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reviews {
		if existing.AnimeID == r.AnimeID && existing.UserID == r.UserID {
			return Review{}, apperr.InvalidOperation("user already reviewed this anime")
		}
	}
	r.ID = uuid.NewString()
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	s.reviews[r.ID] = r
	return r, nil
}

func (s *InMemoryStore) GetReview(_ context.Context, id string) (Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[id]
	if !ok {
		return Review{}, apperr.NotFound("review", id)
	}
	return r, nil
}

func (s *InMemoryStore) UpdateReview(_ context.Context, r Review) (Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.reviews[r.ID]
	if !ok {
		return Review{}, apperr.NotFound("review", r.ID)
	}
	r.AnimeID = existing.AnimeID
	r.UserID = existing.UserID
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now().UTC()
	s.reviews[r.ID] = r
	return r, nil
}

func (s *InMemoryStore) DeleteReview(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return false, nil
	}
	delete(s.reviews, id)
	return true, nil
}

func (s *InMemoryStore) ReviewsByAnime(_ context.Context, animeID string) ([]Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Review
	for _, r := range s.reviews {
		if r.AnimeID == animeID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) ReviewsByUser(_ context.Context, userID string) ([]Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Review
	for _, r := range s.reviews {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) RatingStats(_ context.Context, animeID string) (float64, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, count := 0, 0
	for _, r := range s.reviews {
		if r.AnimeID == animeID {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

func (s *InMemoryStore) CountReviewsByUser(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.reviews {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) InsertComment(_ context.Context, c Comment) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	s.comments[c.ID] = c
	return c, nil
}

func (s *InMemoryStore) GetComment(_ context.Context, id string) (Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return Comment{}, apperr.NotFound("comment", id)
	}
	return c, nil
}

func (s *InMemoryStore) DeleteComment(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return false, nil
	}
	delete(s.comments, id)
	return true, nil
}

func (s *InMemoryStore) CommentsByEpisode(_ context.Context, episodeID string) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Comment
	for _, c := range s.comments {
		if c.EpisodeID == episodeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) CountCommentsByUser(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.comments {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) AllReviewedAnimeIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	for _, r := range s.reviews {
		seen[r.AnimeID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *InMemoryStore) AllCommentedEpisodeIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	for _, c := range s.comments {
		seen[c.EpisodeID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *InMemoryStore) DeleteReviewsByAnime(_ context.Context, animeID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, r := range s.reviews {
		if r.AnimeID == animeID {
			delete(s.reviews, id)
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) DeleteCommentsByEpisode(_ context.Context, episodeID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, c := range s.comments {
		if c.EpisodeID == episodeID {
			delete(s.comments, id)
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) AllAuthorIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	for _, r := range s.reviews {
		seen[r.UserID] = true
	}
	for _, c := range s.comments {
		seen[c.UserID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
