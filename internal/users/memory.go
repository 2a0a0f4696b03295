package users

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]User)}
}

func (s *InMemoryStore) Insert(_ context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return User{}, apperr.InvalidOperation("email already registered")
		}
		if strings.EqualFold(existing.Username, u.Username) {
			return User{}, apperr.InvalidOperation("username already taken")
		}
	}
	u.ID = uuid.NewString()
	if u.Role == "" {
		u.Role = RoleUser
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	return u, nil
}

func (s *InMemoryStore) GetByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, apperr.NotFound("user", id)
	}
	return u, nil
}

func (s *InMemoryStore) GetByLogin(_ context.Context, login string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, login) || strings.EqualFold(u.Username, login) {
			return u, nil
		}
	}
	return User{}, apperr.NotFound("user", login)
}

func (s *InMemoryStore) UpdateProfile(_ context.Context, id, bio, avatarURL string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, apperr.NotFound("user", id)
	}
	if bio != "" {
		u.Bio = bio
	}
	if avatarURL != "" {
		u.AvatarURL = avatarURL
	}
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return u, nil
}

func (s *InMemoryStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.NotFound("user", id)
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

func (s *InMemoryStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok, nil
}

func (s *InMemoryStore) SetRelationCounts(_ context.Context, id string, followers, following, favorites, watchlist int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.NotFound("user", id)
	}
	u.Stats.Followers = followers
	u.Stats.Following = following
	u.Stats.FavoritesCount = favorites
	u.Stats.WatchlistCount = watchlist
	s.users[id] = u
	return nil
}

func (s *InMemoryStore) SetEngagementCounts(_ context.Context, id string, totalReviews, totalComments int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.NotFound("user", id)
	}
	u.Stats.TotalReviews = totalReviews
	u.Stats.TotalComments = totalComments
	s.users[id] = u
	return nil
}

func (s *InMemoryStore) AllUserIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
