package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
	"github.com/google/uuid"
)

// InMemoryStore is a development-only in-memory implementation. It keeps the
// parent reference arrays explicitly, so the document-then-link ordering of
// the manager is observable and testable.
type InMemoryStore struct {
	mu       sync.RWMutex
	animes   map[string]Anime
	seasons  map[string]Season
	episodes map[string]Episode

	// FailDeletes maps a node id to an error returned by its delete,
	// used to exercise partial-cascade behaviour in tests.
	FailDeletes map[string]error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		animes:   make(map[string]Anime),
		seasons:  make(map[string]Season),
		episodes: make(map[string]Episode),
	}
}

// ── Anime ──────────────────────────────────────────────────────────────────

func (s *InMemoryStore) InsertAnime(_ context.Context, a Anime) (Anime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.animes {
		if strings.EqualFold(existing.Title, a.Title) {
			return Anime{}, apperr.InvalidOperation("anime title already in use")
		}
	}
	a.ID = uuid.NewString()
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	if a.SeasonIDs == nil {
		a.SeasonIDs = []string{}
	}
	s.animes[a.ID] = a
	return a, nil
}

func (s *InMemoryStore) GetAnime(_ context.Context, id string) (Anime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.animes[id]
	if !ok {
		return Anime{}, apperr.NotFound("anime", id)
	}
	return snapshotAnime(a), nil
}

func (s *InMemoryStore) GetAnimeByTitle(_ context.Context, title string) (Anime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.animes {
		if strings.EqualFold(a.Title, title) {
			return snapshotAnime(a), nil
		}
	}
	return Anime{}, apperr.NotFound("anime", title)
}

func (s *InMemoryStore) ListAnime(_ context.Context, limit, offset int) ([]Anime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	all := make([]Anime, 0, len(s.animes))
	for _, a := range s.animes {
		all = append(all, snapshotAnime(a))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	if offset >= len(all) {
		return []Anime{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *InMemoryStore) UpdateAnime(_ context.Context, a Anime) (Anime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.animes[a.ID]
	if !ok {
		return Anime{}, apperr.NotFound("anime", a.ID)
	}
	// Aggregates and child links are owned by other operations.
	a.AverageRating = existing.AverageRating
	a.ReviewCount = existing.ReviewCount
	a.SeasonIDs = existing.SeasonIDs
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	s.animes[a.ID] = a
	return snapshotAnime(a), nil
}

func (s *InMemoryStore) UpdateAnimeStats(_ context.Context, id string, avg float64, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.animes[id]
	if !ok {
		return apperr.NotFound("anime", id)
	}
	a.AverageRating = avg
	a.ReviewCount = count
	a.UpdatedAt = time.Now().UTC()
	s.animes[id] = a
	return nil
}

func (s *InMemoryStore) DeleteAnime(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailDeletes[id]; err != nil {
		return false, err
	}
	if _, ok := s.animes[id]; !ok {
		return false, nil
	}
	delete(s.animes, id)
	return true, nil
}

func (s *InMemoryStore) LinkSeason(_ context.Context, animeID, seasonID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.animes[animeID]
	if !ok {
		return apperr.NotFound("anime", animeID)
	}
	a.SeasonIDs = setAdd(a.SeasonIDs, seasonID)
	s.animes[animeID] = a
	return nil
}

func (s *InMemoryStore) UnlinkSeason(_ context.Context, animeID, seasonID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.animes[animeID]
	if !ok {
		return nil // parent already gone; unlink is a no-op
	}
	a.SeasonIDs = setRemove(a.SeasonIDs, seasonID)
	s.animes[animeID] = a
	return nil
}

// ── Seasons ────────────────────────────────────────────────────────────────

func (s *InMemoryStore) InsertSeason(_ context.Context, sn Season) (Season, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn.ID = uuid.NewString()
	sn.CreatedAt = time.Now().UTC()
	if sn.EpisodeIDs == nil {
		sn.EpisodeIDs = []string{}
	}
	s.seasons[sn.ID] = sn
	return sn, nil
}

func (s *InMemoryStore) GetSeason(_ context.Context, id string) (Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sn, ok := s.seasons[id]
	if !ok {
		return Season{}, apperr.NotFound("season", id)
	}
	return snapshotSeason(sn), nil
}

func (s *InMemoryStore) SeasonsByAnime(_ context.Context, animeID string) ([]Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Season
	for _, sn := range s.seasons {
		if sn.AnimeID == animeID {
			out = append(out, snapshotSeason(sn))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *InMemoryStore) DeleteSeason(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailDeletes[id]; err != nil {
		return false, err
	}
	if _, ok := s.seasons[id]; !ok {
		return false, nil
	}
	delete(s.seasons, id)
	return true, nil
}

func (s *InMemoryStore) LinkEpisode(_ context.Context, seasonID, episodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, ok := s.seasons[seasonID]
	if !ok {
		return apperr.NotFound("season", seasonID)
	}
	sn.EpisodeIDs = setAdd(sn.EpisodeIDs, episodeID)
	s.seasons[seasonID] = sn
	return nil
}

func (s *InMemoryStore) UnlinkEpisode(_ context.Context, seasonID, episodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, ok := s.seasons[seasonID]
	if !ok {
		return nil
	}
	sn.EpisodeIDs = setRemove(sn.EpisodeIDs, episodeID)
	s.seasons[seasonID] = sn
	return nil
}

// ── Episodes ───────────────────────────────────────────────────────────────

func (s *InMemoryStore) InsertEpisode(_ context.Context, e Episode) (Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	s.episodes[e.ID] = e
	return e, nil
}

func (s *InMemoryStore) GetEpisode(_ context.Context, id string) (Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.episodes[id]
	if !ok {
		return Episode{}, apperr.NotFound("episode", id)
	}
	return e, nil
}

func (s *InMemoryStore) EpisodesBySeason(_ context.Context, seasonID string) ([]Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Episode
	for _, e := range s.episodes {
		if e.SeasonID == seasonID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *InMemoryStore) DeleteEpisode(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailDeletes[id]; err != nil {
		return false, err
	}
	if _, ok := s.episodes[id]; !ok {
		return false, nil
	}
	delete(s.episodes, id)
	return true, nil
}

// ── Reconciliation reads ───────────────────────────────────────────────────

func (s *InMemoryStore) AllAnimeIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.animes))
	for id := range s.animes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *InMemoryStore) AllSeasons(_ context.Context) ([]Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Season, 0, len(s.seasons))
	for _, sn := range s.seasons {
		out = append(out, snapshotSeason(sn))
	}
	return out, nil
}

func (s *InMemoryStore) AllEpisodes(_ context.Context) ([]Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Episode, 0, len(s.episodes))
	for _, e := range s.episodes {
		out = append(out, e)
	}
	return out, nil
}

func setAdd(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func setRemove(ids []string, id string) []string {
	// Always a fresh slice: the old backing array may be shared with
	// snapshots returned by earlier reads.
	out := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// snapshots detach the reference arrays, so callers can hold a returned
// value across later link mutations.
func snapshotAnime(a Anime) Anime {
	a.SeasonIDs = cloneIDs(a.SeasonIDs)
	a.Genres = cloneIDs(a.Genres)
	return a
}

func snapshotSeason(sn Season) Season {
	sn.EpisodeIDs = cloneIDs(sn.EpisodeIDs)
	return sn
}
