package relations

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryEdgeStore keeps a forward and a reverse index under one lock, so
// both directions of every edge mutate together. It is the substrate for the
// mirror-symmetry and racing-toggle tests.
type InMemoryEdgeStore struct {
	mu      sync.Mutex
	forward map[EdgeKind]map[string]map[string]time.Time // owner → target → created
	reverse map[EdgeKind]map[string]map[string]time.Time // target → owner → created
}

func NewInMemoryEdgeStore() *InMemoryEdgeStore {
	s := &InMemoryEdgeStore{
		forward: make(map[EdgeKind]map[string]map[string]time.Time),
		reverse: make(map[EdgeKind]map[string]map[string]time.Time),
	}
	for _, k := range []EdgeKind{KindFollow, KindFavorite, KindWatchlist} {
		s.forward[k] = make(map[string]map[string]time.Time)
		s.reverse[k] = make(map[string]map[string]time.Time)
	}
	return s
}

func (s *InMemoryEdgeStore) Add(_ context.Context, kind EdgeKind, ownerID, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fwd := s.forward[kind][ownerID]
	if fwd == nil {
		fwd = make(map[string]time.Time)
		s.forward[kind][ownerID] = fwd
	}
	if _, exists := fwd[targetID]; exists {
		return false, nil
	}
	now := time.Now().UTC()
	fwd[targetID] = now

	rev := s.reverse[kind][targetID]
	if rev == nil {
		rev = make(map[string]time.Time)
		s.reverse[kind][targetID] = rev
	}
	rev[ownerID] = now
	return true, nil
}

func (s *InMemoryEdgeStore) Remove(_ context.Context, kind EdgeKind, ownerID, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fwd := s.forward[kind][ownerID]
	if _, exists := fwd[targetID]; !exists {
		return false, nil
	}
	delete(fwd, targetID)
	delete(s.reverse[kind][targetID], ownerID)
	return true, nil
}

func (s *InMemoryEdgeStore) Has(_ context.Context, kind EdgeKind, ownerID, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.forward[kind][ownerID][targetID]
	return ok, nil
}

func (s *InMemoryEdgeStore) TargetsByOwner(_ context.Context, kind EdgeKind, ownerID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.forward[kind][ownerID]), nil
}

func (s *InMemoryEdgeStore) OwnersByTarget(_ context.Context, kind EdgeKind, targetID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.reverse[kind][targetID]), nil
}

func (s *InMemoryEdgeStore) CountByOwner(_ context.Context, kind EdgeKind, ownerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forward[kind][ownerID]), nil
}

func (s *InMemoryEdgeStore) CountByTarget(_ context.Context, kind EdgeKind, targetID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reverse[kind][targetID]), nil
}

func (s *InMemoryEdgeStore) AllEdges(_ context.Context) ([]Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Edge
	for kind, owners := range s.forward {
		for owner, targets := range owners {
			for target, created := range targets {
				out = append(out, Edge{Kind: kind, OwnerID: owner, TargetID: target, CreatedAt: created})
			}
		}
	}
	return out, nil
}

// MirrorConsistent verifies that the forward and reverse indexes describe the
// same edge set. Test hook.
func (s *InMemoryEdgeStore) MirrorConsistent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for kind, owners := range s.forward {
		for owner, targets := range owners {
			for target := range targets {
				if _, ok := s.reverse[kind][target][owner]; !ok {
					return false
				}
			}
		}
	}
	for kind, targets := range s.reverse {
		for target, owners := range targets {
			for owner := range owners {
				if _, ok := s.forward[kind][owner][target]; !ok {
					return false
				}
			}
		}
	}
	return true
}

func sortedKeys(m map[string]time.Time) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
