package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type InMemoryRepository struct {
	mu      sync.RWMutex
	records []Record
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) Append(_ context.Context, rec Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = uuid.NewString()
	if rec.WatchedAt.IsZero() {
		rec.WatchedAt = time.Now().UTC()
	}
	r.records = append(r.records, rec)
	return rec, nil
}

func (r *InMemoryRepository) List(_ context.Context, userID string, limit int, cursor *Cursor) ([]Record, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Record
	for _, rec := range r.records {
		if rec.UserID != userID {
			continue
		}
		if cursor != nil {
			// Exclusive bound: strictly older than the cursor row.
			if rec.WatchedAt.After(cursor.WatchedAt) {
				continue
			}
			if rec.WatchedAt.Equal(cursor.WatchedAt) && rec.ID >= cursor.ID {
				continue
			}
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].WatchedAt.Equal(out[j].WatchedAt) {
			return out[i].WatchedAt.After(out[j].WatchedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
