package assets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
	"github.com/google/uuid"
)

// InMemoryStore is a development and test double for the media host.
// FailUploads / FailDeletes flip the corresponding operation into an error.
type InMemoryStore struct {
	mu          sync.Mutex
	stored      map[string]Upload
	deleted     []string
	FailUploads bool
	FailDeletes bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{stored: make(map[string]Upload)}
}

func (s *InMemoryStore) Upload(_ context.Context, u Upload) (Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUploads {
		return Asset{}, &apperr.UploadError{Err: errors.New("asset host unavailable")}
	}
	id := uuid.NewString()
	s.stored[id] = u
	return Asset{AssetID: id, URL: fmt.Sprintf("https://assets.local/%s/%s", id, u.FileName)}, nil
}

func (s *InMemoryStore) Delete(_ context.Context, assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDeletes {
		return errors.New("asset host unavailable")
	}
	delete(s.stored, assetID)
	s.deleted = append(s.deleted, assetID)
	return nil
}

// Stored reports whether an asset handle is still held by the fake host.
func (s *InMemoryStore) Stored(assetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.stored[assetID]
	return ok
}

// Deleted returns the handles deleted so far, in order.
func (s *InMemoryStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.deleted))
	copy(out, s.deleted)
	return out
}
