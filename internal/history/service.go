package history

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/events"
)

// Service validates and records watch events.
type Service struct {
	repo   Repository
	events *events.Publisher
	log    *zap.Logger
}

func NewService(repo Repository, pub *events.Publisher, log *zap.Logger) *Service {
	return &Service{repo: repo, events: pub, log: log}
}

func (s *Service) Record(ctx context.Context, userID, animeID, episodeID string) (Record, error) {
	var missing []string
	if userID == "" {
		missing = append(missing, "user_id")
	}
	if animeID == "" {
		missing = append(missing, "anime_id")
	}
	if episodeID == "" {
		missing = append(missing, "episode_id")
	}
	if len(missing) > 0 {
		return Record{}, &apperr.ValidationError{Missing: missing}
	}

	rec, err := s.repo.Append(ctx, Record{UserID: userID, AnimeID: animeID, EpisodeID: episodeID})
	if err != nil {
		return Record{}, err
	}
	s.events.Publish(events.SubjectHistoryRecorded, "history_recorded", userID, map[string]any{
		"anime_id": animeID, "episode_id": episodeID,
	})
	return rec, nil
}

func (s *Service) List(ctx context.Context, userID string, limit int, cursor *Cursor) ([]Record, error) {
	return s.repo.List(ctx, userID, limit, cursor)
}

// EncodeCursor renders an opaque continuation token for the given record.
func EncodeCursor(r Record) string {
	raw := r.WatchedAt.UTC().Format(time.RFC3339Nano) + "|" + r.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses the token produced by EncodeCursor.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("bad cursor: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("bad cursor")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("bad cursor: %w", err)
	}
	return &Cursor{WatchedAt: ts, ID: parts[1]}, nil
}
