package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
)

func TestRecordValidation(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), nil, zap.NewNop())
	_, err := svc.Record(context.Background(), "alice", "", "")
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) || len(ve.Missing) != 2 {
		t.Fatalf("expected 2 missing fields, got %v", err)
	}
}

func TestListKeysetPagination(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := NewService(repo, nil, zap.NewNop())
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := repo.Append(ctx, Record{
			UserID: "alice", AnimeID: "bebop", EpisodeID: "ep",
			WatchedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	// Someone else's records never leak in.
	if _, err := repo.Append(ctx, Record{UserID: "bob", AnimeID: "bebop", EpisodeID: "ep"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	page1, err := svc.List(ctx, "alice", 2, nil)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1) != 2 {
		t.Fatalf("page 1 size = %d, want 2", len(page1))
	}
	if !page1[0].WatchedAt.After(page1[1].WatchedAt) {
		t.Fatal("page 1 not most-recent-first")
	}

	cursor := &Cursor{WatchedAt: page1[1].WatchedAt, ID: page1[1].ID}
	page2, err := svc.List(ctx, "alice", 2, cursor)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("page 2 size = %d, want 2", len(page2))
	}
	if !page2[0].WatchedAt.Before(page1[1].WatchedAt) {
		t.Fatal("page 2 must start strictly after the cursor")
	}

	// Walk to exhaustion.
	cursor = &Cursor{WatchedAt: page2[1].WatchedAt, ID: page2[1].ID}
	page3, err := svc.List(ctx, "alice", 2, cursor)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3) != 1 {
		t.Fatalf("page 3 size = %d, want 1", len(page3))
	}

	total := len(page1) + len(page2) + len(page3)
	if total != 5 {
		t.Fatalf("paged records = %d, want 5", total)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	rec := Record{ID: "abc-123", WatchedAt: time.Date(2026, 3, 4, 5, 6, 7, 890, time.UTC)}
	token := EncodeCursor(rec)

	c, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.ID != rec.ID || !c.WatchedAt.Equal(rec.WatchedAt) {
		t.Fatalf("round trip mismatch: %+v", c)
	}

	if c, err := DecodeCursor(""); err != nil || c != nil {
		t.Fatalf("empty cursor should decode to nil, got %v %v", c, err)
	}
	if _, err := DecodeCursor("!!not-base64!!"); err == nil {
		t.Fatal("garbage cursor should fail")
	}
}
