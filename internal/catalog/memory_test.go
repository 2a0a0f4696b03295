package catalog

import (
	"context"
	"testing"
)

// A value returned by a read must stay stable when the stored document's
// reference arrays are rewritten afterwards.
func TestReadSnapshotsAreDetached(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	a, err := store.InsertAnime(ctx, Anime{Title: "Lain", Description: "d", Status: StatusCompleted})
	if err != nil {
		t.Fatalf("InsertAnime: %v", err)
	}
	for _, id := range []string{"s1", "s2", "s3"} {
		if err := store.LinkSeason(ctx, a.ID, id); err != nil {
			t.Fatalf("LinkSeason %s: %v", id, err)
		}
	}

	snap, err := store.GetAnime(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAnime: %v", err)
	}
	if len(snap.SeasonIDs) != 3 || snap.SeasonIDs[0] != "s1" {
		t.Fatalf("unexpected snapshot: %v", snap.SeasonIDs)
	}

	if err := store.UnlinkSeason(ctx, a.ID, "s1"); err != nil {
		t.Fatalf("UnlinkSeason: %v", err)
	}

	if len(snap.SeasonIDs) != 3 || snap.SeasonIDs[0] != "s1" {
		t.Fatalf("snapshot mutated by later unlink: %v", snap.SeasonIDs)
	}
	got, _ := store.GetAnime(ctx, a.ID)
	if len(got.SeasonIDs) != 2 {
		t.Fatalf("store should have 2 season refs, got %v", got.SeasonIDs)
	}

	sn, err := store.InsertSeason(ctx, Season{AnimeID: a.ID, Number: 1})
	if err != nil {
		t.Fatalf("InsertSeason: %v", err)
	}
	for _, id := range []string{"e1", "e2"} {
		if err := store.LinkEpisode(ctx, sn.ID, id); err != nil {
			t.Fatalf("LinkEpisode %s: %v", id, err)
		}
	}
	snSnap, _ := store.GetSeason(ctx, sn.ID)
	if err := store.UnlinkEpisode(ctx, sn.ID, "e1"); err != nil {
		t.Fatalf("UnlinkEpisode: %v", err)
	}
	if len(snSnap.EpisodeIDs) != 2 || snSnap.EpisodeIDs[0] != "e1" {
		t.Fatalf("season snapshot mutated by later unlink: %v", snSnap.EpisodeIDs)
	}
}
