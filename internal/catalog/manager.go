package catalog

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/assets"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/events"
)

// Manager coordinates catalog writes across the document store and the
// external asset host. Writes are document-then-link: the child document is
// inserted first and only then referenced from its parent, with no atomicity
// across the two steps. Deletes run the other way, bottom-up, and always
// remove a document before its hosted asset so a failed asset delete can
// never resurrect a reference to a missing document.
type Manager struct {
	store  Store
	assets assets.Store
	cache  *SubtreeCache
	events *events.Publisher
	log    *zap.Logger
}

func NewManager(store Store, assetStore assets.Store, cache *SubtreeCache, pub *events.Publisher, log *zap.Logger) *Manager {
	return &Manager{store: store, assets: assetStore, cache: cache, events: pub, log: log}
}

// CreateAnimeInput carries the fields for a new root node. Cover is optional;
// when present it is uploaded before any document write.
type CreateAnimeInput struct {
	Title       string
	Description string
	Genres      []string
	ReleaseDate time.Time
	Status      Status
	Cover       *assets.Upload
}

func (in CreateAnimeInput) validate() error {
	var missing []string
	if in.Title == "" {
		missing = append(missing, "title")
	}
	if in.Description == "" {
		missing = append(missing, "description")
	}
	if in.Status == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return &apperr.ValidationError{Missing: missing}
	}
	if !in.Status.Valid() {
		return apperr.InvalidOperation("status must be ongoing or completed")
	}
	if len(in.Genres) > MaxGenres {
		return apperr.InvalidOperation("too many genres")
	}
	return nil
}

func (m *Manager) CreateAnime(ctx context.Context, in CreateAnimeInput) (Anime, error) {
	if err := in.validate(); err != nil {
		return Anime{}, err
	}

	var cover assets.Asset
	if in.Cover != nil {
		uploaded, err := m.assets.Upload(ctx, *in.Cover)
		if err != nil {
			return Anime{}, &apperr.UploadError{Err: err}
		}
		cover = uploaded
	}

	a, err := m.store.InsertAnime(ctx, Anime{
		Title:       in.Title,
		Description: in.Description,
		Genres:      in.Genres,
		ReleaseDate: in.ReleaseDate,
		Status:      in.Status,
		Cover:       cover,
	})
	if err != nil {
		// The document never existed; drop the freshly uploaded cover.
		if cover.AssetID != "" {
			m.deleteAsset(ctx, cover.AssetID)
		}
		return Anime{}, err
	}

	m.events.Publish(events.SubjectCatalogNodeCreated, "catalog_node_created", "", map[string]any{
		"kind": string(KindAnime), "node_id": a.ID,
	})
	return a, nil
}

// UpdateAnimeInput holds the mutable metadata of an anime. Aggregates and
// season links are not updatable through this path.
type UpdateAnimeInput struct {
	Title       string
	Description string
	Genres      []string
	ReleaseDate time.Time
	Status      Status
	Cover       *assets.Upload
}

func (m *Manager) UpdateAnime(ctx context.Context, id string, in UpdateAnimeInput) (Anime, error) {
	current, err := m.store.GetAnime(ctx, id)
	if err != nil {
		return Anime{}, err
	}
	if in.Title != "" {
		current.Title = in.Title
	}
	if in.Description != "" {
		current.Description = in.Description
	}
	if in.Genres != nil {
		if len(in.Genres) > MaxGenres {
			return Anime{}, apperr.InvalidOperation("too many genres")
		}
		current.Genres = in.Genres
	}
	if !in.ReleaseDate.IsZero() {
		current.ReleaseDate = in.ReleaseDate
	}
	if in.Status != "" {
		if !in.Status.Valid() {
			return Anime{}, apperr.InvalidOperation("status must be ongoing or completed")
		}
		current.Status = in.Status
	}

	oldAssetID := ""
	if in.Cover != nil {
		uploaded, err := m.assets.Upload(ctx, *in.Cover)
		if err != nil {
			return Anime{}, &apperr.UploadError{Err: err}
		}
		oldAssetID = current.Cover.AssetID
		current.Cover = uploaded
	}

	updated, err := m.store.UpdateAnime(ctx, current)
	if err != nil {
		return Anime{}, err
	}
	if oldAssetID != "" {
		m.deleteAsset(ctx, oldAssetID)
	}
	m.cache.Invalidate(ctx, id)
	return updated, nil
}

func (m *Manager) GetAnime(ctx context.Context, id string) (Anime, error) {
	return m.store.GetAnime(ctx, id)
}

func (m *Manager) ListAnime(ctx context.Context, limit, offset int) ([]Anime, error) {
	return m.store.ListAnime(ctx, limit, offset)
}

// CreateSeasonInput carries the fields for a new season under an anime.
type CreateSeasonInput struct {
	AnimeID     string
	Number      int
	Title       string
	Description string
	ReleaseDate time.Time
	Cover       *assets.Upload
}

func (in CreateSeasonInput) validate() error {
	var missing []string
	if in.AnimeID == "" {
		missing = append(missing, "anime_id")
	}
	if in.Number <= 0 {
		missing = append(missing, "number")
	}
	if len(missing) > 0 {
		return &apperr.ValidationError{Missing: missing}
	}
	return nil
}

func (m *Manager) CreateSeason(ctx context.Context, in CreateSeasonInput) (Season, error) {
	if err := in.validate(); err != nil {
		return Season{}, err
	}
	if _, err := m.store.GetAnime(ctx, in.AnimeID); err != nil {
		return Season{}, err
	}

	var cover assets.Asset
	if in.Cover != nil {
		uploaded, err := m.assets.Upload(ctx, *in.Cover)
		if err != nil {
			return Season{}, &apperr.UploadError{Err: err}
		}
		cover = uploaded
	}

	sn, err := m.store.InsertSeason(ctx, Season{
		AnimeID:     in.AnimeID,
		Number:      in.Number,
		Title:       in.Title,
		Description: in.Description,
		ReleaseDate: in.ReleaseDate,
		Cover:       cover,
	})
	if err != nil {
		if cover.AssetID != "" {
			m.deleteAsset(ctx, cover.AssetID)
		}
		return Season{}, err
	}

	// Link after insert. A crash between the two leaves an unlinked season
	// document for the reconciler, never a dangling parent reference.
	if err := m.store.LinkSeason(ctx, in.AnimeID, sn.ID); err != nil {
		m.log.Warn("season created but link failed",
			zap.String("anime_id", in.AnimeID), zap.String("season_id", sn.ID), zap.Error(err))
	}

	m.cache.Invalidate(ctx, in.AnimeID)
	m.events.Publish(events.SubjectCatalogNodeCreated, "catalog_node_created", "", map[string]any{
		"kind": string(KindSeason), "node_id": sn.ID, "parent_id": in.AnimeID,
	})
	return sn, nil
}

// CreateEpisodeInput carries the fields for a new episode under a season.
type CreateEpisodeInput struct {
	SeasonID        string
	Number          int
	Title           string
	Description     string
	VideoURL        string
	ThumbnailURL    string
	DurationMinutes int
	AirDate         time.Time
}

func (in CreateEpisodeInput) validate() error {
	var missing []string
	if in.SeasonID == "" {
		missing = append(missing, "season_id")
	}
	if in.Number <= 0 {
		missing = append(missing, "number")
	}
	if in.Title == "" {
		missing = append(missing, "title")
	}
	if in.Description == "" {
		missing = append(missing, "description")
	}
	if in.VideoURL == "" {
		missing = append(missing, "video_url")
	}
	if in.ThumbnailURL == "" {
		missing = append(missing, "thumbnail_url")
	}
	if in.DurationMinutes <= 0 {
		missing = append(missing, "duration_minutes")
	}
	if in.AirDate.IsZero() {
		missing = append(missing, "air_date")
	}
	if len(missing) > 0 {
		return &apperr.ValidationError{Missing: missing}
	}
	return nil
}

func (m *Manager) CreateEpisode(ctx context.Context, in CreateEpisodeInput) (Episode, error) {
	if err := in.validate(); err != nil {
		return Episode{}, err
	}
	sn, err := m.store.GetSeason(ctx, in.SeasonID)
	if err != nil {
		return Episode{}, err
	}

	e, err := m.store.InsertEpisode(ctx, Episode{
		SeasonID:        in.SeasonID,
		Number:          in.Number,
		Title:           in.Title,
		Description:     in.Description,
		VideoURL:        in.VideoURL,
		ThumbnailURL:    in.ThumbnailURL,
		DurationMinutes: in.DurationMinutes,
		AirDate:         in.AirDate,
	})
	if err != nil {
		return Episode{}, err
	}

	if err := m.store.LinkEpisode(ctx, in.SeasonID, e.ID); err != nil {
		m.log.Warn("episode created but link failed",
			zap.String("season_id", in.SeasonID), zap.String("episode_id", e.ID), zap.Error(err))
	}

	m.cache.Invalidate(ctx, sn.AnimeID)
	m.events.Publish(events.SubjectCatalogNodeCreated, "catalog_node_created", "", map[string]any{
		"kind": string(KindEpisode), "node_id": e.ID, "parent_id": in.SeasonID,
	})
	return e, nil
}

// GetSubtree resolves an anime and all its seasons and episodes, through the
// read cache when one is configured.
func (m *Manager) GetSubtree(ctx context.Context, animeID string) (Subtree, error) {
	if t, ok := m.cache.Get(ctx, animeID); ok {
		return t, nil
	}

	a, err := m.store.GetAnime(ctx, animeID)
	if err != nil {
		return Subtree{}, err
	}
	seasons, err := m.store.SeasonsByAnime(ctx, animeID)
	if err != nil {
		return Subtree{}, err
	}
	t := Subtree{Anime: a, Seasons: make([]SeasonSubtree, 0, len(seasons))}
	for _, sn := range seasons {
		eps, err := m.store.EpisodesBySeason(ctx, sn.ID)
		if err != nil {
			return Subtree{}, err
		}
		t.Seasons = append(t.Seasons, SeasonSubtree{Season: sn, Episodes: eps})
	}

	m.cache.Set(ctx, animeID, t)
	return t, nil
}

// DeleteNode removes a node and everything beneath it, bottom-up. Deleting an
// id that no longer exists succeeds as a no-op, so a retry after a partial
// failure is always safe. When part of the cascade fails, the already-removed
// and still-present ids are reported through PartialDeletionError;
// re-invoking DeleteNode with the same id resumes where the failed attempt
// stopped.
func (m *Manager) DeleteNode(ctx context.Context, kind NodeKind, id string) error {
	switch kind {
	case KindAnime:
		return m.deleteAnime(ctx, id)
	case KindSeason:
		return m.deleteSeason(ctx, id)
	case KindEpisode:
		return m.deleteEpisode(ctx, id)
	default:
		return apperr.InvalidOperation("unknown node kind")
	}
}

func (m *Manager) deleteEpisode(ctx context.Context, id string) error {
	e, err := m.store.GetEpisode(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}
	ok, err := m.store.DeleteEpisode(ctx, id)
	if err != nil {
		return &apperr.PartialDeletionError{Pending: []string{id}, Err: err}
	}
	if !ok {
		// Already removed between the read and the delete.
		return nil
	}
	// Unlink last: until here the parent still references a live document.
	if err := m.store.UnlinkEpisode(ctx, e.SeasonID, id); err != nil {
		m.log.Warn("episode deleted but unlink failed",
			zap.String("season_id", e.SeasonID), zap.String("episode_id", id), zap.Error(err))
	}
	m.invalidateForSeason(ctx, e.SeasonID)
	m.events.Publish(events.SubjectCatalogNodeDeleted, "catalog_node_deleted", "", map[string]any{
		"kind": string(KindEpisode), "node_id": id,
	})
	return nil
}

// deleteSeasonSubtree removes a season's episodes, then the season document,
// then its hosted cover. It appends every removed id to deleted and every
// remaining id to pending, and reports the first delete failure.
func (m *Manager) deleteSeasonSubtree(ctx context.Context, sn Season, deleted, pending *[]string) error {
	eps, err := m.store.EpisodesBySeason(ctx, sn.ID)
	if err != nil {
		*pending = append(*pending, sn.ID)
		return err
	}

	var firstErr error
	for _, e := range eps {
		if _, err := m.store.DeleteEpisode(ctx, e.ID); err != nil {
			*pending = append(*pending, e.ID)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		*deleted = append(*deleted, e.ID)
	}
	if firstErr != nil {
		// Keep the season while any of its episodes survive, so a retry
		// can still find them through it.
		*pending = append(*pending, sn.ID)
		return firstErr
	}

	if _, err := m.store.DeleteSeason(ctx, sn.ID); err != nil {
		*pending = append(*pending, sn.ID)
		return err
	}
	*deleted = append(*deleted, sn.ID)

	if sn.Cover.AssetID != "" {
		m.deleteAsset(ctx, sn.Cover.AssetID)
	}
	return nil
}

func (m *Manager) deleteSeason(ctx context.Context, id string) error {
	sn, err := m.store.GetSeason(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}

	var deleted, pending []string
	if err := m.deleteSeasonSubtree(ctx, sn, &deleted, &pending); err != nil {
		return &apperr.PartialDeletionError{Deleted: deleted, Pending: pending, Err: err}
	}

	if err := m.store.UnlinkSeason(ctx, sn.AnimeID, id); err != nil {
		m.log.Warn("season deleted but unlink failed",
			zap.String("anime_id", sn.AnimeID), zap.String("season_id", id), zap.Error(err))
	}
	m.cache.Invalidate(ctx, sn.AnimeID)
	m.events.Publish(events.SubjectCatalogNodeDeleted, "catalog_node_deleted", "", map[string]any{
		"kind": string(KindSeason), "node_id": id,
	})
	return nil
}

func (m *Manager) deleteAnime(ctx context.Context, id string) error {
	a, err := m.store.GetAnime(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}
	seasons, err := m.store.SeasonsByAnime(ctx, id)
	if err != nil {
		return err
	}

	var deleted, pending []string
	var firstErr error
	for _, sn := range seasons {
		if err := m.deleteSeasonSubtree(ctx, sn, &deleted, &pending); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		// The root stays until the whole subtree is gone.
		pending = append(pending, id)
		return &apperr.PartialDeletionError{Deleted: deleted, Pending: pending, Err: firstErr}
	}

	if _, err := m.store.DeleteAnime(ctx, id); err != nil {
		pending = append(pending, id)
		return &apperr.PartialDeletionError{Deleted: deleted, Pending: pending, Err: err}
	}
	if a.Cover.AssetID != "" {
		m.deleteAsset(ctx, a.Cover.AssetID)
	}

	m.cache.Invalidate(ctx, id)
	m.events.Publish(events.SubjectCatalogNodeDeleted, "catalog_node_deleted", "", map[string]any{
		"kind": string(KindAnime), "node_id": id,
	})
	return nil
}

// deleteAsset is best-effort. A leaked remote asset is tolerable and logged;
// it never blocks or fails the surrounding operation.
func (m *Manager) deleteAsset(ctx context.Context, assetID string) {
	if err := m.assets.Delete(ctx, assetID); err != nil {
		m.log.Warn("asset delete failed", zap.String("asset_id", assetID), zap.Error(err))
	}
}

func (m *Manager) invalidateForSeason(ctx context.Context, seasonID string) {
	sn, err := m.store.GetSeason(ctx, seasonID)
	if err != nil {
		return
	}
	m.cache.Invalidate(ctx, sn.AnimeID)
}
