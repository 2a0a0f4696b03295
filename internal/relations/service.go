package relations

import (
	"context"

	"go.uber.org/zap"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/events"
)

// Directory answers existence questions for toggle endpoints. Implemented by
// the user and catalog stores; wired in from main.
type Directory interface {
	UserExists(ctx context.Context, id string) (bool, error)
	AnimeExists(ctx context.Context, id string) (bool, error)
}

// StatsSink receives the recomputed relationship counters for a user. The
// counters are always COUNTed from the edge rows after a mutation, never
// incremented, so a lost or duplicated update can only ever be stale, not
// wrong.
type StatsSink interface {
	SetUserRelationCounts(ctx context.Context, userID string, followers, following, favorites, watchlist int) error
}

// Service implements the relationship toggle and listing operations.
type Service struct {
	edges  EdgeStore
	dir    Directory
	stats  StatsSink
	events *events.Publisher
	log    *zap.Logger
}

func NewService(edges EdgeStore, dir Directory, stats StatsSink, pub *events.Publisher, log *zap.Logger) *Service {
	return &Service{edges: edges, dir: dir, stats: stats, events: pub, log: log}
}

// Toggle flips the edge (kind, ownerID, targetID): absent becomes present,
// present becomes absent. Both directions are one row, so the flip is a
// single storage primitive and repeated or racing toggles converge on a valid
// state.
func (s *Service) Toggle(ctx context.Context, kind EdgeKind, ownerID, targetID string) (ToggleResult, error) {
	var missing []string
	if ownerID == "" {
		missing = append(missing, "owner_id")
	}
	if targetID == "" {
		missing = append(missing, "target_id")
	}
	if len(missing) > 0 {
		return ToggleResult{}, &apperr.ValidationError{Missing: missing}
	}
	if !kind.Valid() {
		return ToggleResult{}, apperr.InvalidOperation("unknown relationship kind")
	}
	if ownerID == targetID {
		return ToggleResult{}, apperr.InvalidOperation("cannot target yourself")
	}
	if err := s.checkExists(ctx, kind, ownerID, targetID); err != nil {
		return ToggleResult{}, err
	}

	added, err := s.edges.Add(ctx, kind, ownerID, targetID)
	if err != nil {
		return ToggleResult{}, err
	}
	active := added
	if !added {
		// Already present: this toggle removes it. If a racer removed it
		// first, the remove is a no-op and the edge is simply off.
		if _, err := s.edges.Remove(ctx, kind, ownerID, targetID); err != nil {
			return ToggleResult{}, err
		}
		active = false
	}

	count, err := s.edges.CountByOwner(ctx, kind, ownerID)
	if err != nil {
		return ToggleResult{}, err
	}
	s.refreshStats(ctx, ownerID)
	if kind.TargetsUsers() {
		s.refreshStats(ctx, targetID)
	}

	s.events.Publish(events.SubjectEdgeToggled, "edge_toggled", ownerID, map[string]any{
		"kind": string(kind), "target_id": targetID, "active": active,
	})
	return ToggleResult{Kind: kind, OwnerID: ownerID, TargetID: targetID, Active: active, OwnerCount: count}, nil
}

func (s *Service) checkExists(ctx context.Context, kind EdgeKind, ownerID, targetID string) error {
	if s.dir == nil {
		return nil
	}
	ok, err := s.dir.UserExists(ctx, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("user", ownerID)
	}
	if kind.TargetsUsers() {
		ok, err = s.dir.UserExists(ctx, targetID)
	} else {
		ok, err = s.dir.AnimeExists(ctx, targetID)
	}
	if err != nil {
		return err
	}
	if !ok {
		if kind.TargetsUsers() {
			return apperr.NotFound("user", targetID)
		}
		return apperr.NotFound("anime", targetID)
	}
	return nil
}

// refreshStats recounts every relationship counter for the user from the edge
// rows and pushes the result to the stats sink. Failures are logged; counters
// are advisory and the reconciler re-derives them on its next pass.
func (s *Service) refreshStats(ctx context.Context, userID string) {
	if s.stats == nil {
		return
	}
	followers, err := s.edges.CountByTarget(ctx, KindFollow, userID)
	if err != nil {
		s.logStatsErr(userID, err)
		return
	}
	following, err := s.edges.CountByOwner(ctx, KindFollow, userID)
	if err != nil {
		s.logStatsErr(userID, err)
		return
	}
	favorites, err := s.edges.CountByOwner(ctx, KindFavorite, userID)
	if err != nil {
		s.logStatsErr(userID, err)
		return
	}
	watchlist, err := s.edges.CountByOwner(ctx, KindWatchlist, userID)
	if err != nil {
		s.logStatsErr(userID, err)
		return
	}
	if err := s.stats.SetUserRelationCounts(ctx, userID, followers, following, favorites, watchlist); err != nil {
		s.logStatsErr(userID, err)
	}
}

func (s *Service) logStatsErr(userID string, err error) {
	s.log.Warn("relation stats refresh failed", zap.String("user_id", userID), zap.Error(err))
}

// Following lists the user ids the given user follows.
func (s *Service) Following(ctx context.Context, userID string) ([]string, error) {
	return s.edges.TargetsByOwner(ctx, KindFollow, userID)
}

// Followers lists the user ids following the given user.
func (s *Service) Followers(ctx context.Context, userID string) ([]string, error) {
	return s.edges.OwnersByTarget(ctx, KindFollow, userID)
}

// Favorites lists the anime ids the user has favorited.
func (s *Service) Favorites(ctx context.Context, userID string) ([]string, error) {
	return s.edges.TargetsByOwner(ctx, KindFavorite, userID)
}

// Watchlist lists the anime ids on the user's watchlist.
func (s *Service) Watchlist(ctx context.Context, userID string) ([]string, error) {
	return s.edges.TargetsByOwner(ctx, KindWatchlist, userID)
}

// IsActive reports whether the edge currently exists.
func (s *Service) IsActive(ctx context.Context, kind EdgeKind, ownerID, targetID string) (bool, error) {
	return s.edges.Has(ctx, kind, ownerID, targetID)
}
