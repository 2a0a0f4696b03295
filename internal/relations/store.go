package relations

import "context"

// EdgeStore is the persistence contract for relationship edges. Add and
// Remove are set operations: adding a present edge and removing an absent one
// are both successful no-ops, reported through the boolean so the toggle can
// tell a flip from a repeat.
type EdgeStore interface {
	// Add inserts the edge and reports whether it was newly created.
	Add(ctx context.Context, kind EdgeKind, ownerID, targetID string) (bool, error)
	// Remove deletes the edge and reports whether it existed.
	Remove(ctx context.Context, kind EdgeKind, ownerID, targetID string) (bool, error)
	Has(ctx context.Context, kind EdgeKind, ownerID, targetID string) (bool, error)

	// TargetsByOwner lists what the owner points at: followed users,
	// favorited or watchlisted anime.
	TargetsByOwner(ctx context.Context, kind EdgeKind, ownerID string) ([]string, error)
	// OwnersByTarget lists who points at the target, e.g. a user's followers.
	OwnersByTarget(ctx context.Context, kind EdgeKind, targetID string) ([]string, error)
	CountByOwner(ctx context.Context, kind EdgeKind, ownerID string) (int, error)
	CountByTarget(ctx context.Context, kind EdgeKind, targetID string) (int, error)

	// AllEdges is a reconciliation read.
	AllEdges(ctx context.Context) ([]Edge, error)
}

var (
	_ EdgeStore = (*InMemoryEdgeStore)(nil)
	_ EdgeStore = (*PostgresEdgeStore)(nil)
)
