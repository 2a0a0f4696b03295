package relations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresEdgeStore keeps edges in a single table keyed by
// (kind, owner_id, target_id). Both directions of an edge are the same row,
// so follower/following views can never disagree.
type PostgresEdgeStore struct {
	db *pgxpool.Pool
}

func NewPostgresEdgeStore(db *pgxpool.Pool) *PostgresEdgeStore {
	return &PostgresEdgeStore{db: db}
}

func (s *PostgresEdgeStore) Add(ctx context.Context, kind EdgeKind, ownerID, targetID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
INSERT INTO relation_edges (kind, owner_id, target_id, created_at)
VALUES ($1, $2::uuid, $3::uuid, now())
ON CONFLICT (kind, owner_id, target_id) DO NOTHING`, kind, ownerID, targetID)
	if err != nil {
		return false, fmt.Errorf("add edge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresEdgeStore) Remove(ctx context.Context, kind EdgeKind, ownerID, targetID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
DELETE FROM relation_edges WHERE kind = $1 AND owner_id = $2::uuid AND target_id = $3::uuid`,
		kind, ownerID, targetID)
	if err != nil {
		return false, fmt.Errorf("remove edge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresEdgeStore) Has(ctx context.Context, kind EdgeKind, ownerID, targetID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
SELECT EXISTS(SELECT 1 FROM relation_edges WHERE kind = $1 AND owner_id = $2::uuid AND target_id = $3::uuid)`,
		kind, ownerID, targetID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has edge: %w", err)
	}
	return exists, nil
}

func (s *PostgresEdgeStore) TargetsByOwner(ctx context.Context, kind EdgeKind, ownerID string) ([]string, error) {
	return s.idColumn(ctx, `
SELECT target_id FROM relation_edges WHERE kind = $1 AND owner_id = $2::uuid ORDER BY created_at DESC`,
		kind, ownerID)
}

func (s *PostgresEdgeStore) OwnersByTarget(ctx context.Context, kind EdgeKind, targetID string) ([]string, error) {
	return s.idColumn(ctx, `
SELECT owner_id FROM relation_edges WHERE kind = $1 AND target_id = $2::uuid ORDER BY created_at DESC`,
		kind, targetID)
}

func (s *PostgresEdgeStore) CountByOwner(ctx context.Context, kind EdgeKind, ownerID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM relation_edges WHERE kind = $1 AND owner_id = $2::uuid`,
		kind, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count by owner: %w", err)
	}
	return n, nil
}

func (s *PostgresEdgeStore) CountByTarget(ctx context.Context, kind EdgeKind, targetID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM relation_edges WHERE kind = $1 AND target_id = $2::uuid`,
		kind, targetID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count by target: %w", err)
	}
	return n, nil
}

func (s *PostgresEdgeStore) AllEdges(ctx context.Context) ([]Edge, error) {
	rows, err := s.db.Query(ctx, `SELECT kind, owner_id, target_id, created_at FROM relation_edges`)
	if err != nil {
		return nil, fmt.Errorf("all edges: %w", err)
	}
	defer rows.Close()

	var out []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.Kind, &e.OwnerID, &e.TargetID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresEdgeStore) idColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan edge id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
