package postgres

import (
	"context"
	"errors"
	"fmt"

	internal_store "github.com/TrailParty/trail-party-backend/internal/store"
	"github.com/TrailParty/trail-party-backend/logger"
	"github.com/TrailParty/trail-party-backend/types"
	"github.com/jackc/pgx/v5"
)

// Ensure pgCompanionStore implements internal_store.CompanionStore.
var _ internal_store.CompanionStore = (*pgCompanionStore)(nil)

type pgCompanionStore struct {
	pool DBPool
}

// NewPgCompanionStore creates a new PostgreSQL companion store.
// Companion contact CRUD belongs to another service; this store only reads.
func NewPgCompanionStore(pool DBPool) internal_store.CompanionStore {
	return &pgCompanionStore{pool: pool}
}

const companionColumns = `id, name, email, linked_user_id, created_by, shareable, created_at, updated_at`

func scanCompanion(row pgx.Row) (*types.Companion, error) {
	var c types.Companion
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.LinkedUserID,
		&c.CreatedBy,
		&c.Shareable,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCompanion implements internal_store.CompanionStore.
func (s *pgCompanionStore) GetCompanion(ctx context.Context, id string) (*types.Companion, error) {
	query := `SELECT ` + companionColumns + ` FROM companions WHERE id = $1`
	companion, err := scanCompanion(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, internal_store.ErrNotFound
		}
		return nil, fmt.Errorf("database error getting companion: %w", err)
	}
	return companion, nil
}

// GetCompanionsByIDs implements internal_store.CompanionStore.
func (s *pgCompanionStore) GetCompanionsByIDs(ctx context.Context, ids []string) (map[string]*types.Companion, error) {
	log := logger.GetLogger()
	result := make(map[string]*types.Companion, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + companionColumns + ` FROM companions WHERE id = ANY($1)`
	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		log.Errorw("Failed to query companions by IDs", "count", len(ids), "error", err)
		return nil, fmt.Errorf("database error listing companions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		companion, err := scanCompanion(rows)
		if err != nil {
			return result, fmt.Errorf("database error scanning companion row: %w", err)
		}
		result[companion.ID] = companion
	}

	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("database error iterating companions: %w", err)
	}
	return result, nil
}
