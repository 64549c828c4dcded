package postgres

import (
	"context"
	"errors"
	"fmt"

	internal_store "github.com/TrailParty/trail-party-backend/internal/store"
	"github.com/TrailParty/trail-party-backend/logger"
	"github.com/TrailParty/trail-party-backend/types"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool is the subset of pgxpool.Pool the stores need. pgxmock satisfies the
// same interface, which keeps the stores testable without a live database.
type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Ensure pgGrantStore implements internal_store.GrantStore.
var _ internal_store.GrantStore = (*pgGrantStore)(nil)

type pgGrantStore struct {
	pool DBPool
}

// NewPgGrantStore creates a new PostgreSQL grant store.
func NewPgGrantStore(pool DBPool) internal_store.GrantStore {
	return &pgGrantStore{pool: pool}
}

const tripGrantColumns = `id, trip_id, companion_id, can_view, can_edit, can_manage_companions, added_by, created_at, updated_at`

const itemGrantColumns = `id, item_type, item_id, companion_id, can_view, can_edit, can_manage_companions, status, provenance, added_by, created_at, updated_at`

func scanTripGrant(row pgx.Row) (*types.TripGrant, error) {
	var g types.TripGrant
	err := row.Scan(
		&g.ID,
		&g.TripID,
		&g.CompanionID,
		&g.Capabilities.CanView,
		&g.Capabilities.CanEdit,
		&g.Capabilities.CanManageCompanions,
		&g.AddedBy,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func scanItemGrant(row pgx.Row) (*types.ItemGrant, error) {
	var g types.ItemGrant
	err := row.Scan(
		&g.ID,
		&g.Item.Type,
		&g.Item.ID,
		&g.CompanionID,
		&g.Capabilities.CanView,
		&g.Capabilities.CanEdit,
		&g.Capabilities.CanManageCompanions,
		&g.Status,
		&g.Provenance,
		&g.AddedBy,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// mapPgError converts unique-violation errors into the store conflict sentinel.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %s", internal_store.ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// WithTx implements internal_store.GrantStore.
// It handles begin, commit, and rollback automatically.
func (s *pgGrantStore) WithTx(ctx context.Context, fn func(tx internal_store.GrantTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		// Rollback is a no-op after a successful commit.
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.GetLogger().Errorw("Failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(&pgGrantTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetTripGrant implements internal_store.GrantStore.
func (s *pgGrantStore) GetTripGrant(ctx context.Context, tripID, companionID string) (*types.TripGrant, error) {
	query := `SELECT ` + tripGrantColumns + ` FROM trip_grants WHERE trip_id = $1 AND companion_id = $2`
	grant, err := scanTripGrant(s.pool.QueryRow(ctx, query, tripID, companionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, internal_store.ErrNotFound
		}
		return nil, fmt.Errorf("database error getting trip grant: %w", err)
	}
	return grant, nil
}

// ListTripGrants implements internal_store.GrantStore.
func (s *pgGrantStore) ListTripGrants(ctx context.Context, tripID string) ([]types.TripGrant, error) {
	log := logger.GetLogger()
	query := `SELECT ` + tripGrantColumns + ` FROM trip_grants WHERE trip_id = $1 ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, tripID)
	if err != nil {
		log.Errorw("Failed to query trip grants", "tripID", tripID, "error", err)
		return nil, fmt.Errorf("database error listing trip grants: %w", err)
	}
	defer rows.Close()

	grants := make([]types.TripGrant, 0)
	for rows.Next() {
		grant, err := scanTripGrant(rows)
		if err != nil {
			log.Errorw("Failed to scan trip grant row", "tripID", tripID, "error", err)
			return grants, fmt.Errorf("database error scanning trip grant row: %w", err)
		}
		grants = append(grants, *grant)
	}

	if err := rows.Err(); err != nil {
		log.Errorw("Error iterating trip grant rows", "tripID", tripID, "error", err)
		return grants, fmt.Errorf("database error iterating trip grants: %w", err)
	}

	return grants, nil
}

// GetItemGrant implements internal_store.GrantStore.
func (s *pgGrantStore) GetItemGrant(ctx context.Context, item types.ItemRef, companionID string) (*types.ItemGrant, error) {
	query := `SELECT ` + itemGrantColumns + ` FROM item_grants WHERE item_type = $1 AND item_id = $2 AND companion_id = $3`
	grant, err := scanItemGrant(s.pool.QueryRow(ctx, query, item.Type, item.ID, companionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, internal_store.ErrNotFound
		}
		return nil, fmt.Errorf("database error getting item grant: %w", err)
	}
	return grant, nil
}

// ListItemGrants implements internal_store.GrantStore.
func (s *pgGrantStore) ListItemGrants(ctx context.Context, item types.ItemRef) ([]types.ItemGrant, error) {
	log := logger.GetLogger()
	query := `SELECT ` + itemGrantColumns + ` FROM item_grants WHERE item_type = $1 AND item_id = $2 ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, item.Type, item.ID)
	if err != nil {
		log.Errorw("Failed to query item grants", "item", item.String(), "error", err)
		return nil, fmt.Errorf("database error listing item grants: %w", err)
	}
	defer rows.Close()

	grants := make([]types.ItemGrant, 0)
	for rows.Next() {
		grant, err := scanItemGrant(rows)
		if err != nil {
			log.Errorw("Failed to scan item grant row", "item", item.String(), "error", err)
			return grants, fmt.Errorf("database error scanning item grant row: %w", err)
		}
		grants = append(grants, *grant)
	}

	if err := rows.Err(); err != nil {
		log.Errorw("Error iterating item grant rows", "item", item.String(), "error", err)
		return grants, fmt.Errorf("database error iterating item grants: %w", err)
	}

	return grants, nil
}

// SetItemGrant implements internal_store.GrantStore.
// Upserts a single item grant outside any cascade transaction.
func (s *pgGrantStore) SetItemGrant(ctx context.Context, grant *types.ItemGrant) error {
	log := logger.GetLogger()
	query := `
        INSERT INTO item_grants (item_type, item_id, companion_id, can_view, can_edit, can_manage_companions, status, provenance, added_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (item_type, item_id, companion_id)
        DO UPDATE SET
            can_view = EXCLUDED.can_view,
            can_edit = EXCLUDED.can_edit,
            can_manage_companions = EXCLUDED.can_manage_companions,
            status = EXCLUDED.status,
            provenance = EXCLUDED.provenance,
            updated_at = CURRENT_TIMESTAMP
        RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		grant.Item.Type,
		grant.Item.ID,
		grant.CompanionID,
		grant.Capabilities.CanView,
		grant.Capabilities.CanEdit,
		grant.Capabilities.CanManageCompanions,
		grant.Status,
		grant.Provenance,
		grant.AddedBy,
	).Scan(&grant.ID)

	if err != nil {
		log.Errorw("Failed to upsert item grant", "item", grant.Item.String(), "companionID", grant.CompanionID, "error", err)
		return mapPgError(err)
	}

	log.Infow("Item grant written", "item", grant.Item.String(), "companionID", grant.CompanionID, "provenance", grant.Provenance)
	return nil
}

// DeleteItemGrantDirect implements internal_store.GrantStore.
func (s *pgGrantStore) DeleteItemGrantDirect(ctx context.Context, item types.ItemRef, companionID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM item_grants WHERE item_type = $1 AND item_id = $2 AND companion_id = $3`,
		item.Type, item.ID, companionID)
	if err != nil {
		return fmt.Errorf("database error deleting item grant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return internal_store.ErrNotFound
	}
	return nil
}

// GetTripOwner implements internal_store.GrantStore.
func (s *pgGrantStore) GetTripOwner(ctx context.Context, tripID string) (string, error) {
	var owner string
	err := s.pool.QueryRow(ctx, `SELECT created_by FROM trips WHERE id = $1 AND deleted_at IS NULL`, tripID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", internal_store.ErrNotFound
		}
		return "", fmt.Errorf("database error getting trip owner: %w", err)
	}
	return owner, nil
}

// TripHasItem implements internal_store.GrantStore.
func (s *pgGrantStore) TripHasItem(ctx context.Context, tripID string, item types.ItemRef) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM trip_items WHERE trip_id = $1 AND item_type = $2 AND item_id = $3)`,
		tripID, item.Type, item.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database error checking trip item: %w", err)
	}
	return exists, nil
}

// --- Transactional operations ---

// Ensure pgGrantTx implements internal_store.GrantTx.
var _ internal_store.GrantTx = (*pgGrantTx)(nil)

type pgGrantTx struct {
	tx pgx.Tx
}

// GetTripGrantForUpdate implements internal_store.GrantTx.
// The FOR UPDATE lock serializes concurrent cascades on the same
// (trip, companion) pair for the lifetime of the transaction.
func (t *pgGrantTx) GetTripGrantForUpdate(ctx context.Context, tripID, companionID string) (*types.TripGrant, error) {
	query := `SELECT ` + tripGrantColumns + ` FROM trip_grants WHERE trip_id = $1 AND companion_id = $2 FOR UPDATE`
	grant, err := scanTripGrant(t.tx.QueryRow(ctx, query, tripID, companionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, internal_store.ErrNotFound
		}
		return nil, fmt.Errorf("database error locking trip grant: %w", err)
	}
	return grant, nil
}

// UpsertTripGrant implements internal_store.GrantTx.
func (t *pgGrantTx) UpsertTripGrant(ctx context.Context, grant *types.TripGrant) error {
	query := `
        INSERT INTO trip_grants (trip_id, companion_id, can_view, can_edit, can_manage_companions, added_by)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (trip_id, companion_id)
        DO UPDATE SET
            can_view = EXCLUDED.can_view,
            can_edit = EXCLUDED.can_edit,
            can_manage_companions = EXCLUDED.can_manage_companions,
            updated_at = CURRENT_TIMESTAMP
        RETURNING id`

	err := t.tx.QueryRow(ctx, query,
		grant.TripID,
		grant.CompanionID,
		grant.Capabilities.CanView,
		grant.Capabilities.CanEdit,
		grant.Capabilities.CanManageCompanions,
		grant.AddedBy,
	).Scan(&grant.ID)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

// DeleteTripGrant implements internal_store.GrantTx.
func (t *pgGrantTx) DeleteTripGrant(ctx context.Context, tripID, companionID string) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM trip_grants WHERE trip_id = $1 AND companion_id = $2`,
		tripID, companionID)
	if err != nil {
		return fmt.Errorf("database error deleting trip grant: %w", err)
	}
	return nil
}

// ListTripItems implements internal_store.GrantTx.
func (t *pgGrantTx) ListTripItems(ctx context.Context, tripID string) ([]types.ItemRef, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT item_type, item_id FROM trip_items WHERE trip_id = $1 ORDER BY item_type, item_id`,
		tripID)
	if err != nil {
		return nil, fmt.Errorf("database error listing trip items: %w", err)
	}
	defer rows.Close()

	items := make([]types.ItemRef, 0)
	for rows.Next() {
		var ref types.ItemRef
		if err := rows.Scan(&ref.Type, &ref.ID); err != nil {
			return items, fmt.Errorf("database error scanning trip item row: %w", err)
		}
		items = append(items, ref)
	}

	if err := rows.Err(); err != nil {
		return items, fmt.Errorf("database error iterating trip items: %w", err)
	}
	return items, nil
}

// ListItemGrantsForCompanion implements internal_store.GrantTx.
func (t *pgGrantTx) ListItemGrantsForCompanion(ctx context.Context, tripID, companionID string) ([]types.ItemGrant, error) {
	query := `
        SELECT g.id, g.item_type, g.item_id, g.companion_id, g.can_view, g.can_edit, g.can_manage_companions,
               g.status, g.provenance, g.added_by, g.created_at, g.updated_at
        FROM item_grants g
        JOIN trip_items ti ON ti.item_type = g.item_type AND ti.item_id = g.item_id
        WHERE ti.trip_id = $1 AND g.companion_id = $2
        ORDER BY g.item_type, g.item_id`

	rows, err := t.tx.Query(ctx, query, tripID, companionID)
	if err != nil {
		return nil, fmt.Errorf("database error listing item grants for companion: %w", err)
	}
	defer rows.Close()

	grants := make([]types.ItemGrant, 0)
	for rows.Next() {
		grant, err := scanItemGrant(rows)
		if err != nil {
			return grants, fmt.Errorf("database error scanning item grant row: %w", err)
		}
		grants = append(grants, *grant)
	}

	if err := rows.Err(); err != nil {
		return grants, fmt.Errorf("database error iterating item grants: %w", err)
	}
	return grants, nil
}

// UpsertItemGrant implements internal_store.GrantTx.
func (t *pgGrantTx) UpsertItemGrant(ctx context.Context, grant *types.ItemGrant) error {
	query := `
        INSERT INTO item_grants (item_type, item_id, companion_id, can_view, can_edit, can_manage_companions, status, provenance, added_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (item_type, item_id, companion_id)
        DO UPDATE SET
            can_view = EXCLUDED.can_view,
            can_edit = EXCLUDED.can_edit,
            can_manage_companions = EXCLUDED.can_manage_companions,
            status = EXCLUDED.status,
            provenance = EXCLUDED.provenance,
            updated_at = CURRENT_TIMESTAMP
        RETURNING id`

	err := t.tx.QueryRow(ctx, query,
		grant.Item.Type,
		grant.Item.ID,
		grant.CompanionID,
		grant.Capabilities.CanView,
		grant.Capabilities.CanEdit,
		grant.Capabilities.CanManageCompanions,
		grant.Status,
		grant.Provenance,
		grant.AddedBy,
	).Scan(&grant.ID)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

// DeleteItemGrant implements internal_store.GrantTx.
func (t *pgGrantTx) DeleteItemGrant(ctx context.Context, item types.ItemRef, companionID string) error {
	_, err := t.tx.Exec(ctx,
		`DELETE FROM item_grants WHERE item_type = $1 AND item_id = $2 AND companion_id = $3`,
		item.Type, item.ID, companionID)
	if err != nil {
		return fmt.Errorf("database error deleting item grant: %w", err)
	}
	return nil
}
