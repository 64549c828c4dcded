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

// Ensure pgDelegateStore implements internal_store.DelegateGrantStore.
var _ internal_store.DelegateGrantStore = (*pgDelegateStore)(nil)

type pgDelegateStore struct {
	pool DBPool
}

// NewPgDelegateStore creates a new PostgreSQL delegate grant store.
func NewPgDelegateStore(pool DBPool) internal_store.DelegateGrantStore {
	return &pgDelegateStore{pool: pool}
}

// HasDelegateCapability implements internal_store.DelegateGrantStore.
// It answers whether the grantor trusts the account behind delegateUserID with
// the given capability across all of the grantor's trips. Absence of a grant
// is not an error; it simply resolves to false.
func (s *pgDelegateStore) HasDelegateCapability(ctx context.Context, grantorID, delegateUserID string, action types.Action) (bool, error) {
	query := `
        SELECT dg.can_view, dg.can_edit, dg.can_manage_companions
        FROM delegate_grants dg
        JOIN companions c ON c.id = dg.companion_id
        WHERE dg.grantor_id = $1 AND c.linked_user_id = $2`

	var triple types.CapabilityTriple
	err := s.pool.QueryRow(ctx, query, grantorID, delegateUserID).Scan(
		&triple.CanView,
		&triple.CanEdit,
		&triple.CanManageCompanions,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("database error checking delegate capability: %w", err)
	}

	return triple.Allows(action), nil
}

// GrantDelegate implements internal_store.DelegateGrantStore.
func (s *pgDelegateStore) GrantDelegate(ctx context.Context, grant *types.DelegateGrant) error {
	log := logger.GetLogger()
	query := `
        INSERT INTO delegate_grants (grantor_id, companion_id, can_view, can_edit, can_manage_companions)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (grantor_id, companion_id)
        DO UPDATE SET
            can_view = EXCLUDED.can_view,
            can_edit = EXCLUDED.can_edit,
            can_manage_companions = EXCLUDED.can_manage_companions,
            updated_at = CURRENT_TIMESTAMP
        RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		grant.GrantorID,
		grant.CompanionID,
		grant.Capabilities.CanView,
		grant.Capabilities.CanEdit,
		grant.Capabilities.CanManageCompanions,
	).Scan(&grant.ID)
	if err != nil {
		log.Errorw("Failed to write delegate grant", "grantorID", grant.GrantorID, "companionID", grant.CompanionID, "error", err)
		return mapPgError(err)
	}

	log.Infow("Delegate grant written", "grantorID", grant.GrantorID, "companionID", grant.CompanionID)
	return nil
}

// RevokeDelegate implements internal_store.DelegateGrantStore.
func (s *pgDelegateStore) RevokeDelegate(ctx context.Context, grantorID, companionID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM delegate_grants WHERE grantor_id = $1 AND companion_id = $2`,
		grantorID, companionID)
	if err != nil {
		return fmt.Errorf("database error revoking delegate grant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return internal_store.ErrNotFound
	}
	return nil
}
