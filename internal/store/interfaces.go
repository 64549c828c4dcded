// Package store defines the data-access interfaces for permission records.
// Postgres implementations live in the postgres subpackage; tests substitute
// in-memory fakes.
package store

import (
	"context"

	"github.com/TrailParty/trail-party-backend/types"
)

// GrantTx exposes the grant operations available inside one transaction.
// A cascade runs entirely through a GrantTx so that the trip-grant mutation
// and its item-grant fan-out commit or roll back together.
type GrantTx interface {
	// GetTripGrantForUpdate reads the trip grant for (trip, companion) and
	// row-locks it, serializing concurrent cascades on the same pair.
	// Returns ErrNotFound when no grant exists.
	GetTripGrantForUpdate(ctx context.Context, tripID, companionID string) (*types.TripGrant, error)

	UpsertTripGrant(ctx context.Context, grant *types.TripGrant) error
	DeleteTripGrant(ctx context.Context, tripID, companionID string) error

	// ListTripItems returns the polymorphic references of all items linked to
	// the trip, regardless of type.
	ListTripItems(ctx context.Context, tripID string) ([]types.ItemRef, error)

	// ListItemGrantsForCompanion returns every item grant the companion holds
	// on items belonging to the trip.
	ListItemGrantsForCompanion(ctx context.Context, tripID, companionID string) ([]types.ItemGrant, error)

	UpsertItemGrant(ctx context.Context, grant *types.ItemGrant) error
	DeleteItemGrant(ctx context.Context, item types.ItemRef, companionID string) error
}

// GrantStore is durable storage for trip-scope and item-scope grants.
type GrantStore interface {
	// WithTx runs fn inside one database transaction. Any error from fn rolls
	// the whole transaction back.
	WithTx(ctx context.Context, fn func(tx GrantTx) error) error

	GetTripGrant(ctx context.Context, tripID, companionID string) (*types.TripGrant, error)
	ListTripGrants(ctx context.Context, tripID string) ([]types.TripGrant, error)

	GetItemGrant(ctx context.Context, item types.ItemRef, companionID string) (*types.ItemGrant, error)
	ListItemGrants(ctx context.Context, item types.ItemRef) ([]types.ItemGrant, error)

	// SetItemGrant writes a single item grant outside any cascade. Callers are
	// responsible for the provenance they persist; the cascade service forces
	// explicit provenance on every human-originated write.
	SetItemGrant(ctx context.Context, grant *types.ItemGrant) error
	DeleteItemGrantDirect(ctx context.Context, item types.ItemRef, companionID string) error

	// GetTripOwner returns the user ID that owns the trip.
	// Returns ErrNotFound for unknown trips.
	GetTripOwner(ctx context.Context, tripID string) (string, error)

	// TripHasItem reports whether the item is linked to the trip.
	TripHasItem(ctx context.Context, tripID string, item types.ItemRef) (bool, error)
}

// CompanionStore provides read-only companion lookups. Companion contact CRUD
// lives in another service; the permission core only resolves identities.
type CompanionStore interface {
	GetCompanion(ctx context.Context, id string) (*types.Companion, error)
	// GetCompanionsByIDs returns the companions for the given IDs, keyed by ID.
	// Missing IDs are simply absent from the map.
	GetCompanionsByIDs(ctx context.Context, ids []string) (map[string]*types.Companion, error)
}

// DelegateGrantStore handles cross-trip delegate grants. The resolver consults
// HasDelegateCapability as an owner-equivalent shortcut; grant and revoke are
// the passthrough interface consumed by the external delegate feature.
type DelegateGrantStore interface {
	HasDelegateCapability(ctx context.Context, grantorID, delegateUserID string, action types.Action) (bool, error)
	GrantDelegate(ctx context.Context, grant *types.DelegateGrant) error
	RevokeDelegate(ctx context.Context, grantorID, companionID string) error
}
