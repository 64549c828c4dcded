package services

import (
	"context"
	"errors"

	internal_store "github.com/TrailParty/trail-party-backend/internal/store"
	"github.com/TrailParty/trail-party-backend/logger"
	"github.com/TrailParty/trail-party-backend/types"
)

// PermissionResolver answers "can principal P perform action A on resource R".
// It is a pure read path: absence of data resolves to false, and storage
// failures are logged but still resolve to false, so authorization checks are
// total and safe to call speculatively.
type PermissionResolver struct {
	grants     internal_store.GrantStore
	companions internal_store.CompanionStore
	delegates  internal_store.DelegateGrantStore
}

// NewPermissionResolver creates a resolver over the given stores.
func NewPermissionResolver(
	grants internal_store.GrantStore,
	companions internal_store.CompanionStore,
	delegates internal_store.DelegateGrantStore,
) *PermissionResolver {
	return &PermissionResolver{
		grants:     grants,
		companions: companions,
		delegates:  delegates,
	}
}

// HasPermission checks, in order and short-circuiting on the first match:
//  1. trip ownership,
//  2. a cross-trip delegate grant from the owner to the principal,
//  3. the scope-appropriate grant set (trip grants for a trip resource,
//     item grants for an item resource), matched through the companion's
//     linked account.
func (r *PermissionResolver) HasPermission(ctx context.Context, principal types.Principal, resource types.ResourceRef, action types.Action) bool {
	log := logger.GetLogger()

	if principal.ID == "" || !action.IsValid() {
		return false
	}

	ownerID, err := r.grants.GetTripOwner(ctx, resource.TripID)
	if err != nil {
		if !errors.Is(err, internal_store.ErrNotFound) {
			log.Warnw("Owner lookup failed during permission check", "tripID", resource.TripID, "error", err)
		}
		return false
	}
	if ownerID == principal.ID {
		return true
	}

	delegated, err := r.delegates.HasDelegateCapability(ctx, ownerID, principal.ID, action)
	if err != nil {
		log.Warnw("Delegate lookup failed during permission check", "tripID", resource.TripID, "error", err)
	} else if delegated {
		return true
	}

	var candidates []string
	switch resource.Kind {
	case types.ResourceKindTrip:
		grants, err := r.grants.ListTripGrants(ctx, resource.TripID)
		if err != nil {
			log.Warnw("Trip grant lookup failed during permission check", "tripID", resource.TripID, "error", err)
			return false
		}
		for _, g := range grants {
			if g.Capabilities.Allows(action) {
				candidates = append(candidates, g.CompanionID)
			}
		}
	case types.ResourceKindItem:
		grants, err := r.grants.ListItemGrants(ctx, resource.Item)
		if err != nil {
			log.Warnw("Item grant lookup failed during permission check", "item", resource.Item.String(), "error", err)
			return false
		}
		for _, g := range grants {
			if g.Capabilities.Allows(action) {
				candidates = append(candidates, g.CompanionID)
			}
		}
	}

	return r.anyLinkedToPrincipal(ctx, candidates, principal)
}

// anyLinkedToPrincipal batch-resolves the companions holding a qualifying
// grant and reports whether any of them is linked to the principal's account.
func (r *PermissionResolver) anyLinkedToPrincipal(ctx context.Context, companionIDs []string, principal types.Principal) bool {
	if len(companionIDs) == 0 {
		return false
	}
	companions, err := r.companions.GetCompanionsByIDs(ctx, companionIDs)
	if err != nil {
		logger.GetLogger().Warnw("Companion lookup failed during permission check", "count", len(companionIDs), "error", err)
		return false
	}
	for _, c := range companions {
		if c.LinkedUserID != nil && *c.LinkedUserID == principal.ID {
			return true
		}
	}
	return false
}
