package handlers

import (
	"context"

	"github.com/TrailParty/trail-party-backend/types"
)

// CascadeEngine is the trigger surface of the permission cascade service.
type CascadeEngine interface {
	AddCompanionToTrip(ctx context.Context, tripID, companionID string, triple types.CapabilityTriple, addedBy string) error
	RemoveCompanionFromTrip(ctx context.Context, tripID, companionID string) error
	ChangeCompanionTripPermissions(ctx context.Context, tripID, companionID string, newTriple types.CapabilityTriple) error
	SetItemGrant(ctx context.Context, tripID string, item types.ItemRef, companionID string, triple types.CapabilityTriple, status types.AttendanceStatus, addedBy string) (*types.ItemGrant, error)
	RemoveItemGrant(ctx context.Context, tripID string, item types.ItemRef, companionID string) error
}

// PermissionChecker is the read-only authorization surface.
type PermissionChecker interface {
	HasPermission(ctx context.Context, principal types.Principal, resource types.ResourceRef, action types.Action) bool
}
