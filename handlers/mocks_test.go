package handlers

import (
	"context"

	"github.com/TrailParty/trail-party-backend/types"
	"github.com/stretchr/testify/mock"
)

// MockCascadeEngine is a testify mock for the CascadeEngine interface.
type MockCascadeEngine struct {
	mock.Mock
}

func (m *MockCascadeEngine) AddCompanionToTrip(ctx context.Context, tripID, companionID string, triple types.CapabilityTriple, addedBy string) error {
	args := m.Called(ctx, tripID, companionID, triple, addedBy)
	return args.Error(0)
}

func (m *MockCascadeEngine) RemoveCompanionFromTrip(ctx context.Context, tripID, companionID string) error {
	args := m.Called(ctx, tripID, companionID)
	return args.Error(0)
}

func (m *MockCascadeEngine) ChangeCompanionTripPermissions(ctx context.Context, tripID, companionID string, newTriple types.CapabilityTriple) error {
	args := m.Called(ctx, tripID, companionID, newTriple)
	return args.Error(0)
}

func (m *MockCascadeEngine) SetItemGrant(ctx context.Context, tripID string, item types.ItemRef, companionID string, triple types.CapabilityTriple, status types.AttendanceStatus, addedBy string) (*types.ItemGrant, error) {
	args := m.Called(ctx, tripID, item, companionID, triple, status, addedBy)
	if grant := args.Get(0); grant != nil {
		return grant.(*types.ItemGrant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCascadeEngine) RemoveItemGrant(ctx context.Context, tripID string, item types.ItemRef, companionID string) error {
	args := m.Called(ctx, tripID, item, companionID)
	return args.Error(0)
}

// MockPermissionChecker is a testify mock for the PermissionChecker interface.
type MockPermissionChecker struct {
	mock.Mock
}

func (m *MockPermissionChecker) HasPermission(ctx context.Context, principal types.Principal, resource types.ResourceRef, action types.Action) bool {
	args := m.Called(ctx, principal, resource, action)
	return args.Bool(0)
}
