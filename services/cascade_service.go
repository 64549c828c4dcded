package services

import (
	"context"
	"errors"

	"github.com/TrailParty/trail-party-backend/config"
	apperrors "github.com/TrailParty/trail-party-backend/errors"
	"github.com/TrailParty/trail-party-backend/internal/events"
	internal_store "github.com/TrailParty/trail-party-backend/internal/store"
	"github.com/TrailParty/trail-party-backend/logger"
	"github.com/TrailParty/trail-party-backend/types"
)

const cascadeEventSource = "cascade-service"

// CascadeService keeps item-scope grants synchronized with trip-scope grants.
// Every trigger runs inside one database transaction: the trip-grant mutation
// and the item-grant fan-out commit or roll back together, so a partial
// cascade is never observable. Re-applying a trigger with the same triple
// converges to the same state, which makes at-least-once delivery from the
// calling layer safe.
type CascadeService struct {
	grants     internal_store.GrantStore
	companions internal_store.CompanionStore
	publisher  types.EventPublisher
	config     config.CascadeConfig
}

// NewCascadeService creates a cascade service with the given policy flags.
func NewCascadeService(
	grants internal_store.GrantStore,
	companions internal_store.CompanionStore,
	publisher types.EventPublisher,
	cfg config.CascadeConfig,
) *CascadeService {
	return &CascadeService{
		grants:     grants,
		companions: companions,
		publisher:  publisher,
		config:     cfg,
	}
}

// AddCompanionToTrip grants a companion access to a trip and, under the
// auto-add policy, to every cascadable item currently linked to the trip.
// Existing inherited item grants are overwritten with the trip triple;
// explicit item grants are left untouched.
func (s *CascadeService) AddCompanionToTrip(ctx context.Context, tripID, companionID string, triple types.CapabilityTriple, addedBy string) error {
	log := logger.GetLogger()

	if !triple.Valid() {
		return apperrors.ValidationFailed("invalid capabilities", "cannot manage companions without edit permission")
	}
	if err := s.checkTripAndCompanion(ctx, tripID, companionID); err != nil {
		return err
	}

	err := s.grants.WithTx(ctx, func(tx internal_store.GrantTx) error {
		// Lock the (trip, companion) row so concurrent cascades serialize.
		// Absence is fine here: this trigger creates the grant.
		if _, err := tx.GetTripGrantForUpdate(ctx, tripID, companionID); err != nil && !errors.Is(err, internal_store.ErrNotFound) {
			return err
		}

		grant := &types.TripGrant{
			TripID:       tripID,
			CompanionID:  companionID,
			Capabilities: triple,
			AddedBy:      addedBy,
		}
		if err := tx.UpsertTripGrant(ctx, grant); err != nil {
			return err
		}

		if !s.config.AutoAddToItems {
			return nil
		}
		return s.fanOutAdd(ctx, tx, tripID, companionID, triple, addedBy)
	})
	if err != nil {
		return translateStoreError(err, tripID, companionID)
	}

	log.Infow("Companion added to trip", "tripID", tripID, "companionID", companionID, "addedBy", addedBy)
	s.publish(ctx, types.EventTypeCompanionAdded, tripID, addedBy, map[string]interface{}{
		"companionId":  companionID,
		"capabilities": triple,
	})
	return nil
}

// RemoveCompanionFromTrip deletes a companion's trip grant and, under the
// auto-remove policy, every inherited item grant they hold on the trip's
// items. Explicit item grants survive: the companion keeps access to those
// specific items only. Removing an absent companion is an idempotent no-op.
func (s *CascadeService) RemoveCompanionFromTrip(ctx context.Context, tripID, companionID string) error {
	log := logger.GetLogger()

	if _, err := s.grants.GetTripOwner(ctx, tripID); err != nil {
		if errors.Is(err, internal_store.ErrNotFound) {
			return apperrors.TripNotFound(tripID)
		}
		return apperrors.NewDatabaseError(err)
	}

	removed := false
	err := s.grants.WithTx(ctx, func(tx internal_store.GrantTx) error {
		if _, err := tx.GetTripGrantForUpdate(ctx, tripID, companionID); err != nil {
			if errors.Is(err, internal_store.ErrNotFound) {
				// Already absent; treat removal as success.
				return nil
			}
			return err
		}
		removed = true

		if s.config.AutoRemoveFromItems {
			itemGrants, err := tx.ListItemGrantsForCompanion(ctx, tripID, companionID)
			if err != nil {
				return err
			}
			for _, g := range itemGrants {
				if !g.Inherited() || !g.Item.Type.IsValid() {
					continue
				}
				if err := tx.DeleteItemGrant(ctx, g.Item, companionID); err != nil {
					return err
				}
			}
		}

		return tx.DeleteTripGrant(ctx, tripID, companionID)
	})
	if err != nil {
		return translateStoreError(err, tripID, companionID)
	}

	if !removed {
		log.Debugw("Companion already absent from trip", "tripID", tripID, "companionID", companionID)
		return nil
	}

	log.Infow("Companion removed from trip", "tripID", tripID, "companionID", companionID)
	s.publish(ctx, types.EventTypeCompanionRemoved, tripID, "", map[string]interface{}{
		"companionId": companionID,
	})
	return nil
}

// ChangeCompanionTripPermissions updates a companion's trip-level triple and
// propagates the change to their inherited item grants. Whether the fan-out
// runs depends on the direction of the change: promotions are gated by the
// auto-promote policy, demotions by the auto-demote policy. Explicit item
// grants are never touched in either direction.
func (s *CascadeService) ChangeCompanionTripPermissions(ctx context.Context, tripID, companionID string, newTriple types.CapabilityTriple) error {
	log := logger.GetLogger()

	if !newTriple.Valid() {
		return apperrors.ValidationFailed("invalid capabilities", "cannot manage companions without edit permission")
	}
	if _, err := s.grants.GetTripOwner(ctx, tripID); err != nil {
		if errors.Is(err, internal_store.ErrNotFound) {
			return apperrors.TripNotFound(tripID)
		}
		return apperrors.NewDatabaseError(err)
	}

	var promoted bool
	changed := false
	err := s.grants.WithTx(ctx, func(tx internal_store.GrantTx) error {
		current, err := tx.GetTripGrantForUpdate(ctx, tripID, companionID)
		if err != nil {
			if errors.Is(err, internal_store.ErrNotFound) {
				return apperrors.GrantNotFound(tripID, companionID)
			}
			return err
		}

		if current.Capabilities == newTriple {
			// Same triple; nothing to do.
			return nil
		}
		changed = true

		// A change that adds any capability is a promotion; a pure narrowing
		// is a demotion.
		promoted = newTriple.GrantsMoreThan(current.Capabilities)

		current.Capabilities = newTriple
		if err := tx.UpsertTripGrant(ctx, current); err != nil {
			return err
		}

		if promoted && !s.config.AutoPromoteItems {
			return nil
		}
		if !promoted && !s.config.AutoDemoteItems {
			return nil
		}

		itemGrants, err := tx.ListItemGrantsForCompanion(ctx, tripID, companionID)
		if err != nil {
			return err
		}
		for i := range itemGrants {
			g := &itemGrants[i]
			if !g.Inherited() || !g.Item.Type.IsValid() || g.Capabilities == newTriple {
				continue
			}
			g.Capabilities = newTriple
			if err := tx.UpsertItemGrant(ctx, g); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translateStoreError(err, tripID, companionID)
	}

	if !changed {
		return nil
	}

	log.Infow("Companion trip permissions changed", "tripID", tripID, "companionID", companionID, "promoted", promoted)
	s.publish(ctx, types.EventTypeCompanionPermissionsChanged, tripID, "", map[string]interface{}{
		"companionId":  companionID,
		"capabilities": newTriple,
		"promoted":     promoted,
	})
	return nil
}

// SetItemGrant records a human-authored write to a single item grant. Direct
// writes always persist explicit provenance, permanently opting the grant out
// of future trip-level cascades until it is removed and recreated by a later
// add-to-trip trigger.
func (s *CascadeService) SetItemGrant(ctx context.Context, tripID string, item types.ItemRef, companionID string, triple types.CapabilityTriple, status types.AttendanceStatus, addedBy string) (*types.ItemGrant, error) {
	log := logger.GetLogger()

	if !item.Type.IsValid() {
		return nil, apperrors.ValidationFailed("invalid item type", string(item.Type))
	}
	if !triple.Valid() {
		return nil, apperrors.ValidationFailed("invalid capabilities", "cannot manage companions without edit permission")
	}
	if status == "" {
		status = types.AttendanceAttending
	}
	if !status.IsValid() {
		return nil, apperrors.ValidationFailed("invalid attendance status", string(status))
	}
	if err := s.checkTripAndCompanion(ctx, tripID, companionID); err != nil {
		return nil, err
	}
	linked, err := s.grants.TripHasItem(ctx, tripID, item)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	if !linked {
		return nil, apperrors.NotFound("trip item", item.String())
	}

	grant := &types.ItemGrant{
		Item:         item,
		CompanionID:  companionID,
		Capabilities: triple,
		Status:       status,
		Provenance:   types.ProvenanceExplicit,
		AddedBy:      addedBy,
	}
	if err := s.grants.SetItemGrant(ctx, grant); err != nil {
		return nil, translateStoreError(err, tripID, companionID)
	}

	log.Infow("Item grant set directly", "item", item.String(), "companionID", companionID, "addedBy", addedBy)
	s.publish(ctx, types.EventTypeItemGrantUpdated, tripID, addedBy, map[string]interface{}{
		"item":         item,
		"companionId":  companionID,
		"capabilities": triple,
		"status":       status,
	})
	return grant, nil
}

// RemoveItemGrant deletes a single item grant, explicit or inherited.
func (s *CascadeService) RemoveItemGrant(ctx context.Context, tripID string, item types.ItemRef, companionID string) error {
	if !item.Type.IsValid() {
		return apperrors.ValidationFailed("invalid item type", string(item.Type))
	}

	if err := s.grants.DeleteItemGrantDirect(ctx, item, companionID); err != nil {
		if errors.Is(err, internal_store.ErrNotFound) {
			return apperrors.NotFound("item grant", item.String())
		}
		return apperrors.NewDatabaseError(err)
	}

	s.publish(ctx, types.EventTypeItemGrantRemoved, tripID, "", map[string]interface{}{
		"item":        item,
		"companionId": companionID,
	})
	return nil
}

// fanOutAdd creates or refreshes inherited item grants for every cascadable
// item on the trip. Values are compared before writing so a repeated trigger
// causes no churn.
func (s *CascadeService) fanOutAdd(ctx context.Context, tx internal_store.GrantTx, tripID, companionID string, triple types.CapabilityTriple, addedBy string) error {
	items, err := tx.ListTripItems(ctx, tripID)
	if err != nil {
		return err
	}
	existing, err := tx.ListItemGrantsForCompanion(ctx, tripID, companionID)
	if err != nil {
		return err
	}

	byItem := make(map[types.ItemRef]*types.ItemGrant, len(existing))
	for i := range existing {
		byItem[existing[i].Item] = &existing[i]
	}

	for _, item := range items {
		if !item.Type.IsValid() {
			continue
		}

		g, ok := byItem[item]
		if !ok {
			grant := &types.ItemGrant{
				Item:         item,
				CompanionID:  companionID,
				Capabilities: triple,
				Status:       types.AttendanceAttending,
				Provenance:   types.ProvenanceInherited,
				AddedBy:      addedBy,
			}
			if err := tx.UpsertItemGrant(ctx, grant); err != nil {
				return err
			}
			continue
		}

		if !g.Inherited() || g.Capabilities == triple {
			continue
		}
		g.Capabilities = triple
		if err := tx.UpsertItemGrant(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

func (s *CascadeService) checkTripAndCompanion(ctx context.Context, tripID, companionID string) error {
	if _, err := s.grants.GetTripOwner(ctx, tripID); err != nil {
		if errors.Is(err, internal_store.ErrNotFound) {
			return apperrors.TripNotFound(tripID)
		}
		return apperrors.NewDatabaseError(err)
	}
	if _, err := s.companions.GetCompanion(ctx, companionID); err != nil {
		if errors.Is(err, internal_store.ErrNotFound) {
			return apperrors.CompanionNotFound(companionID)
		}
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

// publish emits a permission-change event after a successful commit. The
// cascade already landed, so publish failures are logged and swallowed.
func (s *CascadeService) publish(ctx context.Context, eventType types.EventType, tripID, userID string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := events.PublishEventWithContext(s.publisher, ctx, eventType, tripID, userID, data, cascadeEventSource); err != nil {
		logger.GetLogger().Warnw("Failed to publish permission event", "type", eventType, "tripID", tripID, "error", err)
	}
}

// translateStoreError maps store sentinel errors onto the app error taxonomy.
// AppErrors pass through unchanged.
func translateStoreError(err error, tripID, companionID string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, internal_store.ErrConflict) {
		return apperrors.NewConflictError("grant already exists", err.Error())
	}
	if errors.Is(err, internal_store.ErrNotFound) {
		return apperrors.GrantNotFound(tripID, companionID)
	}
	return apperrors.NewDatabaseError(err)
}
