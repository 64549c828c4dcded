package services

import (
	"context"
	"fmt"

	internal_store "github.com/TrailParty/trail-party-backend/internal/store"
	"github.com/TrailParty/trail-party-backend/types"
)

// fakeGrantStore is an in-memory GrantStore. WithTx runs the callback against
// the store itself; the transactional behavior under test is the service's
// sequencing, not the database.
type fakeGrantStore struct {
	owners     map[string]string            // tripID -> owner user ID
	tripItems  map[string][]types.ItemRef   // tripID -> linked items
	tripGrants map[string]*types.TripGrant  // tripID/companionID -> grant
	itemGrants map[string]*types.ItemGrant  // itemType/itemID/companionID -> grant
	itemTrip   map[types.ItemRef]string     // item -> owning trip
	failWith   error                        // when set, every call fails
	nextID     int
}

func newFakeGrantStore() *fakeGrantStore {
	return &fakeGrantStore{
		owners:     make(map[string]string),
		tripItems:  make(map[string][]types.ItemRef),
		tripGrants: make(map[string]*types.TripGrant),
		itemGrants: make(map[string]*types.ItemGrant),
		itemTrip:   make(map[types.ItemRef]string),
	}
}

func (f *fakeGrantStore) addTrip(tripID, ownerID string) {
	f.owners[tripID] = ownerID
}

func (f *fakeGrantStore) addItem(tripID string, item types.ItemRef) {
	f.tripItems[tripID] = append(f.tripItems[tripID], item)
	f.itemTrip[item] = tripID
}

func tripGrantKey(tripID, companionID string) string {
	return tripID + "/" + companionID
}

func itemGrantKey(item types.ItemRef, companionID string) string {
	return item.String() + "/" + companionID
}

func (f *fakeGrantStore) WithTx(ctx context.Context, fn func(tx internal_store.GrantTx) error) error {
	if f.failWith != nil {
		return f.failWith
	}
	return fn(f)
}

func (f *fakeGrantStore) GetTripGrantForUpdate(ctx context.Context, tripID, companionID string) (*types.TripGrant, error) {
	return f.GetTripGrant(ctx, tripID, companionID)
}

func (f *fakeGrantStore) GetTripGrant(ctx context.Context, tripID, companionID string) (*types.TripGrant, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	g, ok := f.tripGrants[tripGrantKey(tripID, companionID)]
	if !ok {
		return nil, internal_store.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGrantStore) ListTripGrants(ctx context.Context, tripID string) ([]types.TripGrant, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []types.TripGrant
	for _, g := range f.tripGrants {
		if g.TripID == tripID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGrantStore) UpsertTripGrant(ctx context.Context, grant *types.TripGrant) error {
	if f.failWith != nil {
		return f.failWith
	}
	cp := *grant
	if cp.ID == "" {
		f.nextID++
		cp.ID = fmt.Sprintf("tg-%d", f.nextID)
	}
	f.tripGrants[tripGrantKey(cp.TripID, cp.CompanionID)] = &cp
	return nil
}

func (f *fakeGrantStore) DeleteTripGrant(ctx context.Context, tripID, companionID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	key := tripGrantKey(tripID, companionID)
	if _, ok := f.tripGrants[key]; !ok {
		return internal_store.ErrNotFound
	}
	delete(f.tripGrants, key)
	return nil
}

func (f *fakeGrantStore) ListTripItems(ctx context.Context, tripID string) ([]types.ItemRef, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return append([]types.ItemRef(nil), f.tripItems[tripID]...), nil
}

func (f *fakeGrantStore) ListItemGrantsForCompanion(ctx context.Context, tripID, companionID string) ([]types.ItemGrant, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []types.ItemGrant
	for _, g := range f.itemGrants {
		if g.CompanionID == companionID && f.itemTrip[g.Item] == tripID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGrantStore) GetItemGrant(ctx context.Context, item types.ItemRef, companionID string) (*types.ItemGrant, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	g, ok := f.itemGrants[itemGrantKey(item, companionID)]
	if !ok {
		return nil, internal_store.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGrantStore) ListItemGrants(ctx context.Context, item types.ItemRef) ([]types.ItemGrant, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []types.ItemGrant
	for _, g := range f.itemGrants {
		if g.Item == item {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGrantStore) UpsertItemGrant(ctx context.Context, grant *types.ItemGrant) error {
	if f.failWith != nil {
		return f.failWith
	}
	cp := *grant
	if cp.ID == "" {
		f.nextID++
		cp.ID = fmt.Sprintf("ig-%d", f.nextID)
	}
	f.itemGrants[itemGrantKey(cp.Item, cp.CompanionID)] = &cp
	return nil
}

func (f *fakeGrantStore) SetItemGrant(ctx context.Context, grant *types.ItemGrant) error {
	return f.UpsertItemGrant(ctx, grant)
}

func (f *fakeGrantStore) DeleteItemGrant(ctx context.Context, item types.ItemRef, companionID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	key := itemGrantKey(item, companionID)
	if _, ok := f.itemGrants[key]; !ok {
		return internal_store.ErrNotFound
	}
	delete(f.itemGrants, key)
	return nil
}

func (f *fakeGrantStore) DeleteItemGrantDirect(ctx context.Context, item types.ItemRef, companionID string) error {
	return f.DeleteItemGrant(ctx, item, companionID)
}

func (f *fakeGrantStore) TripHasItem(ctx context.Context, tripID string, item types.ItemRef) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	return f.itemTrip[item] == tripID, nil
}

func (f *fakeGrantStore) GetTripOwner(ctx context.Context, tripID string) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	owner, ok := f.owners[tripID]
	if !ok {
		return "", internal_store.ErrNotFound
	}
	return owner, nil
}

// fakeCompanionStore is an in-memory CompanionStore.
type fakeCompanionStore struct {
	companions map[string]*types.Companion
}

func newFakeCompanionStore(companions ...*types.Companion) *fakeCompanionStore {
	f := &fakeCompanionStore{companions: make(map[string]*types.Companion)}
	for _, c := range companions {
		f.companions[c.ID] = c
	}
	return f
}

func (f *fakeCompanionStore) GetCompanion(ctx context.Context, id string) (*types.Companion, error) {
	c, ok := f.companions[id]
	if !ok {
		return nil, internal_store.ErrNotFound
	}
	return c, nil
}

func (f *fakeCompanionStore) GetCompanionsByIDs(ctx context.Context, ids []string) (map[string]*types.Companion, error) {
	out := make(map[string]*types.Companion)
	for _, id := range ids {
		if c, ok := f.companions[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

// fakeDelegateStore is an in-memory DelegateGrantStore keyed by
// grantor/delegate-user pairs.
type fakeDelegateStore struct {
	capabilities map[string]types.CapabilityTriple // grantorID/delegateUserID -> triple
	failWith     error
}

func newFakeDelegateStore() *fakeDelegateStore {
	return &fakeDelegateStore{capabilities: make(map[string]types.CapabilityTriple)}
}

func (f *fakeDelegateStore) allow(grantorID, delegateUserID string, triple types.CapabilityTriple) {
	f.capabilities[grantorID+"/"+delegateUserID] = triple
}

func (f *fakeDelegateStore) HasDelegateCapability(ctx context.Context, grantorID, delegateUserID string, action types.Action) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	triple, ok := f.capabilities[grantorID+"/"+delegateUserID]
	if !ok {
		return false, nil
	}
	return triple.Allows(action), nil
}

func (f *fakeDelegateStore) GrantDelegate(ctx context.Context, grant *types.DelegateGrant) error {
	return nil
}

func (f *fakeDelegateStore) RevokeDelegate(ctx context.Context, grantorID, companionID string) error {
	return nil
}
