package types

import "time"

// Provenance records whether a grant was authored by a human or derived by a
// trip-level cascade. Explicit grants are never touched by cascades.
type Provenance string

const (
	ProvenanceExplicit  Provenance = "explicit"
	ProvenanceInherited Provenance = "inherited"
)

// IsValid checks if the provenance is one of the two known values.
func (p Provenance) IsValid() bool {
	return p == ProvenanceExplicit || p == ProvenanceInherited
}

// AttendanceStatus tracks whether a companion is attending a specific item.
type AttendanceStatus string

const (
	AttendanceAttending    AttendanceStatus = "attending"
	AttendanceNotAttending AttendanceStatus = "not_attending"
)

// IsValid checks if the status is one of the known attendance values.
func (s AttendanceStatus) IsValid() bool {
	return s == AttendanceAttending || s == AttendanceNotAttending
}

// Companion is a contact a user can share trip access with. It may be linked
// to a real account, in which case grants to it resolve to that user.
type Companion struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	LinkedUserID *string   `json:"linkedUserId,omitempty"`
	CreatedBy    string    `json:"createdBy"`
	Shareable    bool      `json:"shareable"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TripGrant binds a companion to a whole trip. Trip grants are always
// explicit; cascades derive item grants from them, never the other way.
// Unique per (trip, companion).
type TripGrant struct {
	ID           string           `json:"id"`
	TripID       string           `json:"tripId"`
	CompanionID  string           `json:"companionId"`
	Capabilities CapabilityTriple `json:"capabilities"`
	AddedBy      string           `json:"addedBy"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// ItemGrant binds a companion to a single trip item.
// Unique per (itemType, itemId, companion).
type ItemGrant struct {
	ID           string           `json:"id"`
	Item         ItemRef          `json:"item"`
	CompanionID  string           `json:"companionId"`
	Capabilities CapabilityTriple `json:"capabilities"`
	Status       AttendanceStatus `json:"status"`
	Provenance   Provenance       `json:"provenance"`
	AddedBy      string           `json:"addedBy"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Inherited reports whether this grant was produced by a cascade and is
// therefore subject to being overwritten or removed by future cascades.
func (g *ItemGrant) Inherited() bool {
	return g.Provenance == ProvenanceInherited
}

// DelegateGrant expresses that a user trusts the account linked to a
// companion with capabilities across all of the grantor's trips. It is read
// by the permission resolver as an owner-equivalent shortcut and is never
// mutated by cascades.
type DelegateGrant struct {
	ID           string           `json:"id"`
	GrantorID    string           `json:"grantorId"`
	CompanionID  string           `json:"companionId"`
	Capabilities CapabilityTriple `json:"capabilities"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Principal identifies the authenticated user a permission check runs for.
type Principal struct {
	ID string `json:"id"`
}

// ResourceKind distinguishes the two grant scopes a permission check can target.
type ResourceKind string

const (
	ResourceKindTrip ResourceKind = "trip"
	ResourceKindItem ResourceKind = "item"
)

// ResourceRef points a permission check at a trip or at a single item within
// a trip. TripID is required for both kinds: items carry no back-reference of
// their own, so the calling layer supplies the owning trip.
type ResourceRef struct {
	Kind   ResourceKind `json:"kind"`
	TripID string       `json:"tripId"`
	Item   ItemRef      `json:"item,omitempty"`
}

// TripResource builds a ResourceRef for a whole trip.
func TripResource(tripID string) ResourceRef {
	return ResourceRef{Kind: ResourceKindTrip, TripID: tripID}
}

// ItemResource builds a ResourceRef for a single item within a trip.
func ItemResource(tripID string, item ItemRef) ResourceRef {
	return ResourceRef{Kind: ResourceKindItem, TripID: tripID, Item: item}
}
