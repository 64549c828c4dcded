package types

// Action represents a permission capability that can be checked for a principal.
type Action string

const (
	ActionView             Action = "view"
	ActionEdit             Action = "edit"
	ActionManageCompanions Action = "manageCompanions"
)

// String returns the string representation of an Action.
func (a Action) String() string {
	return string(a)
}

// IsValid checks if the action is a valid permission action.
func (a Action) IsValid() bool {
	switch a {
	case ActionView, ActionEdit, ActionManageCompanions:
		return true
	}
	return false
}

// CapabilityTriple is the permission bundle carried by every grant.
// A persisted triple must never have CanManageCompanions without CanEdit;
// managing companions implies the ability to edit.
type CapabilityTriple struct {
	CanView             bool `json:"canView"`
	CanEdit             bool `json:"canEdit"`
	CanManageCompanions bool `json:"canManageCompanions"`
}

// DefaultCapabilities returns the triple applied when a companion is granted
// access without any explicit capabilities: view-only.
func DefaultCapabilities() CapabilityTriple {
	return CapabilityTriple{CanView: true}
}

// Valid reports whether the triple satisfies the manage-implies-edit rule.
func (t CapabilityTriple) Valid() bool {
	return !t.CanManageCompanions || t.CanEdit
}

// Sanitized returns a copy of the triple with the manage-implies-edit rule
// enforced by dropping the manage capability. It never fails.
func (t CapabilityTriple) Sanitized() CapabilityTriple {
	if !t.CanEdit {
		t.CanManageCompanions = false
	}
	return t
}

// Allows reports whether the triple grants the given action.
// Unknown actions are never granted.
func (t CapabilityTriple) Allows(action Action) bool {
	switch action {
	case ActionView:
		return t.CanView
	case ActionEdit:
		return t.CanEdit
	case ActionManageCompanions:
		return t.CanManageCompanions
	}
	return false
}

// GrantsMoreThan reports whether the triple grants at least one capability
// that other lacks. Used to classify a permission change as a promotion.
func (t CapabilityTriple) GrantsMoreThan(other CapabilityTriple) bool {
	if t.CanView && !other.CanView {
		return true
	}
	if t.CanEdit && !other.CanEdit {
		return true
	}
	if t.CanManageCompanions && !other.CanManageCompanions {
		return true
	}
	return false
}
