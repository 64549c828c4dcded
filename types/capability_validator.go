package types

import "fmt"

// Capability field names as they appear in request payloads.
const (
	FieldCanView             = "canView"
	FieldCanEdit             = "canEdit"
	FieldCanManageCompanions = "canManageCompanions"
)

// CapabilityFieldError describes a single problem with a capability payload.
type CapabilityFieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *CapabilityFieldError) Error() string {
	return fmt.Sprintf("capability field %q: %s", e.Field, e.Reason)
}

// knownCapabilityFields is the closed set of fields a capability payload may carry.
var knownCapabilityFields = map[string]bool{
	FieldCanView:             true,
	FieldCanEdit:             true,
	FieldCanManageCompanions: true,
}

// ValidateCapabilityInput checks an untyped capability payload and returns every
// problem found: unknown fields, non-boolean values, and the manage-without-edit
// business-rule violation. A nil or empty input is valid (defaults apply).
// The returned slice is empty on success. This function never panics.
func ValidateCapabilityInput(input map[string]interface{}) []error {
	var errs []error

	for field, value := range input {
		if !knownCapabilityFields[field] {
			errs = append(errs, &CapabilityFieldError{Field: field, Reason: "unknown field"})
			continue
		}
		if _, ok := value.(bool); !ok {
			errs = append(errs, &CapabilityFieldError{Field: field, Reason: fmt.Sprintf("expected boolean, got %T", value)})
		}
	}

	manage, manageOK := input[FieldCanManageCompanions].(bool)
	edit, editOK := input[FieldCanEdit].(bool)
	if manageOK && manage {
		// Absent or non-boolean canEdit counts as false here.
		if !editOK || !edit {
			errs = append(errs, &CapabilityFieldError{
				Field:  FieldCanManageCompanions,
				Reason: "cannot manage companions without edit permission",
			})
		}
	}

	return errs
}

// SanitizeCapabilityInput turns a partial, untyped capability payload into a
// complete valid triple. Missing or non-boolean fields fall back to the
// defaults, then the manage capability is dropped if edit is absent. Unlike
// ValidateCapabilityInput this never reports an error; callers that need a
// hard failure on bad input must validate first.
func SanitizeCapabilityInput(input map[string]interface{}) CapabilityTriple {
	triple := DefaultCapabilities()

	if v, ok := input[FieldCanView].(bool); ok {
		triple.CanView = v
	}
	if v, ok := input[FieldCanEdit].(bool); ok {
		triple.CanEdit = v
	}
	if v, ok := input[FieldCanManageCompanions].(bool); ok {
		triple.CanManageCompanions = v
	}

	return triple.Sanitized()
}
