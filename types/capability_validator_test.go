package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCapabilityInput(t *testing.T) {
	tests := []struct {
		name       string
		input      map[string]interface{}
		wantErrs   int
		wantFields []string
	}{
		{
			name:     "nil input is valid",
			input:    nil,
			wantErrs: 0,
		},
		{
			name:     "empty input is valid",
			input:    map[string]interface{}{},
			wantErrs: 0,
		},
		{
			name: "full valid triple",
			input: map[string]interface{}{
				"canView": true, "canEdit": true, "canManageCompanions": true,
			},
			wantErrs: 0,
		},
		{
			name:       "unknown field rejected",
			input:      map[string]interface{}{"canDelete": true},
			wantErrs:   1,
			wantFields: []string{"canDelete"},
		},
		{
			name:       "non-boolean value rejected",
			input:      map[string]interface{}{"canView": "yes"},
			wantErrs:   1,
			wantFields: []string{FieldCanView},
		},
		{
			name: "manage without edit rejected",
			input: map[string]interface{}{
				"canEdit": false, "canManageCompanions": true,
			},
			wantErrs:   1,
			wantFields: []string{FieldCanManageCompanions},
		},
		{
			name:       "manage with absent edit rejected",
			input:      map[string]interface{}{"canManageCompanions": true},
			wantErrs:   1,
			wantFields: []string{FieldCanManageCompanions},
		},
		{
			name: "manage with non-boolean edit reported twice",
			input: map[string]interface{}{
				"canEdit": 1, "canManageCompanions": true,
			},
			wantErrs:   2,
			wantFields: []string{FieldCanEdit, FieldCanManageCompanions},
		},
		{
			name: "multiple problems all reported",
			input: map[string]interface{}{
				"canView": "maybe", "role": "admin", "canManageCompanions": true,
			},
			wantErrs: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateCapabilityInput(tt.input)
			assert.Len(t, errs, tt.wantErrs)

			gotFields := make(map[string]bool)
			for _, err := range errs {
				var fieldErr *CapabilityFieldError
				require.ErrorAs(t, err, &fieldErr)
				gotFields[fieldErr.Field] = true
			}
			for _, field := range tt.wantFields {
				assert.True(t, gotFields[field], "expected an error on field %q", field)
			}
		})
	}
}

func TestSanitizeCapabilityInput(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]interface{}
		expected CapabilityTriple
	}{
		{
			name:     "nil input yields defaults",
			input:    nil,
			expected: CapabilityTriple{CanView: true},
		},
		{
			name:     "empty input yields defaults",
			input:    map[string]interface{}{},
			expected: CapabilityTriple{CanView: true},
		},
		{
			name: "manage without edit is dropped",
			input: map[string]interface{}{
				"canEdit": false, "canManageCompanions": true,
			},
			expected: CapabilityTriple{CanView: true},
		},
		{
			name:     "non-boolean values fall back to defaults",
			input:    map[string]interface{}{"canView": "no", "canEdit": 1},
			expected: CapabilityTriple{CanView: true},
		},
		{
			name: "explicit full triple preserved",
			input: map[string]interface{}{
				"canView": true, "canEdit": true, "canManageCompanions": true,
			},
			expected: CapabilityTriple{CanView: true, CanEdit: true, CanManageCompanions: true},
		},
		{
			name:     "view can be disabled",
			input:    map[string]interface{}{"canView": false},
			expected: CapabilityTriple{},
		},
		{
			name:     "unknown fields are ignored",
			input:    map[string]interface{}{"role": "admin", "canEdit": true},
			expected: CapabilityTriple{CanView: true, CanEdit: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeCapabilityInput(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.True(t, got.Valid())
		})
	}
}

// A payload that fails validation still sanitizes to a usable triple, so the
// two entry points stay consistent for callers that sanitize unconditionally.
func TestValidateAndSanitizeAgree(t *testing.T) {
	input := map[string]interface{}{"canEdit": false, "canManageCompanions": true}

	errs := ValidateCapabilityInput(input)
	require.NotEmpty(t, errs)

	got := SanitizeCapabilityInput(input)
	assert.Equal(t, CapabilityTriple{CanView: true}, got)
}
