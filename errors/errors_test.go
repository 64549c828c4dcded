package errors

import (
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/TrailParty/trail-party-backend/logger"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	logger.IsTest = true
	os.Exit(m.Run())
}

func TestAppError_Error(t *testing.T) {
	withDetail := New(ValidationError, "invalid capabilities", "manage requires edit")
	assert.Equal(t, "VALIDATION_ERROR: invalid capabilities (manage requires edit)", withDetail.Error())

	withoutDetail := &AppError{Type: ServerError, Message: "boom"}
	assert.Equal(t, "SERVER_ERROR: boom", withoutDetail.Error())
}

func TestAppError_GetHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected int
	}{
		{"validation maps to 400", New(ValidationError, "bad", ""), http.StatusBadRequest},
		{"not found maps to 404", TripNotFound("trip-1"), http.StatusNotFound},
		{"conflict maps to 409", NewConflictError("dup", ""), http.StatusConflict},
		{"forbidden maps to 403", Forbidden("no", ""), http.StatusForbidden},
		{"auth maps to 401", AuthenticationFailed("who"), http.StatusUnauthorized},
		{"database maps to 500", NewDatabaseError(errors.New("down")), http.StatusInternalServerError},
		{"unset status falls back on type", &AppError{Type: NotFoundError}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.GetHTTPStatus())
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, DatabaseError, "ignored"))

	raw := errors.New("underlying")
	wrapped := Wrap(raw, DatabaseError, "query failed")
	assert.Equal(t, DatabaseError, wrapped.Type)
	assert.Equal(t, "underlying", wrapped.Detail)
	assert.ErrorIs(t, wrapped, raw)
}

func TestDomainHelpers(t *testing.T) {
	assert.Contains(t, TripNotFound("trip-1").Detail, "trip-1")
	assert.Contains(t, CompanionNotFound("comp-1").Detail, "comp-1")

	ge := GrantNotFound("trip-1", "comp-1")
	assert.Equal(t, NotFoundError, ge.Type)
	assert.Contains(t, ge.Detail, "trip-1")
	assert.Contains(t, ge.Detail, "comp-1")
}
