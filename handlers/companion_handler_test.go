package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	apperrors "github.com/TrailParty/trail-party-backend/errors"
	"github.com/TrailParty/trail-party-backend/logger"
	"github.com/TrailParty/trail-party-backend/middleware"
	"github.com/TrailParty/trail-party-backend/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.IsTest = true
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupCompanionRouter(engine *MockCascadeEngine, resolver *MockPermissionChecker) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.PrincipalMiddleware())

	h := NewCompanionHandler(engine, resolver)
	r.POST("/v1/trips/:tripId/companions", h.AddCompanionHandler)
	r.DELETE("/v1/trips/:tripId/companions/:companionId", h.RemoveCompanionHandler)
	r.PUT("/v1/trips/:tripId/companions/:companionId/permissions", h.UpdateCompanionPermissionsHandler)
	r.PUT("/v1/trips/:tripId/items/:itemType/:itemId/companions", h.SetItemGrantHandler)
	r.DELETE("/v1/trips/:tripId/items/:itemType/:itemId/companions/:companionId", h.RemoveItemGrantHandler)
	return r
}

func doRequest(r *gin.Engine, method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAddCompanionHandler(t *testing.T) {
	t.Run("success with defaults", func(t *testing.T) {
		engine := new(MockCascadeEngine)
		resolver := new(MockPermissionChecker)
		resolver.On("HasPermission", mock.Anything, types.Principal{ID: "owner-1"},
			types.TripResource("trip-1"), types.ActionManageCompanions).Return(true)
		engine.On("AddCompanionToTrip", mock.Anything, "trip-1", "comp-1",
			types.CapabilityTriple{CanView: true}, "owner-1").Return(nil)

		r := setupCompanionRouter(engine, resolver)
		w := doRequest(r, http.MethodPost, "/v1/trips/trip-1/companions",
			gin.H{"companionId": "comp-1"}, "owner-1")

		assert.Equal(t, http.StatusCreated, w.Code)
		engine.AssertExpectations(t)
	})

	t.Run("invalid capabilities rejected before the engine runs", func(t *testing.T) {
		engine := new(MockCascadeEngine)
		resolver := new(MockPermissionChecker)
		resolver.On("HasPermission", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true)

		r := setupCompanionRouter(engine, resolver)
		w := doRequest(r, http.MethodPost, "/v1/trips/trip-1/companions",
			gin.H{"companionId": "comp-1", "capabilities": gin.H{"canManageCompanions": true}}, "owner-1")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		engine.AssertNotCalled(t, "AddCompanionToTrip")
	})

	t.Run("forbidden without manage capability", func(t *testing.T) {
		engine := new(MockCascadeEngine)
		resolver := new(MockPermissionChecker)
		resolver.On("HasPermission", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false)

		r := setupCompanionRouter(engine, resolver)
		w := doRequest(r, http.MethodPost, "/v1/trips/trip-1/companions",
			gin.H{"companionId": "comp-1"}, "user-2")

		assert.Equal(t, http.StatusForbidden, w.Code)
		engine.AssertNotCalled(t, "AddCompanionToTrip")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		r := setupCompanionRouter(new(MockCascadeEngine), new(MockPermissionChecker))
		w := doRequest(r, http.MethodPost, "/v1/trips/trip-1/companions",
			gin.H{"companionId": "comp-1"}, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("engine error surfaces with its status", func(t *testing.T) {
		engine := new(MockCascadeEngine)
		resolver := new(MockPermissionChecker)
		resolver.On("HasPermission", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true)
		engine.On("AddCompanionToTrip", mock.Anything, "trip-1", "comp-x", mock.Anything, "owner-1").
			Return(apperrors.CompanionNotFound("comp-x"))

		r := setupCompanionRouter(engine, resolver)
		w := doRequest(r, http.MethodPost, "/v1/trips/trip-1/companions",
			gin.H{"companionId": "comp-x"}, "owner-1")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRemoveCompanionHandler(t *testing.T) {
	engine := new(MockCascadeEngine)
	resolver := new(MockPermissionChecker)
	resolver.On("HasPermission", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true)
	engine.On("RemoveCompanionFromTrip", mock.Anything, "trip-1", "comp-1").Return(nil)

	r := setupCompanionRouter(engine, resolver)
	w := doRequest(r, http.MethodDelete, "/v1/trips/trip-1/companions/comp-1", nil, "owner-1")

	assert.Equal(t, http.StatusNoContent, w.Code)
	engine.AssertExpectations(t)
}

func TestUpdateCompanionPermissionsHandler(t *testing.T) {
	t.Run("sanitized triple reaches the engine", func(t *testing.T) {
		engine := new(MockCascadeEngine)
		resolver := new(MockPermissionChecker)
		resolver.On("HasPermission", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true)
		engine.On("ChangeCompanionTripPermissions", mock.Anything, "trip-1", "comp-1",
			types.CapabilityTriple{CanView: true, CanEdit: true}).Return(nil)

		r := setupCompanionRouter(engine, resolver)
		w := doRequest(r, http.MethodPut, "/v1/trips/trip-1/companions/comp-1/permissions",
			gin.H{"capabilities": gin.H{"canEdit": true}}, "owner-1")

		assert.Equal(t, http.StatusOK, w.Code)
		engine.AssertExpectations(t)
	})

	t.Run("missing capabilities rejected", func(t *testing.T) {
		engine := new(MockCascadeEngine)
		resolver := new(MockPermissionChecker)

		r := setupCompanionRouter(engine, resolver)
		w := doRequest(r, http.MethodPut, "/v1/trips/trip-1/companions/comp-1/permissions",
			gin.H{}, "owner-1")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSetItemGrantHandler(t *testing.T) {
	engine := new(MockCascadeEngine)
	resolver := new(MockPermissionChecker)
	resolver.On("HasPermission", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true)

	item := types.ItemRef{Type: types.ItemTypeFlight, ID: "fl-1"}
	granted := &types.ItemGrant{
		Item:         item,
		CompanionID:  "comp-1",
		Capabilities: types.CapabilityTriple{CanView: true},
		Status:       types.AttendanceAttending,
		Provenance:   types.ProvenanceExplicit,
	}
	engine.On("SetItemGrant", mock.Anything, "trip-1", item, "comp-1",
		types.CapabilityTriple{CanView: true}, types.AttendanceStatus(""), "owner-1").Return(granted, nil)

	r := setupCompanionRouter(engine, resolver)
	w := doRequest(r, http.MethodPut, "/v1/trips/trip-1/items/flight/fl-1/companions",
		gin.H{"companionId": "comp-1"}, "owner-1")

	require.Equal(t, http.StatusOK, w.Code)

	var got types.ItemGrant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, types.ProvenanceExplicit, got.Provenance)
	engine.AssertExpectations(t)
}

func TestRemoveItemGrantHandler(t *testing.T) {
	engine := new(MockCascadeEngine)
	resolver := new(MockPermissionChecker)
	resolver.On("HasPermission", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true)
	item := types.ItemRef{Type: types.ItemTypeHotel, ID: "ho-1"}
	engine.On("RemoveItemGrant", mock.Anything, "trip-1", item, "comp-1").Return(nil)

	r := setupCompanionRouter(engine, resolver)
	w := doRequest(r, http.MethodDelete, "/v1/trips/trip-1/items/hotel/ho-1/companions/comp-1", nil, "owner-1")

	assert.Equal(t, http.StatusNoContent, w.Code)
	engine.AssertExpectations(t)
}
