package handlers

import (
	"net/http"

	apperrors "github.com/TrailParty/trail-party-backend/errors"
	"github.com/TrailParty/trail-party-backend/middleware"
	"github.com/TrailParty/trail-party-backend/types"
	"github.com/gin-gonic/gin"
)

// PermissionHandler exposes the read-only permission check and the capability
// validation helpers.
type PermissionHandler struct {
	resolver PermissionChecker
}

// NewPermissionHandler creates a new PermissionHandler.
func NewPermissionHandler(resolver PermissionChecker) *PermissionHandler {
	return &PermissionHandler{resolver: resolver}
}

// CheckPermissionHandler answers whether the authenticated user can perform
// an action on a trip or item resource.
// GET /v1/permissions/check?tripId=...&action=...[&itemType=...&itemId=...]
func (h *PermissionHandler) CheckPermissionHandler(c *gin.Context) {
	userID := middleware.GetUserID(c)
	tripID := c.Query("tripId")
	action := types.Action(c.Query("action"))

	if tripID == "" {
		_ = c.Error(apperrors.ValidationFailed("missing_trip_id", "tripId query parameter is required"))
		return
	}
	if !action.IsValid() {
		_ = c.Error(apperrors.ValidationFailed("invalid_action", string(action)))
		return
	}

	resource := types.TripResource(tripID)
	if itemType := c.Query("itemType"); itemType != "" {
		resource = types.ItemResource(tripID, types.ItemRef{
			Type: types.ItemType(itemType),
			ID:   c.Query("itemId"),
		})
	}

	allowed := h.resolver.HasPermission(c.Request.Context(), types.Principal{ID: userID}, resource, action)
	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}

// ValidateCapabilitiesHandler runs the strict validator over an untyped
// capability payload and returns both the problems found and the sanitized
// triple the lenient path would produce.
// POST /v1/permissions/validate
func (h *PermissionHandler) ValidateCapabilitiesHandler(c *gin.Context) {
	var input map[string]interface{}
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(apperrors.ValidationFailed("invalid_request_payload", err.Error()))
		return
	}

	errs := types.ValidateCapabilityInput(input)
	problems := make([]string, 0, len(errs))
	for _, err := range errs {
		problems = append(problems, err.Error())
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":     len(problems) == 0,
		"errors":    problems,
		"sanitized": types.SanitizeCapabilityInput(input),
	})
}
