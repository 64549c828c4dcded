package handlers

import (
	"net/http"

	apperrors "github.com/TrailParty/trail-party-backend/errors"
	"github.com/TrailParty/trail-party-backend/logger"
	"github.com/TrailParty/trail-party-backend/middleware"
	"github.com/TrailParty/trail-party-backend/types"
	"github.com/gin-gonic/gin"
)

// CompanionHandler handles HTTP requests for companion permissions on trips
// and items.
type CompanionHandler struct {
	engine   CascadeEngine
	resolver PermissionChecker
}

// NewCompanionHandler creates a new CompanionHandler with the given dependencies.
func NewCompanionHandler(engine CascadeEngine, resolver PermissionChecker) *CompanionHandler {
	return &CompanionHandler{
		engine:   engine,
		resolver: resolver,
	}
}

// AddCompanionRequest defines the structure for the add companion request body.
// Capabilities come in untyped so partial payloads can be validated and
// sanitized with defaults.
type AddCompanionRequest struct {
	CompanionID  string                 `json:"companionId" binding:"required"`
	Capabilities map[string]interface{} `json:"capabilities"`
}

// UpdateCompanionPermissionsRequest defines the structure for the permission
// change request body.
type UpdateCompanionPermissionsRequest struct {
	Capabilities map[string]interface{} `json:"capabilities" binding:"required"`
}

// SetItemGrantRequest defines the structure for a direct item grant write.
type SetItemGrantRequest struct {
	CompanionID  string                 `json:"companionId" binding:"required"`
	Capabilities map[string]interface{} `json:"capabilities"`
	Status       types.AttendanceStatus `json:"status"`
}

// AddCompanionHandler adds a companion to a trip and cascades the grant to
// the trip's items.
// POST /v1/trips/:tripId/companions
func (h *CompanionHandler) AddCompanionHandler(c *gin.Context) {
	log := logger.GetLogger()
	tripID := c.Param("tripId")
	userID := middleware.GetUserID(c)

	var req AddCompanionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Errorw("Invalid add companion request", "error", err, "tripID", tripID)
		_ = c.Error(apperrors.ValidationFailed("invalid_request_payload", err.Error()))
		return
	}

	if !h.authorizeManage(c, tripID, userID) {
		return
	}

	if errs := types.ValidateCapabilityInput(req.Capabilities); len(errs) > 0 {
		_ = c.Error(apperrors.ValidationFailed("invalid_capabilities", joinErrors(errs)))
		return
	}
	triple := types.SanitizeCapabilityInput(req.Capabilities)

	if err := h.engine.AddCompanionToTrip(c.Request.Context(), tripID, req.CompanionID, triple, userID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"tripId":       tripID,
		"companionId":  req.CompanionID,
		"capabilities": triple,
	})
}

// RemoveCompanionHandler removes a companion from a trip; inherited item
// grants go with them, explicit ones survive.
// DELETE /v1/trips/:tripId/companions/:companionId
func (h *CompanionHandler) RemoveCompanionHandler(c *gin.Context) {
	tripID := c.Param("tripId")
	companionID := c.Param("companionId")
	userID := middleware.GetUserID(c)

	if !h.authorizeManage(c, tripID, userID) {
		return
	}

	if err := h.engine.RemoveCompanionFromTrip(c.Request.Context(), tripID, companionID); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateCompanionPermissionsHandler changes a companion's trip-level
// capabilities and propagates to inherited item grants.
// PUT /v1/trips/:tripId/companions/:companionId/permissions
func (h *CompanionHandler) UpdateCompanionPermissionsHandler(c *gin.Context) {
	log := logger.GetLogger()
	tripID := c.Param("tripId")
	companionID := c.Param("companionId")
	userID := middleware.GetUserID(c)

	var req UpdateCompanionPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Errorw("Invalid permission change request", "error", err, "tripID", tripID, "companionID", companionID)
		_ = c.Error(apperrors.ValidationFailed("invalid_request_payload", err.Error()))
		return
	}

	if !h.authorizeManage(c, tripID, userID) {
		return
	}

	if errs := types.ValidateCapabilityInput(req.Capabilities); len(errs) > 0 {
		_ = c.Error(apperrors.ValidationFailed("invalid_capabilities", joinErrors(errs)))
		return
	}
	triple := types.SanitizeCapabilityInput(req.Capabilities)

	if err := h.engine.ChangeCompanionTripPermissions(c.Request.Context(), tripID, companionID, triple); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tripId":       tripID,
		"companionId":  companionID,
		"capabilities": triple,
	})
}

// SetItemGrantHandler writes a single item grant directly. Direct writes are
// always explicit and opt the grant out of future cascades.
// PUT /v1/trips/:tripId/items/:itemType/:itemId/companions
func (h *CompanionHandler) SetItemGrantHandler(c *gin.Context) {
	log := logger.GetLogger()
	tripID := c.Param("tripId")
	item := types.ItemRef{
		Type: types.ItemType(c.Param("itemType")),
		ID:   c.Param("itemId"),
	}
	userID := middleware.GetUserID(c)

	var req SetItemGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Errorw("Invalid item grant request", "error", err, "tripID", tripID, "item", item.String())
		_ = c.Error(apperrors.ValidationFailed("invalid_request_payload", err.Error()))
		return
	}

	if !h.authorizeManage(c, tripID, userID) {
		return
	}

	if errs := types.ValidateCapabilityInput(req.Capabilities); len(errs) > 0 {
		_ = c.Error(apperrors.ValidationFailed("invalid_capabilities", joinErrors(errs)))
		return
	}
	triple := types.SanitizeCapabilityInput(req.Capabilities)

	grant, err := h.engine.SetItemGrant(c.Request.Context(), tripID, item, req.CompanionID, triple, req.Status, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, grant)
}

// RemoveItemGrantHandler deletes a single item grant.
// DELETE /v1/trips/:tripId/items/:itemType/:itemId/companions/:companionId
func (h *CompanionHandler) RemoveItemGrantHandler(c *gin.Context) {
	tripID := c.Param("tripId")
	item := types.ItemRef{
		Type: types.ItemType(c.Param("itemType")),
		ID:   c.Param("itemId"),
	}
	companionID := c.Param("companionId")
	userID := middleware.GetUserID(c)

	if !h.authorizeManage(c, tripID, userID) {
		return
	}

	if err := h.engine.RemoveItemGrant(c.Request.Context(), tripID, item, companionID); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// authorizeManage verifies the caller may manage companions on the trip.
// Owners and delegates pass through the resolver's short-circuit steps.
func (h *CompanionHandler) authorizeManage(c *gin.Context, tripID, userID string) bool {
	principal := types.Principal{ID: userID}
	if !h.resolver.HasPermission(c.Request.Context(), principal, types.TripResource(tripID), types.ActionManageCompanions) {
		_ = c.Error(apperrors.Forbidden("insufficient permissions", "managing companions requires the manage capability"))
		return false
	}
	return true
}

func joinErrors(errs []error) string {
	out := ""
	for i, err := range errs {
		if i > 0 {
			out += "; "
		}
		out += err.Error()
	}
	return out
}
