package middleware

import (
	"net/http"
	"strconv"

	"github.com/TrailParty/trail-party-backend/errors"
	"github.com/TrailParty/trail-party-backend/logger"
	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ErrorHandler converts errors attached to the gin context into structured
// JSON responses. AppErrors carry their own HTTP status; anything else is a
// 500 with a sanitized message.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		log := logger.GetLogger()

		if appError, ok := err.(*errors.AppError); ok {
			statusCode := appError.GetHTTPStatus()
			log.Warnw("Request failed",
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"error_type", string(appError.Type),
				"error_message", appError.Message,
				"status", statusCode,
			)
			c.JSON(statusCode, ErrorResponse{
				Type:    string(appError.Type),
				Message: appError.Message,
				Details: appError.Detail,
				Code:    strconv.Itoa(statusCode),
			})
			return
		}

		log.Errorw("Unhandled error",
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Type:    string(errors.ServerError),
			Message: "Internal server error",
		})
	}
}
