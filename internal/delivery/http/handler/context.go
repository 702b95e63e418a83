package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// caller is the authenticated user behind a request.
type caller struct {
	ID    uuid.UUID
	Email string
	Role  string
}

// currentCaller reads the identity set by AuthMiddleware. It writes a 401 and returns false when absent.
func currentCaller(c *gin.Context) (caller, bool) {
	raw, exists := c.Get(middleware.ContextUserID)
	if !exists {
		utils.ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
		return caller{}, false
	}
	id, ok := raw.(uuid.UUID)
	if !ok {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Invalid user identifier")
		return caller{}, false
	}
	return caller{
		ID:    id,
		Email: c.GetString(middleware.ContextEmail),
		Role:  c.GetString(middleware.ContextRole),
	}, true
}

// uuidParam parses a path parameter. It writes a 400 and returns false when malformed.
func uuidParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the request body into dst. It writes a 400 and returns false on malformed input.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return false
	}
	return true
}
