package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"call-pipeline/internal/storage"
	"call-pipeline/pkg/logger"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Repo storage.Repository
}

// GetCall returns the persisted outcome for one call SID.
func (h Handlers) GetCall(c *gin.Context) {
	callSID := c.Param("call_sid")
	if callSID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_sid required"})
		return
	}

	row, err := h.Repo.GetCallLog(c.Request.Context(), callSID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown call_sid"})
			return
		}
		logger.From(c.Request.Context()).Error("call lookup failed", "call_sid", callSID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, row)
}
