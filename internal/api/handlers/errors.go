package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/logging"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/services/command"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/worker"
)

// writeError maps pipeline errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	var storageErr *services.StorageError

	switch {
	case errors.Is(err, command.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrPoolClosed):
		c.Header("Retry-After", "5")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &storageErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Storage service not available"})
	default:
		logging.FromContext(c.Request.Context()).Error("request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
