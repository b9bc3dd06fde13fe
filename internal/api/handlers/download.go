package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/models"
	"github.com/gin-gonic/gin"
)

// StatusResponse is the public view of a file record. Storage layout stays
// internal.
type StatusResponse struct {
	FileID        string            `json:"fileId"`
	FileName      string            `json:"fileName"`
	Status        models.FileStatus `json:"status"`
	FailureReason string            `json:"failureReason,omitempty"`
	UploadedAt    time.Time         `json:"uploadedAt"`
	ValidatedAt   *time.Time        `json:"validatedAt,omitempty"`
}

func newStatusResponse(rec *models.FileRecord) StatusResponse {
	return StatusResponse{
		FileID:        rec.ID,
		FileName:      rec.OriginalName,
		Status:        rec.Status,
		FailureReason: rec.FailureReason,
		UploadedAt:    rec.UploadedAt,
		ValidatedAt:   rec.ValidatedAt,
	}
}

// Download issues a presigned URL for the stored file.
func (h *FileHandler) Download(c *gin.Context) {
	id := strings.TrimSpace(c.Param("fileId"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileId is required"})
		return
	}

	url, err := h.downloads.DownloadURL(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, url)
}

// Status lets clients poll for the validation outcome.
func (h *FileHandler) Status(c *gin.Context) {
	rec, err := h.downloads.Status(c.Request.Context(), c.Param("fileId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStatusResponse(rec))
}
