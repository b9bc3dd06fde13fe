package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/logging"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/services/command"
)

// UploadResponse is the body returned by POST /files/upload.
type UploadResponse struct {
	FileID  string `json:"fileId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Upload accepts one multipart file in the "file" field.
func (h *FileHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if fh.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded file is empty"})
		return
	}
	if h.maxUploadSize > 0 && fh.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large: " + fh.Filename})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer f.Close()

	rec, err := h.uploader.Upload(c.Request.Context(), command.UploadRequest{
		Filename:    fh.Filename,
		Content:     f,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
	})
	if err != nil {
		logging.FromContext(c.Request.Context()).Error("upload failed", "filename", fh.Filename, "error", err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		FileID:  rec.ID,
		Status:  "UPLOADING",
		Message: UploadAcceptedMessage,
	})
}
