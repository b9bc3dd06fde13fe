package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/services/command"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/services/query"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/worker"
)

// UploadAcceptedMessage is returned with every accepted upload.
const UploadAcceptedMessage = "File upload accepted. Check the processing result shortly."

// FileHandler serves the /files endpoints.
type FileHandler struct {
	uploader      *command.Uploader
	downloads     *query.Downloads
	maxUploadSize int64
	logger        *slog.Logger
}

func NewFileHandler(uploader *command.Uploader, downloads *query.Downloads, maxUploadSize int64, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		uploader:      uploader,
		downloads:     downloads,
		maxUploadSize: maxUploadSize,
		logger:        logger.With("component", "http"),
	}
}

// Checker is a dependency the health endpoint probes.
type Checker interface {
	CheckConnection(ctx context.Context) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) CheckConnection(ctx context.Context) error { return f(ctx) }

// HealthHandler reports dependency reachability and queue usage.
type HealthHandler struct {
	checks map[string]Checker
	pool   *worker.Pool
}

func NewHealthHandler(pool *worker.Pool, checks map[string]Checker) *HealthHandler {
	return &HealthHandler{checks: checks, pool: pool}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	components := gin.H{}
	for name, check := range h.checks {
		if err := check.CheckConnection(ctx); err != nil {
			components[name] = gin.H{"status": "down", "error": err.Error()}
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = gin.H{"status": "up"}
	}

	body := gin.H{"status": "ok", "components": components}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if h.pool != nil {
		body["validation"] = h.pool.Status()
	}
	c.JSON(status, body)
}
