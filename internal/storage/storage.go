// Package storage persists FileRecords.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/models"
)

// ErrNotFound is returned when no record exists for an id.
var ErrNotFound = errors.New("file record not found")

// Repository is the keyed store behind the ingestion pipeline.
type Repository interface {
	Create(ctx context.Context, rec *models.FileRecord) error
	FindByID(ctx context.Context, id string) (*models.FileRecord, error)
	// UpdateStatus persists a terminal transition already applied to rec.
	// It returns models.ErrAlreadyFinalized when the stored row is no longer PENDING.
	UpdateStatus(ctx context.Context, rec *models.FileRecord) error
	// ListPending returns up to limit PENDING records uploaded before the
	// cutoff, oldest first.
	ListPending(ctx context.Context, uploadedBefore time.Time, limit int) ([]*models.FileRecord, error)
}
