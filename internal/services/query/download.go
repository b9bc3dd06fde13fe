// Package query holds the read side: record status and presigned download links.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/storage"
)

const DefaultURLTTL = 10 * time.Minute

// DownloadURL is a time-limited link to a stored file.
type DownloadURL struct {
	FileName  string    `json:"fileName"`
	URL       string    `json:"downloadUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Downloads struct {
	store  services.ObjectStore
	repo   storage.Repository
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewDownloads(store services.ObjectStore, repo storage.Repository, ttl time.Duration, logger *slog.Logger) *Downloads {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	return &Downloads{
		store:  store,
		repo:   repo,
		ttl:    ttl,
		logger: logger.With("component", "downloads"),
		now:    time.Now,
	}
}

// DownloadURL signs a link for fileID regardless of its validation status.
// A missing record yields storage.ErrNotFound.
func (d *Downloads) DownloadURL(ctx context.Context, fileID string) (DownloadURL, error) {
	rec, err := d.repo.FindByID(ctx, fileID)
	if err != nil {
		return DownloadURL{}, err
	}

	issuedAt := d.now()
	url, err := d.store.Sign(ctx, rec.StorageKey, d.ttl)
	if err != nil {
		return DownloadURL{}, fmt.Errorf("sign download url: %w", err)
	}

	d.logger.Debug("issued download url", "file_id", fileID, "ttl", d.ttl)
	return DownloadURL{
		FileName:  rec.OriginalName,
		URL:       url,
		ExpiresAt: issuedAt.Add(d.ttl),
	}, nil
}

// Status returns the current record for pollers.
func (d *Downloads) Status(ctx context.Context, fileID string) (*models.FileRecord, error) {
	return d.repo.FindByID(ctx, fileID)
}
