// Package command holds the write side of the ingestion pipeline: accepting
// uploads and moving file records to their terminal state.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/worker"
)

// ErrInvalidInput is returned for a request without a filename or content.
var ErrInvalidInput = errors.New("invalid upload request")

// UploadRequest is one file handed over by the transport layer.
type UploadRequest struct {
	Filename    string
	Content     io.Reader
	Size        int64
	ContentType string
}

type deleter interface {
	Delete(ctx context.Context, key string) error
}

// Uploader stores uploaded files and schedules their validation.
type Uploader struct {
	store     services.ObjectStore
	repo      storage.Repository
	pool      *worker.Pool
	validator *Validator
	events    services.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewUploader(store services.ObjectStore, repo storage.Repository, pool *worker.Pool, validator *Validator, events services.EventPublisher, logger *slog.Logger) *Uploader {
	if events == nil {
		events = services.NopPublisher{}
	}
	return &Uploader{
		store:     store,
		repo:      repo,
		pool:      pool,
		validator: validator,
		events:    events,
		logger:    logger.With("component", "uploader"),
		now:       time.Now,
	}
}

// Upload writes the content to object storage, creates a PENDING record and
// schedules its validation. A validation slot is reserved before anything is
// written, so an accepted upload always gets validated.
func (u *Uploader) Upload(ctx context.Context, req UploadRequest) (*models.FileRecord, error) {
	name := strings.TrimSpace(req.Filename)
	if name == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	if req.Content == nil {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	ticket, err := u.pool.Reserve(ctx)
	if err != nil {
		uploadsTotal.WithLabelValues("rejected").Inc()
		u.logger.Warn("upload rejected, no validation slot", "filename", name, "error", err)
		return nil, err
	}
	submitted := false
	defer func() {
		if !submitted {
			ticket.Release()
		}
	}()

	id := uuid.New().String()
	key := StorageKey(id, name)

	if err := u.store.Put(ctx, key, req.Content, req.Size, req.ContentType); err != nil {
		uploadsTotal.WithLabelValues("failed").Inc()
		var se *services.StorageError
		if !errors.As(err, &se) {
			err = &services.StorageError{Op: "put", Key: key, Err: err}
		}
		return nil, fmt.Errorf("store upload: %w", err)
	}

	rec := models.NewFileRecord(id, name, key, req.Size, req.ContentType, u.now())
	if err := u.repo.Create(ctx, rec); err != nil {
		uploadsTotal.WithLabelValues("failed").Inc()
		u.removeOrphan(ctx, key)
		return nil, fmt.Errorf("save file record: %w", err)
	}

	if err := u.events.PublishEvent(services.SubjectFileUploaded, services.NewFileEvent("uploaded", rec, u.now())); err != nil {
		u.logger.Warn("failed to publish upload event", "file_id", id, "error", err)
	}

	ticket.Submit(u.validator.Job(id))
	submitted = true

	uploadsTotal.WithLabelValues("accepted").Inc()
	uploadBytes.Add(float64(req.Size))
	u.logger.Info("upload accepted", "file_id", id, "filename", name, "size", req.Size)

	return rec, nil
}

func (u *Uploader) removeOrphan(ctx context.Context, key string) {
	d, ok := u.store.(deleter)
	if !ok {
		return
	}
	if err := d.Delete(context.WithoutCancel(ctx), key); err != nil {
		u.logger.Error("failed to remove orphaned object", "key", key, "error", err)
	}
}

// StorageKey builds the object key for an upload: the record id followed by
// the base name of the original file.
func StorageKey(id, filename string) string {
	return id + "-" + path.Base(strings.ReplaceAll(filename, `\`, "/"))
}
