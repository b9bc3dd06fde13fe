package services

import (
	"time"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/models"
)

// Subjects published on the file-events stream.
const (
	SubjectFileUploaded  = "files.uploaded"
	SubjectFileValidated = "files.validated"
)

// FileEvent is the payload of every files.* message.
type FileEvent struct {
	Action        string            `json:"action"`
	FileID        string            `json:"file_id"`
	OriginalName  string            `json:"original_name"`
	StorageKey    string            `json:"storage_key"`
	SizeBytes     int64             `json:"size"`
	Status        models.FileStatus `json:"status"`
	FailureReason string            `json:"failure_reason,omitempty"`
	OccurredAt    string            `json:"occurred_at"`
}

// NewFileEvent snapshots rec for action ("uploaded", "validated").
func NewFileEvent(action string, rec *models.FileRecord, now time.Time) FileEvent {
	return FileEvent{
		Action:        action,
		FileID:        rec.ID,
		OriginalName:  rec.OriginalName,
		StorageKey:    rec.StorageKey,
		SizeBytes:     rec.SizeBytes,
		Status:        rec.Status,
		FailureReason: rec.FailureReason,
		OccurredAt:    now.UTC().Format(time.RFC3339),
	}
}

// EventPublisher announces lifecycle changes to downstream consumers.
type EventPublisher interface {
	PublishEvent(subject string, payload interface{}) error
}

// NopPublisher drops every event. Used when NATS is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(string, interface{}) error { return nil }
