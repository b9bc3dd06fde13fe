package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/models"
	"github.com/minio/minio-go/v7"
)

func TestStorageErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("upload: %w", &StorageError{Op: "put", Key: "k", Err: cause})

	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatal("expected StorageError in chain")
	}
	if se.Op != "put" || se.Key != "k" {
		t.Errorf("got op=%q key=%q", se.Op, se.Key)
	}
	if !errors.Is(err, cause) {
		t.Error("StorageError should unwrap to its cause")
	}
}

func TestClassifyMissingObject(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{"no such key", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404, Message: "gone"}, true},
		{"plain 404", minio.ErrorResponse{Code: "", StatusCode: 404}, true},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}, false},
		{"network", errors.New("dial tcp: timeout"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(classify(tt.err), ErrObjectNotFound)
			if got != tt.notFound {
				t.Errorf("classify(%v) not-found = %v, want %v", tt.err, got, tt.notFound)
			}
		})
	}
}

func TestNewFileEvent(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := models.NewFileRecord("id-1", "coupons.csv", "id-1-coupons.csv", 42, "text/csv", now)
	_ = rec.Fail("File is empty.", now)

	ev := NewFileEvent("validated", rec, now)
	if ev.FileID != "id-1" || ev.Status != models.StatusInvalid || ev.FailureReason != "File is empty." {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.OccurredAt != "2024-03-01T12:00:00Z" {
		t.Errorf("occurred_at = %q", ev.OccurredAt)
	}
}

func TestNopPublisher(t *testing.T) {
	var p EventPublisher = NopPublisher{}
	if err := p.PublishEvent(SubjectFileUploaded, map[string]string{"a": "b"}); err != nil {
		t.Errorf("NopPublisher returned %v", err)
	}
}
