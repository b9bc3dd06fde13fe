package models

import (
	"errors"
	"strings"
	"time"
)

// FileStatus is the validation state of an uploaded file.
type FileStatus string

const (
	StatusPending FileStatus = "PENDING"
	StatusValid   FileStatus = "VALID"
	StatusInvalid FileStatus = "INVALID"
)

// ErrAlreadyFinalized is returned when a transition is attempted on a record
// that already reached VALID or INVALID.
var ErrAlreadyFinalized = errors.New("file record already finalized")

// IsTerminal reports whether no further transition may leave s.
func (s FileStatus) IsTerminal() bool {
	return s == StatusValid || s == StatusInvalid
}

// FileRecord tracks the lifecycle of one accepted upload.
type FileRecord struct {
	ID            string     `json:"id"`
	OriginalName  string     `json:"original_name"`
	StorageKey    string     `json:"storage_key"`
	SizeBytes     int64      `json:"size_bytes"`
	ContentType   string     `json:"content_type"`
	Status        FileStatus `json:"status"`
	FailureReason string     `json:"failure_reason,omitempty"`
	UploadedAt    time.Time  `json:"uploaded_at"`
	ValidatedAt   *time.Time `json:"validated_at,omitempty"`
}

// NewFileRecord builds a PENDING record for content already stored under storageKey.
func NewFileRecord(id, originalName, storageKey string, size int64, contentType string, now time.Time) *FileRecord {
	return &FileRecord{
		ID:           id,
		OriginalName: originalName,
		StorageKey:   storageKey,
		SizeBytes:    size,
		ContentType:  contentType,
		Status:       StatusPending,
		UploadedAt:   now,
	}
}

// Complete moves the record to VALID.
func (f *FileRecord) Complete(now time.Time) error {
	if f.Status.IsTerminal() {
		return ErrAlreadyFinalized
	}
	f.Status = StatusValid
	f.FailureReason = ""
	f.ValidatedAt = &now
	return nil
}

// Fail moves the record to INVALID with reason. A blank reason is replaced so
// that an INVALID record always carries one.
func (f *FileRecord) Fail(reason string, now time.Time) error {
	if f.Status.IsTerminal() {
		return ErrAlreadyFinalized
	}
	if strings.TrimSpace(reason) == "" {
		reason = "validation failed"
	}
	f.Status = StatusInvalid
	f.FailureReason = reason
	f.ValidatedAt = &now
	return nil
}

// Clone returns a copy that shares no pointers with f.
func (f *FileRecord) Clone() *FileRecord {
	c := *f
	if f.ValidatedAt != nil {
		t := *f.ValidatedAt
		c.ValidatedAt = &t
	}
	return &c
}
