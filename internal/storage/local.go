package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/models"
)

// LocalStorage keeps records in memory and, when path is set, mirrors them
// to a JSON file after every write. Meant for development and tests.
type LocalStorage struct {
	path    string
	records map[string]*models.FileRecord
	mu      sync.RWMutex
}

// NewLocalStorage loads path if it exists. An empty path keeps everything in memory.
func NewLocalStorage(path string) (*LocalStorage, error) {
	l := &LocalStorage{
		path:    path,
		records: make(map[string]*models.FileRecord),
	}
	if path == "" {
		return l, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	if err := json.Unmarshal(data, &l.records); err != nil {
		return nil, fmt.Errorf("failed to parse metadata file: %w", err)
	}
	return l, nil
}

func (l *LocalStorage) Create(_ context.Context, rec *models.FileRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.records[rec.ID]; exists {
		return fmt.Errorf("file record %s already exists", rec.ID)
	}
	l.records[rec.ID] = rec.Clone()

	if err := l.saveToFile(); err != nil {
		delete(l.records, rec.ID)
		return err
	}
	return nil
}

func (l *LocalStorage) FindByID(_ context.Context, id string) (*models.FileRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, exists := l.records[id]
	if !exists {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (l *LocalStorage) UpdateStatus(_ context.Context, rec *models.FileRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored, exists := l.records[rec.ID]
	if !exists {
		return ErrNotFound
	}
	if stored.Status.IsTerminal() {
		return models.ErrAlreadyFinalized
	}

	l.records[rec.ID] = rec.Clone()
	if err := l.saveToFile(); err != nil {
		l.records[rec.ID] = stored
		return err
	}
	return nil
}

func (l *LocalStorage) ListPending(_ context.Context, uploadedBefore time.Time, limit int) ([]*models.FileRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pending := make([]*models.FileRecord, 0)
	for _, rec := range l.records {
		if rec.Status == models.StatusPending && rec.UploadedAt.Before(uploadedBefore) {
			pending = append(pending, rec.Clone())
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].UploadedAt.Before(pending[j].UploadedAt)
	})

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// saveToFile writes through a temp file and rename. Callers hold mu.
func (l *LocalStorage) saveToFile() error {
	if l.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(l.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	tempFile := l.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	if err := os.Rename(tempFile, l.path); err != nil {
		return fmt.Errorf("failed to rename metadata file: %w", err)
	}
	return nil
}
