package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/logging"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/validator"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/worker"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	deleted []string
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, &services.StorageError{Op: "get", Key: key, Err: services.ErrObjectNotFound}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Sign(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://objects.test/%s?ttl=%s", key, ttl), nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type failingCreateRepo struct {
	*storage.LocalStorage
}

func (failingCreateRepo) Create(context.Context, *models.FileRecord) error {
	return errors.New("database is down")
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (r *recordingPublisher) PublishEvent(subject string, _ interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	return nil
}

func (r *recordingPublisher) published() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.subjects...)
}

type stubScanner struct {
	verdict services.ScanVerdict
	err     error
}

func (s stubScanner) Scan(r io.Reader) (services.ScanVerdict, error) {
	_, _ = io.Copy(io.Discard, r)
	return s.verdict, s.err
}

type pipeline struct {
	store     *memStore
	repo      *storage.LocalStorage
	pool      *worker.Pool
	validator *Validator
	uploader  *Uploader
}

func newPipeline(t *testing.T, opts ...ValidatorOption) *pipeline {
	t.Helper()

	repo, err := storage.NewLocalStorage("")
	if err != nil {
		t.Fatal(err)
	}
	store := newMemStore()
	logger := logging.Discard()
	pool := worker.New(2, 16, time.Second, logger)
	v := NewValidator(store, repo, validator.Default(), logger, opts...)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = pool.Shutdown(ctx)
	})

	return &pipeline{
		store:     store,
		repo:      repo,
		pool:      pool,
		validator: v,
		uploader:  NewUploader(store, repo, pool, v, nil, logger),
	}
}

func (p *pipeline) upload(t *testing.T, name, content string) *models.FileRecord {
	t.Helper()
	rec, err := p.uploader.Upload(context.Background(), UploadRequest{
		Filename: name,
		Content:  bytes.NewReader([]byte(content)),
		Size:     int64(len(content)),
	})
	if err != nil {
		t.Fatalf("Upload(%s): %v", name, err)
	}
	return rec
}

func waitTerminal(t *testing.T, repo storage.Repository, id string) *models.FileRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := repo.FindByID(context.Background(), id)
		if err == nil && rec.Status.IsTerminal() {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("record %s never reached a terminal state", id)
	return nil
}
