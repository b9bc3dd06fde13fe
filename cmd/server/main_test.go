package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/logging"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/worker"
)

func localConfig(t *testing.T, cacheSize string) *configuration.Config {
	t.Helper()
	t.Setenv("METADATA_DRIVER", "local")
	t.Setenv("METADATA_LOCAL_PATH", filepath.Join(t.TempDir(), "records.json"))
	t.Setenv("RECORD_CACHE_SIZE", cacheSize)

	cfg, err := configuration.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestOpenRepositoryLocal(t *testing.T) {
	cfg := localConfig(t, "0")
	checks := map[string]handlers.Checker{}

	repo, closeFn, err := openRepository(context.Background(), cfg, logging.Discard(), checks)
	if err != nil {
		t.Fatalf("openRepository: %v", err)
	}
	defer closeFn()

	if _, ok := repo.(*storage.LocalStorage); !ok {
		t.Errorf("repo = %T, want *storage.LocalStorage", repo)
	}
	if _, ok := checks["postgres"]; ok {
		t.Error("local driver should not register a postgres check")
	}
}

func TestOpenRepositoryWithCache(t *testing.T) {
	cfg := localConfig(t, "16")

	repo, closeFn, err := openRepository(context.Background(), cfg, logging.Discard(), map[string]handlers.Checker{})
	if err != nil {
		t.Fatalf("openRepository: %v", err)
	}
	defer closeFn()

	if _, ok := repo.(*storage.CachedRepository); !ok {
		t.Errorf("repo = %T, want *storage.CachedRepository", repo)
	}
}

func TestRouterServesHealthWithRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := localConfig(t, "0")

	pool := worker.New(1, 1, time.Second, logging.Discard())
	r := newRouter(cfg, logging.Discard(), nil, handlers.NewHealthHandler(pool, nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}
}
