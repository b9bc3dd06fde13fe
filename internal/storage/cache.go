package storage

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/File-Sharing-BondBridg/Coupon-File-Service/internal/models"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cfs_record_cache_hits_total",
		Help: "File record lookups served from the in-process cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cfs_record_cache_misses_total",
		Help: "File record lookups that went to the repository.",
	})
)

// CachedRepository fronts a Repository with an LRU of terminal records.
// PENDING records are never cached since they still change.
type CachedRepository struct {
	Repository
	cache *expirable.LRU[string, *models.FileRecord]
}

func NewCachedRepository(inner Repository, size int, ttl time.Duration) *CachedRepository {
	return &CachedRepository{
		Repository: inner,
		cache:      expirable.NewLRU[string, *models.FileRecord](size, nil, ttl),
	}
}

func (c *CachedRepository) FindByID(ctx context.Context, id string) (*models.FileRecord, error) {
	if rec, ok := c.cache.Get(id); ok {
		cacheHitsTotal.Inc()
		return rec.Clone(), nil
	}
	cacheMissesTotal.Inc()

	rec, err := c.Repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status.IsTerminal() {
		c.cache.Add(id, rec.Clone())
	}
	return rec, nil
}

func (c *CachedRepository) UpdateStatus(ctx context.Context, rec *models.FileRecord) error {
	if err := c.Repository.UpdateStatus(ctx, rec); err != nil {
		return err
	}
	c.cache.Add(rec.ID, rec.Clone())
	return nil
}
