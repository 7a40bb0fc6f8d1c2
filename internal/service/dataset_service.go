package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/open-depot/archive-api/internal/models"
)

type datasetStore interface {
	GetByID(ctx context.Context, id string) (*models.Dataset, error)
}

type datasetCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// DatasetService reads dataset metadata with a redis-backed cache in front
// of the store. Policy verdicts are never cached, only the metadata row.
type DatasetService struct {
	repo    datasetStore
	cache   datasetCache
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewDatasetService constructs the service.
func NewDatasetService(repo datasetStore, cache datasetCache, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *DatasetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &DatasetService{repo: repo, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// Get returns dataset metadata, serving from cache when possible.
func (s *DatasetService) Get(ctx context.Context, id string) (*models.Dataset, error) {
	key := cacheKey(id)
	if s.cache != nil {
		var cached models.Dataset
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	dataset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, dataset, s.ttl); err != nil {
			s.logger.Warn("failed to cache dataset", zap.String("dataset_id", id), zap.Error(err))
		}
	}
	return dataset, nil
}

// Invalidate drops the cached metadata after a mutation touched the dataset.
func (s *DatasetService) Invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.logger.Warn("failed to invalidate dataset cache", zap.String("dataset_id", id), zap.Error(err))
	}
}

func cacheKey(id string) string {
	return "dataset:" + id
}
