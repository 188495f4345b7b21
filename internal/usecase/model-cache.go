package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"splat-service/internal/config"
	"splat-service/internal/domain"
	"splat-service/internal/metrics"
)

// ModelCache lazily loads the inference model once per compute unit and
// retains the handle for the unit's lifetime. Concurrent first calls coalesce
// on a single in-flight load; a failed load leaves the cache empty so a later
// call can retry.
type ModelCache struct {
	runtime domain.ModelRuntime
	fetcher domain.CheckpointFetcher

	checkpointURL  string
	checkpointPath string

	group  singleflight.Group
	mu     sync.RWMutex
	handle *domain.ModelHandle
}

func NewModelCache(runtime domain.ModelRuntime, fetcher domain.CheckpointFetcher, cfg *config.ModelConfig) *ModelCache {
	return &ModelCache{
		runtime:        runtime,
		fetcher:        fetcher,
		checkpointURL:  cfg.CheckpointURL,
		checkpointPath: filepath.Join(cfg.CacheDir, cfg.CheckpointName),
	}
}

// Acquire returns the loaded model handle, performing the load on first use.
// Idempotent: every call after a successful load returns the same handle with
// no side effects.
func (c *ModelCache) Acquire(ctx context.Context) (*domain.ModelHandle, error) {
	c.mu.RLock()
	h := c.handle
	c.mu.RUnlock()
	if h != nil {
		return h, nil
	}

	v, err, _ := c.group.Do("model", func() (interface{}, error) {
		// Re-check under the flight: a previous caller may have stored the
		// handle between our read and the Do.
		c.mu.RLock()
		h := c.handle
		c.mu.RUnlock()
		if h != nil {
			return h, nil
		}
		return c.load(ctx)
	})
	if err != nil {
		metrics.ModelLoadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}

	return v.(*domain.ModelHandle), nil
}

// Loaded reports whether a handle is retained, without triggering a load.
func (c *ModelCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handle != nil
}

func (c *ModelCache) load(ctx context.Context) (*domain.ModelHandle, error) {
	start := time.Now()

	if _, err := os.Stat(c.checkpointPath); errors.Is(err, fs.ErrNotExist) {
		log.WithField("url", c.checkpointURL).Info("checkpoint not cached, downloading")
		if err := c.fetcher.Fetch(ctx, c.checkpointURL, c.checkpointPath); err != nil {
			return nil, fmt.Errorf("fetch checkpoint: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat checkpoint: %w", err)
	}

	handle, err := c.runtime.Load(ctx, c.checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	c.mu.Lock()
	c.handle = handle
	c.mu.Unlock()

	metrics.ModelLoadsTotal.WithLabelValues("success").Inc()
	log.WithFields(log.Fields{
		"device":     handle.Device,
		"checkpoint": c.checkpointPath,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("model loaded")

	return handle, nil
}
