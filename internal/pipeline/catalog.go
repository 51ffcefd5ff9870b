package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/reservoir-charts/internal/domain"
)

// Catalog keeps the most recently loaded dataset for the chart server.
type Catalog struct {
	loader       TableLoader
	levelsPath   string
	rainfallPath string
	clock        clockwork.Clock
	logger       *slog.Logger

	mu         sync.RWMutex
	ds         *domain.Dataset
	loadedAt   time.Time
	generation uint64
}

// NewCatalog creates an empty Catalog. Nothing is read until Load.
func NewCatalog(loader TableLoader, levelsPath, rainfallPath string, clock clockwork.Clock, logger *slog.Logger) *Catalog {
	return &Catalog{
		loader:       loader,
		levelsPath:   levelsPath,
		rainfallPath: rainfallPath,
		clock:        clock,
		logger:       logger,
	}
}

// Load reads both tables and swaps them in. On failure the previous dataset,
// if any, stays in place.
func (c *Catalog) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ds, err := LoadDataset(c.loader, c.levelsPath, c.rainfallPath)
	if err != nil {
		return err
	}
	if missing := domain.MissingSeries(ds.Levels, ds.Rainfall); len(missing) > 0 {
		c.logger.Warn("rainfall table lacks levels series; comparisons for them will fail", "series", missing)
	}

	c.mu.Lock()
	c.generation++
	ds.Generation = c.generation
	c.ds = ds
	c.loadedAt = c.clock.Now()
	c.mu.Unlock()

	c.logger.Info("dataset loaded", "generation", ds.Generation, "levels_rows", ds.Levels.Len(), "rainfall_rows", ds.Rainfall.Len())
	return nil
}

// Dataset returns the loaded tables, or an error before the first Load.
func (c *Catalog) Dataset() (*domain.Dataset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ds == nil {
		return nil, errors.New("dataset has not been loaded yet")
	}
	return c.ds, nil
}

// CheckReadiness returns nil once a dataset has been loaded.
func (c *Catalog) CheckReadiness(_ context.Context) error {
	_, err := c.Dataset()
	return err
}

// LoadedAt returns when the current dataset was loaded; zero before the first Load.
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Watch reloads the dataset every interval until ctx is done. Failed reloads
// are logged and the previous dataset keeps serving.
func (c *Catalog) Watch(ctx context.Context, interval time.Duration) {
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := c.Load(ctx); err != nil && ctx.Err() == nil {
				c.logger.Warn("dataset reload failed", "error", err)
			}
		}
	}
}
