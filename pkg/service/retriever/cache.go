package retriever

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/utils/logging"
	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a single snapshot load
const DefaultLoadTimeout = 30 * time.Second

// Snapshot is a fully materialized table: one document per row, in table order
type Snapshot struct {
	Documents []*model.Document
	LoadedAt  time.Time
}

// Cache holds table snapshots keyed by column set. Entries live until Invalidate;
// concurrent misses on one key share a single load.
//
// A shared load is detached from the caller that started it and bounded by the cache's
// own load timeout. Each caller stops waiting when its own context is done.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Snapshot
	group   singleflight.Group
	// generation changes on Invalidate so that loads started before it are not stored
	generation  uint64
	loadTimeout time.Duration
}

type CacheOption func(*Cache)

// WithLoadTimeout bounds each shared snapshot load
func WithLoadTimeout(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries:     make(map[string]*Snapshot),
		loadTimeout: DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheKey identifies a snapshot of the location table by its ordered column set
func CacheKey(columns []string) string {
	return locationTable + ":" + strings.Join(columns, ",")
}

// Get returns the cached snapshot for key, loading it on a miss
func (c *Cache) Get(ctx context.Context, key string, load func(ctx context.Context) (*Snapshot, error)) (*Snapshot, error) {
	c.mu.RLock()
	snap, ok := c.entries[key]
	gen := c.generation
	c.mu.RUnlock()
	if ok {
		return snap, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		snap, err := load(loadCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation == gen {
			c.entries[key] = snap
		}
		c.mu.Unlock()

		logging.From(loadCtx).Info("table snapshot loaded", "key", key, "rows", len(snap.Documents))
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Invalidate drops every snapshot. The next Get reloads from the table.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Snapshot)
	c.generation++
}
