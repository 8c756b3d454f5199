package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// SnapshotReader loads every entity of a user in one read transaction.
type SnapshotReader interface {
	ReadSnapshot(ctx context.Context, userID string) (*core.Snapshot, error)
}

const dashboardCacheSize = 1000

// DashboardService serves the read models. Results are computed from a
// consistent snapshot, cached per user for ttl and dropped by Invalidate.
// Concurrent identical requests share one computation.
type DashboardService struct {
	snapshots SnapshotReader
	cache     *cache.LRUCache[any]
	ttl       time.Duration
	group     singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64
}

// NewDashboardService creates the service; a zero ttl disables caching.
func NewDashboardService(snapshots SnapshotReader, ttl time.Duration) *DashboardService {
	return &DashboardService{
		snapshots:   snapshots,
		cache:       cache.NewLRUCache[any](dashboardCacheSize, ttl),
		ttl:         ttl,
		generations: make(map[string]uint64),
	}
}

// Cache exposes the result cache for periodic cleanup.
func (d *DashboardService) Cache() cache.Cleaner { return d.cache }

// Invalidate drops every cached dashboard of userID. Computations already in
// flight will not store their now stale result.
func (d *DashboardService) Invalidate(userID string) {
	d.mu.Lock()
	d.generations[userID]++
	n := d.cache.DeletePrefix(userID + "/")
	d.mu.Unlock()
	if n > 0 {
		slog.Debug("Invalidated dashboards", "user_id", userID, "entries", n)
	}
}

// store caches v unless userID was invalidated since gen was read.
func (d *DashboardService) store(userID string, gen uint64, key string, v any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.generations[userID] == gen {
		d.cache.Set(key, v)
	}
}

func (d *DashboardService) generation(userID string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.generations[userID]
}

func (d *DashboardService) Monthly(ctx context.Context, userID string, year, month int) (core.DashboardMonthly, error) {
	if err := core.ValidateMonth(year, month); err != nil {
		return core.DashboardMonthly{}, err
	}
	return load(ctx, d, userID, fmt.Sprintf("monthly/%04d-%02d", year, month),
		func(s *core.Snapshot) (core.DashboardMonthly, error) {
			return AggregateMonth(s, year, month)
		})
}

func (d *DashboardService) Yearly(ctx context.Context, userID string, year int) (core.DashboardYearly, error) {
	if err := core.ValidateMonth(year, 1); err != nil {
		return core.DashboardYearly{}, err
	}
	return load(ctx, d, userID, fmt.Sprintf("yearly/%04d", year),
		func(s *core.Snapshot) (core.DashboardYearly, error) {
			return AggregateYear(ctx, s, year)
		})
}

func (d *DashboardService) Categories(ctx context.Context, userID string, year, month int) (core.DashboardCategories, error) {
	if err := core.ValidateMonth(year, month); err != nil {
		return core.DashboardCategories{}, err
	}
	return load(ctx, d, userID, fmt.Sprintf("categories/%04d-%02d", year, month),
		func(s *core.Snapshot) (core.DashboardCategories, error) {
			return AggregateCategories(s, year, month)
		})
}

func load[T any](ctx context.Context, d *DashboardService, userID, view string, compute func(*core.Snapshot) (T, error)) (T, error) {
	key := userID + "/" + view
	if d.ttl > 0 {
		if v, ok := d.cache.Get(key); ok {
			if out, ok := v.(T); ok {
				return out, nil
			}
		}
	}

	gen := d.generation(userID)
	v, err, shared := d.group.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		snapshot, err := d.snapshots.ReadSnapshot(ctx, userID)
		if err != nil {
			return nil, err
		}
		out, err := compute(snapshot)
		if err != nil {
			return nil, err
		}
		if d.ttl > 0 {
			d.store(userID, gen, key, out)
		}
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if shared {
		slog.DebugContext(ctx, "Dashboard computation shared", "view", view)
	}
	return v.(T), nil
}
