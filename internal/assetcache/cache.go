// Package assetcache maintains the per-company cache of asset names
// already known to the platform. It is the dedup mechanism for auto
// import: the reconciler only submits catalog entities whose normalized
// name is absent here.
package assetcache

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shieldsync/shieldsync/internal/metrics"
	"github.com/shieldsync/shieldsync/internal/normalize"
	"github.com/shieldsync/shieldsync/internal/platform"
)

const DefaultMaxAge = 24 * time.Hour

// AssetLister fetches the full set of assets the platform already holds
// for a company. *platform.Client implements it.
type AssetLister interface {
	ListAssets(ctx context.Context, companyID int64) ([]platform.Asset, error)
}

// Snapshot is a read-only view of one company's cache entry.
type Snapshot struct {
	Assets     []string
	LastSync   time.Time
	TotalCount int
}

// SyncResult reports one Sync call.
type SyncResult struct {
	Synced   int
	Duration time.Duration
}

type tenantEntry struct {
	assets   map[string]struct{}
	lastSync time.Time
}

// Cache is the in-process, file-backed asset-name cache.
//
// Concurrency discipline: every tenant-scoped mutation (full replace
// from Sync, AddNames, RemoveNames) serializes on the same per-tenant
// mutex, and concurrent Sync calls for one tenant coalesce onto a single
// remote fetch via singleflight.
type Cache struct {
	lister AssetLister
	store  *Store
	maxAge time.Duration
	now    func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	tenants map[int64]*tenantEntry
	locks   map[int64]*sync.Mutex
}

// New builds a cache and loads the persisted document. A corrupt or
// unreadable store is not fatal: the cache starts empty with a warning
// and the next full sync repopulates it.
func New(lister AssetLister, store *Store, maxAge time.Duration) *Cache {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	c := &Cache{
		lister:  lister,
		store:   store,
		maxAge:  maxAge,
		now:     time.Now,
		tenants: make(map[int64]*tenantEntry),
		locks:   make(map[int64]*sync.Mutex),
	}

	if store != nil {
		persisted, err := store.Load()
		if err != nil {
			slog.Warn("asset cache store unreadable, starting empty", "path", store.Path(), "err", err)
		}
		for id, entry := range persisted {
			set := make(map[string]struct{}, len(entry.Assets))
			for _, name := range entry.Assets {
				if n := normalize.Name(name); n != "" {
					set[n] = struct{}{}
				}
			}
			c.tenants[id] = &tenantEntry{assets: set, lastSync: entry.LastSync}
			metrics.CacheAssets.WithLabelValues(companyLabel(id)).Set(float64(len(set)))
		}
	}
	return c
}

// Get returns the cache entry for a company. The second return value is
// false when no entry exists; first use before any sync is a normal
// state, not a fault.
func (c *Cache) Get(companyID int64) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.tenants[companyID]
	if !ok {
		return Snapshot{}, false
	}
	return entry.snapshot(), true
}

// CheckNames normalizes each input name and returns the subset present
// in the company's cached set. A company with no entry yields an empty
// set; callers that need freshness must Sync first.
func (c *Cache) CheckNames(companyID int64, names []string) map[string]bool {
	matched := make(map[string]bool)

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.tenants[companyID]
	if !ok {
		return matched
	}
	for _, name := range names {
		n := normalize.Name(name)
		if n == "" {
			continue
		}
		if _, present := entry.assets[n]; present {
			matched[n] = true
		}
	}
	return matched
}

// IsStale reports whether the company's entry is missing or older than
// the configured max age. An entry exactly maxAge old is still fresh.
func (c *Cache) IsStale(companyID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.tenants[companyID]
	if !ok {
		return true
	}
	return c.now().Sub(entry.lastSync) > c.maxAge
}

// Sync refreshes the company's entry from the platform. Concurrent calls
// for the same company await the single in-flight refresh and share its
// result. When force is false and the entry is fresh, no remote call is
// made and the current count is returned with near-zero duration.
//
// On fetch failure the in-flight marker is cleared (future calls can
// retry) and the error propagates to every awaiting caller.
func (c *Cache) Sync(ctx context.Context, companyID int64, force bool) (SyncResult, error) {
	key := strconv.FormatInt(companyID, 10)
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.refresh(ctx, companyID, force)
	})
	if err != nil {
		return SyncResult{}, err
	}
	return v.(SyncResult), nil
}

func (c *Cache) refresh(ctx context.Context, companyID int64, force bool) (SyncResult, error) {
	start := c.now()

	if !force && !c.IsStale(companyID) {
		snap, _ := c.Get(companyID)
		return SyncResult{Synced: snap.TotalCount, Duration: c.now().Sub(start)}, nil
	}

	assets, err := c.lister.ListAssets(ctx, companyID)
	if err != nil {
		return SyncResult{}, err
	}

	set := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		if n := normalize.Name(a.Name); n != "" {
			set[n] = struct{}{}
		}
	}

	lock := c.tenantLock(companyID)
	lock.Lock()
	defer lock.Unlock()

	now := c.now()
	c.mu.Lock()
	// Full resync: the old set is discarded wholesale, never merged.
	c.tenants[companyID] = &tenantEntry{assets: set, lastSync: now}
	c.mu.Unlock()

	if err := c.persist(); err != nil {
		slog.Error("asset cache persist failed after sync", "company_id", companyID, "err", err)
	}

	duration := c.now().Sub(start)
	label := companyLabel(companyID)
	metrics.CacheSyncDuration.WithLabelValues(label).Observe(duration.Seconds())
	metrics.CacheAssets.WithLabelValues(label).Set(float64(len(set)))
	metrics.CacheLastSyncTimestamp.WithLabelValues(label).Set(float64(now.Unix()))

	slog.Info("asset cache synced", "company_id", companyID, "assets", len(set), "duration", duration)
	return SyncResult{Synced: len(set), Duration: duration}, nil
}

// AddNames inserts normalized names not already present and persists if
// at least one was added. A company with no entry is a logged no-op: a
// cache cannot be grown incrementally before a full sync seeded it.
func (c *Cache) AddNames(companyID int64, names []string) int {
	lock := c.tenantLock(companyID)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	entry, ok := c.tenants[companyID]
	if !ok {
		c.mu.Unlock()
		slog.Warn("asset cache add skipped, company has no entry yet", "company_id", companyID)
		return 0
	}
	added := 0
	for _, name := range names {
		n := normalize.Name(name)
		if n == "" {
			continue
		}
		if _, present := entry.assets[n]; present {
			continue
		}
		entry.assets[n] = struct{}{}
		added++
	}
	size := len(entry.assets)
	c.mu.Unlock()

	if added == 0 {
		return 0
	}
	metrics.CacheAssets.WithLabelValues(companyLabel(companyID)).Set(float64(size))
	if err := c.persist(); err != nil {
		slog.Error("asset cache persist failed after add", "company_id", companyID, "err", err)
	}
	return added
}

// RemoveNames is the inverse of AddNames; it persists only if at least
// one name was actually removed.
func (c *Cache) RemoveNames(companyID int64, names []string) int {
	lock := c.tenantLock(companyID)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	entry, ok := c.tenants[companyID]
	if !ok {
		c.mu.Unlock()
		slog.Warn("asset cache remove skipped, company has no entry yet", "company_id", companyID)
		return 0
	}
	removed := 0
	for _, name := range names {
		n := normalize.Name(name)
		if n == "" {
			continue
		}
		if _, present := entry.assets[n]; present {
			delete(entry.assets, n)
			removed++
		}
	}
	size := len(entry.assets)
	c.mu.Unlock()

	if removed == 0 {
		return 0
	}
	metrics.CacheAssets.WithLabelValues(companyLabel(companyID)).Set(float64(size))
	if err := c.persist(); err != nil {
		slog.Error("asset cache persist failed after remove", "company_id", companyID, "err", err)
	}
	return removed
}

func (c *Cache) tenantLock(companyID int64) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[companyID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[companyID] = lock
	}
	return lock
}

func (c *Cache) persist() error {
	if c.store == nil {
		return nil
	}

	c.mu.RLock()
	entries := make(map[int64]PersistedEntry, len(c.tenants))
	for id, entry := range c.tenants {
		snap := entry.snapshot()
		entries[id] = PersistedEntry{
			Assets:     snap.Assets,
			LastSync:   snap.LastSync,
			TotalCount: snap.TotalCount,
		}
	}
	c.mu.RUnlock()

	return c.store.Save(entries)
}

func (e *tenantEntry) snapshot() Snapshot {
	assets := make([]string, 0, len(e.assets))
	for name := range e.assets {
		assets = append(assets, name)
	}
	sort.Strings(assets)
	return Snapshot{
		Assets:     assets,
		LastSync:   e.lastSync,
		TotalCount: len(assets),
	}
}

func companyLabel(companyID int64) string {
	return strconv.FormatInt(companyID, 10)
}
