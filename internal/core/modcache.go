package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"time"

	"vsmm/internal/domain"
	"vsmm/internal/logger"
	"vsmm/internal/storage/config"

	"go.uber.org/zap"
)

// ModCache is the in-memory and persisted copy of the catalog listing
type ModCache struct {
	catalog CatalogClient
	files   FileStore
	path    string
	events  *Events
	log     *zap.SugaredLogger
	now     func() time.Time

	mu    sync.RWMutex
	snap  *domain.ModCacheSnapshot
	index map[int]int
}

// NewModCache creates a cache persisted at path. Nothing is read until Load or Refresh.
func NewModCache(catalog CatalogClient, files FileStore, path string, events *Events, log *zap.SugaredLogger) *ModCache {
	return &ModCache{
		catalog: catalog,
		files:   files,
		path:    path,
		events:  events,
		log:     logger.OrNop(log),
		now:     time.Now,
		snap:    &domain.ModCacheSnapshot{Mods: []domain.ModMetadata{}},
		index:   map[int]int{},
	}
}

// Refresh replaces the whole snapshot with a fresh listing and persists it.
// On any failure the previous snapshot stays in place.
func (c *ModCache) Refresh(ctx context.Context) (*domain.ModCacheSnapshot, error) {
	mods, err := c.catalog.ListMods(ctx, nil)
	if err != nil {
		if !errors.Is(err, domain.ErrCatalogUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
		}
		return nil, fmt.Errorf("refreshing mod cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	updated := c.now().UTC()
	if updated.Before(c.snap.LastUpdated) {
		updated = c.snap.LastUpdated
	}
	next := &domain.ModCacheSnapshot{Mods: mods, LastUpdated: updated}
	if next.Mods == nil {
		next.Mods = []domain.ModMetadata{}
	}

	data, err := config.EncodeSnapshot(next)
	if err != nil {
		return nil, fmt.Errorf("refreshing mod cache: %w", err)
	}
	if _, err := c.files.Write(c.path, data); err != nil {
		return nil, fmt.Errorf("refreshing mod cache: persisting: %w", err)
	}

	c.install(next)
	if inv, ok := c.catalog.(invalidator); ok {
		inv.Invalidate()
	}
	c.log.Infow("Mod cache refreshed", zap.Int("mods", len(next.Mods)))
	c.events.emit(domain.Event{Kind: domain.EventCacheRefreshed, ModCount: len(next.Mods)})

	return cloneSnapshot(next), nil
}

// Load reads the persisted snapshot, bootstrapping with Refresh when it is absent
// and recovering with Refresh when it is corrupt.
func (c *ModCache) Load(ctx context.Context) (*domain.ModCacheSnapshot, error) {
	data, err := c.files.Read(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.log.Infow("No mod cache on disk, fetching catalog", zap.String("path", c.path))
			return c.Refresh(ctx)
		}
		return nil, fmt.Errorf("loading mod cache: %w", err)
	}

	snap, err := config.DecodeSnapshot(data)
	if err != nil {
		c.log.Warnw("Mod cache is corrupt, fetching catalog", zap.String("path", c.path), zap.Error(err))
		fresh, rerr := c.Refresh(ctx)
		if rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		return fresh, nil
	}

	c.mu.Lock()
	// lastUpdated never moves backwards, even if an older file is loaded over a newer refresh
	if snap.LastUpdated.Before(c.snap.LastUpdated) {
		snap.LastUpdated = c.snap.LastUpdated
	}
	c.install(snap)
	c.mu.Unlock()

	c.log.Debugw("Mod cache loaded", zap.Int("mods", len(snap.Mods)), zap.Time("last_updated", snap.LastUpdated))
	return cloneSnapshot(snap), nil
}

// install swaps in a snapshot; callers hold mu
func (c *ModCache) install(snap *domain.ModCacheSnapshot) {
	index := make(map[int]int, len(snap.Mods))
	for i, m := range snap.Mods {
		index[m.ModID] = i
	}
	c.snap = snap
	c.index = index
}

// Snapshot returns a copy of the current snapshot
func (c *ModCache) Snapshot() *domain.ModCacheSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneSnapshot(c.snap)
}

// Get looks up a mod in the snapshot
func (c *ModCache) Get(modID int) (domain.ModMetadata, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[modID]
	if !ok {
		return domain.ModMetadata{}, fmt.Errorf("%w: %d", domain.ErrModNotFound, modID)
	}
	return cloneMeta(c.snap.Mods[i]), nil
}

// Search filters the snapshot by a case-insensitive substring of name or author,
// and optionally by tag. Results are sorted by name.
func (c *ModCache) Search(text, tag string) []domain.ModMetadata {
	c.mu.RLock()
	defer c.mu.RUnlock()

	text = strings.ToLower(strings.TrimSpace(text))
	var out []domain.ModMetadata
	for _, m := range c.snap.Mods {
		if text != "" && !strings.Contains(strings.ToLower(m.Name), text) && !strings.Contains(strings.ToLower(m.Author), text) {
			continue
		}
		if tag != "" && !m.HasTag(tag) {
			continue
		}
		out = append(out, cloneMeta(m))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Detail fetches the releases of a mod from the catalog
func (c *ModCache) Detail(ctx context.Context, modID int) (*domain.ModDetail, error) {
	detail, err := c.catalog.GetModDetail(ctx, modID)
	if err != nil {
		return nil, fmt.Errorf("getting mod detail: %w", err)
	}
	return detail, nil
}

func cloneMeta(m domain.ModMetadata) domain.ModMetadata {
	m.Tags = append([]string(nil), m.Tags...)
	return m
}

func cloneSnapshot(s *domain.ModCacheSnapshot) *domain.ModCacheSnapshot {
	out := &domain.ModCacheSnapshot{
		Mods:        make([]domain.ModMetadata, len(s.Mods)),
		LastUpdated: s.LastUpdated,
	}
	for i, m := range s.Mods {
		out.Mods[i] = cloneMeta(m)
	}
	return out
}
