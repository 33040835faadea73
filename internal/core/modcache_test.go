package core_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"vsmm/internal/domain"
	"vsmm/internal/storage/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModCache_LoadBootstrapsOnce(t *testing.T) {
	f := newFixture(t, standardMods(t))
	assert.NoFileExists(t, f.settings.CacheFile())

	snap, err := f.svc.LoadCache(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Mods, 3)
	assert.False(t, snap.LastUpdated.IsZero())
	assert.FileExists(t, f.settings.CacheFile())

	list, _, _ := f.catalog.calls()
	assert.Equal(t, 1, list)

	// A second load reads the file instead of the catalog
	again := f.reopen(t)
	defer again.Close()
	snap2, err := again.LoadCache(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap2.Mods, 3)
	assert.True(t, snap.LastUpdated.Equal(snap2.LastUpdated))
	list, _, _ = f.catalog.calls()
	assert.Equal(t, 1, list)
}

func TestModCache_CorruptFileIsRefetched(t *testing.T) {
	f := newFixture(t, standardMods(t))
	require.NoError(t, os.MkdirAll(f.settings.DataDir, 0755))
	require.NoError(t, os.WriteFile(f.settings.CacheFile(), []byte("{truncated"), 0644))

	snap, err := f.svc.LoadCache(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Mods, 3)

	data, err := os.ReadFile(f.settings.CacheFile())
	require.NoError(t, err)
	_, err = config.DecodeSnapshot(data)
	assert.NoError(t, err, "corrupt file is replaced")
}

func TestModCache_CorruptAndCatalogDown(t *testing.T) {
	f := newFixture(t, nil)
	f.catalog.listErr = errors.New("connection refused")
	require.NoError(t, os.WriteFile(f.settings.CacheFile(), []byte("nope"), 0644))

	_, err := f.svc.LoadCache(context.Background())
	assert.ErrorIs(t, err, domain.ErrCacheCorrupt)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestModCache_RefreshFailureKeepsSnapshot(t *testing.T) {
	f := newFixture(t, standardMods(t))
	before, err := f.svc.RefreshCache(context.Background())
	require.NoError(t, err)
	fileBefore, err := os.ReadFile(f.settings.CacheFile())
	require.NoError(t, err)

	f.catalog.listErr = errors.New("503")
	_, err = f.svc.RefreshCache(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)

	assert.Equal(t, before, f.svc.CacheSnapshot())
	fileAfter, err := os.ReadFile(f.settings.CacheFile())
	require.NoError(t, err)
	assert.Equal(t, fileBefore, fileAfter)
}

func TestModCache_RefreshPersistFailureKeepsSnapshot(t *testing.T) {
	f := newFixture(t, standardMods(t))
	_, err := f.svc.RefreshCache(context.Background())
	require.NoError(t, err)

	f.catalog.addMod(t, 9, "Late", "1.0")
	f.files.writeErr = errors.New("disk full")
	_, err = f.svc.RefreshCache(context.Background())
	require.Error(t, err)
	assert.Len(t, f.svc.CacheSnapshot().Mods, 3)
}

func TestModCache_LastUpdatedNeverDecreases(t *testing.T) {
	f := newFixture(t, standardMods(t))
	future := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	data, err := config.EncodeSnapshot(&domain.ModCacheSnapshot{Mods: []domain.ModMetadata{}, LastUpdated: future})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.settings.CacheFile(), data, 0644))

	loaded, err := f.svc.LoadCache(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded.LastUpdated.Equal(future))

	refreshed, err := f.svc.RefreshCache(context.Background())
	require.NoError(t, err)
	assert.False(t, refreshed.LastUpdated.Before(future))
	assert.Len(t, refreshed.Mods, 3, "refresh replaces the whole listing")
}

func TestModCache_GetAndSearch(t *testing.T) {
	f := newFixture(t, standardMods(t))
	_, err := f.svc.RefreshCache(context.Background())
	require.NoError(t, err)

	m, err := f.svc.GetModInfo(2)
	require.NoError(t, err)
	assert.Equal(t, "Beta", m.Name)

	_, err = f.svc.GetModInfo(404)
	assert.ErrorIs(t, err, domain.ErrModNotFound)

	found := f.svc.SearchMods("ALP", "")
	require.Len(t, found, 1)
	assert.Equal(t, 1, found[0].ModID)

	assert.Len(t, f.svc.SearchMods("", "qol"), 3)
	assert.Empty(t, f.svc.SearchMods("", "worldgen"))
	// by author
	assert.Len(t, f.svc.SearchMods("tester", ""), 3)
}

func TestModCache_RefreshEmitsEvent(t *testing.T) {
	f := newFixture(t, standardMods(t))
	var got []domain.Event
	unregister := f.svc.Events().Register(func(e domain.Event) { got = append(got, e) })
	defer unregister()

	_, err := f.svc.RefreshCache(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.EventCacheRefreshed, got[0].Kind)
	assert.Equal(t, 3, got[0].ModCount)
}
