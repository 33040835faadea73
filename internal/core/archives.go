package core

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"vsmm/internal/domain"
	"vsmm/internal/logger"
	"vsmm/internal/storage/cache"

	"go.uber.org/zap"
)

// ArchiveStore maps (mod, version) to a local archive, downloading on demand
type ArchiveStore struct {
	catalog CatalogClient
	files   FileStore
	layout  *cache.Cache
	events  *Events
	log     *zap.SugaredLogger
}

// NewArchiveStore creates an archive store over the given on-disk layout
func NewArchiveStore(catalog CatalogClient, files FileStore, layout *cache.Cache, events *Events, log *zap.SugaredLogger) *ArchiveStore {
	return &ArchiveStore{
		catalog: catalog,
		files:   files,
		layout:  layout,
		events:  events,
		log:     logger.OrNop(log),
	}
}

// LocalPathFor returns the stored archive for a mod version, if one is present
func (a *ArchiveStore) LocalPathFor(modID int, version string) (string, bool) {
	return a.layout.Find(modID, version)
}

// ResolveOrFetch returns the local archive for a mod version, downloading it first
// when absent. A present archive is returned without touching the catalog.
func (a *ArchiveStore) ResolveOrFetch(ctx context.Context, modID int, version string) (string, error) {
	if p, ok := a.LocalPathFor(modID, version); ok {
		return p, nil
	}

	detail, err := a.catalog.GetModDetail(ctx, modID)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", domain.ModKey(modID, version), err)
	}
	release, ok := detail.Release(version)
	if !ok {
		return "", fmt.Errorf("resolving %s: %w: %s has versions %s", domain.ModKey(modID, version),
			domain.ErrUnknownVersion, detail.Name, strings.Join(detail.Versions(), ", "))
	}

	name, err := cache.ArchiveName(release.ArchiveRef)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w: %v", domain.ModKey(modID, version), domain.ErrDownloadFailed, err)
	}
	dest := a.layout.ArchivePath(modID, version, name)

	if err := a.fetch(ctx, release.ArchiveRef, dest); err != nil {
		return "", fmt.Errorf("resolving %s: %w", domain.ModKey(modID, version), err)
	}

	a.log.Infow("Archive stored", zap.Int("mod", modID), zap.String("version", version), zap.String("path", dest))
	a.events.emit(domain.Event{Kind: domain.EventModDownloaded, ModID: modID, Version: version, Path: dest})
	return dest, nil
}

// fetch downloads and checks one archive. Whatever is left at dest after a failure is deleted.
func (a *ArchiveStore) fetch(ctx context.Context, ref, dest string) error {
	err := a.catalog.FetchArchive(ctx, ref, dest)
	if err == nil && !a.files.ExistsAsFile(dest) {
		err = errors.New("archive missing after download")
	}
	if err == nil {
		err = checkArchive(dest)
	}
	if err == nil {
		return nil
	}

	if _, derr := a.files.Delete(dest); derr != nil {
		a.log.Warnw("Failed to remove partial archive", zap.String("path", dest), zap.Error(derr))
	}
	if !errors.Is(err, domain.ErrDownloadFailed) {
		err = fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
	}
	return err
}

// checkArchive rejects zip files without a readable central directory
func checkArchive(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return nil
	}
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("corrupt archive: %w", err)
	}
	return r.Close()
}

// List returns every stored archive
func (a *ArchiveStore) List() ([]cache.Archive, error) {
	return a.layout.List()
}

// Prune deletes stored archives whose "modId@version" key is not in keep
func (a *ArchiveStore) Prune(keep map[string]bool) ([]cache.Archive, error) {
	archives, err := a.layout.List()
	if err != nil {
		return nil, fmt.Errorf("pruning archives: %w", err)
	}

	var removed []cache.Archive
	for _, arc := range archives {
		if keep[domain.ModKey(arc.ModID, arc.Version)] {
			continue
		}
		if err := a.layout.Delete(arc.ModID, arc.Version); err != nil {
			return removed, fmt.Errorf("pruning archives: %w", err)
		}
		a.log.Infow("Pruned archive", zap.String("path", arc.Path))
		removed = append(removed, arc)
	}
	return removed, nil
}
