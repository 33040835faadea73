// Package core holds the mod cache, archive store, profile store and deployment engine.
package core

import (
	"context"

	"vsmm/internal/domain"
)

// CatalogClient is the remote source of mod metadata and archives
type CatalogClient interface {
	ListMods(ctx context.Context, filter *domain.ModFilter) ([]domain.ModMetadata, error)
	GetModDetail(ctx context.Context, modID int) (*domain.ModDetail, error)
	// FetchArchive writes the archive behind ref to dest. It is a no-op when dest exists.
	FetchArchive(ctx context.Context, ref, dest string) error
}

// FileStore is the byte-level file access the core needs
type FileStore interface {
	// Read returns an error wrapping fs.ErrNotExist when path is absent
	Read(path string) ([]byte, error)
	Write(path string, data []byte) (string, error)
	Copy(src, dst string) error
	// Delete reports false with a nil error when path was already absent
	Delete(path string) (bool, error)
	ExistsAsFile(path string) bool
	List(dir string) ([]string, error)
}

// Journal records deployments. The Engine serializes all calls.
type Journal interface {
	StartRun(id, profile, kind string) error
	FinishRun(id, status, message string) error
	RecordDeployed(a domain.DeployedArchive) error
	RemoveDeployed(archiveName string) error
	ListDeployed() ([]domain.DeployedArchive, error)
	ListRuns(limit int) ([]domain.DeployRun, error)
}

// invalidator is implemented by catalogs that cache responses
type invalidator interface {
	Invalidate()
}

type nopJournal struct{}

func (nopJournal) StartRun(string, string, string) error { return nil }
func (nopJournal) FinishRun(string, string, string) error { return nil }
func (nopJournal) RecordDeployed(domain.DeployedArchive) error { return nil }
func (nopJournal) RemoveDeployed(string) error { return nil }
func (nopJournal) ListDeployed() ([]domain.DeployedArchive, error) { return nil, nil }
func (nopJournal) ListRuns(int) ([]domain.DeployRun, error) { return nil, nil }
