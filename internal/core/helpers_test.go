package core_test

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"vsmm/internal/core"
	"vsmm/internal/domain"
	"vsmm/internal/storage/config"
	"vsmm/internal/storage/db"
	"vsmm/internal/storage/files"

	"github.com/stretchr/testify/require"
)

// zipBytes builds a small valid zip archive
func zipBytes(t *testing.T, inner string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("modinfo.json")
	require.NoError(t, err)
	_, err = f.Write([]byte(`{"name":"` + inner + `"}`))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// fakeCatalog serves mods and archives from memory and counts calls
type fakeCatalog struct {
	mu       sync.Mutex
	mods     []domain.ModMetadata
	details  map[int]*domain.ModDetail
	archives map[string][]byte
	listErr  error
	fetchErr map[string]error

	listCalls   int
	detailCalls int
	fetchCalls  int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		details:  map[int]*domain.ModDetail{},
		archives: map[string][]byte{},
		fetchErr: map[string]error{},
	}
}

// addMod registers a mod whose releases are given newest first
func (c *fakeCatalog) addMod(t *testing.T, id int, name string, versions ...string) {
	t.Helper()
	meta := domain.ModMetadata{ModID: id, AssetID: id * 100, Name: name, Author: "tester", Tags: []string{"QoL"}, Side: domain.SideBoth}
	detail := &domain.ModDetail{ModMetadata: meta}
	for _, v := range versions {
		ref := fmt.Sprintf("files/asset/%d/%s_%s.zip", id, name, v)
		detail.Releases = append(detail.Releases, domain.Release{Version: v, ArchiveRef: ref})
		c.archives[ref] = zipBytes(t, name+v)
	}
	c.mods = append(c.mods, meta)
	c.details[id] = detail
}

func (c *fakeCatalog) ListMods(ctx context.Context, filter *domain.ModFilter) ([]domain.ModMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	return append([]domain.ModMetadata(nil), c.mods...), nil
}

func (c *fakeCatalog) GetModDetail(ctx context.Context, modID int) (*domain.ModDetail, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detailCalls++
	d, ok := c.details[modID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrModNotFound, modID)
	}
	cp := *d
	cp.Releases = append([]domain.Release(nil), d.Releases...)
	return &cp, nil
}

func (c *fakeCatalog) FetchArchive(ctx context.Context, ref, dest string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	c.fetchCalls++
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	if err, ok := c.fetchErr[ref]; ok {
		// leave a truncated file behind like an interrupted download would
		_ = os.WriteFile(dest, []byte("PK\x03\x04trunc"), 0644)
		return err
	}
	data, ok := c.archives[ref]
	if !ok {
		return fmt.Errorf("%w: no such file %s", domain.ErrDownloadFailed, ref)
	}
	return os.WriteFile(dest, data, 0644)
}

func (c *fakeCatalog) calls() (list, detail, fetch int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listCalls, c.detailCalls, c.fetchCalls
}

// faultyFiles wraps the real file store and fails chosen operations by file name
type faultyFiles struct {
	*files.Store
	mu        sync.Mutex
	copyErr   map[string]error
	deleteErr map[string]error
	writeErr  error
}

func newFaultyFiles() *faultyFiles {
	return &faultyFiles{
		Store:     files.New(domain.DeployCopy),
		copyErr:   map[string]error{},
		deleteErr: map[string]error{},
	}
}

func (f *faultyFiles) failCopy(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copyErr[name] = err
}

func (f *faultyFiles) failDelete(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteErr[name] = err
}

func (f *faultyFiles) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copyErr = map[string]error{}
	f.deleteErr = map[string]error{}
	f.writeErr = nil
}

func (f *faultyFiles) Copy(src, dst string) error {
	f.mu.Lock()
	err := f.copyErr[filepath.Base(dst)]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.Copy(src, dst)
}

func (f *faultyFiles) Delete(path string) (bool, error) {
	f.mu.Lock()
	err := f.deleteErr[filepath.Base(path)]
	f.mu.Unlock()
	if err != nil {
		return false, err
	}
	return f.Store.Delete(path)
}

func (f *faultyFiles) Write(path string, data []byte) (string, error) {
	f.mu.Lock()
	err := f.writeErr
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return f.Store.Write(path, data)
}

type fixture struct {
	svc      *core.Service
	catalog  *fakeCatalog
	files    *faultyFiles
	settings *config.Settings
	journal  *db.DB
}

func (f *fixture) modsDir() string {
	return f.settings.ModsPath()
}

func (f *fixture) deployed(t *testing.T) []string {
	t.Helper()
	names, err := f.files.List(f.modsDir())
	require.NoError(t, err)
	return names
}

func (f *fixture) activeCount() int {
	n := 0
	for _, p := range f.svc.ListProfiles() {
		if p.Active {
			n++
		}
	}
	return n
}

// reopen builds a second service over the same directories
func (f *fixture) reopen(t *testing.T) *core.Service {
	t.Helper()
	svc, err := core.NewService(core.ServiceConfig{Settings: f.settings, Catalog: f.catalog, Files: f.files, Journal: f.journal})
	require.NoError(t, err)
	return svc
}

func newFixture(t *testing.T, setup func(c *fakeCatalog)) *fixture {
	t.Helper()
	root := t.TempDir()
	settings := &config.Settings{
		GameDir:         filepath.Join(root, "game"),
		DataDir:         filepath.Join(root, "data"),
		ProfilesDir:     filepath.Join(root, "profiles"),
		APIURL:          "http://catalog.invalid/api",
		FilesURL:        "http://catalog.invalid",
		HTTPTimeout:     1,
		DetailCacheSize: 8,
	}
	require.NoError(t, os.MkdirAll(settings.ModsPath(), 0755))

	catalog := newFakeCatalog()
	if setup != nil {
		setup(catalog)
	}

	journal, err := db.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	fs := newFaultyFiles()
	svc, err := core.NewService(core.ServiceConfig{Settings: settings, Catalog: catalog, Files: fs, Journal: journal})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	return &fixture{svc: svc, catalog: catalog, files: fs, settings: settings, journal: journal}
}

// standardMods registers A (id 1) and B (id 2) with two releases each
func standardMods(t *testing.T) func(c *fakeCatalog) {
	return func(c *fakeCatalog) {
		c.addMod(t, 1, "Alpha", "1.1", "1.0")
		c.addMod(t, 2, "Beta", "2.0", "1.0")
		c.addMod(t, 3, "Gamma", "3.0")
	}
}
