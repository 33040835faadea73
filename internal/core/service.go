package core

import (
	"context"
	"errors"
	"fmt"
	"os"

	"vsmm/internal/domain"
	"vsmm/internal/logger"
	"vsmm/internal/source/vsmoddb"
	"vsmm/internal/storage/cache"
	"vsmm/internal/storage/config"
	"vsmm/internal/storage/db"
	"vsmm/internal/storage/files"

	"go.uber.org/zap"
)

// ServiceConfig holds what the core service is built from
type ServiceConfig struct {
	Settings *config.Settings
	Logger   *zap.SugaredLogger
	Catalog  CatalogClient        // nil: mod DB client from Settings
	Files    FileStore            // nil: local filesystem with Settings.DeployMethod
	Journal  Journal              // nil: SQLite at Settings.JournalPath()
	Progress vsmoddb.ProgressFunc // download progress, used with the default catalog
}

// Service is the main orchestrator exposed to the CLI and TUI
type Service struct {
	settings *config.Settings
	log      *zap.SugaredLogger
	events   *Events
	catalog  CatalogClient
	mods     *ModCache
	archives *ArchiveStore
	profiles *ProfileStore
	engine   *Engine
	db       *db.DB
}

// NewService wires every component and loads the profiles
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Settings == nil {
		return nil, fmt.Errorf("%w: no settings", domain.ErrInvalidConfig)
	}
	s := cfg.Settings
	log := logger.OrNop(cfg.Logger)

	for _, dir := range []string{s.DataDir, s.ProfilesDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating directory: %w", err)
		}
	}

	catalog := cfg.Catalog
	if catalog == nil {
		client, err := vsmoddb.New(vsmoddb.Options{
			APIURL:          s.APIURL,
			FilesURL:        s.FilesURL,
			UserAgent:       s.UserAgent,
			Timeout:         s.HTTPTimeout,
			DetailCacheSize: s.DetailCacheSize,
			Logger:          log.Named("vsmoddb"),
			Progress:        cfg.Progress,
		})
		if err != nil {
			return nil, err
		}
		catalog = client
	}

	fileStore := cfg.Files
	if fileStore == nil {
		fileStore = files.New(s.DeployMethod)
	}

	svc := &Service{settings: s, log: log, events: NewEvents(), catalog: catalog}

	journal := cfg.Journal
	if journal == nil {
		database, err := db.New(s.JournalPath())
		if err != nil {
			log.Warnw("Deploy journal unavailable", zap.String("path", s.JournalPath()), zap.Error(err))
		} else {
			log.Debugw("Deploy journal opened", zap.String("path", database.Path()))
			svc.db = database
			journal = database
		}
	}

	svc.mods = NewModCache(catalog, fileStore, s.CacheFile(), svc.events, log.Named("cache"))
	svc.archives = NewArchiveStore(catalog, fileStore, cache.New(s.ArchivesDir()), svc.events, log.Named("archives"))
	svc.profiles = NewProfileStore(fileStore, s.ProfilesDir, svc.archives, svc.mods, log.Named("profiles"))
	svc.engine = NewEngine(svc.profiles, svc.archives, fileStore, s.ModsPath(), journal, svc.events, log.Named("deploy"))

	if err := svc.profiles.LoadAll(); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

// Close releases resources held by the service
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Settings returns the settings the service was built from
func (s *Service) Settings() *config.Settings {
	return s.settings
}

// Events returns the registry for core notifications
func (s *Service) Events() *Events {
	return s.events
}

// RefreshCache fetches the whole catalog listing
func (s *Service) RefreshCache(ctx context.Context) (*domain.ModCacheSnapshot, error) {
	return s.mods.Refresh(ctx)
}

// LoadCache loads the persisted listing, fetching it when missing or corrupt
func (s *Service) LoadCache(ctx context.Context) (*domain.ModCacheSnapshot, error) {
	return s.mods.Load(ctx)
}

// CacheSnapshot returns the listing currently in memory
func (s *Service) CacheSnapshot() *domain.ModCacheSnapshot {
	return s.mods.Snapshot()
}

// GetModInfo looks a mod up in the cached listing
func (s *Service) GetModInfo(modID int) (domain.ModMetadata, error) {
	return s.mods.Get(modID)
}

// GetModDetail fetches releases and description for a mod
func (s *Service) GetModDetail(ctx context.Context, modID int) (*domain.ModDetail, error) {
	return s.mods.Detail(ctx, modID)
}

// SearchMods filters the cached listing by text and tag
func (s *Service) SearchMods(text, tag string) []domain.ModMetadata {
	return s.mods.Search(text, tag)
}

// ListProfiles returns every profile ordered by name
func (s *Service) ListProfiles() []*domain.Profile {
	return s.profiles.List()
}

// GetProfile returns one profile
func (s *Service) GetProfile(name string) (*domain.Profile, error) {
	return s.profiles.Get(name)
}

// ActiveProfile returns the deployed profile, if any
func (s *Service) ActiveProfile() (*domain.Profile, bool) {
	return s.profiles.Active()
}

// CreateProfile creates an empty profile
func (s *Service) CreateProfile(name, description string) (*domain.Profile, error) {
	return s.profiles.Create(name, description)
}

// AddModToProfile adds a mod version to a profile. An empty version picks the newest release.
func (s *Service) AddModToProfile(ctx context.Context, profileName string, modID int, version string) (domain.ProfileModEntry, error) {
	if version == "" {
		detail, err := s.mods.Detail(ctx, modID)
		if err != nil {
			return domain.ProfileModEntry{}, err
		}
		latest, ok := detail.Latest()
		if !ok {
			return domain.ProfileModEntry{}, fmt.Errorf("%w: %s has no releases", domain.ErrUnknownVersion, detail.Name)
		}
		version = latest.Version
	}
	return s.engine.AddMod(ctx, profileName, modID, version)
}

// RemoveModFromProfile removes a mod version from a profile
func (s *Service) RemoveModFromProfile(ctx context.Context, profileName string, modID int, version string) (bool, error) {
	return s.engine.RemoveMod(ctx, profileName, modID, version)
}

// DeployProfile makes a profile active in the game folder
func (s *Service) DeployProfile(ctx context.Context, name string) error {
	if err := s.settings.RequireGameDir(); err != nil {
		return err
	}
	return s.engine.Deploy(ctx, name)
}

// UndeployProfile removes a profile from the game folder
func (s *Service) UndeployProfile(ctx context.Context, name string) error {
	return s.engine.Undeploy(ctx, name)
}

// DeleteProfile deletes a profile; force undeploys it first when active
func (s *Service) DeleteProfile(ctx context.Context, name string, force bool) (bool, error) {
	return s.engine.Delete(ctx, name, force)
}

// ExportProfile renders a profile in the portable YAML format
func (s *Service) ExportProfile(name string) ([]byte, error) {
	p, err := s.profiles.Get(name)
	if err != nil {
		return nil, err
	}
	return config.ExportProfile(p)
}

// ImportProfile creates a profile from the portable format and adds each mod, downloading archives.
// Mods that cannot be added are reported in the error; the profile keeps the rest.
func (s *Service) ImportProfile(ctx context.Context, data []byte) (*domain.Profile, error) {
	exported, err := config.ImportProfile(data)
	if err != nil {
		return nil, err
	}
	if _, err := s.profiles.Create(exported.Name, exported.Description); err != nil {
		return nil, err
	}

	var errs []error
	for _, m := range exported.Mods {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.engine.AddMod(ctx, exported.Name, m.ModID, m.Version); err != nil {
			errs = append(errs, fmt.Errorf("mod %d %s: %w", m.ModID, m.Version, err))
		}
	}

	p, err := s.profiles.Get(exported.Name)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return p, fmt.Errorf("importing profile %s: %w", exported.Name, errors.Join(errs...))
	}
	return p, nil
}

// Status reports what is deployed right now
func (s *Service) Status() (*domain.StatusReport, error) {
	return s.engine.Status()
}

// History lists recent deploy runs
func (s *Service) History(limit int) ([]domain.DeployRun, error) {
	return s.engine.History(limit)
}

// Archives lists every stored archive
func (s *Service) Archives() ([]cache.Archive, error) {
	return s.archives.List()
}

// PruneArchives deletes stored archives no profile refers to
func (s *Service) PruneArchives() ([]cache.Archive, error) {
	keep := map[string]bool{}
	for _, p := range s.profiles.List() {
		for _, m := range p.Mods {
			keep[m.Key()] = true
		}
	}
	return s.archives.Prune(keep)
}
