package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"vsmm/internal/domain"
	"vsmm/internal/logger"
	"vsmm/internal/storage/config"

	"go.uber.org/zap"
)

// ProfileStore owns the profile collection and is the only writer of profile files.
// The active profile is a single name held here; each file's active flag is derived from it.
type ProfileStore struct {
	files    FileStore
	dir      string
	archives *ArchiveStore
	mods     *ModCache
	log      *zap.SugaredLogger
	now      func() time.Time

	mu       sync.RWMutex
	profiles map[string]*domain.Profile
	active   string
}

// NewProfileStore creates a store persisting to dir. Call LoadAll before use.
func NewProfileStore(files FileStore, dir string, archives *ArchiveStore, mods *ModCache, log *zap.SugaredLogger) *ProfileStore {
	return &ProfileStore{
		files:    files,
		dir:      dir,
		archives: archives,
		mods:     mods,
		log:      logger.OrNop(log),
		now:      time.Now,
		profiles: map[string]*domain.Profile{},
	}
}

// LoadAll reads every profile file. With none on disk a default active profile is created.
// If several files claim to be active the most recently updated wins and the rest are rewritten.
func (s *ProfileStore) LoadAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.files.List(s.dir)
	if err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}

	profiles := map[string]*domain.Profile{}
	var claims []*domain.Profile
	for _, name := range names {
		if !config.IsProfileFile(name) {
			continue
		}
		path := filepath.Join(s.dir, name)
		data, err := s.files.Read(path)
		if err != nil {
			return fmt.Errorf("loading profiles: %w", err)
		}
		p, err := config.DecodeProfile(data)
		if err != nil {
			s.log.Warnw("Skipping unreadable profile", zap.String("path", path), zap.Error(err))
			continue
		}
		if stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)); stem != p.Name {
			s.log.Warnw("Skipping profile whose name does not match its file", zap.String("path", path), zap.String("name", p.Name))
			continue
		}
		profiles[p.Name] = p
		if p.Active {
			claims = append(claims, p)
		}
	}

	s.profiles = profiles
	s.active = ""

	if len(profiles) == 0 {
		def := &domain.Profile{
			Name:        domain.DefaultProfileName,
			Description: "The default profile",
			Mods:        []domain.ProfileModEntry{},
			LastUpdated: s.now().UTC(),
		}
		s.active = def.Name
		if err := s.persist(def); err != nil {
			return fmt.Errorf("creating default profile: %w", err)
		}
		s.log.Infow("Created default profile", zap.String("profile", def.Name))
		return nil
	}

	if len(claims) == 0 {
		return nil
	}
	sort.Slice(claims, func(i, j int) bool {
		if !claims[i].LastUpdated.Equal(claims[j].LastUpdated) {
			return claims[i].LastUpdated.After(claims[j].LastUpdated)
		}
		return claims[i].Name < claims[j].Name
	})
	s.active = claims[0].Name
	for _, p := range claims[1:] {
		s.log.Warnw("Several profiles marked active, clearing", zap.String("profile", p.Name), zap.String("active", s.active))
		if err := s.persist(p); err != nil {
			return fmt.Errorf("repairing active flag: %w", err)
		}
	}
	return nil
}

// persist writes a profile with its active flag derived from the pointer; callers hold mu
func (s *ProfileStore) persist(p *domain.Profile) error {
	p.Active = p.Name == s.active
	if p.Mods == nil {
		p.Mods = []domain.ProfileModEntry{}
	}
	for i := range p.Mods {
		if p.Mods[i].Tags == nil {
			p.Mods[i].Tags = []string{}
		}
	}
	data, err := config.EncodeProfile(p)
	if err != nil {
		return err
	}
	if _, err := s.files.Write(config.ProfilePath(s.dir, p.Name), data); err != nil {
		return fmt.Errorf("writing profile %s: %w", p.Name, err)
	}
	s.profiles[p.Name] = p
	return nil
}

// Create makes a new, empty, inactive profile
func (s *ProfileStore) Create(name, description string) (*domain.Profile, error) {
	if err := domain.ValidateProfileName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[name]; ok || s.files.ExistsAsFile(config.ProfilePath(s.dir, name)) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProfileExists, name)
	}

	p := &domain.Profile{
		Name:        name,
		Description: description,
		Mods:        []domain.ProfileModEntry{},
		LastUpdated: s.now().UTC(),
	}
	if err := s.persist(p); err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// Get returns a copy of the named profile
func (s *ProfileStore) Get(name string) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
	}
	return p.Clone(), nil
}

// List returns copies of every profile ordered by name
func (s *ProfileStore) List() []*domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Active returns the active profile, if any
func (s *ProfileStore) Active() (*domain.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == "" {
		return nil, false
	}
	return s.profiles[s.active].Clone(), true
}

// ActiveName returns the active profile name, or ""
func (s *ProfileStore) ActiveName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Delete removes an inactive profile and its file
func (s *ProfileStore) Delete(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[name]; !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
	}
	if s.active == name {
		return false, fmt.Errorf("%w: undeploy %s before deleting it", domain.ErrProfileActive, name)
	}
	if _, err := s.files.Delete(config.ProfilePath(s.dir, name)); err != nil {
		return false, fmt.Errorf("deleting profile %s: %w", name, err)
	}
	delete(s.profiles, name)
	return true, nil
}

// Save persists a profile, overwriting its previous file.
// The active flag on p is ignored: it is always written from the store's active pointer,
// so use SetActive and ClearActive to change which profile is deployed.
func (s *ProfileStore) Save(p *domain.Profile) error {
	if err := domain.ValidateProfileName(p.Name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(p.Clone())
}

// SetActive marks name as the active profile. Another active profile must be cleared first.
func (s *ProfileStore) SetActive(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name)
	}
	if s.active != "" && s.active != name {
		return fmt.Errorf("%w: %s is still active", domain.ErrProfileActive, s.active)
	}

	prev := s.active
	s.active = name
	next := p.Clone()
	next.LastUpdated = s.now().UTC()
	if err := s.persist(next); err != nil {
		s.active = prev
		return err
	}
	return nil
}

// ClearActive marks name inactive. It is a no-op when name is not the active profile.
func (s *ProfileStore) ClearActive(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != name || name == "" {
		return nil
	}
	s.active = ""
	next := s.profiles[name].Clone()
	next.LastUpdated = s.now().UTC()
	if err := s.persist(next); err != nil {
		s.active = name
		return err
	}
	return nil
}

// AddMod resolves a mod version (downloading its archive when needed) and appends it to a profile.
// A profile holds at most one version of a mod; a second one is a *domain.DuplicateModError.
func (s *ProfileStore) AddMod(ctx context.Context, profileName string, modID int, version string) (domain.ProfileModEntry, error) {
	p, err := s.Get(profileName)
	if err != nil {
		return domain.ProfileModEntry{}, err
	}

	meta, err := s.metadata(ctx, modID)
	if err != nil {
		return domain.ProfileModEntry{}, err
	}
	for _, m := range p.Mods {
		if m.ModID == modID || strings.EqualFold(m.Name, meta.Name) {
			s.log.Warnw("Mod already in profile", zap.String("profile", profileName), zap.String("mod", m.Name), zap.String("version", m.Version))
			return domain.ProfileModEntry{}, &domain.DuplicateModError{Profile: profileName, Existing: m}
		}
	}

	path, err := s.archives.ResolveOrFetch(ctx, modID, version)
	if err != nil {
		return domain.ProfileModEntry{}, err
	}
	entry := domain.ProfileModEntry{
		ModID:       modID,
		Name:        meta.Name,
		Tags:        append([]string(nil), meta.Tags...),
		Version:     version,
		ArchivePath: path,
		ArchiveName: filepath.Base(path),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.profiles[profileName]
	if !ok {
		return domain.ProfileModEntry{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, profileName)
	}
	next := current.Clone()
	next.Mods = append(next.Mods, entry)
	next.LastUpdated = s.now().UTC()
	if err := s.persist(next); err != nil {
		return domain.ProfileModEntry{}, err
	}
	return entry, nil
}

// metadata prefers the cached listing and falls back to the catalog
func (s *ProfileStore) metadata(ctx context.Context, modID int) (domain.ModMetadata, error) {
	meta, err := s.mods.Get(modID)
	if err == nil {
		return meta, nil
	}
	if !errors.Is(err, domain.ErrModNotFound) {
		return domain.ModMetadata{}, err
	}
	detail, err := s.mods.Detail(ctx, modID)
	if err != nil {
		return domain.ModMetadata{}, err
	}
	return detail.ModMetadata, nil
}

// RemoveMod drops the first entry matching modID and version. A missing entry is not an error.
func (s *ProfileStore) RemoveMod(profileName string, modID int, version string) (domain.ProfileModEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.profiles[profileName]
	if !ok {
		return domain.ProfileModEntry{}, false, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, profileName)
	}
	i := current.FindMod(modID, version)
	if i < 0 {
		return domain.ProfileModEntry{}, false, nil
	}

	next := current.Clone()
	removed := next.Mods[i]
	next.Mods = append(next.Mods[:i], next.Mods[i+1:]...)
	next.LastUpdated = s.now().UTC()
	if err := s.persist(next); err != nil {
		return domain.ProfileModEntry{}, false, err
	}
	return removed, true, nil
}
