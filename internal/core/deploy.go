package core

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"vsmm/internal/domain"
	"vsmm/internal/logger"
	"vsmm/internal/storage/db"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine moves profiles in and out of the game's mod folder, keeping at most one active.
// Every operation that touches the folder runs under one lock.
type Engine struct {
	profiles *ProfileStore
	archives *ArchiveStore
	files    FileStore
	modsDir  string
	journal  Journal
	events   *Events
	log      *zap.SugaredLogger
	newID    func() string

	mu sync.Mutex
}

// NewEngine creates a deployment engine for the mod folder modsDir. journal may be nil.
func NewEngine(profiles *ProfileStore, archives *ArchiveStore, files FileStore, modsDir string, journal Journal, events *Events, log *zap.SugaredLogger) *Engine {
	if journal == nil {
		journal = nopJournal{}
	}
	return &Engine{
		profiles: profiles,
		archives: archives,
		files:    files,
		modsDir:  modsDir,
		journal:  journal,
		events:   events,
		log:      logger.OrNop(log),
		newID:    uuid.NewString,
	}
}

// ModsDir returns the game folder archives are deployed to
func (e *Engine) ModsDir() string {
	return e.modsDir
}

func (e *Engine) deployedPath(entry domain.ProfileModEntry) string {
	return filepath.Join(e.modsDir, entry.ArchiveName)
}

func (e *Engine) requireModsDir() error {
	if e.modsDir == "" {
		return fmt.Errorf("%w: no game mod folder configured", domain.ErrInvalidConfig)
	}
	return nil
}

// Deploy makes name the active profile.
//
// Every archive is resolved first; if any cannot be, nothing in the game folder changes.
// Then the active profile (name itself on a redeploy) is undeployed and the archives are
// copied in order. A copy failure stops the deploy; files already copied stay in place.
// The profile is marked active only when every entry was copied.
func (e *Engine) Deploy(ctx context.Context, name string) error {
	if err := e.requireModsDir(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	target, err := e.profiles.Get(name)
	if err != nil {
		return err
	}

	runID := e.newID()
	e.startRun(runID, name, "deploy")

	resolved, failure := e.resolveAll(ctx, target)
	if failure != nil {
		return e.failDeploy(runID, failure)
	}

	if active := e.profiles.ActiveName(); active != "" {
		if err := e.undeployLocked(active); err != nil {
			return e.failDeploy(runID, &domain.DeployError{Profile: name, Skipped: target.Mods, Cause: err})
		}
	}

	var deployed []domain.ProfileModEntry
	for i, entry := range target.Mods {
		if err := ctx.Err(); err != nil {
			return e.failDeploy(runID, &domain.DeployError{Profile: name, Deployed: deployed, Skipped: target.Mods[i:], Cause: err})
		}
		dst := e.deployedPath(entry)
		if err := e.files.Copy(resolved[i], dst); err != nil {
			e.log.Errorw("Failed to deploy archive", zap.String("profile", name), zap.String("archive", entry.ArchiveName), zap.Error(err))
			return e.failDeploy(runID, &domain.DeployError{
				Profile:  name,
				Deployed: deployed,
				Failed:   []domain.EntryFailure{{Entry: entry, Err: err}},
				Skipped:  target.Mods[i+1:],
			})
		}
		e.record(domain.DeployedArchive{Profile: name, ModID: entry.ModID, Version: entry.Version, ArchiveName: entry.ArchiveName, RunID: runID})
		e.log.Debugw("Deployed archive", zap.String("profile", name), zap.String("path", dst))
		deployed = append(deployed, entry)
	}

	if err := e.profiles.SetActive(name); err != nil {
		return e.failDeploy(runID, &domain.DeployError{Profile: name, Deployed: deployed, Cause: err})
	}

	e.finishRun(runID, db.RunSucceeded, "")
	e.log.Infow("Profile deployed", zap.String("profile", name), zap.Int("mods", len(deployed)))
	e.events.emit(domain.Event{Kind: domain.EventProfileDeployed, Profile: name, ModCount: len(deployed)})
	return nil
}

// resolveAll makes sure every archive of the profile is stored locally, collecting every failure.
// Entries whose stored path moved (e.g. after a prune and re-download) are saved back to the profile.
func (e *Engine) resolveAll(ctx context.Context, target *domain.Profile) ([]string, *domain.DeployError) {
	resolved := make([]string, len(target.Mods))
	var failed []domain.EntryFailure
	var ok []domain.ProfileModEntry
	moved := false

	for i, entry := range target.Mods {
		if err := ctx.Err(); err != nil {
			return nil, &domain.DeployError{Profile: target.Name, Failed: failed, Skipped: append(ok, target.Mods[i:]...), Cause: err}
		}
		path, err := e.archives.ResolveOrFetch(ctx, entry.ModID, entry.Version)
		if err != nil {
			e.log.Warnw("Cannot resolve archive", zap.String("profile", target.Name), zap.String("mod", entry.Key()), zap.Error(err))
			failed = append(failed, domain.EntryFailure{Entry: entry, Err: err})
			continue
		}
		if path != entry.ArchivePath || filepath.Base(path) != entry.ArchiveName {
			target.Mods[i].ArchivePath = path
			target.Mods[i].ArchiveName = filepath.Base(path)
			moved = true
		}
		resolved[i] = path
		ok = append(ok, target.Mods[i])
	}

	if len(failed) > 0 {
		return nil, &domain.DeployError{Profile: target.Name, Failed: failed, Skipped: ok}
	}
	if moved {
		if err := e.profiles.Save(target); err != nil {
			return nil, &domain.DeployError{Profile: target.Name, Skipped: target.Mods, Cause: err}
		}
	}
	return resolved, nil
}

func (e *Engine) failDeploy(runID string, derr *domain.DeployError) error {
	e.finishRun(runID, db.RunFailed, derr.Error())
	e.log.Errorw("Deploy failed", zap.String("profile", derr.Profile), zap.Error(derr))
	e.events.emit(domain.Event{Kind: domain.EventDeployFailed, Profile: derr.Profile, ModCount: len(derr.Deployed), Reason: derr})
	return derr
}

// Undeploy removes the profile's files from the game folder and marks it inactive.
// It is a no-op for a profile that is not active.
func (e *Engine) Undeploy(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.profiles.Get(name); err != nil {
		return err
	}
	if e.profiles.ActiveName() != name {
		return nil
	}
	if err := e.requireModsDir(); err != nil {
		return err
	}

	runID := e.newID()
	e.startRun(runID, name, "undeploy")
	if err := e.undeployLocked(name); err != nil {
		e.finishRun(runID, db.RunFailed, err.Error())
		return err
	}
	e.finishRun(runID, db.RunSucceeded, "")
	return nil
}

// undeployLocked removes every deployed file of the active profile name; callers hold mu.
// On a delete failure the profile stays active.
func (e *Engine) undeployLocked(name string) error {
	p, err := e.profiles.Get(name)
	if err != nil {
		return err
	}

	var removed []domain.ProfileModEntry
	for _, entry := range p.Mods {
		path := e.deployedPath(entry)
		existed, err := e.files.Delete(path)
		if err != nil {
			uerr := &domain.UndeployError{Profile: name, Entry: entry, Removed: removed, Err: err}
			e.log.Errorw("Undeploy failed", zap.String("profile", name), zap.String("path", path), zap.Error(err))
			e.events.emit(domain.Event{Kind: domain.EventUndeployFailed, Profile: name, Path: path, Reason: uerr})
			return uerr
		}
		if !existed {
			e.log.Warnw("Deployed archive already gone", zap.String("profile", name), zap.String("path", path))
		}
		e.forget(entry.ArchiveName)
		removed = append(removed, entry)
	}

	if err := e.profiles.ClearActive(name); err != nil {
		return fmt.Errorf("undeploying profile %s: %w", name, err)
	}
	e.log.Infow("Profile undeployed", zap.String("profile", name), zap.Int("mods", len(removed)))
	e.events.emit(domain.Event{Kind: domain.EventProfileUndeployed, Profile: name, ModCount: len(removed)})
	return nil
}

// AddMod adds a mod version to a profile. For the active profile the archive is
// also placed in the game folder; if that fails the entry is taken back out.
func (e *Engine) AddMod(ctx context.Context, profileName string, modID int, version string) (domain.ProfileModEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.profiles.AddMod(ctx, profileName, modID, version)
	if err != nil {
		return domain.ProfileModEntry{}, err
	}
	if e.profiles.ActiveName() != profileName || e.modsDir == "" {
		return entry, nil
	}

	if err := e.files.Copy(entry.ArchivePath, e.deployedPath(entry)); err != nil {
		if _, _, rerr := e.profiles.RemoveMod(profileName, modID, version); rerr != nil {
			e.log.Errorw("Failed to take back mod after deploy failure", zap.String("profile", profileName), zap.Error(rerr))
		}
		return domain.ProfileModEntry{}, &domain.DeployError{Profile: profileName, Failed: []domain.EntryFailure{{Entry: entry, Err: err}}}
	}
	e.record(domain.DeployedArchive{Profile: profileName, ModID: modID, Version: version, ArchiveName: entry.ArchiveName})
	return entry, nil
}

// RemoveMod removes a mod version from a profile, deleting its deployed file
// first when the profile is active. A missing entry reports false.
func (e *Engine) RemoveMod(ctx context.Context, profileName string, modID int, version string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.profiles.Get(profileName)
	if err != nil {
		return false, err
	}
	i := p.FindMod(modID, version)
	if i < 0 {
		return false, nil
	}

	if e.profiles.ActiveName() == profileName && e.modsDir != "" {
		entry := p.Mods[i]
		if _, err := e.files.Delete(e.deployedPath(entry)); err != nil {
			return false, &domain.UndeployError{Profile: profileName, Entry: entry, Err: err}
		}
		e.forget(entry.ArchiveName)
	}

	_, removed, err := e.profiles.RemoveMod(profileName, modID, version)
	return removed, err
}

// Delete removes a profile. An active profile is refused unless force is set,
// in which case it is undeployed first.
func (e *Engine) Delete(ctx context.Context, name string, force bool) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.profiles.Get(name); err != nil {
		return false, err
	}
	if e.profiles.ActiveName() == name {
		if !force {
			return false, fmt.Errorf("%w: undeploy %s first or delete with force", domain.ErrProfileActive, name)
		}
		if err := e.requireModsDir(); err != nil {
			return false, err
		}
		if err := e.undeployLocked(name); err != nil {
			return false, err
		}
	}
	return e.profiles.Delete(name)
}

// Status compares the journal, the active profile and the game folder
func (e *Engine) Status() (*domain.StatusReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := &domain.StatusReport{}
	active, hasActive := e.profiles.Active()
	if hasActive {
		report.ActiveProfile = active.Name
	}

	records, err := e.journal.ListDeployed()
	if err != nil {
		return nil, fmt.Errorf("reading deploy journal: %w", err)
	}
	journaled := map[string]bool{}
	for _, rec := range records {
		rec.Present = e.modsDir != "" && e.files.ExistsAsFile(filepath.Join(e.modsDir, rec.ArchiveName))
		if hasActive && rec.Profile == active.Name {
			journaled[rec.ArchiveName] = true
			report.Deployed = append(report.Deployed, rec)
		} else {
			report.Orphans = append(report.Orphans, rec)
		}
	}

	if !hasActive {
		return report, nil
	}
	for _, entry := range active.Mods {
		present := e.modsDir != "" && e.files.ExistsAsFile(e.deployedPath(entry))
		if !present {
			report.Missing = append(report.Missing, entry)
		}
		if !journaled[entry.ArchiveName] && present {
			// deployed before the journal existed
			report.Deployed = append(report.Deployed, domain.DeployedArchive{
				Profile: active.Name, ModID: entry.ModID, Version: entry.Version, ArchiveName: entry.ArchiveName, Present: true,
			})
		}
	}
	return report, nil
}

// History lists recent deploy and undeploy runs, newest first
func (e *Engine) History(limit int) ([]domain.DeployRun, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	runs, err := e.journal.ListRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("reading deploy journal: %w", err)
	}
	return runs, nil
}

// Journal failures never fail an operation

func (e *Engine) startRun(id, profile, kind string) {
	if err := e.journal.StartRun(id, profile, kind); err != nil {
		e.log.Warnw("Journal write failed", zap.String("run", id), zap.Error(err))
	}
}

func (e *Engine) finishRun(id, status, message string) {
	if err := e.journal.FinishRun(id, status, message); err != nil {
		e.log.Warnw("Journal write failed", zap.String("run", id), zap.Error(err))
	}
}

func (e *Engine) record(a domain.DeployedArchive) {
	if err := e.journal.RecordDeployed(a); err != nil {
		e.log.Warnw("Journal write failed", zap.String("archive", a.ArchiveName), zap.Error(err))
	}
}

func (e *Engine) forget(archiveName string) {
	if err := e.journal.RemoveDeployed(archiveName); err != nil {
		e.log.Warnw("Journal write failed", zap.String("archive", archiveName), zap.Error(err))
	}
}
