package domain

import (
	"fmt"
	"strings"
)

// DeployMethod determines how archives are placed into the game's mod directory
type DeployMethod int

const (
	DeployCopy     DeployMethod = iota // Default: copy (game sees plain files)
	DeploySymlink                      // Symlink into the archive store
	DeployHardlink                     // Hardlink (same filesystem only)
)

func (m DeployMethod) String() string {
	switch m {
	case DeployCopy:
		return "copy"
	case DeploySymlink:
		return "symlink"
	case DeployHardlink:
		return "hardlink"
	default:
		return "unknown"
	}
}

// ParseDeployMethod converts a string to DeployMethod
func ParseDeployMethod(s string) (DeployMethod, error) {
	switch strings.ToLower(s) {
	case "", "copy":
		return DeployCopy, nil
	case "symlink":
		return DeploySymlink, nil
	case "hardlink":
		return DeployHardlink, nil
	default:
		return DeployCopy, fmt.Errorf("%w: unknown deploy method %q (use copy, symlink or hardlink)", ErrInvalidConfig, s)
	}
}

// EntryFailure pairs a profile entry with the reason it could not be deployed
type EntryFailure struct {
	Entry ProfileModEntry
	Err   error
}

// DeployError reports a deploy that did not complete. The profile is never marked active.
type DeployError struct {
	Profile  string
	Deployed []ProfileModEntry // copied into the game folder before the failure (not rolled back)
	Failed   []EntryFailure
	Skipped  []ProfileModEntry // not attempted after the failure
	Cause    error             // set when the failure is not tied to an entry (e.g. undeploying the previous profile)
}

func (e *DeployError) Error() string {
	total := len(e.Deployed) + len(e.Failed) + len(e.Skipped)
	if len(e.Failed) == 0 && e.Cause != nil {
		return fmt.Sprintf("deploying profile %s: %v", e.Profile, e.Cause)
	}
	names := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		names[i] = fmt.Sprintf("%s %s (%v)", f.Entry.Name, f.Entry.Version, f.Err)
	}
	return fmt.Sprintf("deploying profile %s: %d of %d mods failed: %s",
		e.Profile, len(e.Failed), total, strings.Join(names, "; "))
}

func (e *DeployError) Unwrap() []error {
	errs := []error{ErrDeployFailed}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}

// UndeployError reports a deployed file that could not be removed. The profile stays active.
type UndeployError struct {
	Profile string
	Entry   ProfileModEntry
	Removed []ProfileModEntry
	Err     error
}

func (e *UndeployError) Error() string {
	return fmt.Sprintf("undeploying profile %s: removing %s: %v", e.Profile, e.Entry.ArchiveName, e.Err)
}

func (e *UndeployError) Unwrap() []error {
	return []error{ErrUndeployFailed, e.Err}
}

// DuplicateModError is returned when a profile already holds an entry for the mod
type DuplicateModError struct {
	Profile  string
	Existing ProfileModEntry
}

func (e *DuplicateModError) Error() string {
	return fmt.Sprintf("mod already in profile %s: %s %s", e.Profile, e.Existing.Name, e.Existing.Version)
}

func (e *DuplicateModError) Unwrap() error {
	return ErrDuplicateMod
}

// DeployedArchive is a journal record of a file placed in the game's mod directory
type DeployedArchive struct {
	Profile     string
	ModID       int
	Version     string
	ArchiveName string
	RunID       string
	Present     bool // filled in by status checks
}

// DeployRun is a journal record of one deploy or undeploy operation
type DeployRun struct {
	ID      string
	Profile string
	Kind    string // "deploy" or "undeploy"
	Status  string // "running", "succeeded" or "failed"
	Message string
	Started string
	Ended   string
}

// StatusReport summarizes what is deployed right now
type StatusReport struct {
	ActiveProfile string
	Deployed      []DeployedArchive
	Orphans       []DeployedArchive // journal records not owned by the active profile
	Missing       []ProfileModEntry // active entries whose file is absent from the game folder
}
