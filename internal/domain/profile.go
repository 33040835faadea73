package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultProfileName is the profile synthesized when none exist on disk
const DefaultProfileName = "Default"

// maxProfileNameLen bounds profile names, which double as file names
const maxProfileNameLen = 64

// ProfileModEntry is one mod version selected in a profile. Entries are owned by value.
type ProfileModEntry struct {
	ModID       int      `json:"modId"`
	Name        string   `json:"name"`
	Tags        []string `json:"tags"`
	Version     string   `json:"version"`
	ArchivePath string   `json:"archivePath"`
	ArchiveName string   `json:"archiveName"`
}

// Key identifies the entry within a profile
func (e ProfileModEntry) Key() string {
	return ModKey(e.ModID, e.Version)
}

// ModKey builds the "modId@version" key used for archives and profile entries
func ModKey(modID int, version string) string {
	return fmt.Sprintf("%d@%s", modID, version)
}

// Profile is a named, ordered selection of mod versions
type Profile struct {
	Name        string            `json:"name"`
	Description string            `json:"desc"`
	Mods        []ProfileModEntry `json:"mods"`
	LastUpdated time.Time         `json:"lastUpdated"`
	Active      bool              `json:"active"`
}

// Clone returns a deep copy so callers never share entry slices with the store
func (p *Profile) Clone() *Profile {
	c := *p
	c.Mods = make([]ProfileModEntry, len(p.Mods))
	for i, m := range p.Mods {
		if m.Tags != nil {
			m.Tags = append(make([]string, 0, len(m.Tags)), m.Tags...)
		}
		c.Mods[i] = m
	}
	return &c
}

// FindMod returns the index of the entry matching modID and version, or -1
func (p *Profile) FindMod(modID int, version string) int {
	for i, m := range p.Mods {
		if m.ModID == modID && m.Version == version {
			return i
		}
	}
	return -1
}

// ValidateProfileName rejects names that cannot be used as a profile file name
func ValidateProfileName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidProfileName)
	case len(name) > maxProfileNameLen:
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidProfileName, maxProfileNameLen)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidProfileName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidProfileName, name)
	}
	return nil
}

// ExportedProfile is the YAML-serializable format for sharing
type ExportedProfile struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description,omitempty"`
	Mods        []ExportedModEntry `yaml:"mods"`
}

// ExportedModEntry is a portable pointer to a mod version
type ExportedModEntry struct {
	ModID   int    `yaml:"mod_id"`
	Name    string `yaml:"name,omitempty"`
	Version string `yaml:"version"`
}

// UpdateAvailable describes a profile entry that is behind the newest release
type UpdateAvailable struct {
	Entry         ProfileModEntry
	LatestVersion string
}
