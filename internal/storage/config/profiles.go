package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"vsmm/internal/domain"

	"gopkg.in/yaml.v3"
)

const profileExt = ".json"

// ProfilePath returns the file a profile is persisted to
func ProfilePath(profilesDir, name string) string {
	return filepath.Join(profilesDir, name+profileExt)
}

// IsProfileFile reports whether a file name looks like a persisted profile
func IsProfileFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, profileExt) && !strings.HasPrefix(base, ".")
}

// EncodeProfile serializes a profile in its on-disk JSON form
func EncodeProfile(profile *domain.Profile) ([]byte, error) {
	p := profile.Clone()
	if p.Mods == nil {
		p.Mods = []domain.ProfileModEntry{}
	}
	for i := range p.Mods {
		if p.Mods[i].Tags == nil {
			p.Mods[i].Tags = []string{}
		}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling profile: %w", err)
	}
	return data, nil
}

// DecodeProfile parses a persisted profile
func DecodeProfile(data []byte) (*domain.Profile, error) {
	var p domain.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	if err := domain.ValidateProfileName(p.Name); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	if p.Mods == nil {
		p.Mods = []domain.ProfileModEntry{}
	}
	return &p, nil
}

// EncodeSnapshot serializes the mod cache snapshot
func EncodeSnapshot(snap *domain.ModCacheSnapshot) ([]byte, error) {
	out := *snap
	if out.Mods == nil {
		out.Mods = []domain.ModMetadata{}
	}
	data, err := json.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("marshaling mod cache: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a persisted mod cache snapshot. Any parse failure wraps domain.ErrCacheCorrupt.
func DecodeSnapshot(data []byte) (*domain.ModCacheSnapshot, error) {
	var snap domain.ModCacheSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheCorrupt, err)
	}
	if snap.Mods == nil {
		return nil, fmt.Errorf("%w: missing mods list", domain.ErrCacheCorrupt)
	}
	return &snap, nil
}

// ExportProfile exports a profile to a portable format
func ExportProfile(profile *domain.Profile) ([]byte, error) {
	exported := domain.ExportedProfile{
		Name:        profile.Name,
		Description: profile.Description,
		Mods:        make([]domain.ExportedModEntry, len(profile.Mods)),
	}
	for i, m := range profile.Mods {
		exported.Mods[i] = domain.ExportedModEntry{ModID: m.ModID, Name: m.Name, Version: m.Version}
	}

	data, err := yaml.Marshal(&exported)
	if err != nil {
		return nil, fmt.Errorf("marshaling exported profile: %w", err)
	}

	return data, nil
}

// ImportProfile parses a profile from portable format
func ImportProfile(data []byte) (*domain.ExportedProfile, error) {
	var exported domain.ExportedProfile
	if err := yaml.Unmarshal(data, &exported); err != nil {
		return nil, fmt.Errorf("parsing exported profile: %w", err)
	}
	if err := domain.ValidateProfileName(exported.Name); err != nil {
		return nil, err
	}
	for i, m := range exported.Mods {
		if m.ModID <= 0 || m.Version == "" {
			return nil, fmt.Errorf("parsing exported profile: mod entry %d needs mod_id and version", i+1)
		}
	}
	return &exported, nil
}
