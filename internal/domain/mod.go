package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Side tells which half of the game a mod must be installed on
type Side string

const (
	SideClient Side = "client"
	SideServer Side = "server"
	SideBoth   Side = "both"
)

// ParseSide converts a catalog side string to Side
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client":
		return SideClient, nil
	case "server":
		return SideServer, nil
	case "both", "":
		return SideBoth, nil
	default:
		return "", fmt.Errorf("%w: unknown side %q", ErrMalformedRecord, s)
	}
}

// ModMetadata is the summary record for a mod in the catalog listing
type ModMetadata struct {
	ModID        int      `json:"modid"`
	AssetID      int      `json:"assetid"`
	Name         string   `json:"name"`
	Author       string   `json:"author"`
	Logo         *string  `json:"logo,omitempty"`
	Downloads    *int     `json:"downloads,omitempty"`
	LastReleased *string  `json:"lastreleased,omitempty"`
	Tags         []string `json:"tags"`
	Side         Side     `json:"side"`
}

// HasTag reports whether the mod carries the given tag (case-insensitive)
func (m ModMetadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Release is one downloadable version of a mod
type Release struct {
	Version    string    `json:"version"`
	ArchiveRef string    `json:"archiveRef"`
	FileName   string    `json:"fileName,omitempty"`
	Created    time.Time `json:"created,omitempty"`
}

// ModDetail is the full per-mod record. Releases are ordered newest first.
type ModDetail struct {
	ModMetadata
	Text        string    `json:"text,omitempty"`
	HomepageURL string    `json:"homepageUrl,omitempty"`
	Releases    []Release `json:"releases"`
	Screenshots []string  `json:"screenshots,omitempty"`
}

// Release looks up a release by its version string
func (d *ModDetail) Release(version string) (Release, bool) {
	for _, r := range d.Releases {
		if r.Version == version {
			return r, true
		}
	}
	return Release{}, false
}

// Latest returns the newest release, if any
func (d *ModDetail) Latest() (Release, bool) {
	if len(d.Releases) == 0 {
		return Release{}, false
	}
	return d.Releases[0], true
}

// Versions returns the release versions, newest first
func (d *ModDetail) Versions() []string {
	versions := make([]string, len(d.Releases))
	for i, r := range d.Releases {
		versions[i] = r.Version
	}
	return versions
}

// ModCacheSnapshot is the locally persisted copy of the catalog listing
type ModCacheSnapshot struct {
	Mods        []ModMetadata `json:"mods"`
	LastUpdated time.Time     `json:"lastUpdated"`
}

// ModFilter narrows a catalog listing. The zero value matches everything.
type ModFilter struct {
	Text           string
	TagIDs         []int
	GameVersion    string
	GameVersions   []string
	Author         int
	OrderBy        string
	OrderDirection string
}

// NormalizeTags trims, de-duplicates and sorts a tag list
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
