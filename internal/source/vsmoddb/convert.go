package vsmoddb

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"vsmm/internal/domain"
)

// createdLayout is how the mod DB formats timestamps
const createdLayout = "2006-01-02 15:04:05"

// Quarantined is a listing record that failed validation
type Quarantined struct {
	Index  int
	ModID  int
	Reason string
}

// ValidationReport summarizes the conversion of a listing
type ValidationReport struct {
	Accepted    int
	Quarantined []Quarantined
}

// convertList decodes and validates every raw listing record, skipping bad ones
func convertList(records []json.RawMessage) ([]domain.ModMetadata, ValidationReport) {
	var report ValidationReport
	mods := make([]domain.ModMetadata, 0, len(records))
	for i, rec := range records {
		var raw rawMod
		if err := json.Unmarshal(rec, &raw); err != nil {
			report.Quarantined = append(report.Quarantined, Quarantined{Index: i, Reason: err.Error()})
			continue
		}
		mod, err := convertMod(raw)
		if err != nil {
			report.Quarantined = append(report.Quarantined, Quarantined{Index: i, ModID: raw.ModID, Reason: err.Error()})
			continue
		}
		mods = append(mods, mod)
	}
	report.Accepted = len(mods)
	return mods, report
}

func validateIdentity(modID int, name string) error {
	if modID <= 0 {
		return fmt.Errorf("%w: modid %d is not positive", domain.ErrMalformedRecord, modID)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: mod %d has no name", domain.ErrMalformedRecord, modID)
	}
	return nil
}

func convertMod(raw rawMod) (domain.ModMetadata, error) {
	if err := validateIdentity(raw.ModID, raw.Name); err != nil {
		return domain.ModMetadata{}, err
	}
	side, err := domain.ParseSide(raw.Side)
	if err != nil {
		return domain.ModMetadata{}, err
	}
	return domain.ModMetadata{
		ModID:        raw.ModID,
		AssetID:      raw.AssetID,
		Name:         strings.TrimSpace(raw.Name),
		Author:       raw.Author,
		Logo:         nonEmpty(raw.Logo),
		Downloads:    raw.Downloads,
		LastReleased: nonEmpty(raw.LastReleased),
		Tags:         domain.NormalizeTags(raw.Tags),
		Side:         side,
	}, nil
}

// convertDetail validates a detail record. Releases missing a version or file are dropped.
func convertDetail(raw *rawDetail) (*domain.ModDetail, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: response has no mod", domain.ErrMalformedRecord)
	}
	if err := validateIdentity(raw.ModID, raw.Name); err != nil {
		return nil, err
	}
	side, err := domain.ParseSide(raw.Side)
	if err != nil {
		return nil, err
	}

	detail := &domain.ModDetail{
		ModMetadata: domain.ModMetadata{
			ModID:     raw.ModID,
			AssetID:   raw.AssetID,
			Name:      strings.TrimSpace(raw.Name),
			Author:    raw.Author,
			Logo:      nonEmpty(raw.LogoFile),
			Downloads: raw.Downloads,
			Tags:      domain.NormalizeTags(raw.Tags),
			Side:      side,
		},
		Text:     raw.Text,
		Releases: make([]domain.Release, 0, len(raw.Releases)),
	}
	if raw.HomepageURL != nil {
		detail.HomepageURL = *raw.HomepageURL
	}

	seen := make(map[string]bool, len(raw.Releases))
	for _, r := range raw.Releases {
		version := strings.TrimSpace(r.ModVersion)
		if version == "" || r.MainFile == "" || seen[version] {
			continue
		}
		seen[version] = true
		detail.Releases = append(detail.Releases, domain.Release{
			Version:    version,
			ArchiveRef: r.MainFile,
			FileName:   r.FileName,
			Created:    parseCreated(r.Created),
		})
	}
	// Newest first; undated releases keep API order at the end
	sort.SliceStable(detail.Releases, func(i, j int) bool {
		return detail.Releases[i].Created.After(detail.Releases[j].Created)
	})
	if len(detail.Releases) > 0 && !detail.Releases[0].Created.IsZero() {
		last := detail.Releases[0].Created.Format("2006-01-02")
		detail.LastReleased = &last
	}

	for _, s := range raw.Screenshots {
		if s.MainFile != "" {
			detail.Screenshots = append(detail.Screenshots, s.MainFile)
		}
	}

	return detail, nil
}

func parseCreated(s string) time.Time {
	t, err := time.Parse(createdLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
