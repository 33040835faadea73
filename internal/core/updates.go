package core

import (
	"context"
	"errors"
	"fmt"

	"vsmm/internal/domain"
)

// CheckUpdates reports profile entries that are not on the newest release of their mod.
// Mods that cannot be looked up are reported in the returned error; the rest are still checked.
func (s *Service) CheckUpdates(ctx context.Context, profileName string) ([]domain.UpdateAvailable, error) {
	p, err := s.profiles.Get(profileName)
	if err != nil {
		return nil, err
	}

	var updates []domain.UpdateAvailable
	var errs []error
	for _, entry := range p.Mods {
		if err := ctx.Err(); err != nil {
			return updates, err
		}
		detail, err := s.mods.Detail(ctx, entry.ModID)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.Name, err))
			continue
		}
		latest, ok := detail.Latest()
		if !ok || latest.Version == entry.Version {
			continue
		}
		updates = append(updates, domain.UpdateAvailable{Entry: entry, LatestVersion: latest.Version})
	}
	return updates, errors.Join(errs...)
}
