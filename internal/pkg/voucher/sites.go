package voucher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/camstm/voucherhub/app/models"
	"github.com/camstm/voucherhub/internal/pkg/omada"
)

const sitePageSize = 100

// SyncSites pulls the full paginated site catalog from the controller and
// upserts it into local storage keyed by the external site identifier. It
// returns the number of sites touched. All discovered pages are fetched
// before anything is written, so a failure mid-pagination commits nothing.
// Zero remote sites on a successful call is zero synced, not a failure.
func (s *Service) SyncSites(ctx context.Context) (int, error) {
	var all []omada.Site

	for page := 1; ; page++ {
		result, err := s.controller.ListSites(ctx, page, sitePageSize)
		if err != nil {
			return 0, fmt.Errorf("list sites page %d: %w", page, err)
		}
		all = append(all, result.Data...)
		if len(result.Data) < sitePageSize {
			break
		}
	}

	if len(all) == 0 {
		log.Print("site sync: controller returned no sites")
		return 0, nil
	}

	synced := 0
	err := s.repo.Transaction(func(repo Repository) error {
		now := time.Now()
		for _, remote := range all {
			site, err := repo.SiteByExternalID(remote.SiteID)
			switch {
			case err == nil:
				site.Name = remote.Name
				site.Region = remote.Region
				site.Timezone = remote.TimeZone
				site.Scenario = remote.Scenario
				site.SiteType = remote.Type
				site.LastSync = now
				if err := repo.UpdateSite(site); err != nil {
					return &DataError{Op: "update site", Err: err}
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				site = &models.Site{
					SiteID:   remote.SiteID,
					Name:     remote.Name,
					Region:   remote.Region,
					Timezone: remote.TimeZone,
					Scenario: remote.Scenario,
					SiteType: remote.Type,
					LastSync: now,
				}
				if err := repo.CreateSite(site); err != nil {
					return &DataError{Op: "create site", Err: err}
				}
				log.Printf("site sync: new site %s (%s)", remote.Name, remote.SiteID)
			default:
				return &DataError{Op: "lookup site", Err: err}
			}
			synced++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("site sync: %d sites synchronized", synced)
	return synced, nil
}
