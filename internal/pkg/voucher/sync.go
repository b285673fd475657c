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

const (
	groupPageSize  = 100
	detailPageSize = 1000
)

// statusTally holds the per-status voucher counts of one remote group.
type statusTally struct {
	Unused  int
	Used    int
	InUse   int
	Expired int
}

func (t statusTally) sold() int {
	return t.Used + t.InUse + t.Expired
}

func (t statusTally) status() string {
	if t.sold() > 0 {
		return models.GroupStatusSold
	}
	return models.GroupStatusGenerated
}

func tallyStatuses(records []omada.VoucherRecord) statusTally {
	var t statusTally
	for _, rec := range records {
		switch rec.Status {
		case omada.VoucherStatusUnused:
			t.Unused++
		case omada.VoucherStatusUsed:
			t.Used++
		case omada.VoucherStatusInUse:
			t.InUse++
		case omada.VoucherStatusExpired:
			t.Expired++
		}
	}
	return t
}

// extractCodes returns the voucher codes of a detail response and whether
// every record carried one. Partial code availability must not overwrite
// already-confirmed local codes.
func extractCodes(records []omada.VoucherRecord) (models.StringList, bool) {
	codes := make(models.StringList, 0, len(records))
	complete := true
	for _, rec := range records {
		if rec.Code == "" {
			complete = false
			continue
		}
		codes = append(codes, rec.Code)
	}
	return codes, complete
}

// referenceCodes synthesizes placeholder codes for a group whose real codes
// are not retrievable from the controller yet.
func referenceCodes(remoteGroupID string, count int) models.StringList {
	codes := make(models.StringList, 0, count)
	for i := 0; i < count; i++ {
		codes = append(codes, fmt.Sprintf("OMADA-%s-%03d", remoteGroupID, i+1))
	}
	return codes
}

type pendingRefresh struct {
	group   *models.VoucherGroup
	tally   statusTally
	codes   models.StringList
	hasAll  bool
	details int
}

type pendingImport struct {
	summary omada.VoucherGroupSummary
	records []omada.VoucherRecord
	detail  *omada.VoucherGroupDetail
}

// SyncVoucherStatuses reconciles the local voucher groups of one site with
// the controller. Remote groups already known locally get their counters,
// codes and status tag refreshed; remote groups unknown locally are imported
// with a best-effort plan and an attributed owner. A detail-fetch failure
// for one group skips that group only; the run fails only when the group
// list itself cannot be fetched. All local writes commit together.
func (s *Service) SyncVoucherStatuses(ctx context.Context, siteID uint) error {
	site, err := s.repo.SiteByID(siteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("site %d not found", siteID)
		}
		return &DataError{Op: "load site", Err: err}
	}

	summaries, err := s.fetchAllGroups(ctx, site.SiteID)
	if err != nil {
		return fmt.Errorf("list voucher groups for site %s: %w", site.SiteID, err)
	}

	var refreshes []pendingRefresh
	var imports []pendingImport

	for _, summary := range summaries {
		if summary.ID == "" {
			continue
		}

		local, err := s.repo.GroupByRemoteID(summary.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return &DataError{Op: "lookup voucher group", Err: err}
		}

		records, detail, ferr := s.fetchGroupDetail(ctx, site.SiteID, summary.ID)
		if ferr != nil {
			log.Printf("voucher sync: skipping group %s: %v", summary.ID, ferr)
			continue
		}

		if local != nil {
			codes, hasAll := extractCodes(records)
			refreshes = append(refreshes, pendingRefresh{
				group:   local,
				tally:   tallyStatuses(records),
				codes:   codes,
				hasAll:  hasAll,
				details: len(records),
			})
			continue
		}

		if len(records) == 0 {
			log.Printf("voucher sync: remote group %s has no vouchers, not importing", summary.ID)
			continue
		}
		imports = append(imports, pendingImport{summary: summary, records: records, detail: detail})
	}

	err = s.repo.Transaction(func(repo Repository) error {
		now := time.Now()

		for _, p := range refreshes {
			group := p.group
			group.UnusedCount = p.tally.Unused
			group.UsedCount = p.tally.Used
			group.InUseCount = p.tally.InUse
			group.ExpiredCount = p.tally.Expired
			group.Status = p.tally.status()
			group.LastSync = &now
			if p.hasAll && p.details > 0 {
				group.VoucherCodes = p.codes
			}
			if err := repo.UpdateGroup(group); err != nil {
				return &DataError{Op: "update voucher group", Err: err}
			}
		}

		for _, p := range imports {
			if err := importGroup(repo, site, p, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("voucher sync: site %s done, %d refreshed, %d imported", site.SiteID, len(refreshes), len(imports))
	return nil
}

// fetchAllGroups pages through the remote voucher group list for a site.
func (s *Service) fetchAllGroups(ctx context.Context, remoteSiteID string) ([]omada.VoucherGroupSummary, error) {
	var all []omada.VoucherGroupSummary
	for page := 1; ; page++ {
		result, err := s.controller.GetVoucherGroups(ctx, remoteSiteID, page, groupPageSize, nil)
		if err != nil {
			return nil, err
		}
		all = append(all, result.Data...)
		if len(result.Data) < groupPageSize {
			break
		}
	}
	return all, nil
}

// fetchGroupDetail pages through the per-voucher records of one group.
func (s *Service) fetchGroupDetail(ctx context.Context, remoteSiteID, remoteGroupID string) ([]omada.VoucherRecord, *omada.VoucherGroupDetail, error) {
	var records []omada.VoucherRecord
	var detail *omada.VoucherGroupDetail
	for page := 1; ; page++ {
		result, err := s.controller.GetVoucherGroupDetail(ctx, remoteSiteID, remoteGroupID, page, detailPageSize)
		if err != nil {
			return nil, nil, err
		}
		detail = result
		records = append(records, result.Data...)
		if len(result.Data) < detailPageSize {
			break
		}
	}
	return records, detail, nil
}

// importGroup creates a local record for a remote group discovered during
// reconciliation: reuse a plan with matching duration or synthesize a
// price-0 placeholder, attribute an owner, and take counters and codes from
// the remote snapshot.
func importGroup(repo Repository, site *models.Site, p pendingImport, now time.Time) error {
	plan, err := resolveImportPlan(repo, site.ID, p)
	if err != nil {
		return err
	}

	owner, err := attributeOwner(repo, site.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("cannot import group %s: no local user to attribute it to", p.summary.ID)
		}
		return &DataError{Op: "attribute owner", Err: err}
	}

	tally := tallyStatuses(p.records)
	codes, hasAll := extractCodes(p.records)
	if !hasAll {
		codes = referenceCodes(p.summary.ID, len(p.records))
	}

	group := &models.VoucherGroup{
		SiteID:       site.ID,
		PlanID:       plan.ID,
		CreatedByID:  owner.ID,
		Quantity:     len(p.records),
		OmadaGroupID: p.summary.ID,
		VoucherCodes: codes,
		UnusedCount:  tally.Unused,
		UsedCount:    tally.Used,
		InUseCount:   tally.InUse,
		ExpiredCount: tally.Expired,
		TotalValue:   plan.Price * float64(len(p.records)),
		Status:       tally.status(),
		LastSync:     &now,
	}

	created, err := repo.CreateGroupIfAbsent(group)
	if err != nil {
		return &DataError{Op: "import voucher group", Err: err}
	}
	if !created {
		// A concurrent run imported it between our lookup and this insert.
		log.Printf("voucher sync: group %s already imported, skipping", p.summary.ID)
		return nil
	}
	log.Printf("voucher sync: imported remote group %s (%d vouchers)", p.summary.ID, len(p.records))
	return nil
}

// resolveImportPlan reuses an existing plan on the site whose normalized
// duration equals the remote group duration, or synthesizes a placeholder
// plan named after the remote group with price 0.
func resolveImportPlan(repo Repository, siteID uint, p pendingImport) (*models.VoucherPlan, error) {
	duration := p.summary.Duration
	if duration == 0 && p.detail != nil {
		duration = p.detail.Duration
	}

	plans, err := repo.PlansBySite(siteID)
	if err != nil {
		return nil, &DataError{Op: "list plans", Err: err}
	}
	for i := range plans {
		if plans[i].DurationMinutes() == duration {
			return &plans[i], nil
		}
	}

	name := p.summary.Name
	if name == "" {
		name = "Imported " + p.summary.ID
	}
	plan := &models.VoucherPlan{
		SiteID:       siteID,
		Name:         name,
		Duration:     duration,
		DurationUnit: models.DurationUnitMinutes,
		Price:        0,
		CodeLength:   8,
		LimitType:    models.LimitTypeUnlimited,
		IsActive:     true,
	}
	if plan.Duration <= 0 {
		plan.Duration = 1
	}
	if err := repo.CreatePlan(plan); err != nil {
		return nil, &DataError{Op: "create placeholder plan", Err: err}
	}
	log.Printf("voucher sync: created placeholder plan %q for remote group %s", name, p.summary.ID)
	return plan, nil
}

// attributeOwner picks the user a discovered group is attributed to, by
// fixed precedence: an admin assigned to the site, any master, any admin,
// any user. Ties inside one precedence level break on the lowest ID.
func attributeOwner(repo Repository, siteID uint) (*models.User, error) {
	admins, err := repo.SiteAdmins(siteID)
	if err != nil {
		return nil, err
	}
	if len(admins) > 0 {
		return &admins[0], nil
	}

	for _, role := range []string{models.ROLE_MASTER, models.ROLE_ADMIN} {
		users, err := repo.UsersByRole(role)
		if err != nil {
			return nil, err
		}
		if len(users) > 0 {
			return &users[0], nil
		}
	}

	return repo.AnyUser()
}
