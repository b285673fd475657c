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

// IssueInput describes one voucher generation request from an operator.
type IssueInput struct {
	SiteID      uint
	PlanID      uint
	RequestedBy uint
	Quantity    int
	Description string
}

// IssueVouchers creates a voucher group on the controller from a local plan
// and records it locally with all vouchers unused. The remote create is the
// point of no return: if fetching the real codes or the local write fails
// afterwards, the remote group is kept and the error reported.
func (s *Service) IssueVouchers(ctx context.Context, in IssueInput) (*models.VoucherGroup, error) {
	if in.Quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}

	site, err := s.repo.SiteByID(in.SiteID)
	if err != nil {
		return nil, fmt.Errorf("site %d not found", in.SiteID)
	}
	plan, err := s.repo.PlanByID(in.PlanID)
	if err != nil {
		return nil, fmt.Errorf("plan %d not found", in.PlanID)
	}
	if plan.SiteID != site.ID {
		return nil, fmt.Errorf("plan %d does not belong to site %d", in.PlanID, in.SiteID)
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("plan %q is inactive", plan.Name)
	}
	user, err := s.repo.UserByID(in.RequestedBy)
	if err != nil {
		return nil, fmt.Errorf("user %d not found", in.RequestedBy)
	}

	req := buildGenerationRequest(plan, in.Quantity, in.Description, user.Username)
	remoteID, err := s.controller.CreateVoucherGroup(ctx, site.SiteID, req)
	if err != nil {
		return nil, err
	}

	// Best effort: the controller may not expose the real codes right away.
	codes := referenceCodes(remoteID, in.Quantity)
	if records, _, err := s.fetchGroupDetail(ctx, site.SiteID, remoteID); err == nil {
		if real, hasAll := extractCodes(records); hasAll && len(real) > 0 {
			codes = real
		}
	} else {
		log.Printf("voucher issue: could not fetch codes for group %s, using references: %v", remoteID, err)
	}

	group := &models.VoucherGroup{
		SiteID:       site.ID,
		PlanID:       plan.ID,
		CreatedByID:  user.ID,
		Quantity:     in.Quantity,
		OmadaGroupID: remoteID,
		VoucherCodes: codes,
		UnusedCount:  in.Quantity,
		TotalValue:   plan.Price * float64(in.Quantity),
		Status:       models.GroupStatusGenerated,
	}
	if err := s.repo.CreateGroup(group); err != nil {
		log.Printf("voucher issue: remote group %s created but local record failed: %v", remoteID, err)
		return nil, &DataError{Op: "create voucher group", Err: err}
	}

	log.Printf("voucher issue: %d vouchers for plan %q on site %s (group %s)", in.Quantity, plan.Name, site.SiteID, remoteID)
	return group, nil
}

// DeleteExpired clears the invalid vouchers of one group on the controller
// and refreshes the local counters from the remaining remote state.
func (s *Service) DeleteExpired(ctx context.Context, groupID uint) error {
	group, err := s.repo.GroupByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("voucher group %d not found", groupID)
		}
		return &DataError{Op: "load voucher group", Err: err}
	}
	if group.OmadaGroupID == "" {
		return fmt.Errorf("voucher group %d has no remote identifier", groupID)
	}
	site, err := s.repo.SiteByID(group.SiteID)
	if err != nil {
		return &DataError{Op: "load site", Err: err}
	}

	if err := s.controller.DeleteExpiredVouchers(ctx, site.SiteID, group.OmadaGroupID); err != nil {
		return err
	}

	records, _, err := s.fetchGroupDetail(ctx, site.SiteID, group.OmadaGroupID)
	if err != nil {
		// The remote delete went through; the next sync picks up the counts.
		log.Printf("voucher: expired cleared for group %s but refresh failed: %v", group.OmadaGroupID, err)
		return nil
	}

	tally := tallyStatuses(records)
	now := time.Now()
	group.UnusedCount = tally.Unused
	group.UsedCount = tally.Used
	group.InUseCount = tally.InUse
	group.ExpiredCount = tally.Expired
	group.Status = tally.status()
	group.LastSync = &now
	if codes, hasAll := extractCodes(records); hasAll && len(records) > 0 {
		group.VoucherCodes = codes
	}
	if err := s.repo.UpdateGroup(group); err != nil {
		return &DataError{Op: "update voucher group", Err: err}
	}
	return nil
}

// buildGenerationRequest maps a local plan to the controller's generation
// spec: duration normalized to minutes, speeds converted from Mbps to Kbps,
// the price to cents.
func buildGenerationRequest(plan *models.VoucherPlan, quantity int, description, username string) *omada.VoucherGroupCreateRequest {
	req := &omada.VoucherGroupCreateRequest{
		Name:       fmt.Sprintf("%s_%s", plan.Name, time.Now().Format("20060102_150405")),
		Amount:     quantity,
		CodeLength: plan.CodeLength,
		CodeForm:   []int{0}, // digits only
		LimitType:  plan.LimitType,
		Duration:   plan.DurationMinutes(),
		RateLimit: &omada.RateLimitSpec{
			CustomRateLimit: &omada.CustomRateLimitSpec{
				DownLimitEnable: plan.DownloadSpeed != nil,
				UpLimitEnable:   plan.UploadSpeed != nil,
			},
		},
		ApplyToAllPortals: true,
		Logout:            true,
		Description:       description,
		PrintComments:     "Plan: " + plan.Name,
	}

	if plan.LimitType != models.LimitTypeUnlimited && plan.LimitNum != nil {
		req.LimitNum = plan.LimitNum
	}
	if plan.DownloadSpeed != nil {
		req.RateLimit.CustomRateLimit.DownLimit = *plan.DownloadSpeed * 1024
	}
	if plan.UploadSpeed != nil {
		req.RateLimit.CustomRateLimit.UpLimit = *plan.UploadSpeed * 1024
	}
	if plan.DataQuota != nil {
		req.TrafficLimitEnable = true
		req.TrafficLimit = plan.DataQuota
		frequency := 0 // total, not per day
		req.TrafficLimitFrequency = &frequency
	}
	if plan.Price > 0 {
		cents := int(plan.Price * 100)
		req.UnitPrice = &cents
		req.Currency = "BRL"
	}
	if req.Description == "" {
		req.Description = "Vouchers issued by " + username
	}
	return req
}
