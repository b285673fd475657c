package statistics

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/camstm/voucherhub/app/models"
	"github.com/camstm/voucherhub/internal/pkg/cache"
)

const (
	cacheKeySalesReport = "statistics:sales:%d"
	cacheExpiration     = 30 * time.Minute
)

// PlanSales aggregates voucher sales for one plan.
type PlanSales struct {
	Generated int     `json:"generated"`
	Sold      int     `json:"sold"`
	Revenue   float64 `json:"revenue"`
	PlanPrice float64 `json:"plan_price"`
}

// VendorSales aggregates voucher sales for one vendor.
type VendorSales struct {
	Generated int     `json:"generated"`
	Sold      int     `json:"sold"`
	Revenue   float64 `json:"revenue"`
}

// SalesReport is the per-site sales summary consumed by the reporting
// views. A voucher counts as sold once it is used, in use or expired;
// unused vouchers never contribute to revenue.
type SalesReport struct {
	SiteID         uint                   `json:"site_id"`
	TotalGenerated int                    `json:"total_generated"`
	TotalSold      int                    `json:"total_sold"`
	TotalRevenue   float64                `json:"total_revenue"`
	PlanSales      map[string]PlanSales   `json:"plan_sales"`
	VendorSales    map[string]VendorSales `json:"vendor_sales"`
	GeneratedAt    time.Time              `json:"generated_at"`
}

// BuildSalesReport computes the report from voucher groups with their Plan
// and CreatedBy associations populated.
func BuildSalesReport(siteID uint, groups []models.VoucherGroup) *SalesReport {
	report := &SalesReport{
		SiteID:      siteID,
		PlanSales:   make(map[string]PlanSales),
		VendorSales: make(map[string]VendorSales),
		GeneratedAt: time.Now(),
	}

	for _, group := range groups {
		sold := group.SoldCount()
		revenue := float64(sold) * group.Plan.Price

		report.TotalGenerated += group.Quantity
		report.TotalSold += sold
		report.TotalRevenue += revenue

		ps := report.PlanSales[group.Plan.Name]
		ps.Generated += group.Quantity
		ps.Sold += sold
		ps.Revenue += revenue
		ps.PlanPrice = group.Plan.Price
		report.PlanSales[group.Plan.Name] = ps

		vs := report.VendorSales[group.CreatedBy.Username]
		vs.Generated += group.Quantity
		vs.Sold += sold
		vs.Revenue += revenue
		report.VendorSales[group.CreatedBy.Username] = vs
	}

	return report
}

// GenerateSalesReport builds the sales report for a site and optional
// creation date range.
func GenerateSalesReport(db *gorm.DB, siteID uint, start, end *time.Time) (*SalesReport, error) {
	query := db.Preload("Plan").Preload("CreatedBy").Where("site_id = ?", siteID)
	if start != nil {
		query = query.Where("created_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("created_at <= ?", *end)
	}

	var groups []models.VoucherGroup
	if err := query.Order("id").Find(&groups).Error; err != nil {
		return nil, err
	}
	return BuildSalesReport(siteID, groups), nil
}

// CachedSalesReport serves the unbounded report for a site from the cache
// when fresh, rebuilding it otherwise. Date-ranged reports bypass the cache.
func CachedSalesReport(db *gorm.DB, siteID uint, start, end *time.Time) (*SalesReport, error) {
	if start != nil || end != nil {
		return GenerateSalesReport(db, siteID, start, end)
	}

	key := fmt.Sprintf(cacheKeySalesReport, siteID)
	if raw, err := cache.Get(key); err == nil {
		var report SalesReport
		if err := json.Unmarshal([]byte(raw), &report); err == nil {
			return &report, nil
		}
	}

	report, err := GenerateSalesReport(db, siteID, nil, nil)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(report); err == nil {
		if err := cache.Set(key, raw, cacheExpiration); err != nil {
			log.Printf("statistics: could not cache sales report for site %d: %v", siteID, err)
		}
	}
	return report, nil
}

// InvalidateSite drops the cached report of a site, typically after a
// reconciliation run changed its counters.
func InvalidateSite(siteID uint) {
	if err := cache.Delete(fmt.Sprintf(cacheKeySalesReport, siteID)); err != nil {
		log.Printf("statistics: could not invalidate sales report for site %d: %v", siteID, err)
	}
}
