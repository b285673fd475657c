package repository

import (
	"github.com/camstm/voucherhub/app/models"
	"gorm.io/gorm"
)

// siteRepository implements the SiteRepository interface
type siteRepository struct {
	db *gorm.DB
}

// NewSiteRepository creates a new site repository instance
func NewSiteRepository(db *gorm.DB) SiteRepository {
	return &siteRepository{db: db}
}

// GetByID retrieves a site by its local ID
func (r *siteRepository) GetByID(id uint) (*models.Site, error) {
	var site models.Site
	err := r.db.First(&site, id).Error
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// GetByExternalID retrieves a site by its controller-side identifier
func (r *siteRepository) GetByExternalID(siteID string) (*models.Site, error) {
	var site models.Site
	err := r.db.Where("site_id = ?", siteID).First(&site).Error
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// List retrieves a paginated list of sites
func (r *siteRepository) List(offset, limit int) ([]models.Site, error) {
	var sites []models.Site
	err := r.db.Order("name").Offset(offset).Limit(limit).Find(&sites).Error
	return sites, err
}

// Count returns the total number of sites
func (r *siteRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Site{}).Count(&count).Error
	return count, err
}

// SitesForAdmin returns the sites assigned to an admin user
func (r *siteRepository) SitesForAdmin(adminID uint) ([]models.Site, error) {
	var sites []models.Site
	err := r.db.
		Joins("JOIN admin_sites ON admin_sites.site_id = sites.id").
		Where("admin_sites.admin_id = ?", adminID).
		Order("sites.name").
		Find(&sites).Error
	return sites, err
}

// SiteForVendor returns the single site a vendor sells vouchers for
func (r *siteRepository) SiteForVendor(vendorID uint) (*models.Site, error) {
	var site models.Site
	err := r.db.
		Joins("JOIN vendor_sites ON vendor_sites.site_id = sites.id").
		Where("vendor_sites.vendor_id = ?", vendorID).
		First(&site).Error
	if err != nil {
		return nil, err
	}
	return &site, nil
}
