package models

import (
	"time"
)

// AdminSite assigns an admin user to a site. An admin can manage several
// sites; a site can have several admins.
type AdminSite struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AdminID    uint      `gorm:"index;uniqueIndex:idx_admin_site" json:"admin_id"`
	SiteID     uint      `gorm:"index;uniqueIndex:idx_admin_site" json:"site_id"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assigned_at"`

	Admin User `gorm:"foreignKey:AdminID" json:"-"`
	Site  Site `gorm:"foreignKey:SiteID" json:"-"`
}

// VendorSite binds a vendor user to the single site they sell vouchers for.
type VendorSite struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	VendorID   uint      `gorm:"uniqueIndex" json:"vendor_id"`
	SiteID     uint      `gorm:"index" json:"site_id"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assigned_at"`

	Vendor User `gorm:"foreignKey:VendorID" json:"-"`
	Site   Site `gorm:"foreignKey:SiteID" json:"-"`
}
