package repository

import (
	"github.com/camstm/voucherhub/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// SiteRepository defines the interface for site-related database operations
type SiteRepository interface {
	GetByID(id uint) (*models.Site, error)
	GetByExternalID(siteID string) (*models.Site, error)
	List(offset, limit int) ([]models.Site, error)
	Count() (int64, error)
	SitesForAdmin(adminID uint) ([]models.Site, error)
	SiteForVendor(vendorID uint) (*models.Site, error)
}

// Repositories bundles all repository implementations
type Repositories struct {
	User UserRepository
	Site SiteRepository
}
