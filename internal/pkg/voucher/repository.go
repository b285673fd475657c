package voucher

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/camstm/voucherhub/app/models"
)

// DataError marks a local storage failure. It rolls back the in-progress
// sync run when raised inside a transaction.
type DataError struct {
	Op  string
	Err error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// Repository provides the DB operations used by the voucher service.
type Repository interface {
	// Transaction runs fn against a transactional view of the repository.
	// All writes inside fn commit together or not at all.
	Transaction(fn func(Repository) error) error

	SiteByID(id uint) (*models.Site, error)
	SiteByExternalID(externalID string) (*models.Site, error)
	CreateSite(site *models.Site) error
	UpdateSite(site *models.Site) error

	PlanByID(id uint) (*models.VoucherPlan, error)
	PlansBySite(siteID uint) ([]models.VoucherPlan, error)
	CreatePlan(plan *models.VoucherPlan) error

	UserByID(id uint) (*models.User, error)
	SiteAdmins(siteID uint) ([]models.User, error)
	UsersByRole(role string) ([]models.User, error)
	AnyUser() (*models.User, error)

	GroupByID(id uint) (*models.VoucherGroup, error)
	GroupByRemoteID(remoteID string) (*models.VoucherGroup, error)
	CreateGroup(group *models.VoucherGroup) error
	// CreateGroupIfAbsent inserts the group unless its remote identifier is
	// already taken, and reports whether a row was written. Makes a racing
	// double-import a no-op instead of a duplicate.
	CreateGroupIfAbsent(group *models.VoucherGroup) (bool, error)
	UpdateGroup(group *models.VoucherGroup) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a voucher repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) SiteByID(id uint) (*models.Site, error) {
	var site models.Site
	if err := r.db.First(&site, id).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *gormRepository) SiteByExternalID(externalID string) (*models.Site, error) {
	var site models.Site
	if err := r.db.Where("site_id = ?", externalID).First(&site).Error; err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *gormRepository) CreateSite(site *models.Site) error {
	return r.db.Create(site).Error
}

func (r *gormRepository) UpdateSite(site *models.Site) error {
	return r.db.Save(site).Error
}

func (r *gormRepository) PlanByID(id uint) (*models.VoucherPlan, error) {
	var plan models.VoucherPlan
	if err := r.db.First(&plan, id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) PlansBySite(siteID uint) ([]models.VoucherPlan, error) {
	var plans []models.VoucherPlan
	err := r.db.Where("site_id = ?", siteID).Order("id").Find(&plans).Error
	return plans, err
}

func (r *gormRepository) CreatePlan(plan *models.VoucherPlan) error {
	return r.db.Create(plan).Error
}

func (r *gormRepository) UserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) SiteAdmins(siteID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.
		Joins("JOIN admin_sites ON admin_sites.admin_id = users.id").
		Where("admin_sites.site_id = ?", siteID).
		Order("users.id").
		Find(&users).Error
	return users, err
}

func (r *gormRepository) UsersByRole(role string) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("role = ?", role).Order("id").Find(&users).Error
	return users, err
}

func (r *gormRepository) AnyUser() (*models.User, error) {
	var user models.User
	if err := r.db.Order("id").First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) GroupByID(id uint) (*models.VoucherGroup, error) {
	var group models.VoucherGroup
	if err := r.db.First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *gormRepository) GroupByRemoteID(remoteID string) (*models.VoucherGroup, error) {
	var group models.VoucherGroup
	if err := r.db.Where("omada_group_id = ?", remoteID).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *gormRepository) CreateGroup(group *models.VoucherGroup) error {
	return r.db.Create(group).Error
}

func (r *gormRepository) CreateGroupIfAbsent(group *models.VoucherGroup) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "omada_group_id"}},
		DoNothing: true,
	}).Create(group)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) UpdateGroup(group *models.VoucherGroup) error {
	return r.db.Save(group).Error
}
