package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DurationUnitMinutes = "minutes"
	DurationUnitHours   = "hours"
	DurationUnitDays    = "days"
)

// Voucher usage limit types as defined by the controller.
const (
	LimitTypeLimitedUsage = 0
	LimitTypeLimitedUsers = 1
	LimitTypeUnlimited    = 2
)

// VoucherPlan is a locally defined product a vendor can issue vouchers
// against. Plans synthesized during remote import carry price 0 and are
// matched to remote groups by duration.
type VoucherPlan struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SiteID        uint      `gorm:"index" json:"site_id"`
	Name          string    `gorm:"type:varchar(200)" json:"name" validate:"required,max=200"`
	Duration      int       `json:"duration" validate:"required,min=1"`
	DurationUnit  string    `gorm:"type:varchar(20);default:'minutes'" json:"duration_unit" validate:"oneof=minutes hours days"`
	Price         float64   `json:"price" validate:"min=0"`
	DataQuota     *int      `json:"data_quota" validate:"omitempty,min=1"`
	DownloadSpeed *int      `json:"download_speed" validate:"omitempty,min=1"`
	UploadSpeed   *int      `json:"upload_speed" validate:"omitempty,min=1"`
	CodeLength    int       `gorm:"default:8" json:"code_length" validate:"min=6,max=10"`
	LimitType     int       `gorm:"default:2" json:"limit_type" validate:"min=0,max=2"`
	LimitNum      *int      `json:"limit_num" validate:"omitempty,min=1"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Site Site `gorm:"foreignKey:SiteID" json:"-"`
}

func (p *VoucherPlan) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// DurationMinutes normalizes the plan duration to minutes, the unit the
// controller expects for voucher generation.
func (p *VoucherPlan) DurationMinutes() int {
	switch p.DurationUnit {
	case DurationUnitHours:
		return p.Duration * 60
	case DurationUnitDays:
		return p.Duration * 24 * 60
	default:
		return p.Duration
	}
}
