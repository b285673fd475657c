package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	GroupStatusGenerated = "generated"
	GroupStatusSold      = "sold"
)

// StringList stores a JSON-encoded list of strings in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
}

// VoucherGroup is one batch of vouchers created together under a single
// remote identifier. OmadaGroupID is the join key between local and remote
// state; the four status counters and the derived status tag are overwritten
// wholesale on every successful sync, never merged.
type VoucherGroup struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SiteID       uint       `gorm:"index" json:"site_id"`
	PlanID       uint       `gorm:"index" json:"plan_id"`
	CreatedByID  uint       `gorm:"index" json:"created_by_id"`
	Quantity     int        `json:"quantity"`
	OmadaGroupID string     `gorm:"uniqueIndex;type:varchar(100)" json:"omada_group_id"`
	VoucherCodes StringList `gorm:"type:text" json:"voucher_codes"`
	UnusedCount  int        `gorm:"default:0" json:"unused_count"`
	UsedCount    int        `gorm:"default:0" json:"used_count"`
	InUseCount   int        `gorm:"default:0" json:"in_use_count"`
	ExpiredCount int        `gorm:"default:0" json:"expired_count"`
	TotalValue   float64    `json:"total_value"`
	Status       string     `gorm:"type:varchar(20);default:'generated'" json:"status"`
	LastSync     *time.Time `gorm:"type:timestamp;default:null" json:"last_sync"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Site      Site        `gorm:"foreignKey:SiteID" json:"-"`
	Plan      VoucherPlan `gorm:"foreignKey:PlanID" json:"-"`
	CreatedBy User        `gorm:"foreignKey:CreatedByID" json:"-"`
}

// SoldCount returns the number of vouchers counted toward revenue: used,
// in-use and expired. Unused vouchers never contribute.
func (g *VoucherGroup) SoldCount() int {
	return g.UsedCount + g.InUseCount + g.ExpiredCount
}

// DeriveStatus computes the status tag from the current counters.
func (g *VoucherGroup) DeriveStatus() string {
	if g.SoldCount() > 0 {
		return GroupStatusSold
	}
	return GroupStatusGenerated
}

// CountersWithinQuantity reports whether the counter sum stays within the
// requested quantity.
func (g *VoucherGroup) CountersWithinQuantity() bool {
	return g.UnusedCount+g.UsedCount+g.InUseCount+g.ExpiredCount <= g.Quantity
}
