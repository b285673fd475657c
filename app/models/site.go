package models

import (
	"time"
)

// Site mirrors one site from the Omada controller. Rows are created and
// updated only by the site sync; the external SiteID is the identity key
// across sync runs.
type Site struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SiteID    string    `gorm:"uniqueIndex;type:varchar(100)" json:"site_id"`
	Name      string    `gorm:"type:varchar(200)" json:"name"`
	Region    string    `gorm:"type:varchar(100)" json:"region"`
	Timezone  string    `gorm:"type:varchar(50)" json:"timezone"`
	Scenario  string    `gorm:"type:varchar(50)" json:"scenario"`
	SiteType  int       `json:"site_type"`
	LastSync  time.Time `json:"last_sync"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
