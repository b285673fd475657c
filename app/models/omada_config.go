package models

import (
	"time"
)

// OmadaConfig is the credential record for the controller connection: one
// active row per deployment. The token manager owns it exclusively; replacing
// the credentials wholesale clears the cached token pair so the next call
// re-authenticates from scratch.
type OmadaConfig struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ControllerURL  string     `gorm:"type:varchar(500)" json:"controller_url"`
	ClientID       string     `gorm:"type:varchar(100)" json:"client_id"`
	ClientSecret   string     `gorm:"type:varchar(100)" json:"-"`
	OmadacID       string     `gorm:"type:varchar(100)" json:"omadac_id"`
	AccessToken    string     `gorm:"type:text" json:"-"`
	RefreshToken   string     `gorm:"type:text" json:"-"`
	TokenExpiresAt *time.Time `gorm:"type:timestamp;default:null" json:"-"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasAccessToken reports whether a token is on record at all.
func (c *OmadaConfig) HasAccessToken() bool {
	return c.AccessToken != ""
}

// TokenExpiresWithin reports whether the stored token expires inside the
// given margin. A missing expiry is treated as already expired.
func (c *OmadaConfig) TokenExpiresWithin(margin time.Duration) bool {
	if c.TokenExpiresAt == nil {
		return true
	}
	return !time.Now().Add(margin).Before(*c.TokenExpiresAt)
}

// ClearTokens drops the cached token pair and expiry.
func (c *OmadaConfig) ClearTokens() {
	c.AccessToken = ""
	c.RefreshToken = ""
	c.TokenExpiresAt = nil
}
