package omada

import (
	"encoding/json"
)

// envelope is the controller's uniform response wrapper. ErrorCode is a
// pointer so a response missing the field fails closed instead of decoding
// as success.
type envelope struct {
	ErrorCode *int            `json:"errorCode"`
	Msg       string          `json:"msg"`
	Result    json.RawMessage `json:"result"`
}

type tokenResult struct {
	AccessToken  string `json:"accessToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int    `json:"expiresIn"`
	RefreshToken string `json:"refreshToken"`
}

// Site is one entry of the controller's site catalog.
type Site struct {
	SiteID   string `json:"siteId"`
	Name     string `json:"name"`
	Region   string `json:"region"`
	TimeZone string `json:"timeZone"`
	Scenario string `json:"scenario"`
	Type     int    `json:"type"`
}

// SitePage is one page of the site catalog.
type SitePage struct {
	TotalRows   int    `json:"totalRows"`
	CurrentPage int    `json:"currentPage"`
	CurrentSize int    `json:"currentSize"`
	Data        []Site `json:"data"`
}

// VoucherGroupSummary is one entry of the per-site voucher group list.
type VoucherGroupSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Amount       int    `json:"amount"`
	Duration     int    `json:"duration"`
	UnusedCount  int    `json:"unusedCount"`
	UsedCount    int    `json:"usedCount"`
	InUseCount   int    `json:"inUseCount"`
	ExpiredCount int    `json:"expiredCount"`
}

// VoucherGroupPage is one page of the voucher group list.
type VoucherGroupPage struct {
	TotalRows   int                   `json:"totalRows"`
	CurrentPage int                   `json:"currentPage"`
	CurrentSize int                   `json:"currentSize"`
	Data        []VoucherGroupSummary `json:"data"`
}

// Voucher statuses as reported by the controller.
const (
	VoucherStatusUnused  = 0
	VoucherStatusUsed    = 1
	VoucherStatusInUse   = 2
	VoucherStatusExpired = 3
)

// VoucherRecord is one voucher inside a group detail response.
type VoucherRecord struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Status int    `json:"status"`
}

// VoucherGroupDetail is the per-voucher view of one group.
type VoucherGroupDetail struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	TotalCount int             `json:"totalCount"`
	Duration   int             `json:"duration"`
	Data       []VoucherRecord `json:"data"`
}

// VoucherSummary aggregates voucher usage for a site over a date range.
type VoucherSummary struct {
	TotalCount   int     `json:"totalCount"`
	UnusedCount  int     `json:"unusedCount"`
	UsedCount    int     `json:"usedCount"`
	InUseCount   int     `json:"inUseCount"`
	ExpiredCount int     `json:"expiredCount"`
	TotalAmount  float64 `json:"totalAmount"`
}

// RateLimitSpec configures the custom rate limit of a generation request.
type RateLimitSpec struct {
	Mode            int                  `json:"mode"`
	CustomRateLimit *CustomRateLimitSpec `json:"customRateLimit,omitempty"`
}

type CustomRateLimitSpec struct {
	DownLimitEnable bool `json:"downLimitEnable"`
	DownLimit       int  `json:"downLimit"`
	UpLimitEnable   bool `json:"upLimitEnable"`
	UpLimit         int  `json:"upLimit"`
}

// VoucherGroupCreateRequest is the generation spec sent to the controller
// when issuing a new voucher group.
type VoucherGroupCreateRequest struct {
	Name                  string         `json:"name"`
	Amount                int            `json:"amount"`
	CodeLength            int            `json:"codeLength"`
	CodeForm              []int          `json:"codeForm"`
	LimitType             int            `json:"limitType"`
	LimitNum              *int           `json:"limitNum,omitempty"`
	DurationType          int            `json:"durationType"`
	Duration              int            `json:"duration"`
	TimingType            int            `json:"timingType"`
	RateLimit             *RateLimitSpec `json:"rateLimit,omitempty"`
	TrafficLimitEnable    bool           `json:"trafficLimitEnable"`
	TrafficLimit          *int           `json:"trafficLimit,omitempty"`
	TrafficLimitFrequency *int           `json:"trafficLimitFrequency,omitempty"`
	UnitPrice             *int           `json:"unitPrice,omitempty"`
	Currency              string         `json:"currency,omitempty"`
	ApplyToAllPortals     bool           `json:"applyToAllPortals"`
	Logout                bool           `json:"logout"`
	Description           string         `json:"description,omitempty"`
	PrintComments         string         `json:"printComments,omitempty"`
	ValidityType          int            `json:"validityType"`
}

type voucherGroupCreateResult struct {
	ID string `json:"id"`
}

// VoucherGroupFilters narrows the voucher group list request.
type VoucherGroupFilters struct {
	TimeStart string
	TimeEnd   string
	SearchKey string
}
