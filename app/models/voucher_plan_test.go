package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationMinutes(t *testing.T) {
	tests := []struct {
		duration int
		unit     string
		want     int
	}{
		{duration: 30, unit: DurationUnitMinutes, want: 30},
		{duration: 2, unit: DurationUnitHours, want: 120},
		{duration: 1, unit: DurationUnitDays, want: 1440},
		{duration: 7, unit: "", want: 7}, // unknown unit falls back to minutes
	}

	for _, tt := range tests {
		plan := VoucherPlan{Duration: tt.duration, DurationUnit: tt.unit}
		assert.Equal(t, tt.want, plan.DurationMinutes(), "%d %s", tt.duration, tt.unit)
	}
}

func TestVoucherPlanValidate(t *testing.T) {
	valid := VoucherPlan{
		Name:         "2 Hours",
		Duration:     2,
		DurationUnit: DurationUnitHours,
		Price:        5,
		CodeLength:   8,
		LimitType:    LimitTypeUnlimited,
	}
	assert.NoError(t, valid.Validate())

	noName := valid
	noName.Name = ""
	assert.Error(t, noName.Validate())

	badUnit := valid
	badUnit.DurationUnit = "weeks"
	assert.Error(t, badUnit.Validate())

	shortCode := valid
	shortCode.CodeLength = 4
	assert.Error(t, shortCode.Validate())
}

func TestOmadaConfigTokenExpiry(t *testing.T) {
	cfg := OmadaConfig{}
	assert.False(t, cfg.HasAccessToken())
	assert.True(t, cfg.TokenExpiresWithin(0), "no expiry on record counts as expired")

	soon := time.Now().Add(2 * time.Minute)
	cfg = OmadaConfig{AccessToken: "tok", TokenExpiresAt: &soon}
	assert.True(t, cfg.HasAccessToken())
	assert.False(t, cfg.TokenExpiresWithin(0))
	assert.True(t, cfg.TokenExpiresWithin(5*time.Minute))

	later := time.Now().Add(time.Hour)
	cfg.TokenExpiresAt = &later
	assert.False(t, cfg.TokenExpiresWithin(5*time.Minute))

	cfg.RefreshToken = "ref"
	cfg.ClearTokens()
	assert.Empty(t, cfg.AccessToken)
	assert.Empty(t, cfg.RefreshToken)
	assert.Nil(t, cfg.TokenExpiresAt)
}
