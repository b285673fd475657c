package omada

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/camstm/voucherhub/app/models"
	"github.com/camstm/voucherhub/internal/pkg/env"
)

// ErrNotConfigured is returned when no credential record exists and no seed
// values are available from the environment.
var ErrNotConfigured = errors.New("omada controller connection is not configured")

// ConfigStore loads and persists the single active credential record. It is
// injected into the token manager; nothing in this package reaches for a
// global configuration.
type ConfigStore interface {
	Load() (*models.OmadaConfig, error)
	Save(cfg *models.OmadaConfig) error
}

type gormConfigStore struct {
	db *gorm.DB
}

// NewConfigStore creates a credential store backed by GORM. When no active
// record exists yet, Load seeds one from the OMADA_* environment settings.
func NewConfigStore(db *gorm.DB) ConfigStore {
	return &gormConfigStore{db: db}
}

func (s *gormConfigStore) Load() (*models.OmadaConfig, error) {
	var cfg models.OmadaConfig
	err := s.db.Where("is_active = ?", true).Order("id").First(&cfg).Error
	if err == nil {
		return &cfg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	seeded := seedFromEnv()
	if seeded == nil {
		return nil, ErrNotConfigured
	}
	if err := s.db.Create(seeded).Error; err != nil {
		return nil, err
	}
	return seeded, nil
}

func (s *gormConfigStore) Save(cfg *models.OmadaConfig) error {
	cfg.UpdatedAt = time.Now()
	return s.db.Save(cfg).Error
}

func seedFromEnv() *models.OmadaConfig {
	url := strings.TrimRight(env.GetEnv("OMADA_CONTROLLER_URL", ""), "/")
	clientID := env.GetEnv("OMADA_CLIENT_ID", "")
	clientSecret := env.GetEnv("OMADA_CLIENT_SECRET", "")
	omadacID := env.GetEnv("OMADA_OMADAC_ID", "")
	if url == "" || clientID == "" || clientSecret == "" || omadacID == "" {
		return nil
	}
	return &models.OmadaConfig{
		ControllerURL: url,
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		OmadacID:      omadacID,
		IsActive:      true,
	}
}
