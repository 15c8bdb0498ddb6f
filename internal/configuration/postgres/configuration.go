package postgres

import (
	"errors"

	"gorm.io/gorm"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/configuration"
)

// ConfigurationRepository implements the configuration.Repository interface using GORM
type ConfigurationRepository struct {
	db *gorm.DB
}

func NewConfigurationRepository(db *gorm.DB) configuration.Repository {
	return &ConfigurationRepository{db: db}
}

func (r *ConfigurationRepository) Get() (*configuration.Configuration, error) {
	var cfg configuration.Configuration
	err := r.db.Where("id = ?", configuration.SingletonID).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("configuration not found", internal.ErrCodeConfigNotFound)
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *ConfigurationRepository) Save(cfg *configuration.Configuration) error {
	cfg.ID = configuration.SingletonID
	return r.db.Save(cfg).Error
}
