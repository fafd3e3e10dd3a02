package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/iommarket/marketplace/app/models"
)

// settingRepository implements the SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// GetAll returns every persisted setting. The sitesettings cache uses this
// for its bulk refresh.
func (r *settingRepository) GetAll() ([]models.Setting, error) {
	var settings []models.Setting
	err := r.db.Order("setting_key ASC").Find(&settings).Error
	return settings, err
}

// GetValue retrieves a specific setting value by key
func (r *settingRepository) GetValue(key string) (string, error) {
	var setting models.Setting
	err := r.db.Where("setting_key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil // Return empty string for non-existent settings
		}
		return "", err
	}
	return setting.Value, nil
}

// SetValue creates or updates a setting value by key
func (r *settingRepository) SetValue(key, value, valueType string) error {
	var setting models.Setting
	err := r.db.Where("setting_key = ?", key).First(&setting).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = models.Setting{
			Key:   key,
			Value: value,
			Type:  valueType,
		}
		if err := setting.Validate(); err != nil {
			return err
		}
		return r.db.Create(&setting).Error
	} else if err != nil {
		return err
	}

	setting.Value = value
	if valueType != "" {
		setting.Type = valueType
	}
	if err := setting.Validate(); err != nil {
		return err
	}
	return r.db.Save(&setting).Error
}

// Delete removes a setting by key
func (r *settingRepository) Delete(key string) error {
	return r.db.Where("setting_key = ?", key).Delete(&models.Setting{}).Error
}
