package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lit-review/config"
	"lit-review/models"
)

// GetSetting reads one persisted setting. The second return is false when the
// key has never been stored.
func GetSetting(db *gorm.DB, key string) (string, bool, error) {
	var s models.Setting
	err := db.Where("key = ?", key).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

// SetSetting upserts one persisted setting.
func SetSetting(db *gorm.DB, key, value string) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
}

// LoadLLMOptions assembles the effective assistant options for this session:
// environment defaults overlaid with whatever the settings table holds.
// Booleans are persisted as "true"/"false" strings.
func LoadLLMOptions(db *gorm.DB, cfg *config.Config) (config.LLMOptions, error) {
	opts := cfg.LLMOptions()

	if v, ok, err := GetSetting(db, models.SettingLLMHost); err != nil {
		return opts, err
	} else if ok && v != "" {
		opts.Host = v
	}
	if v, ok, err := GetSetting(db, models.SettingLLMModel); err != nil {
		return opts, err
	} else if ok && v != "" {
		opts.Model = v
	}
	if v, ok, err := GetSetting(db, models.SettingLLMThinkingMode); err != nil {
		return opts, err
	} else if ok {
		opts.ThinkingMode = v == "true"
	}
	if v, ok, err := GetSetting(db, models.SettingLLMAutoSuggest); err != nil {
		return opts, err
	} else if ok {
		opts.AutoSuggest = v == "true"
	}

	return opts, nil
}

// SaveLLMOptions persists the runtime-adjustable assistant options.
func SaveLLMOptions(db *gorm.DB, opts config.LLMOptions) error {
	boolStr := func(b bool) string {
		if b {
			return "true"
		}
		return "false"
	}
	pairs := map[string]string{
		models.SettingLLMHost:         opts.Host,
		models.SettingLLMModel:        opts.Model,
		models.SettingLLMThinkingMode: boolStr(opts.ThinkingMode),
		models.SettingLLMAutoSuggest:  boolStr(opts.AutoSuggest),
	}
	for key, value := range pairs {
		if err := SetSetting(db, key, value); err != nil {
			return err
		}
	}
	return nil
}
