package services

import (
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"lit-review/models"
)

// OpenDatabase opens (or creates) the sqlite store at path. ":memory:" gives
// an ephemeral database, which the tests use.
func OpenDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates all tables of the review schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Search{},
		&models.DuplicateGroup{},
		&models.Document{},
		&models.Article{},
		&models.Inproceedings{},
		&models.Inbook{},
		&models.Review{},
		&models.ExclusionCode{},
		&models.ReviewExclusionCode{},
		&models.PassReview{},
		&models.PassReviewExclusionCode{},
		&models.Setting{},
		&models.PromptVersion{},
		&models.LLMRequestLog{},
		&models.Tag{},
		&models.DocumentTag{},
	)
}

// SeedDefaults inserts the default exclusion-code vocabulary and the default
// persisted settings. Existing rows are left untouched.
func SeedDefaults(db *gorm.DB, log *zap.Logger) {
	codes := []models.ExclusionCode{
		{Code: "EX1", Description: "High-power and/or high-dimensional data processing (image, video, audio, RF; >=500mW; macroprocessor-based)"},
		{Code: "EX2", Description: "Commercial off the shelf (COTS) use or repurpose (smartphones, smartwatches, commercial devices)"},
		{Code: "EX3", Description: "Out-of-scope platform or applications (non-medical/ecological; vehicles, UAVs, drones, VR/AR, entertainment)"},
		{Code: "EX5", Description: "Application-agnostic (no targeted application, e.g., novel wireless protocol, general security)"},
		{Code: "EX6", Description: "No specific embedded artifact (no system built/designed by authors, e.g., public dataset analysis, simulation)"},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&codes).Error; err != nil {
		log.Warn("Failed to seed default exclusion codes", zap.Error(err))
	}

	settings := []models.Setting{
		{Key: models.SettingLLMAutoSuggest, Value: "false"},
		{Key: models.SettingLLMThinkingMode, Value: "true"},
		{Key: models.SettingLLMModel, Value: "qwen3:8b"},
		{Key: models.SettingLLMHost, Value: "http://localhost:11434"},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error; err != nil {
		log.Warn("Failed to seed default settings", zap.Error(err))
	}
}
