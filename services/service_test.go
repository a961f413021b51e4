package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	SeedDefaults(db, zap.NewNop())
	return db
}

func newTestScreening(t *testing.T) *ScreeningService {
	t.Helper()
	return NewScreeningService(newTestDB(t), zap.NewNop())
}
