package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/snackstopper/config"
	"github.com/cppla/snackstopper/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase("sqlite", filepath.Join(t.TempDir(), "snackstopper.db"), "silent")
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func fixedClock(day string) Clock {
	ts, err := time.ParseInLocation(models.DateLayout, day, time.UTC)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return ts.Add(17 * time.Hour) }
}
