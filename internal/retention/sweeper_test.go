package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/foundryerp/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newSweeperFixture(t *testing.T) (*Sweeper, *gorm.DB, string) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "meta.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ReportLog{}))

	dir := t.TempDir()
	return NewSweeper(db, dir, 30, time.Hour, zap.NewNop()), db, dir
}

func writeAgedFile(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.3"), 0644))
	old := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, old, old))
}

func TestSweepRemovesExpiredFilesOnly(t *testing.T) {
	sweeper, _, dir := newSweeperFixture(t)

	writeAgedFile(t, dir, "old_report.pdf", 45*24*time.Hour)
	writeAgedFile(t, dir, "fresh_report.pdf", 2*24*time.Hour)
	writeAgedFile(t, dir, "notes.txt", 45*24*time.Hour)

	require.NoError(t, sweeper.Sweep())

	_, err := os.Stat(filepath.Join(dir, "old_report.pdf"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "fresh_report.pdf"))
	assert.NoError(t, err)
	// Non-PDF files are not the sweeper's to remove.
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestSweepPurgesExpiredLogs(t *testing.T) {
	sweeper, db, _ := newSweeperFixture(t)

	old := &models.ReportLog{ReportID: 1, Status: models.LogStatusSuccess,
		CreatedAt: time.Now().Add(-45 * 24 * time.Hour)}
	fresh := &models.ReportLog{ReportID: 1, Status: models.LogStatusFailed,
		CreatedAt: time.Now().Add(-1 * time.Hour)}
	require.NoError(t, db.Create(old).Error)
	require.NoError(t, db.Create(fresh).Error)

	require.NoError(t, sweeper.Sweep())

	var count int64
	require.NoError(t, db.Model(&models.ReportLog{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var remaining models.ReportLog
	require.NoError(t, db.First(&remaining).Error)
	assert.Equal(t, fresh.ID, remaining.ID)
}

func TestSweepFinalizesStalePendingLogs(t *testing.T) {
	sweeper, db, _ := newSweeperFixture(t)

	stale := &models.ReportLog{ReportID: 1, Status: models.LogStatusPending,
		CreatedAt: time.Now().Add(-8 * time.Hour)}
	running := &models.ReportLog{ReportID: 2, Status: models.LogStatusPending,
		CreatedAt: time.Now().Add(-5 * time.Minute)}
	require.NoError(t, db.Create(stale).Error)
	require.NoError(t, db.Create(running).Error)

	require.NoError(t, sweeper.Sweep())

	var finalized models.ReportLog
	require.NoError(t, db.First(&finalized, stale.ID).Error)
	assert.Equal(t, models.LogStatusFailed, finalized.Status)
	assert.Equal(t, "execution interrupted", finalized.ErrorMessage)

	var untouched models.ReportLog
	require.NoError(t, db.First(&untouched, running.ID).Error)
	assert.Equal(t, models.LogStatusPending, untouched.Status)
}

func TestSweepCountsMetrics(t *testing.T) {
	sweeper, _, _ := newSweeperFixture(t)

	require.NoError(t, sweeper.Sweep())
	require.NoError(t, sweeper.Sweep())

	total, failed := sweeper.Metrics()
	assert.Equal(t, uint64(2), total)
	assert.Equal(t, uint64(0), failed)
}
