package scheduler

import (
	"context"
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

type stubExecutor struct {
	calls []uint
}

func (e *stubExecutor) ExecuteSchedule(ctx context.Context, schedule *models.ReportSchedule) (*models.ReportLog, error) {
	e.calls = append(e.calls, schedule.ID)
	return &models.ReportLog{Status: models.LogStatusSuccess}, nil
}

func newTestDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	if migrate {
		require.NoError(t, db.AutoMigrate(&models.ReportTemplate{}, &models.ReportSchedule{}))
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (*Service, *stubExecutor) {
	t.Helper()
	exec := &stubExecutor{}
	svc := NewService(db, NewRegistry(time.UTC), exec, zap.NewNop())
	t.Cleanup(svc.Shutdown)
	return svc, exec
}

func seedPair(t *testing.T, db *gorm.DB, templateActive, scheduleActive bool) *models.ReportSchedule {
	t.Helper()
	tmpl := &models.ReportTemplate{
		Name:     "Pattern Stock " + time.Now().Format("150405.000000"),
		Query:    "SELECT 1",
		IsActive: templateActive,
	}
	require.NoError(t, db.Create(tmpl).Error)

	sch := &models.ReportSchedule{
		ReportID:  tmpl.ID,
		Frequency: models.FrequencyDaily,
		TimeOfDay: "09:00",
		IsActive:  scheduleActive,
	}
	require.NoError(t, db.Create(sch).Error)
	return sch
}

func TestInitMissingTablesIsNotAnError(t *testing.T) {
	db := newTestDB(t, false)
	svc, _ := newTestService(t, db)

	require.NoError(t, svc.Init(context.Background()))
	count, _ := svc.Status()
	assert.Equal(t, 0, count)
}

func TestInitStartsOnlyActivePairs(t *testing.T) {
	db := newTestDB(t, true)
	svc, _ := newTestService(t, db)

	active := seedPair(t, db, true, true)
	seedPair(t, db, true, false)  // inactive schedule
	seedPair(t, db, false, true)  // inactive template

	require.NoError(t, svc.Init(context.Background()))

	count, ids := svc.Status()
	assert.Equal(t, 1, count)
	assert.Equal(t, []uint{active.ID}, ids)
}

func TestInitToleratesBadSchedule(t *testing.T) {
	db := newTestDB(t, true)
	svc, _ := newTestService(t, db)

	good := seedPair(t, db, true, true)
	bad := seedPair(t, db, true, true)
	require.NoError(t, db.Model(bad).Update("frequency", "hourly").Error)

	require.NoError(t, svc.Init(context.Background()))

	count, ids := svc.Status()
	assert.Equal(t, 1, count)
	assert.Contains(t, ids, good.ID)
	assert.NotContains(t, ids, bad.ID)
}

func TestStartIsIdempotent(t *testing.T) {
	db := newTestDB(t, true)
	svc, _ := newTestService(t, db)
	sch := seedPair(t, db, true, true)

	require.NoError(t, svc.Start(sch))
	require.NoError(t, svc.Start(sch))

	count, _ := svc.Status()
	assert.Equal(t, 1, count)
}

func TestStartRejectsUnsupportedFrequency(t *testing.T) {
	db := newTestDB(t, true)
	svc, _ := newTestService(t, db)

	err := svc.Start(&models.ReportSchedule{ID: 1, Frequency: "hourly", TimeOfDay: "09:00"})
	assert.Error(t, err)

	count, _ := svc.Status()
	assert.Equal(t, 0, count)
}

func TestStopReportsWhetherAnythingRan(t *testing.T) {
	db := newTestDB(t, true)
	svc, _ := newTestService(t, db)
	sch := seedPair(t, db, true, true)

	assert.False(t, svc.Stop(sch.ID))

	require.NoError(t, svc.Start(sch))
	assert.True(t, svc.Stop(sch.ID))
	assert.False(t, svc.Stop(sch.ID))
}

func TestReloadMatchesDatabase(t *testing.T) {
	db := newTestDB(t, true)
	svc, _ := newTestService(t, db)

	first := seedPair(t, db, true, true)
	require.NoError(t, svc.Init(context.Background()))

	// Deactivate the first, add a second, then reload.
	require.NoError(t, db.Model(first).Update("is_active", false).Error)
	second := seedPair(t, db, true, true)

	require.NoError(t, svc.Reload(context.Background()))

	count, ids := svc.Status()
	assert.Equal(t, 1, count)
	assert.Equal(t, []uint{second.ID}, ids)
}

func TestFireSkipsDeactivatedSchedule(t *testing.T) {
	db := newTestDB(t, true)
	svc, exec := newTestService(t, db)
	sch := seedPair(t, db, true, true)

	require.NoError(t, db.Model(sch).Update("is_active", false).Error)
	svc.fire(sch.ID)
	assert.Empty(t, exec.calls)

	require.NoError(t, db.Model(sch).Update("is_active", true).Error)
	svc.fire(sch.ID)
	assert.Equal(t, []uint{sch.ID}, exec.calls)
}
