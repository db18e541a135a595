package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/foundryerp/internal/config"
	"github.com/foundryerp/internal/models"
	"github.com/foundryerp/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type captureNotifier struct {
	recipients []string
	reportName string
	filePath   string
}

func (n *captureNotifier) SendReport(recipients []string, reportName, filePath string) error {
	n.recipients = recipients
	n.reportName = reportName
	n.filePath = filePath
	return nil
}

type engineFixture struct {
	db       *gorm.DB
	engine   *Engine
	notifier *captureNotifier
	dir      string
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "meta.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ReportTemplate{}, &models.ReportSchedule{}, &models.ReportLog{}))

	// Seed a small domain table in the default source (the metadata DB).
	require.NoError(t, db.Exec(`CREATE TABLE pattern_stock (pattern_no TEXT, item TEXT, weight REAL)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO pattern_stock VALUES ('P-101','Impeller',12.5),('P-102','Housing',40.0),('P-103','Valve Body',7.25)`).Error)

	registry, err := sources.NewRegistry([]config.SourceConfig{}, db)
	require.NoError(t, err)

	dir := t.TempDir()
	renderer, err := NewRenderer(dir)
	require.NoError(t, err)

	notifier := &captureNotifier{}
	return &engineFixture{
		db:       db,
		engine:   NewEngine(db, registry, renderer, notifier, zap.NewNop()),
		notifier: notifier,
		dir:      dir,
	}
}

func (f *engineFixture) createTemplate(t *testing.T, query string, active bool) *models.ReportTemplate {
	t.Helper()
	tmpl := &models.ReportTemplate{
		Name:        "Pattern Stock",
		Query:       query,
		Description: "foundry pattern stock on hand",
		IsActive:    active,
	}
	require.NoError(t, f.db.Create(tmpl).Error)
	return tmpl
}

func pdfCount(t *testing.T, dir string) int {
	t.Helper()
	files, err := ListFiles(dir)
	require.NoError(t, err)
	return len(files)
}

func TestExecuteReportSuccess(t *testing.T) {
	f := newEngineFixture(t)
	tmpl := f.createTemplate(t, "SELECT pattern_no, item, weight FROM pattern_stock", true)

	logRow, err := f.engine.ExecuteReport(context.Background(), tmpl.ID)
	require.NoError(t, err)

	var saved models.ReportLog
	require.NoError(t, f.db.First(&saved, logRow.ID).Error)
	assert.Equal(t, models.LogStatusSuccess, saved.Status)
	assert.Equal(t, 3, saved.RecordCount)
	assert.Nil(t, saved.ScheduleID)
	assert.NotEmpty(t, saved.FileName)
	assert.Empty(t, saved.ErrorMessage)

	assert.Equal(t, 1, pdfCount(t, f.dir))
}

func TestExecuteDurationExcludesLogInsert(t *testing.T) {
	f := newEngineFixture(t)
	tmpl := f.createTemplate(t, "SELECT pattern_no FROM pattern_stock", true)

	// Slow down the pending-row insert; the recorded duration covers
	// the execution itself, not the bookkeeping around it.
	const insertDelay = 400 * time.Millisecond
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").
		Register("slow_log_insert", func(tx *gorm.DB) {
			if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "report_logs" {
				time.Sleep(insertDelay)
			}
		}))

	logRow, err := f.engine.ExecuteReport(context.Background(), tmpl.ID)
	require.NoError(t, err)

	var saved models.ReportLog
	require.NoError(t, f.db.First(&saved, logRow.ID).Error)
	assert.Equal(t, models.LogStatusSuccess, saved.Status)
	assert.Less(t, saved.DurationMs, insertDelay.Milliseconds())
}

func TestExecuteReportQueryFailure(t *testing.T) {
	f := newEngineFixture(t)
	tmpl := f.createTemplate(t, "SELECT * FROM no_such_table", true)

	logRow, err := f.engine.ExecuteReport(context.Background(), tmpl.ID)
	require.Error(t, err)

	var saved models.ReportLog
	require.NoError(t, f.db.First(&saved, logRow.ID).Error)
	assert.Equal(t, models.LogStatusFailed, saved.Status)
	assert.NotEmpty(t, saved.ErrorMessage)
	assert.Empty(t, saved.FileName)

	// Nothing was written to storage.
	assert.Equal(t, 0, pdfCount(t, f.dir))
}

func TestExecuteReportMissingTemplate(t *testing.T) {
	f := newEngineFixture(t)

	logRow, err := f.engine.ExecuteReport(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrReportNotFound)

	var saved models.ReportLog
	require.NoError(t, f.db.First(&saved, logRow.ID).Error)
	assert.Equal(t, models.LogStatusFailed, saved.Status)
}

func TestExecuteReportInactiveTemplate(t *testing.T) {
	f := newEngineFixture(t)
	tmpl := f.createTemplate(t, "SELECT 1", false)

	_, err := f.engine.ExecuteReport(context.Background(), tmpl.ID)
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestExecuteReportUnknownSource(t *testing.T) {
	f := newEngineFixture(t)
	tmpl := f.createTemplate(t, "SELECT 1", true)
	require.NoError(t, f.db.Model(tmpl).Update("source_name", "planning").Error)

	logRow, err := f.engine.ExecuteReport(context.Background(), tmpl.ID)
	assert.ErrorIs(t, err, sources.ErrUnavailable)

	var saved models.ReportLog
	require.NoError(t, f.db.First(&saved, logRow.ID).Error)
	assert.Equal(t, models.LogStatusFailed, saved.Status)
}

func TestExecuteScheduleUpdatesLastRunAndDelivers(t *testing.T) {
	f := newEngineFixture(t)
	tmpl := f.createTemplate(t, "SELECT pattern_no FROM pattern_stock", true)

	sch := &models.ReportSchedule{
		ReportID:     tmpl.ID,
		ScheduleName: "Morning Stock",
		Frequency:    models.FrequencyDaily,
		TimeOfDay:    "09:00",
		Recipients:   "stores@example.com, planning@example.com",
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(sch).Error)

	logRow, err := f.engine.ExecuteSchedule(context.Background(), sch)
	require.NoError(t, err)
	require.NotNil(t, logRow.ScheduleID)
	assert.Equal(t, sch.ID, *logRow.ScheduleID)

	var saved models.ReportSchedule
	require.NoError(t, f.db.First(&saved, sch.ID).Error)
	assert.NotNil(t, saved.LastRun)

	assert.Equal(t, []string{"stores@example.com", "planning@example.com"}, f.notifier.recipients)
	assert.Equal(t, "Morning Stock", f.notifier.reportName)
	assert.NotEmpty(t, f.notifier.filePath)
}

func TestExecuteScheduleFailureLeavesLastRunUnset(t *testing.T) {
	f := newEngineFixture(t)
	tmpl := f.createTemplate(t, "SELECT * FROM no_such_table", true)

	sch := &models.ReportSchedule{
		ReportID:  tmpl.ID,
		Frequency: models.FrequencyDaily,
		TimeOfDay: "09:00",
		IsActive:  true,
	}
	require.NoError(t, f.db.Create(sch).Error)

	_, err := f.engine.ExecuteSchedule(context.Background(), sch)
	require.Error(t, err)

	var saved models.ReportSchedule
	require.NoError(t, f.db.First(&saved, sch.ID).Error)
	assert.Nil(t, saved.LastRun)
	assert.Empty(t, f.notifier.recipients)
}
