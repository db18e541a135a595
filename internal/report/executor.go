package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foundryerp/internal/models"
	"github.com/foundryerp/internal/sources"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrReportNotFound is returned when a schedule references a template
// that is missing or inactive.
var ErrReportNotFound = errors.New("report template not found")

// Notifier delivers a generated report to its recipients. Delivery is
// best effort and never fails an execution.
type Notifier interface {
	SendReport(recipients []string, reportName, filePath string) error
}

// Engine executes one report run end to end: pending log row, template
// lookup, source resolution, query, render, log finalization. Every
// failure between lookup and render lands in the log row; the engine
// never panics out of a trigger firing.
type Engine struct {
	db       *gorm.DB
	sources  *sources.Registry
	renderer *Renderer
	notifier Notifier
	log      *zap.Logger
}

func NewEngine(db *gorm.DB, srcs *sources.Registry, renderer *Renderer, notifier Notifier, log *zap.Logger) *Engine {
	return &Engine{
		db:       db,
		sources:  srcs,
		renderer: renderer,
		notifier: notifier,
		log:      log,
	}
}

// ExecuteSchedule runs the schedule's report. On success the
// schedule's LastRun is advanced and, when recipients are configured,
// the PDF is mailed out.
func (e *Engine) ExecuteSchedule(ctx context.Context, schedule *models.ReportSchedule) (*models.ReportLog, error) {
	scheduleID := schedule.ID
	logRow, result, err := e.execute(ctx, schedule.ReportID, &scheduleID)
	if err != nil {
		return logRow, err
	}

	now := time.Now()
	if dbErr := e.db.Model(&models.ReportSchedule{}).
		Where("id = ?", scheduleID).
		Update("last_run", now).Error; dbErr != nil {
		e.log.Warn("failed to update schedule last run",
			zap.Uint("schedule_id", scheduleID), zap.Error(dbErr))
	}

	e.deliver(schedule.Recipients, schedule.ScheduleName, result)
	return logRow, nil
}

// ExecuteReport runs a template ad hoc; the log row carries no
// schedule reference.
func (e *Engine) ExecuteReport(ctx context.Context, reportID uint) (*models.ReportLog, error) {
	logRow, _, err := e.execute(ctx, reportID, nil)
	return logRow, err
}

func (e *Engine) execute(ctx context.Context, reportID uint, scheduleID *uint) (*models.ReportLog, *RenderResult, error) {
	logRow := &models.ReportLog{
		ReportID:   reportID,
		ScheduleID: scheduleID,
		Status:     models.LogStatusPending,
	}
	if err := e.db.Create(logRow).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create execution log: %w", err)
	}

	// Measured from here so the log-row insert itself is not billed to
	// the execution.
	start := time.Now()
	result, rowCount, runErr := e.run(ctx, reportID)
	elapsed := time.Since(start).Milliseconds()

	if runErr != nil {
		e.finalize(logRow, map[string]interface{}{
			"status":        models.LogStatusFailed,
			"error_message": runErr.Error(),
			"duration_ms":   elapsed,
		})
		return logRow, nil, runErr
	}

	e.finalize(logRow, map[string]interface{}{
		"status":       models.LogStatusSuccess,
		"file_name":    result.FileName,
		"record_count": rowCount,
		"duration_ms":  elapsed,
	})

	e.log.Info("report executed",
		zap.Uint("report_id", reportID),
		zap.Int("rows", rowCount),
		zap.Int64("duration_ms", elapsed),
		zap.String("file", result.FileName))

	return logRow, result, nil
}

func (e *Engine) run(ctx context.Context, reportID uint) (*RenderResult, int, error) {
	var tmpl models.ReportTemplate
	err := e.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", reportID, true).
		First(&tmpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, fmt.Errorf("%w: report %d", ErrReportNotFound, reportID)
		}
		return nil, 0, err
	}

	srcDB, err := e.sources.Get(tmpl.SourceName)
	if err != nil {
		return nil, 0, err
	}

	columns, rows, err := sources.Query(ctx, srcDB, tmpl.Query)
	if err != nil {
		return nil, 0, fmt.Errorf("report query failed: %w", err)
	}

	result, err := e.renderer.Render(tmpl.Name, columns, rows, tmpl.Description)
	if err != nil {
		return nil, 0, err
	}

	return result, len(rows), nil
}

func (e *Engine) finalize(logRow *models.ReportLog, updates map[string]interface{}) {
	if err := e.db.Model(logRow).Updates(updates).Error; err != nil {
		e.log.Error("failed to finalize execution log",
			zap.Uint("log_id", logRow.ID), zap.Error(err))
	}
}

func (e *Engine) deliver(recipients, scheduleName string, result *RenderResult) {
	if e.notifier == nil || strings.TrimSpace(recipients) == "" || result == nil {
		return
	}

	var addrs []string
	for _, addr := range strings.Split(recipients, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			addrs = append(addrs, addr)
		}
	}
	if len(addrs) == 0 {
		return
	}

	name := scheduleName
	if name == "" {
		name = result.FileName
	}
	if err := e.notifier.SendReport(addrs, name, result.FilePath); err != nil {
		e.log.Warn("report delivery failed", zap.Strings("recipients", addrs), zap.Error(err))
	}
}
