package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/foundryerp/internal/models"
	"github.com/foundryerp/internal/trigger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Executor runs one report execution on behalf of a schedule. Failures
// are recorded in the execution log by the executor itself; the
// returned error exists for logging at the firing boundary only.
type Executor interface {
	ExecuteSchedule(ctx context.Context, schedule *models.ReportSchedule) (*models.ReportLog, error)
}

// Service orchestrates the job registry and the execution engine. One
// instance owns the registry for the life of the process; HTTP handlers
// receive it by reference.
type Service struct {
	db       *gorm.DB
	registry *Registry
	executor Executor
	log      *zap.Logger
}

func NewService(db *gorm.DB, registry *Registry, executor Executor, log *zap.Logger) *Service {
	return &Service{
		db:       db,
		registry: registry,
		executor: executor,
		log:      log,
	}
}

// Init loads every active schedule whose owning template is also active
// and registers a job for each. Metadata tables that do not exist yet
// mean there is nothing to do, not an error, so a fresh deployment can
// boot before migrations ran. One schedule failing to start never
// prevents the rest from starting.
func (s *Service) Init(ctx context.Context) error {
	if err := s.waitForDB(ctx); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	migrator := s.db.Migrator()
	if !migrator.HasTable(&models.ReportSchedule{}) || !migrator.HasTable(&models.ReportTemplate{}) {
		s.log.Info("report metadata tables not present, scheduler idle")
		return nil
	}

	var schedules []models.ReportSchedule
	err := s.db.WithContext(ctx).
		Joins("JOIN report_templates ON report_templates.id = report_schedules.report_id").
		Where("report_schedules.is_active = ? AND report_templates.is_active = ?", true, true).
		Find(&schedules).Error
	if err != nil {
		return fmt.Errorf("failed to load active schedules: %w", err)
	}

	for i := range schedules {
		if err := s.Start(&schedules[i]); err != nil {
			s.log.Error("failed to start schedule",
				zap.Uint("schedule_id", schedules[i].ID),
				zap.Error(err))
		}
	}

	s.registry.StartRunner()
	s.log.Info("scheduler initialized", zap.Int("active_jobs", s.registry.Size()))
	return nil
}

// Start registers (or replaces) the recurring job for one schedule.
func (s *Service) Start(schedule *models.ReportSchedule) error {
	spec, err := trigger.CronSpec(schedule)
	if err != nil {
		return err
	}

	scheduleID := schedule.ID
	return s.registry.Register(scheduleID, spec, func() {
		s.fire(scheduleID)
	})
}

// Stop tears down the schedule's job. Reports whether a job was
// actually running.
func (s *Service) Stop(scheduleID uint) bool {
	return s.registry.Unregister(scheduleID)
}

// Reload clears the registry and rebuilds it from the database. Called
// after any schedule mutation so in-memory state matches the rows.
func (s *Service) Reload(ctx context.Context) error {
	s.registry.ClearAll()
	return s.Init(ctx)
}

// Status returns a snapshot of the active job count and IDs.
func (s *Service) Status() (int, []uint) {
	return s.registry.Size(), s.registry.IDs()
}

// Shutdown stops trigger evaluation and waits for in-flight executions
// spawned by the runner to return.
func (s *Service) Shutdown() {
	s.registry.StopRunner()
}

// fire is the trigger callback. The schedule row is re-read so edits
// and deactivations between firings take effect without a reload, and
// any execution failure ends here rather than in the cron runner.
func (s *Service) fire(scheduleID uint) {
	ctx := context.Background()

	var schedule models.ReportSchedule
	if err := s.db.First(&schedule, scheduleID).Error; err != nil {
		s.log.Warn("schedule vanished before firing", zap.Uint("schedule_id", scheduleID), zap.Error(err))
		return
	}
	if !schedule.IsActive {
		return
	}

	if _, err := s.executor.ExecuteSchedule(ctx, &schedule); err != nil {
		s.log.Error("scheduled report execution failed",
			zap.Uint("schedule_id", scheduleID),
			zap.Uint("report_id", schedule.ReportID),
			zap.Error(err))
	}
}

func (s *Service) waitForDB(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	var pingErr error
	for attempt := 0; attempt < 5; attempt++ {
		if pingErr = sqlDB.PingContext(ctx); pingErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return pingErr
}
