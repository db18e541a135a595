package retention

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/foundryerp/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Pending log rows older than this are considered orphaned by a crash or
// restart and are finalized as failed.
const stalePendingAfter = 6 * time.Hour

type Sweeper struct {
	db        *gorm.DB
	outputDir string
	maxAge    time.Duration
	interval  time.Duration
	log       *zap.Logger

	mutex        sync.Mutex
	totalSweeps  uint64
	failedSweeps uint64
	stopChan     chan struct{}
	stopOnce     sync.Once
}

func NewSweeper(db *gorm.DB, outputDir string, retentionDays int, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		db:        db,
		outputDir: outputDir,
		maxAge:    time.Duration(retentionDays) * 24 * time.Hour,
		interval:  interval,
		log:       log,
		stopChan:  make(chan struct{}),
	}
}

// Start performs an initial sweep and then sweeps on the configured
// interval until Stop is called.
func (s *Sweeper) Start() {
	if err := s.Sweep(); err != nil {
		s.log.Warn("retention sweep failed", zap.Error(err))
	}

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Sweep(); err != nil {
					s.log.Warn("retention sweep failed", zap.Error(err))
				}
			case <-s.stopChan:
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// Sweep removes generated PDFs and execution log rows older than the
// retention window and finalizes stale pending log rows as failed.
func (s *Sweeper) Sweep() error {
	cutoff := time.Now().Add(-s.maxAge)

	var firstErr error
	if err := s.sweepFiles(cutoff); err != nil {
		firstErr = err
	}
	if err := s.sweepLogs(cutoff); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.finalizeStalePending(); err != nil && firstErr == nil {
		firstErr = err
	}

	s.mutex.Lock()
	s.totalSweeps++
	if firstErr != nil {
		s.failedSweeps++
	}
	s.mutex.Unlock()

	return firstErr
}

func (s *Sweeper) sweepFiles(cutoff time.Time) error {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.outputDir, entry.Name())); err != nil {
			s.log.Warn("failed to remove expired report file",
				zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.log.Info("removed expired report files", zap.Int("count", removed))
	}
	return nil
}

func (s *Sweeper) sweepLogs(cutoff time.Time) error {
	result := s.db.Where("created_at < ? AND status <> ?", cutoff, models.LogStatusPending).
		Delete(&models.ReportLog{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		s.log.Info("purged expired execution logs", zap.Int64("count", result.RowsAffected))
	}
	return nil
}

func (s *Sweeper) finalizeStalePending() error {
	cutoff := time.Now().Add(-stalePendingAfter)
	result := s.db.Model(&models.ReportLog{}).
		Where("status = ? AND created_at < ?", models.LogStatusPending, cutoff).
		Updates(map[string]interface{}{
			"status":        models.LogStatusFailed,
			"error_message": "execution interrupted",
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		s.log.Warn("finalized stale pending logs as failed",
			zap.Int64("count", result.RowsAffected))
	}
	return nil
}

// Metrics reports sweep counters for diagnostics.
func (s *Sweeper) Metrics() (total, failed uint64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.totalSweeps, s.failedSweeps
}
