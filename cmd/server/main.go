package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/foundryerp/internal/api"
	"github.com/foundryerp/internal/auth"
	"github.com/foundryerp/internal/config"
	"github.com/foundryerp/internal/database"
	"github.com/foundryerp/internal/logger"
	"github.com/foundryerp/internal/models"
	"github.com/foundryerp/internal/notify"
	"github.com/foundryerp/internal/report"
	"github.com/foundryerp/internal/retention"
	"github.com/foundryerp/internal/scheduler"
	"github.com/foundryerp/internal/sources"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg := config.LoadConfig()

	zlog := logger.New(os.Getenv("FOUNDRYERP_DEBUG") == "1")
	defer zlog.Sync()

	auth.Configure(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLHours)

	if err := database.Initialize(cfg.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	db := database.GetDB()
	seedAdminUser(db, zlog)

	srcRegistry, err := sources.NewRegistry(cfg.Sources, db)
	if err != nil {
		log.Fatalf("Failed to open report data sources: %v", err)
	}

	renderer, err := report.NewRenderer(cfg.Reports.OutputDir)
	if err != nil {
		log.Fatalf("Failed to prepare report output directory: %v", err)
	}

	var notifier report.Notifier
	if mailer := notify.NewMailer(cfg); mailer != nil {
		notifier = mailer
	} else {
		zlog.Info("SMTP not configured, report email delivery disabled")
	}

	engine := report.NewEngine(db, srcRegistry, renderer, notifier, zlog)

	loc, err := time.LoadLocation(cfg.Reports.Timezone)
	if err != nil {
		zlog.Warn("invalid scheduler timezone, falling back to UTC",
			zap.String("timezone", cfg.Reports.Timezone), zap.Error(err))
		loc = time.UTC
	}

	if cfg.Reports.RetentionDays > 0 {
		interval := time.Duration(cfg.Reports.SweepIntervalHours) * time.Hour
		if interval <= 0 {
			interval = 12 * time.Hour
		}
		sweeper := retention.NewSweeper(db, cfg.Reports.OutputDir,
			cfg.Reports.RetentionDays, interval, zlog)
		sweeper.Start()
		defer sweeper.Stop()
	}

	sched := scheduler.NewService(db, scheduler.NewRegistry(loc), engine, zlog)
	if err := sched.Init(context.Background()); err != nil {
		zlog.Error("scheduler initialization failed", zap.Error(err))
	}
	defer sched.Shutdown()

	server := api.NewServer(db, sched, engine, cfg.Reports.OutputDir, zlog)
	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// seedAdminUser creates a default admin account on a fresh database so
// the API is reachable before any users are provisioned.
func seedAdminUser(db *gorm.DB, zlog *zap.Logger) {
	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		zlog.Warn("failed to count users", zap.Error(err))
		return
	}
	if userCount > 0 {
		return
	}

	admin := &models.User{
		Username: "admin",
		Role:     models.RoleAdmin,
		Email:    "admin@localhost",
		IsActive: true,
	}
	if err := admin.SetPassword("admin"); err != nil {
		zlog.Warn("failed to hash default admin password", zap.Error(err))
		return
	}
	if err := db.Create(admin).Error; err != nil {
		zlog.Warn("failed to create default admin user", zap.Error(err))
		return
	}
	zlog.Warn("created default admin user, change its password immediately")
}
