package api

import (
	"fmt"

	"github.com/foundryerp/internal/auth"
	"github.com/foundryerp/internal/models"
	"github.com/foundryerp/internal/report"
	"github.com/foundryerp/internal/scheduler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	db        *gorm.DB
	scheduler *scheduler.Service
	engine    *report.Engine
	reportDir string
	router    *gin.Engine
	log       *zap.Logger
}

func NewServer(db *gorm.DB, sched *scheduler.Service, engine *report.Engine, reportDir string, log *zap.Logger) *Server {
	server := &Server{
		db:        db,
		scheduler: sched,
		engine:    engine,
		reportDir: reportDir,
		router:    gin.Default(),
		log:       log,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	// Public routes
	s.router.POST("/api/v1/auth/login", s.login)

	// Protected routes (require authentication)
	api := s.router.Group("/api/v1")
	api.Use(auth.AuthMiddleware(s.db))

	// Schedule management, admin only
	schedules := api.Group("/schedules")
	schedules.Use(auth.RequireRole(models.RoleAdmin))
	{
		schedules.GET("", s.listSchedules)
		schedules.POST("", s.createSchedule)
		schedules.PUT("/:id", s.updateSchedule)
		schedules.DELETE("/:id", s.deleteSchedule)
		schedules.POST("/:id/toggle", s.toggleSchedule)
		schedules.GET("/status/info", s.scheduleStatus)
		schedules.POST("/reload", s.reloadSchedules)
	}

	// Report templates, logs and generated files, admin only
	reports := api.Group("/reports")
	reports.Use(auth.RequireRole(models.RoleAdmin))
	{
		reports.GET("", s.listTemplates)
		reports.POST("", s.createTemplate)
		reports.PUT("/:id", s.updateTemplate)
		reports.DELETE("/:id", s.deleteTemplate)
		reports.POST("/:id/run", s.runReport)
		reports.GET("/logs", s.listLogs)
		reports.GET("/files", s.listFiles)
		reports.GET("/files/:name", s.downloadFile)
		reports.DELETE("/files/:name", s.deleteFile)
	}
}

func (s *Server) Start(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
