package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/foundryerp/internal/models"
	"github.com/foundryerp/internal/trigger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// scheduleRequest carries create and partial-update bodies. Field names
// match the ERP's table columns, hence the casing.
type scheduleRequest struct {
	ReportId     *uint   `json:"ReportId"`
	ScheduleName *string `json:"ScheduleName"`
	Frequency    *string `json:"Frequency"`
	DayOfWeek    *int    `json:"DayOfWeek"`
	DayOfMonth   *int    `json:"DayOfMonth"`
	TimeOfDay    *string `json:"TimeOfDay"`
	Recipients   *string `json:"Recipients"`
	IsActive     *bool   `json:"IsActive"`
}

type scheduleView struct {
	models.ReportSchedule
	ReportName        string `json:"ReportName"`
	ReportDescription string `json:"ReportDescription"`
}

func (s *Server) listSchedules(c *gin.Context) {
	var views []scheduleView
	err := s.db.Table("report_schedules").
		Select("report_schedules.*, report_templates.name AS report_name, report_templates.description AS report_description").
		Joins("JOIN report_templates ON report_templates.id = report_schedules.report_id").
		Order("report_schedules.id").
		Scan(&views).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch schedules"})
		return
	}
	if views == nil {
		views = []scheduleView{}
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) createSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ReportId == nil || req.Frequency == nil || req.TimeOfDay == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ReportId, Frequency and TimeOfDay are required"})
		return
	}

	schedule := models.ReportSchedule{
		ReportID:  *req.ReportId,
		Frequency: strings.ToLower(*req.Frequency),
		TimeOfDay: *req.TimeOfDay,
		IsActive:  true,
	}
	if req.ScheduleName != nil {
		schedule.ScheduleName = *req.ScheduleName
	}
	if req.Recipients != nil {
		schedule.Recipients = *req.Recipients
	}
	schedule.DayOfWeek = req.DayOfWeek
	schedule.DayOfMonth = req.DayOfMonth

	if err := validateScheduleFields(&schedule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.db.Create(&schedule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create schedule"})
		return
	}

	// Start the job right away; a registration failure is logged, the
	// row itself stands.
	if err := s.scheduler.Start(&schedule); err != nil {
		s.log.Error("failed to start schedule after create",
			zap.Uint("schedule_id", schedule.ID), zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "scheduleId": schedule.ID})
}

func (s *Server) updateSchedule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule ID"})
		return
	}

	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var schedule models.ReportSchedule
	if err := s.db.First(&schedule, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
		return
	}

	if req.ReportId != nil {
		schedule.ReportID = *req.ReportId
	}
	if req.ScheduleName != nil {
		schedule.ScheduleName = *req.ScheduleName
	}
	if req.Frequency != nil {
		schedule.Frequency = strings.ToLower(*req.Frequency)
	}
	if req.DayOfWeek != nil {
		schedule.DayOfWeek = req.DayOfWeek
	}
	if req.DayOfMonth != nil {
		schedule.DayOfMonth = req.DayOfMonth
	}
	if req.TimeOfDay != nil {
		schedule.TimeOfDay = *req.TimeOfDay
	}
	if req.Recipients != nil {
		schedule.Recipients = *req.Recipients
	}
	if req.IsActive != nil {
		schedule.IsActive = *req.IsActive
	}

	if err := validateScheduleFields(&schedule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.db.Save(&schedule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update schedule"})
		return
	}

	if err := s.scheduler.Reload(c.Request.Context()); err != nil {
		s.log.Error("scheduler reload after update failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) deleteSchedule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule ID"})
		return
	}

	var schedule models.ReportSchedule
	if err := s.db.First(&schedule, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
		return
	}

	// Tear the job down before the row goes away.
	s.scheduler.Stop(schedule.ID)

	if err := s.db.Delete(&schedule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete schedule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) toggleSchedule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule ID"})
		return
	}

	var schedule models.ReportSchedule
	if err := s.db.First(&schedule, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
		return
	}

	if err := s.db.Model(&schedule).Update("is_active", !schedule.IsActive).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle schedule"})
		return
	}

	if err := s.scheduler.Reload(c.Request.Context()); err != nil {
		s.log.Error("scheduler reload after toggle failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) scheduleStatus(c *gin.Context) {
	count, ids := s.scheduler.Status()
	c.JSON(http.StatusOK, gin.H{"activeJobs": count, "jobIds": ids})
}

func (s *Server) reloadSchedules(c *gin.Context) {
	if err := s.scheduler.Reload(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	count, _ := s.scheduler.Status()
	c.JSON(http.StatusOK, gin.H{"success": true, "activeJobs": count})
}

func validateScheduleFields(schedule *models.ReportSchedule) error {
	if !models.ValidFrequency(schedule.Frequency) {
		return fmt.Errorf("Frequency must be one of daily, weekly, monthly")
	}
	if _, _, err := trigger.ParseTimeOfDay(schedule.TimeOfDay); err != nil {
		return err
	}
	if schedule.DayOfWeek != nil && (*schedule.DayOfWeek < 0 || *schedule.DayOfWeek > 6) {
		return fmt.Errorf("DayOfWeek must be between 0 and 6")
	}
	if schedule.DayOfMonth != nil && (*schedule.DayOfMonth < 1 || *schedule.DayOfMonth > 31) {
		return fmt.Errorf("DayOfMonth must be between 1 and 31")
	}
	return nil
}
