package api

import (
	"net/http"
	"os"
	"strconv"

	"github.com/foundryerp/internal/models"
	"github.com/foundryerp/internal/report"

	"github.com/gin-gonic/gin"
)

func (s *Server) listTemplates(c *gin.Context) {
	var templates []models.ReportTemplate
	if err := s.db.Order("id").Find(&templates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch report templates"})
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (s *Server) createTemplate(c *gin.Context) {
	var tmpl models.ReportTemplate
	if err := c.ShouldBindJSON(&tmpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if tmpl.Name == "" || tmpl.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ReportName and QueryText are required"})
		return
	}

	tmpl.ID = 0
	tmpl.IsActive = true
	if err := s.db.Create(&tmpl).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report template"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "reportId": tmpl.ID})
}

func (s *Server) updateTemplate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report ID"})
		return
	}

	var existing models.ReportTemplate
	if err := s.db.First(&existing, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report template not found"})
		return
	}

	var tmpl models.ReportTemplate
	if err := c.ShouldBindJSON(&tmpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tmpl.ID = existing.ID
	tmpl.CreatedAt = existing.CreatedAt
	if err := s.db.Save(&tmpl).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update report template"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) deleteTemplate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report ID"})
		return
	}

	if err := s.db.Delete(&models.ReportTemplate{}, uint(id)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete report template"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// runReport executes a template ad hoc. The outcome lives in the
// returned log row; a failed run is still a 200 since the request
// itself succeeded.
func (s *Server) runReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report ID"})
		return
	}

	logRow, execErr := s.engine.ExecuteReport(c.Request.Context(), uint(id))
	if logRow == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": execErr.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": logRow.Status == models.LogStatusSuccess, "log": logRow})
}

func (s *Server) listLogs(c *gin.Context) {
	limit := 100
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	query := s.db.Order("id desc").Limit(limit)
	if reportID := c.Query("report_id"); reportID != "" {
		query = query.Where("report_id = ?", reportID)
	}

	var logs []models.ReportLog
	if err := query.Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch execution logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (s *Server) listFiles(c *gin.Context) {
	files, err := report.ListFiles(s.reportDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list report files"})
		return
	}
	c.JSON(http.StatusOK, files)
}

func (s *Server) downloadFile(c *gin.Context) {
	path, err := report.ResolveFile(s.reportDir, c.Param("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report file not found"})
		return
	}
	c.FileAttachment(path, c.Param("name"))
}

func (s *Server) deleteFile(c *gin.Context) {
	if err := report.DeleteFile(s.reportDir, c.Param("name")); err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report file not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
