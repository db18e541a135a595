package models

import (
	"time"
)

// Frequency values accepted on a ReportSchedule. Stored lower-case;
// incoming values are normalized before validation.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// ValidFrequency reports whether f (already lower-cased) is one of the
// supported recurrence frequencies.
func ValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// ReportTemplate is a named, reusable report definition. Query must be
// a read-only statement; the scheduler never mutates it.
type ReportTemplate struct {
	ID          uint       `json:"ReportId" gorm:"primaryKey"`
	Name        string     `json:"ReportName" gorm:"uniqueIndex;not null"`
	Query       string     `json:"QueryText" gorm:"not null"`
	SourceName  string     `json:"SourceDB"`
	Description string     `json:"Description"`
	IsActive    bool       `json:"IsActive" gorm:"default:true"`
	CreatedAt   time.Time  `json:"CreatedDate"`
	UpdatedAt   time.Time  `json:"ModifiedDate"`
}

// ReportSchedule is a recurring instruction to execute one template.
// DayOfWeek is meaningful for weekly schedules (0=Sunday..6), DayOfMonth
// for monthly; daily ignores both.
type ReportSchedule struct {
	ID           uint       `json:"ScheduleID" gorm:"primaryKey"`
	ReportID     uint       `json:"ReportId" gorm:"not null;index"`
	ScheduleName string     `json:"ScheduleName"`
	Frequency    string     `json:"Frequency" gorm:"not null"`
	DayOfWeek    *int       `json:"DayOfWeek"`
	DayOfMonth   *int       `json:"DayOfMonth"`
	TimeOfDay    string     `json:"TimeOfDay" gorm:"not null"`
	Recipients   string     `json:"Recipients"`
	IsActive     bool       `json:"IsActive" gorm:"default:true"`
	LastRun      *time.Time `json:"LastRun"`
	CreatedAt    time.Time  `json:"CreatedDate"`
	UpdatedAt    time.Time  `json:"ModifiedDate"`
}

// Execution log statuses. A row is created as pending before the query
// runs and finalized exactly once, to success or failed.
const (
	LogStatusPending = "pending"
	LogStatusSuccess = "success"
	LogStatusFailed  = "failed"
)

// ReportLog records one execution attempt. ScheduleID is nil for
// ad-hoc runs triggered through the API.
type ReportLog struct {
	ID           uint      `json:"LogID" gorm:"primaryKey"`
	ReportID     uint      `json:"ReportId" gorm:"index"`
	ScheduleID   *uint     `json:"ScheduleID" gorm:"index"`
	Status       string    `json:"Status" gorm:"not null;default:pending"`
	FileName     string    `json:"FileName"`
	RecordCount  int       `json:"RecordCount"`
	DurationMs   int64     `json:"ExecutionTimeMs"`
	ErrorMessage string    `json:"ErrorMessage"`
	CreatedAt    time.Time `json:"ExecutedAt"`
	UpdatedAt    time.Time `json:"-"`
}
