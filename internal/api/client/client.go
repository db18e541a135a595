package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/foundryerp/internal/models"
	"github.com/foundryerp/internal/report"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient() (*Client, error) {
	baseURL := os.Getenv("FOUNDRYERP_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	token := os.Getenv("FOUNDRYERP_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("FOUNDRYERP_TOKEN environment variable is not set, run login first")
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Login exchanges credentials for a JWT without requiring an existing
// token.
func Login(baseURL, username, password string) (string, error) {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	payload, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(baseURL+"/api/v1/auth/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.Token, nil
}

// ScheduleView mirrors the joined rows the schedules listing returns.
type ScheduleView struct {
	models.ReportSchedule
	ReportName        string `json:"ReportName"`
	ReportDescription string `json:"ReportDescription"`
}

// SchedulerStatus is the /schedules/status/info payload.
type SchedulerStatus struct {
	ActiveJobs int    `json:"activeJobs"`
	JobIDs     []uint `json:"jobIds"`
}

func (c *Client) ListSchedules() ([]ScheduleView, error) {
	var schedules []ScheduleView
	if err := c.do(http.MethodGet, "/api/v1/schedules", nil, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (c *Client) CreateSchedule(body map[string]interface{}) (uint, error) {
	var resp struct {
		ScheduleID uint `json:"scheduleId"`
	}
	if err := c.do(http.MethodPost, "/api/v1/schedules", body, &resp); err != nil {
		return 0, err
	}
	return resp.ScheduleID, nil
}

func (c *Client) DeleteSchedule(id uint) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/api/v1/schedules/%d", id), nil, nil)
}

func (c *Client) ToggleSchedule(id uint) error {
	return c.do(http.MethodPost, fmt.Sprintf("/api/v1/schedules/%d/toggle", id), nil, nil)
}

func (c *Client) SchedulerStatus() (*SchedulerStatus, error) {
	var status SchedulerStatus
	if err := c.do(http.MethodGet, "/api/v1/schedules/status/info", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) ReloadSchedules() (*SchedulerStatus, error) {
	var status SchedulerStatus
	if err := c.do(http.MethodPost, "/api/v1/schedules/reload", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) ListTemplates() ([]models.ReportTemplate, error) {
	var templates []models.ReportTemplate
	if err := c.do(http.MethodGet, "/api/v1/reports", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (c *Client) RunReport(id uint) (*models.ReportLog, error) {
	var resp struct {
		Log models.ReportLog `json:"log"`
	}
	if err := c.do(http.MethodPost, fmt.Sprintf("/api/v1/reports/%d/run", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Log, nil
}

func (c *Client) ListLogs() ([]models.ReportLog, error) {
	var logs []models.ReportLog
	if err := c.do(http.MethodGet, "/api/v1/reports/logs", nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *Client) ListFiles() ([]report.FileInfo, error) {
	var files []report.FileInfo
	if err := c.do(http.MethodGet, "/api/v1/reports/files", nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *Client) DeleteFile(name string) error {
	return c.do(http.MethodDelete, "/api/v1/reports/files/"+name, nil, nil)
}

func (c *Client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
