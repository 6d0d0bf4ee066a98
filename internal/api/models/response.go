package models

import (
	"time"

	"switchwrapper/internal/analysis"
)

// PrepareResponse represents the response from a prepare run
type PrepareResponse struct {
	Status      string `json:"status"`
	Destination string `json:"destination"`
	Timepoints  int    `json:"timepoints"`
	Periods     []int  `json:"periods"`
}

// LaunchResponse represents the response from a solver run
type LaunchResponse struct {
	Status   string   `json:"status"`
	Folder   string   `json:"folder"`
	Args     []string `json:"args"`
	Duration float64  `json:"duration_seconds"`
	Output   string   `json:"output,omitempty"` // combined stdout/stderr, truncated
}

// ExtractResponse identifies a stored result and summarizes each period.
type ExtractResponse struct {
	ID        string                   `json:"id"`
	Source    string                   `json:"source"`
	CreatedAt time.Time                `json:"created_at"`
	ExpiresAt time.Time                `json:"expires_at"`
	Periods   []analysis.PeriodSummary `json:"periods"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
