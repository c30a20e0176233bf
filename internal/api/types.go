package api

import (
	"time"

	"github.com/mattjoyce/crewtool/internal/crew"
	"github.com/mattjoyce/crewtool/internal/history"
)

// InvokeRequest is the JSON body for POST /crews/{package}/{crew}/invoke
type InvokeRequest struct {
	Input     string            `json:"input"`
	TimeoutMs int64             `json:"timeout_ms,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
}

// InvokeResponse is the crew result plus the invocation id.
type InvokeResponse struct {
	ID string `json:"id"`
	crew.Result
}

// CrewListResponse is returned by GET /crews
type CrewListResponse struct {
	Crews []crew.Info `json:"crews"`
}

// HistoryResponse is returned by GET /history
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error    string        `json:"error"`
	Category crew.Category `json:"error_category,omitempty"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status         string `json:"status"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	MaxConcurrent  int    `json:"max_concurrent"`
	HistoryEnabled bool   `json:"history_enabled"`
}

// invocationEvent is the payload of invocation.* events on /events.
type invocationEvent struct {
	ID         string        `json:"id"`
	Package    string        `json:"package"`
	Crew       string        `json:"crew"`
	Success    *bool         `json:"success,omitempty"`
	Category   crew.Category `json:"error_category,omitempty"`
	DurationMs int64         `json:"duration_ms,omitempty"`
	At         time.Time     `json:"at"`
}
