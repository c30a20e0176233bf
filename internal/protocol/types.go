package protocol

import "encoding/json"

// Response is the optional JSON object a crew worker writes to stdout on exit.
// All fields are optional; absent fields leave the supervisor's own
// measurements in place.
type Response struct {
	Success    *bool           `json:"success,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs *float64        `json:"duration_ms,omitempty"`
}

// Parsed is the interpretation of a worker's stdout.
type Parsed struct {
	// Structured reports whether stdout decoded as a JSON object.
	Structured bool
	Success    bool
	Output     string
	Error      string
	// DurationMs is the worker-reported duration, if any.
	DurationMs *int64
}
