package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// DecodeResponse strictly decodes a worker response object from data.
// It fails when data is empty, is not valid JSON, or is not a JSON object.
func DecodeResponse(data []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("worker produced no output on stdout")
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("worker output is not a JSON object")
	}

	var resp Response
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("worker output is not valid JSON: %w", err)
	}
	return &resp, nil
}

// ParseResponse interprets stdout from a worker that exited successfully.
// A JSON object populates the result; anything else falls back to the
// trimmed text as output with Success=true. Decode failures are never errors.
func ParseResponse(stdout []byte) Parsed {
	resp, err := DecodeResponse(stdout)
	if err != nil {
		return Parsed{
			Success: true,
			Output:  strings.TrimSpace(string(stdout)),
		}
	}

	p := Parsed{
		Structured: true,
		Success:    true,
		Output:     outputText(resp.Output),
		Error:      resp.Error,
	}
	if resp.Success != nil {
		p.Success = *resp.Success
	}
	if resp.DurationMs != nil && validDurationMs(*resp.DurationMs) {
		d := int64(math.Round(*resp.DurationMs))
		p.DurationMs = &d
	}
	return p
}

// validDurationMs reports whether a worker-reported duration fits a
// non-negative int64. Anything else is ignored and the measured duration kept.
func validDurationMs(ms float64) bool {
	return ms >= 0 && ms < math.MaxInt64 && !math.IsInf(ms, 0) && !math.IsNaN(ms)
}

// outputText renders the output field: JSON strings are unquoted, other
// values are kept as compact JSON.
func outputText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
