package crew

import "time"

// Request is one crew invocation.
type Request struct {
	// ID correlates logs and history; generated when empty.
	ID      string            `json:"id,omitempty"`
	Package string            `json:"package"`
	Crew    string            `json:"crew"`
	Input   string            `json:"input"`
	Timeout time.Duration     `json:"-"`
	Env     map[string]string `json:"env,omitempty"`
}

// Result is the caller-visible outcome of one invocation. Failures are data:
// Success is false and Category says what kind of failure it was.
type Result struct {
	Success    bool     `json:"success"`
	Output     string   `json:"output,omitempty"`
	Error      string   `json:"error,omitempty"`
	Category   Category `json:"error_category,omitempty"`
	ExitCode   *int     `json:"exit_code,omitempty"`
	DurationMs int64    `json:"duration_ms"`
}

// Err returns the result's failure as a categorized error, or nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Category: r.Category, Message: r.Error}
}

func failure(err error, elapsed time.Duration) Result {
	cat, ok := CategoryOf(err)
	if !ok {
		cat = CategorySubprocess
	}
	return Result{
		Success:    false,
		Error:      err.Error(),
		Category:   cat,
		DurationMs: elapsed.Milliseconds(),
	}
}
