package crew

import (
	"errors"
	"fmt"
)

// Category is the closed set of failure kinds attached to every failed
// invocation. Callers branch on it instead of matching message text.
type Category string

const (
	// CategoryConfig marks bad tool configuration.
	CategoryConfig Category = "config"
	// CategoryValidation marks a malformed request, caught before spawn.
	CategoryValidation Category = "validation"
	// CategorySubprocess marks spawn failures, signal failures and timeouts.
	CategorySubprocess Category = "subprocess"
	// CategoryNotInstalled marks a missing worker executable. It is a
	// subcategory of CategorySubprocess.
	CategoryNotInstalled Category = "not_installed"
	// CategoryCrew marks a worker that ran but did not succeed.
	CategoryCrew Category = "crew"
)

// Categories lists every category in a stable order.
var Categories = []Category{
	CategoryConfig,
	CategoryValidation,
	CategorySubprocess,
	CategoryNotInstalled,
	CategoryCrew,
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// IsSubprocess reports whether c is a process-boundary failure.
func (c Category) IsSubprocess() bool {
	return c == CategorySubprocess || c == CategoryNotInstalled
}

// Error is a categorized failure.
type Error struct {
	Category Category
	Message  string
	Err      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(category Category, cause error, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Err:      cause,
	}
}

// CategoryOf returns the category carried by err, if any.
func CategoryOf(err error) (Category, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Category, true
	}
	return "", false
}
