package task

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date layout used for due dates.
const DateLayout = "2006-01-02"

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error returns a combined error message.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// ToError returns an error if there are validation errors, nil otherwise.
func (e ValidationErrors) ToError() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// ValidateTask checks the enum fields and title of a task record.
func ValidateTask(title string, status Status, priority Priority) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(title) == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "must not be empty"})
	}
	if !IsValidStatus(status) {
		errs = append(errs, ValidationError{
			Field:   "status",
			Value:   string(status),
			Message: "invalid status",
		})
	}
	if !IsValidPriority(priority) {
		errs = append(errs, ValidationError{
			Field:   "priority",
			Value:   string(priority),
			Message: "invalid priority",
		})
	}

	return errs
}

// ValidateProject checks the enum fields and title of a project record.
func ValidateProject(title string, status ProjectStatus, priority Priority, progress int) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(title) == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "must not be empty"})
	}
	if !IsValidProjectStatus(status) {
		errs = append(errs, ValidationError{
			Field:   "status",
			Value:   string(status),
			Message: "invalid project status",
		})
	}
	if !IsValidPriority(priority) {
		errs = append(errs, ValidationError{
			Field:   "priority",
			Value:   string(priority),
			Message: "invalid priority",
		})
	}
	if progress < 0 || progress > 100 {
		errs = append(errs, ValidationError{
			Field:   "progress_percent",
			Value:   fmt.Sprint(progress),
			Message: "must be between 0 and 100",
		})
	}

	return errs
}

// ParseDueDate parses a calendar date. The second return is false for
// empty or invalid input; callers drop the due date in that case.
func ParseDueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	// Accept full timestamps too; only the date part is kept.
	if len(s) > len(DateLayout) {
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			y, m, d := ts.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// FormatDueDate formats a due date for storage and display. Nil yields "".
func FormatDueDate(d *time.Time) string {
	if d == nil || d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}
