// Package task defines the closed enumerations shared by tasks and projects.
package task

import (
	"fmt"
	"strings"
)

// Status represents the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// ValidStatuses returns all valid status values.
func ValidStatuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

// IsValidStatus returns true if the status is a valid status value.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// ParseStatus parses a status string. Empty input yields StatusTodo.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StatusTodo, nil
	}
	st := Status(s)
	if !IsValidStatus(st) {
		return "", fmt.Errorf("unknown status %q (want one of %s)", s, joinValues(ValidStatuses()))
	}
	return st, nil
}

// Priority represents the urgency/importance of a task or project.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ValidPriorities returns all valid priority values.
func ValidPriorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// IsValidPriority returns true if the priority is a valid priority value.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// ParsePriority parses a priority string. Empty input yields PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PriorityMedium, nil
	}
	p := Priority(s)
	if !IsValidPriority(p) {
		return "", fmt.Errorf("unknown priority %q (want one of %s)", s, joinValues(ValidPriorities()))
	}
	return p, nil
}

// PriorityOrder returns a numeric value for sorting (lower = higher priority).
func PriorityOrder(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// ProjectStatus represents the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectPlanned    ProjectStatus = "planned"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectDone       ProjectStatus = "done"
)

// ValidProjectStatuses returns all valid project status values.
func ValidProjectStatuses() []ProjectStatus {
	return []ProjectStatus{ProjectPlanned, ProjectInProgress, ProjectDone}
}

// IsValidProjectStatus returns true if the project status is valid.
func IsValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case ProjectPlanned, ProjectInProgress, ProjectDone:
		return true
	default:
		return false
	}
}

// ParseProjectStatus parses a project status string. Empty input yields ProjectPlanned.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ProjectPlanned, nil
	}
	ps := ProjectStatus(s)
	if !IsValidProjectStatus(ps) {
		return "", fmt.Errorf("unknown project status %q (want one of %s)", s, joinValues(ValidProjectStatuses()))
	}
	return ps, nil
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
