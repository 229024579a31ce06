// Package reconcile turns parsed roadmap items into tasks, creating at most
// one task per project and title.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/trackr/internal/db"
	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
	"github.com/randalmurphal/trackr/internal/roadmap"
	"github.com/randalmurphal/trackr/internal/task"
)

// Store is the task persistence the engine needs. *db.DB satisfies it.
type Store interface {
	FindTaskByTitle(ctx context.Context, projectID int64, title string) (*db.Task, error)
	CreateTask(ctx context.Context, t *db.Task) (int64, error)
}

// ItemError records an item that could not be reconciled.
type ItemError struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Error string `json:"error"`
}

// Result summarizes one reconciliation run.
type Result struct {
	RunID string `json:"run_id"`
	// Created lists new task IDs in creation order.
	Created []int64 `json:"created"`
	// Total is the number of items submitted, including skipped ones.
	Total   int         `json:"total"`
	Skipped int         `json:"skipped"`
	Failed  []ItemError `json:"failed,omitempty"`
}

// Engine reconciles items against a Store.
type Engine struct {
	store  Store
	logger *slog.Logger
}

// New creates an engine. A nil logger uses slog.Default().
func New(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Reconcile creates a task for every item whose title has no task in the
// project yet. Items are handled in order and each creation is visible to the
// next lookup, so repeated titles in one batch yield one task. Per-item store
// errors are recorded in Result.Failed and do not stop the batch.
func (e *Engine) Reconcile(ctx context.Context, projectID int64, items []roadmap.Item) (*Result, error) {
	if projectID <= 0 {
		return nil, trackrerrors.ErrRequired("project_id")
	}

	res := &Result{
		RunID:   uuid.NewString(),
		Created: []int64{},
		Total:   len(items),
	}
	logger := e.logger.With("run_id", res.RunID, "project_id", projectID)
	start := time.Now()

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			res.Failed = append(res.Failed, ItemError{Index: i, Error: "empty title"})
			continue
		}

		existing, err := e.store.FindTaskByTitle(ctx, projectID, title)
		if err != nil {
			logger.Warn("lookup failed, skipping item", "index", i, "title", title, "error", err)
			res.Failed = append(res.Failed, ItemError{Index: i, Title: title, Error: err.Error()})
			continue
		}
		if existing != nil {
			res.Skipped++
			continue
		}

		id, err := e.store.CreateTask(ctx, newTask(projectID, title, item))
		if err != nil {
			logger.Warn("create failed, skipping item", "index", i, "title", title, "error", err)
			res.Failed = append(res.Failed, ItemError{Index: i, Title: title, Error: err.Error()})
			continue
		}
		res.Created = append(res.Created, id)
	}

	logger.Info("roadmap reconciled",
		"total", res.Total,
		"created", len(res.Created),
		"skipped", res.Skipped,
		"failed", len(res.Failed),
		"duration", time.Since(start),
	)
	return res, nil
}

func newTask(projectID int64, title string, item roadmap.Item) *db.Task {
	t := &db.Task{
		ProjectID: projectID,
		Title:     title,
		Status:    item.Status,
		Priority:  item.Priority,
	}
	if !task.IsValidStatus(t.Status) {
		t.Status = task.StatusTodo
	}
	if !task.IsValidPriority(t.Priority) {
		t.Priority = task.PriorityMedium
	}
	if due, ok := validDueDate(item.DueDate); ok {
		t.DueDate = &due
	}
	return t
}

// validDueDate re-validates a parsed due date by round-tripping it through
// the calendar date layout.
func validDueDate(d *time.Time) (time.Time, bool) {
	if d == nil || d.IsZero() {
		return time.Time{}, false
	}
	return task.ParseDueDate(d.Format(task.DateLayout))
}

// String renders a one-line summary.
func (r *Result) String() string {
	s := fmt.Sprintf("%d created, %d skipped of %d items", len(r.Created), r.Skipped, r.Total)
	if len(r.Failed) > 0 {
		s += fmt.Sprintf(", %d failed", len(r.Failed))
	}
	return s
}
