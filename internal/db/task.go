package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
	"github.com/randalmurphal/trackr/internal/task"
)

// Task is a unit of work inside a project.
type Task struct {
	ID          int64         `json:"id"`
	ProjectID   int64         `json:"project_id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Status      task.Status   `json:"status"`
	Priority    task.Priority `json:"priority"`
	DueDate     *time.Time    `json:"due_date"`
	ColumnID    *int64        `json:"kanban_column_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ListTasksOpts filters ListTasks. Zero values match everything.
type ListTasksOpts struct {
	ProjectID int64
	ColumnID  int64
	Status    task.Status
	Limit     int
}

func (t *Task) applyDefaults() {
	if t.Status == "" {
		t.Status = task.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = task.PriorityMedium
	}
}

func validateTask(t *Task) error {
	if t.ProjectID == 0 {
		return trackrerrors.ErrRequired("project_id")
	}
	if errs := task.ValidateTask(t.Title, t.Status, t.Priority); errs.HasErrors() {
		return trackrerrors.ErrInvalidInput(errs[0].Field, errs.Error())
	}
	return nil
}

func dueDateValue(d *time.Time) sql.NullString {
	s := task.FormatDueDate(d)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// CreateTask inserts t and returns its ID. The write is committed before
// returning, so a following FindTaskByTitle sees it.
func (d *DB) CreateTask(ctx context.Context, t *Task) (int64, error) {
	t.applyDefaults()
	t.Title = strings.TrimSpace(t.Title)
	if err := validateTask(t); err != nil {
		return 0, err
	}

	exists, err := d.projectExists(ctx, t.ProjectID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, trackrerrors.ErrProjectNotFound(t.ProjectID)
	}
	if err := d.checkTaskColumn(ctx, t); err != nil {
		return 0, err
	}

	now := d.timestamp()
	if err := d.driver.QueryRow(ctx, `
		INSERT INTO tasks (project_id, title, description, status, priority, due_date, column_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, t.ProjectID, t.Title, nullString(t.Description), string(t.Status), string(t.Priority),
		dueDateValue(t.DueDate), nullInt64(t.ColumnID), now, now).Scan(&t.ID); err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	t.CreatedAt = parseTimestamp(now)
	t.UpdatedAt = t.CreatedAt
	return t.ID, nil
}

const taskColumns = `id, project_id, title, description, status, priority, due_date, column_id, created_at, updated_at`

// GetTask returns the task, or nil if it does not exist.
func (d *DB) GetTask(ctx context.Context, id int64) (*Task, error) {
	row := d.driver.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

// FindTaskByTitle returns the first task in the project whose title equals
// title exactly (after trimming), or nil when there is none.
func (d *DB) FindTaskByTitle(ctx context.Context, projectID int64, title string) (*Task, error) {
	row := d.driver.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE project_id = ? AND title = ?
		ORDER BY id
		LIMIT 1
	`, projectID, strings.TrimSpace(title))
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find task by title: %w", err)
	}
	return t, nil
}

// ListTasks returns tasks matching opts ordered by ID.
func (d *DB) ListTasks(ctx context.Context, opts ListTasksOpts) ([]Task, error) {
	var (
		where []string
		args  []any
	)
	if opts.ProjectID != 0 {
		where = append(where, "project_id = ?")
		args = append(args, opts.ProjectID)
	}
	if opts.ColumnID != 0 {
		where = append(where, "column_id = ?")
		args = append(args, opts.ColumnID)
	}
	if opts.Status != "" {
		if !task.IsValidStatus(opts.Status) {
			return nil, trackrerrors.ErrInvalidInput("status", fmt.Sprintf("unknown status %q", opts.Status))
		}
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := d.driver.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// UpdateTask overwrites the mutable fields of an existing task.
func (d *DB) UpdateTask(ctx context.Context, t *Task) error {
	t.applyDefaults()
	t.Title = strings.TrimSpace(t.Title)
	if err := validateTask(t); err != nil {
		return err
	}
	if err := d.checkTaskColumn(ctx, t); err != nil {
		return err
	}

	now := d.timestamp()
	res, err := d.driver.Exec(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, priority = ?, due_date = ?, column_id = ?, updated_at = ?
		WHERE id = ?
	`, t.Title, nullString(t.Description), string(t.Status), string(t.Priority),
		dueDateValue(t.DueDate), nullInt64(t.ColumnID), now, t.ID)
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	if err := requireAffected(res, trackrerrors.ErrTaskNotFound(t.ID)); err != nil {
		return err
	}
	t.UpdatedAt = parseTimestamp(now)
	return nil
}

// DeleteTask removes a task.
func (d *DB) DeleteTask(ctx context.Context, id int64) error {
	res, err := d.driver.Exec(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return requireAffected(res, trackrerrors.ErrTaskNotFound(id))
}

func (d *DB) projectExists(ctx context.Context, id int64) (bool, error) {
	var n int
	if err := d.driver.QueryRow(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("check project %d: %w", id, err)
	}
	return n > 0, nil
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		t                  Task
		description        sql.NullString
		status, priority   string
		dueDate            sql.NullString
		columnID           sql.NullInt64
		createdAt, updated string
	)
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &description, &status, &priority,
		&dueDate, &columnID, &createdAt, &updated); err != nil {
		return nil, err
	}

	if description.Valid {
		t.Description = &description.String
	}
	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)
	if dueDate.Valid {
		if d, ok := task.ParseDueDate(dueDate.String); ok {
			t.DueDate = &d
		}
	}
	if columnID.Valid {
		id := columnID.Int64
		t.ColumnID = &id
	}
	t.CreatedAt = parseTimestamp(createdAt)
	t.UpdatedAt = parseTimestamp(updated)
	return &t, nil
}

// checkTaskColumn requires t's column to exist on its own project's board.
func (d *DB) checkTaskColumn(ctx context.Context, t *Task) error {
	if t.ColumnID == nil {
		return nil
	}
	var projectID int64
	err := d.driver.QueryRow(ctx, `
		SELECT b.project_id FROM kanban_columns c
		JOIN kanban_boards b ON b.id = c.board_id
		WHERE c.id = ?
	`, *t.ColumnID).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return trackrerrors.ErrColumnNotFound(*t.ColumnID)
	}
	if err != nil {
		return fmt.Errorf("check column %d: %w", *t.ColumnID, err)
	}
	if projectID != t.ProjectID {
		return trackrerrors.ErrInvalidInput("kanban_column_id",
			fmt.Sprintf("column %d is on project %d's board, not project %d's", *t.ColumnID, projectID, t.ProjectID))
	}
	return nil
}
