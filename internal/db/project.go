package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/trackr/internal/db/driver"
	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
	"github.com/randalmurphal/trackr/internal/task"
)

// DefaultColumns are created on every new project board, in order.
var DefaultColumns = []string{"To do", "In progress", "Done"}

// Project is a unit of planned work owning tasks and a kanban board.
type Project struct {
	ID              int64              `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Status          task.ProjectStatus `json:"status"`
	Priority        task.Priority      `json:"priority"`
	ProgressPercent int                `json:"progress_percent"`
	RoadmapPath     string             `json:"roadmap_path,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func (p *Project) applyDefaults() {
	if p.Status == "" {
		p.Status = task.ProjectPlanned
	}
	if p.Priority == "" {
		p.Priority = task.PriorityMedium
	}
}

func validateProject(p *Project) error {
	if errs := task.ValidateProject(p.Title, p.Status, p.Priority, p.ProgressPercent); errs.HasErrors() {
		return trackrerrors.ErrInvalidInput(errs[0].Field, errs.Error())
	}
	return nil
}

// CreateProject inserts the project together with its board and default columns.
// p.ID and the timestamps are set on success.
func (d *DB) CreateProject(ctx context.Context, p *Project) (int64, error) {
	p.applyDefaults()
	if err := validateProject(p); err != nil {
		return 0, err
	}

	now := d.timestamp()
	err := d.RunInTx(ctx, func(q driver.Querier) error {
		if err := q.QueryRow(ctx, `
			INSERT INTO projects (title, description, status, priority, progress_percent, roadmap_path, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`, p.Title, p.Description, string(p.Status), string(p.Priority), p.ProgressPercent, p.RoadmapPath, now, now).Scan(&p.ID); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}

		var boardID int64
		if err := q.QueryRow(ctx, `INSERT INTO kanban_boards (project_id) VALUES (?) RETURNING id`, p.ID).Scan(&boardID); err != nil {
			return fmt.Errorf("insert board: %w", err)
		}

		for i, name := range DefaultColumns {
			if _, err := q.Exec(ctx, `INSERT INTO kanban_columns (board_id, name, order_index) VALUES (?, ?, ?)`, boardID, name, i); err != nil {
				return fmt.Errorf("insert column %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	p.CreatedAt = parseTimestamp(now)
	p.UpdatedAt = p.CreatedAt
	return p.ID, nil
}

const projectColumns = `id, title, description, status, priority, progress_percent, roadmap_path, created_at, updated_at`

// GetProject returns the project, or nil if it does not exist.
func (d *DB) GetProject(ctx context.Context, id int64) (*Project, error) {
	row := d.driver.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return p, nil
}

// ListProjects returns all projects ordered by ID.
func (d *DB) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := d.driver.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// UpdateProject overwrites the mutable fields of an existing project.
func (d *DB) UpdateProject(ctx context.Context, p *Project) error {
	p.applyDefaults()
	if err := validateProject(p); err != nil {
		return err
	}

	now := d.timestamp()
	res, err := d.driver.Exec(ctx, `
		UPDATE projects
		SET title = ?, description = ?, status = ?, priority = ?, progress_percent = ?, roadmap_path = ?, updated_at = ?
		WHERE id = ?
	`, p.Title, p.Description, string(p.Status), string(p.Priority), p.ProgressPercent, p.RoadmapPath, now, p.ID)
	if err != nil {
		return fmt.Errorf("update project %d: %w", p.ID, err)
	}
	if err := requireAffected(res, trackrerrors.ErrProjectNotFound(p.ID)); err != nil {
		return err
	}
	p.UpdatedAt = parseTimestamp(now)
	return nil
}

// SetProjectRoadmapPath records where the project's roadmap lives.
func (d *DB) SetProjectRoadmapPath(ctx context.Context, id int64, path string) error {
	res, err := d.driver.Exec(ctx, `UPDATE projects SET roadmap_path = ?, updated_at = ? WHERE id = ?`, path, d.timestamp(), id)
	if err != nil {
		return fmt.Errorf("set roadmap path for project %d: %w", id, err)
	}
	return requireAffected(res, trackrerrors.ErrProjectNotFound(id))
}

// DeleteProject removes the project with its tasks and board.
func (d *DB) DeleteProject(ctx context.Context, id int64) error {
	res, err := d.driver.Exec(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	return requireAffected(res, trackrerrors.ErrProjectNotFound(id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var (
		p                  Project
		status, priority   string
		createdAt, updated string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &status, &priority,
		&p.ProgressPercent, &p.RoadmapPath, &createdAt, &updated); err != nil {
		return nil, err
	}
	p.Status = task.ProjectStatus(status)
	p.Priority = task.Priority(priority)
	p.CreatedAt = parseTimestamp(createdAt)
	p.UpdatedAt = parseTimestamp(updated)
	return &p, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
