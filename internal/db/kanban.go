package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/trackr/internal/db/driver"
	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
)

// Board is a project's kanban board.
type Board struct {
	ID        int64    `json:"id"`
	ProjectID int64    `json:"project_id"`
	Columns   []Column `json:"columns"`
}

// Column is one lane of a board.
type Column struct {
	ID         int64  `json:"id"`
	BoardID    int64  `json:"board_id"`
	Name       string `json:"name"`
	OrderIndex int    `json:"order_index"`
	WIPLimit   *int   `json:"wip_limit"`
}

// ColumnUpdate holds the fields to change; nil fields are left as they are.
type ColumnUpdate struct {
	Name       *string
	OrderIndex *int
	WIPLimit   *int
}

// GetBoard returns the project's board with columns in display order,
// or nil if the project has no board.
func (d *DB) GetBoard(ctx context.Context, projectID int64) (*Board, error) {
	b := Board{ProjectID: projectID}
	err := d.driver.QueryRow(ctx, `SELECT id FROM kanban_boards WHERE project_id = ?`, projectID).Scan(&b.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get board for project %d: %w", projectID, err)
	}

	rows, err := d.driver.Query(ctx, `
		SELECT id, board_id, name, order_index, wip_limit
		FROM kanban_columns WHERE board_id = ?
		ORDER BY order_index, id
	`, b.ID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	b.Columns = []Column{}
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		b.Columns = append(b.Columns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &b, nil
}

// AddColumn appends a column to the project's board. Its order index is the
// number of columns already on the board.
func (d *DB) AddColumn(ctx context.Context, projectID int64, name string, wipLimit *int) (*Column, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, trackrerrors.ErrRequired("name")
	}

	c := Column{Name: name, WIPLimit: wipLimit}
	err := d.RunInTx(ctx, func(q driver.Querier) error {
		err := q.QueryRow(ctx, `SELECT id FROM kanban_boards WHERE project_id = ?`, projectID).Scan(&c.BoardID)
		if errors.Is(err, sql.ErrNoRows) {
			return trackrerrors.ErrProjectNotFound(projectID)
		}
		if err != nil {
			return fmt.Errorf("get board: %w", err)
		}

		if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM kanban_columns WHERE board_id = ?`, c.BoardID).Scan(&c.OrderIndex); err != nil {
			return fmt.Errorf("count columns: %w", err)
		}

		if err := q.QueryRow(ctx, `
			INSERT INTO kanban_columns (board_id, name, order_index, wip_limit)
			VALUES (?, ?, ?, ?)
			RETURNING id
		`, c.BoardID, c.Name, c.OrderIndex, nullInt(c.WIPLimit)).Scan(&c.ID); err != nil {
			return fmt.Errorf("insert column: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetColumn returns the column, or nil if it does not exist.
func (d *DB) GetColumn(ctx context.Context, id int64) (*Column, error) {
	row := d.driver.QueryRow(ctx, `SELECT id, board_id, name, order_index, wip_limit FROM kanban_columns WHERE id = ?`, id)
	c, err := scanColumn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get column %d: %w", id, err)
	}
	return c, nil
}

// UpdateColumn applies the non-nil fields of u and returns the result.
func (d *DB) UpdateColumn(ctx context.Context, id int64, u ColumnUpdate) (*Column, error) {
	c, err := d.GetColumn(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, trackrerrors.ErrColumnNotFound(id)
	}

	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return nil, trackrerrors.ErrInvalidInput("name", "must not be empty")
		}
		c.Name = name
	}
	if u.OrderIndex != nil {
		c.OrderIndex = *u.OrderIndex
	}
	if u.WIPLimit != nil {
		if *u.WIPLimit < 0 {
			return nil, trackrerrors.ErrInvalidInput("wip_limit", "must not be negative")
		}
		c.WIPLimit = u.WIPLimit
	}

	if _, err := d.driver.Exec(ctx, `
		UPDATE kanban_columns SET name = ?, order_index = ?, wip_limit = ? WHERE id = ?
	`, c.Name, c.OrderIndex, nullInt(c.WIPLimit), id); err != nil {
		return nil, fmt.Errorf("update column %d: %w", id, err)
	}
	return c, nil
}

// DeleteColumn removes a column. Tasks in it lose their column.
func (d *DB) DeleteColumn(ctx context.Context, id int64) error {
	return d.RunInTx(ctx, func(q driver.Querier) error {
		if _, err := q.Exec(ctx, `UPDATE tasks SET column_id = NULL WHERE column_id = ?`, id); err != nil {
			return fmt.Errorf("detach tasks from column %d: %w", id, err)
		}
		res, err := q.Exec(ctx, `DELETE FROM kanban_columns WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete column %d: %w", id, err)
		}
		return requireAffected(res, trackrerrors.ErrColumnNotFound(id))
	})
}

func scanColumn(row rowScanner) (*Column, error) {
	var (
		c   Column
		wip sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.BoardID, &c.Name, &c.OrderIndex, &wip); err != nil {
		return nil, err
	}
	if wip.Valid {
		v := int(wip.Int64)
		c.WIPLimit = &v
	}
	return &c, nil
}
