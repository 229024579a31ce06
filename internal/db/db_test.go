package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/trackr/internal/db/driver"
	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
	"github.com/randalmurphal/trackr/internal/task"
)

func createProject(t *testing.T, d *DB, title string) *Project {
	t.Helper()
	p := &Project{Title: title}
	_, err := d.CreateProject(context.Background(), p)
	require.NoError(t, err)
	return p
}

func ptr[T any](v T) *T { return &v }

func TestOpenFileDatabaseCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "trackr.db")

	d, err := Open(context.Background(), driver.DialectSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	assert.Equal(t, path, d.Path())
	assert.Equal(t, driver.DialectSQLite, d.Dialect())
	assert.FileExists(t, path)
	require.NoError(t, d.Ping(context.Background()))
}

func TestReopenSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackr.db")
	ctx := context.Background()

	d, err := Open(ctx, driver.DialectSQLite, path)
	require.NoError(t, err)
	createProject(t, d, "persisted")
	require.NoError(t, d.Close())

	d, err = Open(ctx, driver.DialectSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	projects, err := d.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "persisted", projects[0].Title)
}

func TestCreateProjectDefaults(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	p := createProject(t, d, "Website")
	assert.NotZero(t, p.ID)
	assert.Equal(t, task.ProjectPlanned, p.Status)
	assert.Equal(t, task.PriorityMedium, p.Priority)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := d.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Website", got.Title)
	assert.Equal(t, p.CreatedAt, got.CreatedAt)

	board, err := d.GetBoard(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, board)
	require.Len(t, board.Columns, 3)
	for i, name := range DefaultColumns {
		assert.Equal(t, name, board.Columns[i].Name)
		assert.Equal(t, i, board.Columns[i].OrderIndex)
	}
}

func TestCreateProjectRejectsInvalid(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	_, err := d.CreateProject(ctx, &Project{Title: ""})
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeInvalidInput))

	_, err = d.CreateProject(ctx, &Project{Title: "x", Status: "archived"})
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeInvalidInput))

	_, err = d.CreateProject(ctx, &Project{Title: "x", ProgressPercent: 101})
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeInvalidInput))
}

func TestGetProjectMissingReturnsNil(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)

	p, err := d.GetProject(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestUpdateProject(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	p := createProject(t, d, "Old")
	p.Title = "New"
	p.Status = task.ProjectInProgress
	p.ProgressPercent = 40
	p.RoadmapPath = "docs/roadmap.md"
	require.NoError(t, d.UpdateProject(ctx, p))

	got, err := d.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, task.ProjectInProgress, got.Status)
	assert.Equal(t, 40, got.ProgressPercent)
	assert.Equal(t, "docs/roadmap.md", got.RoadmapPath)

	err = d.UpdateProject(ctx, &Project{ID: 999, Title: "ghost"})
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeProjectNotFound))
}

func TestSetProjectRoadmapPath(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	p := createProject(t, d, "P")
	require.NoError(t, d.SetProjectRoadmapPath(ctx, p.ID, "ROADMAP.md"))

	got, err := d.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "ROADMAP.md", got.RoadmapPath)

	err = d.SetProjectRoadmapPath(ctx, 999, "x")
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeProjectNotFound))
}

func TestDeleteProjectCascades(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	p := createProject(t, d, "Doomed")
	_, err := d.CreateTask(ctx, &Task{ProjectID: p.ID, Title: "child"})
	require.NoError(t, err)

	require.NoError(t, d.DeleteProject(ctx, p.ID))

	tasks, err := d.ListTasks(ctx, ListTasksOpts{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Empty(t, tasks)

	board, err := d.GetBoard(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, board)

	err = d.DeleteProject(ctx, p.ID)
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeProjectNotFound))
}

func TestCreateAndGetTask(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()
	p := createProject(t, d, "P")

	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	in := &Task{
		ProjectID:   p.ID,
		Title:       "  Write docs  ",
		Description: ptr("all of them"),
		Priority:    task.PriorityHigh,
		DueDate:     &due,
	}
	id, err := d.CreateTask(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, id, in.ID)

	got, err := d.GetTask(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Write docs", got.Title)
	assert.Equal(t, task.StatusTodo, got.Status)
	assert.Equal(t, task.PriorityHigh, got.Priority)
	require.NotNil(t, got.Description)
	assert.Equal(t, "all of them", *got.Description)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
	assert.Nil(t, got.ColumnID)

	missing, err := d.GetTask(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCreateTaskValidation(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()
	p := createProject(t, d, "P")

	tests := []struct {
		name string
		task *Task
		code trackrerrors.Code
	}{
		{"missing project id", &Task{Title: "x"}, trackrerrors.CodeInvalidInput},
		{"empty title", &Task{ProjectID: p.ID, Title: "  "}, trackrerrors.CodeInvalidInput},
		{"bad status", &Task{ProjectID: p.ID, Title: "x", Status: "blocked"}, trackrerrors.CodeInvalidInput},
		{"bad priority", &Task{ProjectID: p.ID, Title: "x", Priority: "urgent"}, trackrerrors.CodeInvalidInput},
		{"unknown project", &Task{ProjectID: 999, Title: "x"}, trackrerrors.CodeProjectNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.CreateTask(ctx, tt.task)
			require.Error(t, err)
			assert.True(t, trackrerrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestFindTaskByTitle(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()
	p1 := createProject(t, d, "P1")
	p2 := createProject(t, d, "P2")

	id, err := d.CreateTask(ctx, &Task{ProjectID: p1.ID, Title: "Ship it"})
	require.NoError(t, err)

	found, err := d.FindTaskByTitle(ctx, p1.ID, " Ship it ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, id, found.ID)

	// Exact, case-sensitive match within the project only.
	none, err := d.FindTaskByTitle(ctx, p1.ID, "ship it")
	require.NoError(t, err)
	assert.Nil(t, none)

	other, err := d.FindTaskByTitle(ctx, p2.ID, "Ship it")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestListTasksFilters(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()
	p := createProject(t, d, "P")
	other := createProject(t, d, "Other")
	board, err := d.GetBoard(ctx, p.ID)
	require.NoError(t, err)
	col := board.Columns[1].ID

	for _, in := range []*Task{
		{ProjectID: p.ID, Title: "a"},
		{ProjectID: p.ID, Title: "b", Status: task.StatusDone},
		{ProjectID: p.ID, Title: "c", ColumnID: &col},
		{ProjectID: other.ID, Title: "d"},
	} {
		_, err := d.CreateTask(ctx, in)
		require.NoError(t, err)
	}

	all, err := d.ListTasks(ctx, ListTasksOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	byProject, err := d.ListTasks(ctx, ListTasksOpts{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Len(t, byProject, 3)

	done, err := d.ListTasks(ctx, ListTasksOpts{ProjectID: p.ID, Status: task.StatusDone})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "b", done[0].Title)

	inColumn, err := d.ListTasks(ctx, ListTasksOpts{ColumnID: col})
	require.NoError(t, err)
	require.Len(t, inColumn, 1)
	assert.Equal(t, "c", inColumn[0].Title)

	limited, err := d.ListTasks(ctx, ListTasksOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = d.ListTasks(ctx, ListTasksOpts{Status: "blocked"})
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeInvalidInput))
}

func TestUpdateAndDeleteTask(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()
	p := createProject(t, d, "P")

	in := &Task{ProjectID: p.ID, Title: "draft"}
	_, err := d.CreateTask(ctx, in)
	require.NoError(t, err)

	in.Title = "final"
	in.Status = task.StatusInProgress
	require.NoError(t, d.UpdateTask(ctx, in))

	got, err := d.GetTask(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
	assert.Equal(t, task.StatusInProgress, got.Status)

	in.Status = "paused"
	err = d.UpdateTask(ctx, in)
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeInvalidInput))

	require.NoError(t, d.DeleteTask(ctx, in.ID))
	err = d.DeleteTask(ctx, in.ID)
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeTaskNotFound))

	err = d.UpdateTask(ctx, &Task{ID: 999, ProjectID: p.ID, Title: "ghost"})
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeTaskNotFound))
}

func TestKanbanColumns(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()
	p := createProject(t, d, "P")

	col, err := d.AddColumn(ctx, p.ID, "Review", ptr(2))
	require.NoError(t, err)
	assert.Equal(t, 3, col.OrderIndex)
	require.NotNil(t, col.WIPLimit)
	assert.Equal(t, 2, *col.WIPLimit)

	updated, err := d.UpdateColumn(ctx, col.ID, ColumnUpdate{Name: ptr("QA"), OrderIndex: ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, "QA", updated.Name)
	assert.Equal(t, 0, updated.OrderIndex)
	assert.Equal(t, 2, *updated.WIPLimit)

	board, err := d.GetBoard(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, board.Columns, 4)
	assert.Equal(t, "To do", board.Columns[0].Name)
	assert.Equal(t, "QA", board.Columns[1].Name)

	_, err = d.AddColumn(ctx, p.ID, " ", nil)
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeInvalidInput))

	_, err = d.AddColumn(ctx, 999, "x", nil)
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeProjectNotFound))

	_, err = d.UpdateColumn(ctx, 999, ColumnUpdate{Name: ptr("x")})
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeColumnNotFound))

	_, err = d.UpdateColumn(ctx, col.ID, ColumnUpdate{WIPLimit: ptr(-1)})
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeInvalidInput))
}

func TestDeleteColumnDetachesTasks(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()
	p := createProject(t, d, "P")
	board, err := d.GetBoard(ctx, p.ID)
	require.NoError(t, err)
	colID := board.Columns[0].ID

	id, err := d.CreateTask(ctx, &Task{ProjectID: p.ID, Title: "in column", ColumnID: &colID})
	require.NoError(t, err)

	require.NoError(t, d.DeleteColumn(ctx, colID))

	got, err := d.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.ColumnID)

	err = d.DeleteColumn(ctx, colID)
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeColumnNotFound))
}

func TestFileDatabaseCascadesOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, driver.DialectSQLite, filepath.Join(t.TempDir(), "trackr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	p := createProject(t, d, "Doomed")
	board, err := d.GetBoard(ctx, p.ID)
	require.NoError(t, err)
	colID := board.Columns[0].ID
	keep := createProject(t, d, "Kept")
	_, err = d.CreateTask(ctx, &Task{ProjectID: p.ID, Title: "child"})
	require.NoError(t, err)

	// Hold a pooled connection so the deletes below run on another one.
	held, err := d.SQL().Conn(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = held.Close() })

	fresh, err := d.SQL().Conn(ctx)
	require.NoError(t, err)
	var fk int
	require.NoError(t, fresh.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
	require.NoError(t, fresh.Close())

	keepBoard, err := d.GetBoard(ctx, keep.ID)
	require.NoError(t, err)
	keepCol := keepBoard.Columns[0].ID
	inCol, err := d.CreateTask(ctx, &Task{ProjectID: keep.ID, Title: "in column", ColumnID: &keepCol})
	require.NoError(t, err)
	require.NoError(t, d.DeleteColumn(ctx, keepCol))
	got, err := d.GetTask(ctx, inCol)
	require.NoError(t, err)
	assert.Nil(t, got.ColumnID)

	require.NoError(t, d.DeleteProject(ctx, p.ID))

	var orphans int
	require.NoError(t, d.SQL().QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks WHERE project_id = ?", p.ID).Scan(&orphans))
	assert.Zero(t, orphans)
	col, err := d.GetColumn(ctx, colID)
	require.NoError(t, err)
	assert.Nil(t, col)
}

func TestTaskColumnMustBelongToProject(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()
	p := createProject(t, d, "P")
	other := createProject(t, d, "Other")
	otherBoard, err := d.GetBoard(ctx, other.ID)
	require.NoError(t, err)
	foreign := otherBoard.Columns[0].ID

	_, err = d.CreateTask(ctx, &Task{ProjectID: p.ID, Title: "wrong lane", ColumnID: &foreign})
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeInvalidInput))

	_, err = d.CreateTask(ctx, &Task{ProjectID: p.ID, Title: "no lane", ColumnID: ptr(int64(999))})
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeColumnNotFound))

	tk := &Task{ProjectID: p.ID, Title: "movable"}
	_, err = d.CreateTask(ctx, tk)
	require.NoError(t, err)
	tk.ColumnID = &foreign
	err = d.UpdateTask(ctx, tk)
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeInvalidInput))

	got, err := d.GetTask(ctx, tk.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ColumnID)
}
