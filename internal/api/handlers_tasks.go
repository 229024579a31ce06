package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/randalmurphal/trackr/internal/db"
	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
	"github.com/randalmurphal/trackr/internal/task"
)

type taskRequest struct {
	ProjectID   *int64  `json:"project_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	// DueDate is YYYY-MM-DD; an empty string clears it.
	DueDate  *string `json:"due_date"`
	ColumnID *int64  `json:"kanban_column_id"`
}

func (req taskRequest) apply(t *db.Task) error {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	if req.Status != nil {
		t.Status = task.Status(*req.Status)
	}
	if req.Priority != nil {
		t.Priority = task.Priority(*req.Priority)
	}
	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			t.DueDate = nil
		} else {
			d, ok := task.ParseDueDate(*req.DueDate)
			if !ok {
				return trackrerrors.ErrInvalidInput("due_date", "expected a YYYY-MM-DD date")
			}
			t.DueDate = &d
		}
	}
	if req.ColumnID != nil {
		t.ColumnID = req.ColumnID
	}
	return nil
}

// handleListTasks returns tasks filtered by project_id, column_id, status and limit.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, err := queryInt64(r, "project_id")
	if err != nil {
		HandleError(w, err)
		return
	}
	columnID, err := queryInt64(r, "column_id")
	if err != nil {
		HandleError(w, err)
		return
	}
	limit, err := queryInt64(r, "limit")
	if err != nil {
		HandleError(w, err)
		return
	}

	tasks, err := s.store.ListTasks(r.Context(), db.ListTasksOpts{
		ProjectID: projectID,
		ColumnID:  columnID,
		Status:    task.Status(r.URL.Query().Get("status")),
		Limit:     int(limit),
	})
	if err != nil {
		HandleError(w, err)
		return
	}
	if tasks == nil {
		tasks = []db.Task{}
	}
	JSONResponse(w, tasks)
}

// handleCreateTask creates a task. ?column_id= places it when the body
// names no column.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleError(w, err)
		return
	}
	if req.ProjectID == nil || req.Title == nil {
		HandleError(w, trackrerrors.ErrRequired("project_id", "title"))
		return
	}

	t := &db.Task{ProjectID: *req.ProjectID}
	if err := req.apply(t); err != nil {
		HandleError(w, err)
		return
	}
	if t.ColumnID == nil {
		columnID, err := queryInt64(r, "column_id")
		if err != nil {
			HandleError(w, err)
			return
		}
		if columnID != 0 {
			t.ColumnID = &columnID
		}
	}
	if _, err := s.store.CreateTask(r.Context(), t); err != nil {
		HandleError(w, err)
		return
	}
	JSONResponseStatus(w, t, http.StatusCreated)
}

// handleUpdateTask changes the fields present in the body.
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleError(w, err)
		return
	}
	t, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}
	if t == nil {
		HandleError(w, trackrerrors.ErrTaskNotFound(id))
		return
	}

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleError(w, err)
		return
	}
	if req.ProjectID != nil && *req.ProjectID != t.ProjectID {
		HandleError(w, trackrerrors.ErrInvalidInput("project_id",
			"tasks cannot move between projects (task belongs to project "+strconv.FormatInt(t.ProjectID, 10)+")"))
		return
	}
	if err := req.apply(t); err != nil {
		HandleError(w, err)
		return
	}
	if err := s.store.UpdateTask(r.Context(), t); err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, t)
}

// handleDeleteTask removes a task.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleError(w, err)
		return
	}
	if err := s.store.DeleteTask(r.Context(), id); err != nil {
		HandleError(w, err)
		return
	}
	NoContent(w)
}
