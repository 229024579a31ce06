package api

import (
	"net/http"

	"github.com/randalmurphal/trackr/internal/db"
	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
)

// handleGetBoard returns a project's board with its columns.
func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	projectID, err := requireQueryID(r, "project_id")
	if err != nil {
		HandleError(w, err)
		return
	}

	board, err := s.store.GetBoard(r.Context(), projectID)
	if err != nil {
		HandleError(w, err)
		return
	}
	if board == nil {
		HandleError(w, trackrerrors.ErrProjectNotFound(projectID))
		return
	}
	JSONResponse(w, board)
}

type createColumnRequest struct {
	ProjectID int64  `json:"project_id"`
	Name      string `json:"name"`
	WIPLimit  *int   `json:"wip_limit"`
}

// handleCreateColumn appends a column to a project's board.
func (s *Server) handleCreateColumn(w http.ResponseWriter, r *http.Request) {
	var req createColumnRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleError(w, err)
		return
	}
	if req.ProjectID <= 0 {
		HandleError(w, trackrerrors.ErrRequired("project_id"))
		return
	}
	if req.WIPLimit != nil && *req.WIPLimit < 0 {
		HandleError(w, trackrerrors.ErrInvalidInput("wip_limit", "must not be negative"))
		return
	}

	col, err := s.store.AddColumn(r.Context(), req.ProjectID, req.Name, req.WIPLimit)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponseStatus(w, col, http.StatusCreated)
}

type updateColumnRequest struct {
	Name       *string `json:"name"`
	OrderIndex *int    `json:"order_index"`
	WIPLimit   *int    `json:"wip_limit"`
}

// handleUpdateColumn renames, reorders or re-limits a column.
func (s *Server) handleUpdateColumn(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	var req updateColumnRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleError(w, err)
		return
	}

	col, err := s.store.UpdateColumn(r.Context(), id, db.ColumnUpdate{
		Name:       req.Name,
		OrderIndex: req.OrderIndex,
		WIPLimit:   req.WIPLimit,
	})
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, col)
}

// handleDeleteColumn removes a column; its tasks become unassigned.
func (s *Server) handleDeleteColumn(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleError(w, err)
		return
	}
	if err := s.store.DeleteColumn(r.Context(), id); err != nil {
		HandleError(w, err)
		return
	}
	NoContent(w)
}
