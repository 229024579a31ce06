package api

import (
	"net/http"

	"github.com/randalmurphal/trackr/internal/db"
	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
	"github.com/randalmurphal/trackr/internal/roadmap"
	"github.com/randalmurphal/trackr/internal/task"
)

type projectRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Status          *string `json:"status"`
	Priority        *string `json:"priority"`
	ProgressPercent *int    `json:"progress_percent"`
	RoadmapPath     *string `json:"roadmap_path"`
}

// apply copies the fields present in the request onto p.
func (req projectRequest) apply(p *db.Project) {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Status != nil {
		p.Status = task.ProjectStatus(*req.Status)
	}
	if req.Priority != nil {
		p.Priority = task.Priority(*req.Priority)
	}
	if req.ProgressPercent != nil {
		p.ProgressPercent = *req.ProgressPercent
	}
	if req.RoadmapPath != nil {
		p.RoadmapPath = *req.RoadmapPath
	}
}

// handleListProjects returns all projects.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}
	// Ensure we return an empty array, not null
	if projects == nil {
		projects = []db.Project{}
	}
	JSONResponse(w, projects)
}

// handleCreateProject creates a project with its default board.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleError(w, err)
		return
	}
	if req.Title == nil {
		HandleError(w, trackrerrors.ErrRequired("title"))
		return
	}

	p := &db.Project{}
	req.apply(p)
	if _, err := s.store.CreateProject(r.Context(), p); err != nil {
		HandleError(w, err)
		return
	}
	JSONResponseStatus(w, p, http.StatusCreated)
}

// handleGetProject returns a single project.
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.loadProject(r)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, p)
}

// handleUpdateProject changes the fields present in the body.
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.loadProject(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleError(w, err)
		return
	}
	req.apply(p)

	if err := s.store.UpdateProject(r.Context(), p); err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, p)
}

// handleDeleteProject removes a project with its tasks and board.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleError(w, err)
		return
	}
	if err := s.store.DeleteProject(r.Context(), id); err != nil {
		HandleError(w, err)
		return
	}
	NoContent(w)
}

type detectResponse struct {
	Root       string              `json:"root"`
	Best       string              `json:"best,omitempty"`
	Candidates []roadmap.Candidate `json:"candidates"`
}

// handleDetectRoadmap lists roadmap candidates for a project.
// With ?set=true the best one becomes the project's roadmap path.
func (s *Server) handleDetectRoadmap(w http.ResponseWriter, r *http.Request) {
	p, err := s.loadProject(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	root := s.importer.DetectRoot(r.URL.Query().Get("root"))
	candidates, err := s.importer.Detect(root)
	if err != nil {
		HandleError(w, err)
		return
	}

	if candidates == nil {
		candidates = []roadmap.Candidate{}
	}
	resp := detectResponse{Root: root, Candidates: candidates}
	if len(candidates) > 0 {
		resp.Best = candidates[0].Path
	}

	if r.URL.Query().Get("set") == "true" {
		if _, err := s.importer.AdoptBest(r.Context(), p.ID, root); err != nil {
			HandleError(w, err)
			return
		}
	}
	JSONResponse(w, resp)
}

func (s *Server) loadProject(r *http.Request) (*db.Project, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	p, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, trackrerrors.ErrProjectNotFound(id)
	}
	return p, nil
}
