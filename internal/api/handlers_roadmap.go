package api

import (
	"context"
	"net/http"

	"github.com/randalmurphal/trackr/internal/importer"
)

type importRoadmapRequest struct {
	ProjectID int64  `json:"project_id"`
	Markdown  string `json:"markdown"`
}

// handleImportRoadmap reconciles posted markdown into a project's tasks.
func (s *Server) handleImportRoadmap(w http.ResponseWriter, r *http.Request) {
	var req importRoadmapRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleError(w, err)
		return
	}

	res, err := s.importer.ImportMarkdown(r.Context(), req.ProjectID, req.Markdown)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, res)
}

// handleSyncRoadmap reconciles the project's roadmap file.
func (s *Server) handleSyncRoadmap(w http.ResponseWriter, r *http.Request) {
	s.runSync(w, r, s.importer.SyncFile)
}

// handleSmartSync reconciles the project's roadmap file, normalizing prose.
func (s *Server) handleSmartSync(w http.ResponseWriter, r *http.Request) {
	s.runSync(w, r, s.importer.SmartSync)
}

func (s *Server) runSync(w http.ResponseWriter, r *http.Request, sync func(context.Context, int64) (*importer.SyncResult, error)) {
	projectID, err := requireQueryID(r, "project_id")
	if err != nil {
		HandleError(w, err)
		return
	}

	res, err := sync(r.Context(), projectID)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, res)
}

// handleGenerateRoadmap drafts a roadmap from an idea or reformats raw text.
func (s *Server) handleGenerateRoadmap(w http.ResponseWriter, r *http.Request) {
	var req importer.GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleError(w, err)
		return
	}

	out, err := s.importer.Generate(r.Context(), req)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, out)
}

// handleGetTemplate returns the checklist dialect template.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, map[string]string{"template": s.importer.Template()})
}
