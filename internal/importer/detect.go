package importer

import (
	"context"

	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
	"github.com/randalmurphal/trackr/internal/roadmap"
)

// DetectRoot picks the detection root: the argument, else the configured
// search root, else the working directory.
func (s *Service) DetectRoot(root string) string {
	if root != "" {
		return root
	}
	if s.cfg.Roadmap.SearchRoot != "" {
		return s.cfg.Roadmap.SearchRoot
	}
	return s.cfg.WorkDir
}

// Detect ranks roadmap candidates under root (see DetectRoot).
func (s *Service) Detect(root string) ([]roadmap.Candidate, error) {
	return roadmap.LocateCandidates(s.DetectRoot(root))
}

// AdoptBest detects candidates and stores the best one as the project's
// roadmap path. It returns the adopted path.
func (s *Service) AdoptBest(ctx context.Context, projectID int64, root string) (string, error) {
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return "", err
	}

	resolved := s.DetectRoot(root)
	candidates, err := roadmap.LocateCandidates(resolved)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", trackrerrors.ErrRoadmapNotFound(resolved)
	}

	best := candidates[0].Path
	if err := s.store.SetProjectRoadmapPath(ctx, projectID, best); err != nil {
		return "", err
	}
	s.logger.Info("roadmap path set", "project_id", projectID, "path", best, "score", candidates[0].Score)
	return best, nil
}
