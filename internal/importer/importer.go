// Package importer runs the roadmap pipeline: read or receive markdown,
// normalize it into items and reconcile them into a project's tasks.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/randalmurphal/trackr/internal/config"
	"github.com/randalmurphal/trackr/internal/db"
	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
	"github.com/randalmurphal/trackr/internal/reconcile"
	"github.com/randalmurphal/trackr/internal/roadmap"
)

// Store is the persistence the pipeline needs. *db.DB satisfies it.
type Store interface {
	reconcile.Store
	GetProject(ctx context.Context, id int64) (*db.Project, error)
	SetProjectRoadmapPath(ctx context.Context, id int64, path string) error
}

// Config configures a Service.
type Config struct {
	Roadmap config.RoadmapConfig
	// WorkDir anchors the default roadmap.md and detection root.
	WorkDir string
	// Completer may be nil; normalization then uses the local fallback.
	Completer roadmap.Completer
	// Provider names the completer in Generate results.
	Provider string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// Service runs roadmap imports and syncs.
type Service struct {
	store   Store
	engine  *reconcile.Engine
	cfg     Config
	logger  *slog.Logger
	flights singleflight.Group
}

// SyncResult is a reconcile result plus where the items came from.
type SyncResult struct {
	*reconcile.Result
	Path   string         `json:"path,omitempty"`
	Source roadmap.Source `json:"source"`
}

// New creates a Service.
func New(store Store, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	return &Service{
		store:  store,
		engine: reconcile.New(store, logger),
		cfg:    cfg,
		logger: logger,
	}
}

// ImportMarkdown parses markdown and reconciles it into the project.
// Unparseable text is not sent for normalization.
func (s *Service) ImportMarkdown(ctx context.Context, projectID int64, markdown string) (*SyncResult, error) {
	if projectID <= 0 || strings.TrimSpace(markdown) == "" {
		return nil, trackrerrors.ErrRequired("project_id", "markdown")
	}
	if _, err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}

	res, err := s.engine.Reconcile(ctx, projectID, roadmap.Parse(markdown))
	if err != nil {
		return nil, err
	}
	return &SyncResult{Result: res, Source: roadmap.SourceParsed}, nil
}

// SyncFile reads the project's roadmap file and reconciles it.
func (s *Service) SyncFile(ctx context.Context, projectID int64) (*SyncResult, error) {
	path, content, err := s.readRoadmap(ctx, projectID)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Reconcile(ctx, projectID, roadmap.Parse(content))
	if err != nil {
		return nil, err
	}
	return &SyncResult{Result: res, Path: path, Source: roadmap.SourceParsed}, nil
}

// SmartSync is SyncFile with normalization for files that do not parse.
// Concurrent calls for one project share a single run. The run is not
// tied to any one caller; a caller whose ctx ends stops waiting for it.
func (s *Service) SmartSync(ctx context.Context, projectID int64) (*SyncResult, error) {
	ch := s.flights.DoChan(strconv.FormatInt(projectID, 10), func() (any, error) {
		return s.smartSync(context.WithoutCancel(ctx), projectID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Shared {
			s.logger.Debug("smart sync coalesced", "project_id", projectID)
		}
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*SyncResult), nil
	}
}

func (s *Service) smartSync(ctx context.Context, projectID int64) (*SyncResult, error) {
	path, content, err := s.readRoadmap(ctx, projectID)
	if err != nil {
		return nil, err
	}

	normalized := s.normalizer().NormalizeDetailed(ctx, content)
	s.logger.Info("roadmap normalized",
		"project_id", projectID,
		"path", path,
		"source", normalized.Source,
		"items", len(normalized.Items),
	)

	res, err := s.engine.Reconcile(ctx, projectID, normalized.Items)
	if err != nil {
		return nil, err
	}
	return &SyncResult{Result: res, Path: path, Source: normalized.Source}, nil
}

// ResolveRoadmapPath returns the roadmap file for a project: its own path,
// else the configured default, else roadmap.md in the working directory.
func (s *Service) ResolveRoadmapPath(p *db.Project) string {
	if p != nil && p.RoadmapPath != "" {
		return p.RoadmapPath
	}
	if s.cfg.Roadmap.Path != "" {
		return s.cfg.Roadmap.Path
	}
	return filepath.Join(s.cfg.WorkDir, config.DefaultRoadmapFile)
}

func (s *Service) readRoadmap(ctx context.Context, projectID int64) (string, string, error) {
	if projectID <= 0 {
		return "", "", trackrerrors.ErrRequired("project_id")
	}
	p, err := s.requireProject(ctx, projectID)
	if err != nil {
		return "", "", err
	}

	path := s.ResolveRoadmapPath(p)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return path, "", trackrerrors.ErrRoadmapNotFound(path)
	}
	if err != nil {
		return path, "", fmt.Errorf("read roadmap %s: %w", path, err)
	}
	return path, string(data), nil
}

func (s *Service) requireProject(ctx context.Context, projectID int64) (*db.Project, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, trackrerrors.ErrProjectNotFound(projectID)
	}
	return p, nil
}

func (s *Service) normalizer() *roadmap.Normalizer {
	return &roadmap.Normalizer{
		Completer: s.cfg.Completer,
		Template:  s.Template(),
		Timeout:   s.cfg.Timeout,
		Logger:    s.logger,
	}
}

// Template returns the current dialect template text.
func (s *Service) Template() string {
	return roadmap.LoadTemplate(s.cfg.Roadmap.TemplatePath)
}
