package importer

import (
	"context"
	"fmt"
	"strings"

	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
	"github.com/randalmurphal/trackr/internal/roadmap"
	"github.com/randalmurphal/trackr/templates"
)

// Generation modes.
const (
	ModeSkeleton = "skeleton"
	ModeReformat = "reformat"
)

// ProviderFallback marks output produced without a completion provider.
const ProviderFallback = "fallback"

// maxReformatLines caps the offline reformat output.
const maxReformatLines = 40

// starterRoadmap is returned for skeleton requests when no provider is available.
var starterRoadmap = []string{
	"- [ ] [P1] Define the project scope due: 2025-09-01 #planning",
	"- [ ] [P1] Create the initial backlog #tasks",
	"- [ ] [P2] Set up CI/CD #devops",
	"- [ ] [P3] Write the README and documentation #docs",
}

// GenerateRequest asks for a roadmap draft.
type GenerateRequest struct {
	// Mode is skeleton (default) or reformat.
	Mode string `json:"mode"`
	// Idea seeds a skeleton roadmap.
	Idea string `json:"idea"`
	// Raw is the text to reformat.
	Raw string `json:"raw"`
}

// Generated is a roadmap draft.
type Generated struct {
	Roadmap  string `json:"roadmap"`
	Provider string `json:"provider"`
}

// Generate drafts a roadmap. Without a completion provider a skeleton is the
// fixed starter roadmap and a reformat keeps the first checklist lines.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Generated, error) {
	mode := strings.TrimSpace(req.Mode)
	if mode == "" {
		mode = ModeSkeleton
	}
	idea := strings.TrimSpace(req.Idea)
	raw := strings.TrimSpace(req.Raw)

	var prompt string
	var err error
	switch mode {
	case ModeSkeleton:
		if idea == "" {
			return nil, trackrerrors.ErrInvalidInput("idea", "idea is required for skeleton mode")
		}
		prompt, err = roadmap.SkeletonPrompt(s.Template(), idea)
	case ModeReformat:
		if raw == "" {
			return nil, trackrerrors.ErrInvalidInput("raw", "raw is required for reformat mode")
		}
		prompt, err = roadmap.ReformatPrompt(s.Template(), raw)
	default:
		return nil, trackrerrors.ErrInvalidInput("mode", fmt.Sprintf("unknown mode %q (want skeleton or reformat)", mode))
	}
	if err != nil {
		return nil, err
	}

	if s.cfg.Completer == nil {
		return offlineDraft(mode, raw), nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	text, err := s.cfg.Completer.Complete(ctx, templates.SystemPrompt, prompt)
	if err != nil {
		if trackrerrors.HasCode(err, trackrerrors.CodeCompletionUnavailable) {
			s.logger.Debug("completion unavailable, returning offline draft", "mode", mode, "error", err)
			return offlineDraft(mode, raw), nil
		}
		if te := trackrerrors.AsTrackrError(err); te != nil {
			return nil, te
		}
		return nil, trackrerrors.ErrCompletionUnavailable(err.Error()).WithCause(err)
	}

	provider := s.cfg.Provider
	if provider == "" {
		provider = "completion"
	}
	return &Generated{Roadmap: text, Provider: provider}, nil
}

func offlineDraft(mode, raw string) *Generated {
	if mode == ModeSkeleton {
		return &Generated{Roadmap: strings.Join(starterRoadmap, "\n"), Provider: ProviderFallback}
	}
	lines := roadmap.FilterChecklistLines(raw)
	if len(lines) > maxReformatLines {
		lines = lines[:maxReformatLines]
	}
	return &Generated{Roadmap: strings.Join(lines, "\n"), Provider: ProviderFallback}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = roadmap.DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
