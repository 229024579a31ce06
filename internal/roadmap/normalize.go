package roadmap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/randalmurphal/trackr/templates"
)

// Completer rewrites text through an external text-completion provider.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Source records which path produced a normalization result.
type Source string

const (
	// SourceParsed means the raw text already parsed.
	SourceParsed Source = "parsed"
	// SourceCompletion means the completion provider's rewrite was parsed.
	SourceCompletion Source = "completion"
	// SourceFallback means only the local checklist line filter was used.
	SourceFallback Source = "fallback"
	// SourceEmpty means there was no text to parse.
	SourceEmpty Source = "empty"
)

// DefaultTimeout bounds a completion call when Normalizer.Timeout is zero.
const DefaultTimeout = 30 * time.Second

var errNoCompleter = errors.New("no completion provider configured")

// Normalizer turns free-form roadmap text into items, asking a Completer to
// reformat text that does not parse.
type Normalizer struct {
	// Completer may be nil; the local fallback is used then.
	Completer Completer
	// Template is the dialect description embedded in the prompt.
	Template string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// NormalizeResult describes one Normalize run.
type NormalizeResult struct {
	Items  []Item
	Source Source
	// Err is the completion failure that led to SourceFallback, if any.
	Err error
}

// Normalize returns the items in raw. It never fails; the worst case is an
// empty slice.
func (n *Normalizer) Normalize(ctx context.Context, raw string) []Item {
	return n.NormalizeDetailed(ctx, raw).Items
}

// NormalizeDetailed is Normalize with the outcome attached.
func (n *Normalizer) NormalizeDetailed(ctx context.Context, raw string) NormalizeResult {
	if strings.TrimSpace(raw) == "" {
		return NormalizeResult{Source: SourceEmpty}
	}

	if items := Parse(raw); len(items) > 0 {
		return NormalizeResult{Items: items, Source: SourceParsed}
	}

	logger := n.logger()
	text, err := n.complete(ctx, raw)
	if err == nil {
		items := Parse(text)
		logger.Info("roadmap normalized by completion provider", "items", len(items))
		return NormalizeResult{Items: items, Source: SourceCompletion}
	}

	logger.Warn("completion unavailable, using local checklist filter", "error", err)
	items := Parse(strings.Join(FilterChecklistLines(raw), "\n"))
	return NormalizeResult{Items: items, Source: SourceFallback, Err: err}
}

func (n *Normalizer) complete(ctx context.Context, raw string) (string, error) {
	if n.Completer == nil {
		return "", errNoCompleter
	}

	prompt, err := ReformatPrompt(n.Template, raw)
	if err != nil {
		return "", err
	}

	timeout := n.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return n.Completer.Complete(ctx, templates.SystemPrompt, prompt)
}

func (n *Normalizer) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

// ReformatPrompt builds the prompt asking for raw to be rewritten in the
// dialect described by tmpl.
func ReformatPrompt(tmpl, raw string) (string, error) {
	return templates.Render("roadmap_reformat.md", map[string]string{
		"System":   templates.SystemPrompt,
		"Template": tmpl,
		"Raw":      raw,
	})
}

// SkeletonPrompt builds the prompt asking for a starter roadmap for idea.
func SkeletonPrompt(tmpl, idea string) (string, error) {
	return templates.Render("roadmap_skeleton.md", map[string]string{
		"System":   templates.SystemPrompt,
		"Template": tmpl,
		"Idea":     idea,
	})
}

// LoadTemplate returns the dialect template. An empty path selects the
// embedded default; a configured file that cannot be read yields "".
func LoadTemplate(path string) string {
	if path == "" {
		return templates.RoadmapTemplate
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("roadmap template unavailable", "path", path, "error", err)
		return ""
	}
	return string(data)
}
