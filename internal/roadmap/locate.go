package roadmap

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
)

const (
	// MaxDepth is the deepest directory level below the root that is searched.
	MaxDepth = 4
	// MaxCandidates caps the number of paths Locate returns.
	MaxCandidates = 10

	namePattern   = "*roadmap*.md"
	canonicalName = "roadmap.md"
	sniffBytes    = 20000
)

// Candidate is a scored roadmap file.
type Candidate struct {
	Path  string `json:"path"`
	Score int    `json:"score"`
}

// Locate returns up to MaxCandidates roadmap paths under root, best first.
func Locate(root string) ([]string, error) {
	candidates, err := LocateCandidates(root)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.Path
	}
	return paths, nil
}

// LocateCandidates walks root and scores every file whose lowercased name
// matches *roadmap*.md. Directories more than MaxDepth levels below root are
// not entered. Unreadable entries below root are skipped.
func LocateCandidates(root string) ([]Candidate, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, trackrerrors.ErrRoadmapNotFound(root).WithCause(err)
	}

	var candidates []Candidate
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if depthOf(root, path) > MaxDepth {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		lower := strings.ToLower(d.Name())
		if ok, _ := doublestar.Match(namePattern, lower); !ok {
			return nil
		}

		score := -depthOf(root, filepath.Dir(path))
		if lower == canonicalName {
			score += 10
		}
		if hasChecklist(path) {
			score += 2
		}
		candidates = append(candidates, Candidate{Path: path, Score: score})
		return nil
	})
	if walkErr != nil {
		return nil, trackrerrors.ErrRoadmapNotFound(root).WithCause(walkErr)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	return candidates, nil
}

// depthOf counts directory levels between root and dir; root itself is 0.
func depthOf(root, dir string) int {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func hasChecklist(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	head, err := io.ReadAll(io.LimitReader(f, sniffBytes))
	if err != nil {
		return false
	}
	text := string(head)
	return strings.Contains(text, "- [ ]") || strings.Contains(text, "- [x]")
}
