package roadmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLocateRanksAndPrunes(t *testing.T) {
	root := t.TempDir()
	best := writeFile(t, root, "a/roadmap.md", "- [ ] item\n")
	writeFile(t, root, "a/b/c/d/e/roadmap-old.md", "- [ ] deep\n")
	writeFile(t, root, "other.md", "- [ ] not a roadmap\n")

	paths, err := Locate(root)
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	assert.Equal(t, best, paths[0])

	for _, p := range paths {
		assert.NotEqual(t, "other.md", filepath.Base(p))
		assert.NotContains(t, p, "roadmap-old.md")
	}
}

func TestLocateScores(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "roadmap.md", "- [x] done\n")
	writeFile(t, root, "docs/ROADMAP.md", "no checklist")
	writeFile(t, root, "docs/product-roadmap.md", "- [ ] open\n")
	writeFile(t, root, "a/b/c/d/roadmap.md", "")

	candidates, err := LocateCandidates(root)
	require.NoError(t, err)

	scores := map[string]int{}
	for _, c := range candidates {
		rel, err := filepath.Rel(root, c.Path)
		require.NoError(t, err)
		scores[filepath.ToSlash(rel)] = c.Score
	}

	assert.Equal(t, map[string]int{
		"roadmap.md":              12,
		"docs/ROADMAP.md":         9,
		"a/b/c/d/roadmap.md":      6,
		"docs/product-roadmap.md": 1,
	}, scores)

	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Score, candidates[i].Score)
	}
}

func TestLocateCapsResults(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 15; i++ {
		writeFile(t, root, filepath.Join("notes", "roadmap-"+string(rune('a'+i))+".md"), "")
	}

	paths, err := Locate(root)
	require.NoError(t, err)
	assert.Len(t, paths, MaxCandidates)
}

func TestLocateNoMatches(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "hello")
	writeFile(t, root, "roadmap.txt", "- [ ] wrong extension")

	paths, err := Locate(root)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestLocateMissingRoot(t *testing.T) {
	_, err := Locate(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeRoadmapNotFound))
}

func TestLocateSniffsOnlyHead(t *testing.T) {
	root := t.TempDir()
	padding := make([]byte, 20001)
	for i := range padding {
		padding[i] = 'x'
	}
	writeFile(t, root, "roadmap.md", string(padding)+"\n- [ ] too late\n")

	candidates, err := LocateCandidates(root)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 10, candidates[0].Score)
}

func TestDepthOf(t *testing.T) {
	root := filepath.Join("srv", "repo")
	assert.Equal(t, 0, depthOf(root, root))
	assert.Equal(t, 1, depthOf(root, filepath.Join(root, "a")))
	assert.Equal(t, 3, depthOf(root, filepath.Join(root, "a", "b", "c")))
}
