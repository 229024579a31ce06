package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/trackr/internal/config"
	"github.com/randalmurphal/trackr/internal/db"
	trackrerrors "github.com/randalmurphal/trackr/internal/errors"
	"github.com/randalmurphal/trackr/internal/roadmap"
)

type stubCompleter struct {
	calls   atomic.Int32
	reply   string
	err     error
	entered chan struct{}
	release chan struct{}
}

func (c *stubCompleter) Complete(ctx context.Context, _, _ string) (string, error) {
	c.calls.Add(1)
	if c.entered != nil {
		c.entered <- struct{}{}
	}
	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.reply, c.err
}

func setup(t *testing.T, cfg Config) (*Service, *db.DB, int64) {
	t.Helper()
	store := db.NewTestDB(t)
	id, err := store.CreateProject(context.Background(), &db.Project{Title: "P"})
	require.NoError(t, err)
	if cfg.WorkDir == "" {
		cfg.WorkDir = t.TempDir()
	}
	return New(store, cfg), store, id
}

func write(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportMarkdown(t *testing.T) {
	t.Parallel()
	svc, _, projectID := setup(t, Config{})
	ctx := context.Background()

	res, err := svc.ImportMarkdown(ctx, projectID, "# Plan\n- [ ] A\n- [x] B\n- [ ] A")
	require.NoError(t, err)
	assert.Len(t, res.Created, 2)
	assert.Equal(t, 3, res.Total)

	again, err := svc.ImportMarkdown(ctx, projectID, "- [ ] A\n- [x] B")
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Equal(t, 2, again.Total)
}

func TestImportMarkdownValidation(t *testing.T) {
	t.Parallel()
	svc, _, projectID := setup(t, Config{})
	ctx := context.Background()

	_, err := svc.ImportMarkdown(ctx, 0, "- [ ] x")
	require.Error(t, err)
	assert.Equal(t, "project_id and markdown are required", trackrerrors.AsTrackrError(err).What)

	_, err = svc.ImportMarkdown(ctx, projectID, "   ")
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeInvalidInput))

	_, err = svc.ImportMarkdown(ctx, 999, "- [ ] x")
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeProjectNotFound))
}

func TestImportMarkdownDoesNotNormalize(t *testing.T) {
	t.Parallel()
	sc := &stubCompleter{reply: "- [ ] from provider"}
	svc, _, projectID := setup(t, Config{Completer: sc})

	res, err := svc.ImportMarkdown(context.Background(), projectID, "free text only")
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Zero(t, sc.calls.Load())
}

func TestResolveRoadmapPath(t *testing.T) {
	svc := New(nil, Config{WorkDir: "/work"})
	assert.Equal(t, filepath.Join("/work", "roadmap.md"), svc.ResolveRoadmapPath(&db.Project{}))
	assert.Equal(t, "/p/road.md", svc.ResolveRoadmapPath(&db.Project{RoadmapPath: "/p/road.md"}))

	svc = New(nil, Config{WorkDir: "/work", Roadmap: config.RoadmapConfig{Path: "/cfg/roadmap.md"}})
	assert.Equal(t, "/cfg/roadmap.md", svc.ResolveRoadmapPath(&db.Project{}))
	assert.Equal(t, "/p/road.md", svc.ResolveRoadmapPath(&db.Project{RoadmapPath: "/p/road.md"}))
}

func TestSyncFileUsesProjectPath(t *testing.T) {
	t.Parallel()
	svc, store, projectID := setup(t, Config{})
	ctx := context.Background()

	path := write(t, filepath.Join(t.TempDir(), "docs", "ROADMAP.md"), "- [ ] [P1] One\n- [ ] Two\n")
	require.NoError(t, store.SetProjectRoadmapPath(ctx, projectID, path))

	res, err := svc.SyncFile(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.Len(t, res.Created, 2)
	assert.Equal(t, 2, res.Total)
}

func TestSyncFileDefaultsToWorkDir(t *testing.T) {
	t.Parallel()
	work := t.TempDir()
	svc, _, projectID := setup(t, Config{WorkDir: work})
	write(t, filepath.Join(work, "roadmap.md"), "- [ ] Root item\n")

	res, err := svc.SyncFile(context.Background(), projectID)
	require.NoError(t, err)
	assert.Len(t, res.Created, 1)
}

func TestSyncFileMissingNamesPath(t *testing.T) {
	t.Parallel()
	missing := filepath.Join(t.TempDir(), "nowhere.md")
	svc, store, projectID := setup(t, Config{Roadmap: config.RoadmapConfig{Path: missing}})

	_, err := svc.SyncFile(context.Background(), projectID)
	require.Error(t, err)
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeRoadmapNotFound))
	assert.Contains(t, err.Error(), "roadmap not found at "+missing)

	tasks, err := store.ListTasks(context.Background(), db.ListTasksOpts{ProjectID: projectID})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSyncFileRequiresProject(t *testing.T) {
	t.Parallel()
	svc, _, _ := setup(t, Config{})

	_, err := svc.SyncFile(context.Background(), 0)
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeInvalidInput))

	_, err = svc.SyncFile(context.Background(), 404)
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeProjectNotFound))
}

func TestSmartSyncNormalizesProse(t *testing.T) {
	t.Parallel()
	work := t.TempDir()
	sc := &stubCompleter{reply: "- [ ] [P1] Buy domain #infra\n- [ ] Launch"}
	svc, _, projectID := setup(t, Config{WorkDir: work, Completer: sc})
	write(t, filepath.Join(work, "roadmap.md"), "We should buy a domain, then launch.")

	res, err := svc.SmartSync(context.Background(), projectID)
	require.NoError(t, err)
	assert.Equal(t, roadmap.SourceCompletion, res.Source)
	assert.Len(t, res.Created, 2)
	assert.Equal(t, int32(1), sc.calls.Load())
}

func TestSmartSyncFallsBackWhenProviderFails(t *testing.T) {
	t.Parallel()
	work := t.TempDir()
	sc := &stubCompleter{err: errors.New("no key")}
	svc, _, projectID := setup(t, Config{WorkDir: work, Completer: sc})
	write(t, filepath.Join(work, "roadmap.md"), "nothing structured")

	res, err := svc.SmartSync(context.Background(), projectID)
	require.NoError(t, err)
	assert.Equal(t, roadmap.SourceFallback, res.Source)
	assert.Empty(t, res.Created)
	assert.Zero(t, res.Total)
}

func TestSmartSyncParsedFileSkipsProvider(t *testing.T) {
	t.Parallel()
	work := t.TempDir()
	sc := &stubCompleter{}
	svc, _, projectID := setup(t, Config{WorkDir: work, Completer: sc})
	write(t, filepath.Join(work, "roadmap.md"), "- [ ] Already parsed")

	res, err := svc.SmartSync(context.Background(), projectID)
	require.NoError(t, err)
	assert.Equal(t, roadmap.SourceParsed, res.Source)
	assert.Len(t, res.Created, 1)
	assert.Zero(t, sc.calls.Load())
}

func TestSmartSyncCoalescesConcurrentCalls(t *testing.T) {
	t.Parallel()
	work := t.TempDir()
	sc := &stubCompleter{
		reply:   "- [ ] Only once",
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	svc, store, projectID := setup(t, Config{WorkDir: work, Completer: sc})
	write(t, filepath.Join(work, "roadmap.md"), "prose roadmap")

	ctx := context.Background()
	results := make([]*SyncResult, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = svc.SmartSync(ctx, projectID)
	}()
	<-sc.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = svc.SmartSync(ctx, projectID)
	}()
	// Give the second caller time to join the in-flight run.
	time.Sleep(100 * time.Millisecond)
	close(sc.release)
	wg.Wait()

	assert.Equal(t, int32(1), sc.calls.Load())
	require.NotNil(t, results[0])
	require.NotNil(t, results[1])
	assert.Same(t, results[0], results[1])

	tasks, err := store.ListTasks(ctx, db.ListTasksOpts{ProjectID: projectID})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestSmartSyncSurvivesFirstCallerCancel(t *testing.T) {
	t.Parallel()
	work := t.TempDir()
	sc := &stubCompleter{
		reply:   "- [ ] X",
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	svc, store, projectID := setup(t, Config{WorkDir: work, Completer: sc})
	write(t, filepath.Join(work, "roadmap.md"), "prose roadmap")

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.SmartSync(first, projectID)
		firstErr <- err
	}()
	<-sc.entered

	var second *SyncResult
	var secondErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		second, secondErr = svc.SmartSync(context.Background(), projectID)
	}()
	// Give the second caller time to join the in-flight run.
	time.Sleep(100 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(sc.release)
	<-done
	require.NoError(t, secondErr)
	assert.Equal(t, roadmap.SourceCompletion, second.Source)
	require.Len(t, second.Created, 1)
	assert.Equal(t, int32(1), sc.calls.Load())

	tasks, err := store.ListTasks(context.Background(), db.ListTasksOpts{ProjectID: projectID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "X", tasks[0].Title)
}

func TestDetectAndAdopt(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	best := write(t, filepath.Join(root, "roadmap.md"), "- [ ] x")
	write(t, filepath.Join(root, "docs", "roadmap-v2.md"), "")

	svc, store, projectID := setup(t, Config{Roadmap: config.RoadmapConfig{SearchRoot: root}})
	ctx := context.Background()

	candidates, err := svc.Detect("")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, best, candidates[0].Path)

	adopted, err := svc.AdoptBest(ctx, projectID, "")
	require.NoError(t, err)
	assert.Equal(t, best, adopted)

	p, err := store.GetProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, best, p.RoadmapPath)

	_, err = svc.AdoptBest(ctx, projectID, t.TempDir())
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeRoadmapNotFound))
}

func TestDetectRoot(t *testing.T) {
	svc := New(nil, Config{WorkDir: "/work"})
	assert.Equal(t, "/work", svc.DetectRoot(""))
	assert.Equal(t, "/arg", svc.DetectRoot("/arg"))

	svc = New(nil, Config{WorkDir: "/work", Roadmap: config.RoadmapConfig{SearchRoot: "/search"}})
	assert.Equal(t, "/search", svc.DetectRoot(""))
}

func TestGenerateOffline(t *testing.T) {
	svc := New(nil, Config{})
	ctx := context.Background()

	skel, err := svc.Generate(ctx, GenerateRequest{Idea: "a bakery site"})
	require.NoError(t, err)
	assert.Equal(t, ProviderFallback, skel.Provider)
	items := roadmap.Parse(skel.Roadmap)
	require.Len(t, items, 4)
	assert.Equal(t, "Define the project scope", items[0].Title)

	var raw strings.Builder
	raw.WriteString("intro text\n")
	for i := 0; i < 45; i++ {
		raw.WriteString("- [ ] item\n")
	}
	reformat, err := svc.Generate(ctx, GenerateRequest{Mode: ModeReformat, Raw: raw.String()})
	require.NoError(t, err)
	assert.Equal(t, ProviderFallback, reformat.Provider)
	assert.Len(t, strings.Split(reformat.Roadmap, "\n"), 40)
}

func TestGenerateValidation(t *testing.T) {
	svc := New(nil, Config{})
	ctx := context.Background()

	_, err := svc.Generate(ctx, GenerateRequest{Mode: ModeSkeleton})
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeInvalidInput))

	_, err = svc.Generate(ctx, GenerateRequest{Mode: ModeReformat, Raw: "  "})
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeInvalidInput))

	_, err = svc.Generate(ctx, GenerateRequest{Mode: "poem", Idea: "x"})
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeInvalidInput))
}

func TestGenerateWithProvider(t *testing.T) {
	sc := &stubCompleter{reply: "- [ ] Generated"}
	svc := New(nil, Config{Completer: sc, Provider: "openai"})

	out, err := svc.Generate(context.Background(), GenerateRequest{Idea: "x"})
	require.NoError(t, err)
	assert.Equal(t, "openai", out.Provider)
	assert.Equal(t, "- [ ] Generated", out.Roadmap)
}

func TestGenerateProviderErrors(t *testing.T) {
	ctx := context.Background()

	unavailable := &stubCompleter{err: trackrerrors.ErrCompletionUnavailable("no key")}
	out, err := New(nil, Config{Completer: unavailable}).Generate(ctx, GenerateRequest{Idea: "x"})
	require.NoError(t, err)
	assert.Equal(t, ProviderFallback, out.Provider)

	failing := &stubCompleter{err: errors.New("500 from upstream")}
	_, err = New(nil, Config{Completer: failing}).Generate(ctx, GenerateRequest{Idea: "x"})
	require.Error(t, err)
	assert.True(t, trackrerrors.HasCode(err, trackrerrors.CodeCompletionUnavailable))
}

func TestTemplate(t *testing.T) {
	path := write(t, filepath.Join(t.TempDir(), "t.md"), "custom template")
	svc := New(nil, Config{Roadmap: config.RoadmapConfig{TemplatePath: path}})
	assert.Equal(t, "custom template", svc.Template())
}
