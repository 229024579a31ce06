package roadmap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/trackr/templates"
)

type fakeCompleter struct {
	calls  atomic.Int32
	reply  string
	err    error
	delay  time.Duration
	system string
	prompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.calls.Add(1)
	f.system = system
	f.prompt = prompt
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func TestNormalizeEmptyInputSkipsCompleter(t *testing.T) {
	fc := &fakeCompleter{reply: "- [ ] never"}
	n := &Normalizer{Completer: fc}

	for _, raw := range []string{"", "   \n\t"} {
		res := n.NormalizeDetailed(context.Background(), raw)
		assert.Empty(t, res.Items)
		assert.Equal(t, SourceEmpty, res.Source)
	}
	assert.Zero(t, fc.calls.Load())
}

func TestNormalizeParsedTextSkipsCompleter(t *testing.T) {
	fc := &fakeCompleter{}
	n := &Normalizer{Completer: fc}

	res := n.NormalizeDetailed(context.Background(), "- [ ] Already fine")
	require.Len(t, res.Items, 1)
	assert.Equal(t, SourceParsed, res.Source)
	assert.Zero(t, fc.calls.Load())
}

func TestNormalizeUsesCompletion(t *testing.T) {
	fc := &fakeCompleter{reply: "Here you go:\n- [ ] [P1] Buy milk #home\n- [x] Call Bob"}
	n := &Normalizer{Completer: fc, Template: "TEMPLATE-TEXT"}

	res := n.NormalizeDetailed(context.Background(), "buy milk asap, bob already called")
	assert.Equal(t, SourceCompletion, res.Source)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Buy milk", res.Items[0].Title)
	assert.Equal(t, "Call Bob", res.Items[1].Title)

	assert.Equal(t, int32(1), fc.calls.Load())
	assert.Equal(t, templates.SystemPrompt, fc.system)
	assert.Contains(t, fc.prompt, "TEMPLATE-TEXT")
	assert.Contains(t, fc.prompt, "buy milk asap, bob already called")
}

func TestNormalizeFallsBackOnError(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("401 unauthorized")}
	n := &Normalizer{Completer: fc}

	// Both lines pass the filter but neither parses.
	raw := "Plan:\n  - [ ]Broken spacing\n- [X] upper\n"
	res := n.NormalizeDetailed(context.Background(), raw)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Error(t, res.Err)
	assert.Empty(t, res.Items)
}

func TestNormalizeFailedCompletionCalledOnce(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("boom")}
	n := &Normalizer{Completer: fc}

	items := n.Normalize(context.Background(), "just prose")
	assert.Empty(t, items)
	assert.Equal(t, int32(1), fc.calls.Load())
}

func TestNormalizeTimeoutFallsBack(t *testing.T) {
	fc := &fakeCompleter{reply: "- [ ] late", delay: time.Second}
	n := &Normalizer{Completer: fc, Timeout: 20 * time.Millisecond}

	res := n.NormalizeDetailed(context.Background(), "some raw text")
	assert.Equal(t, SourceFallback, res.Source)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestNormalizeNilCompleterFallsBack(t *testing.T) {
	n := &Normalizer{}
	res := n.NormalizeDetailed(context.Background(), "free text")
	assert.Equal(t, SourceFallback, res.Source)
	assert.Empty(t, res.Items)
}

func TestLoadTemplate(t *testing.T) {
	assert.Equal(t, templates.RoadmapTemplate, LoadTemplate(""))

	path := filepath.Join(t.TempDir(), "tmpl.md")
	require.NoError(t, os.WriteFile(path, []byte("custom"), 0644))
	assert.Equal(t, "custom", LoadTemplate(path))

	assert.Equal(t, "", LoadTemplate(filepath.Join(t.TempDir(), "missing.md")))
}

func TestPromptsEmbedInputs(t *testing.T) {
	p, err := ReformatPrompt("T", "R")
	require.NoError(t, err)
	assert.Contains(t, p, "T")
	assert.Contains(t, p, "R")

	s, err := SkeletonPrompt("T", "todo app")
	require.NoError(t, err)
	assert.Contains(t, s, "todo app")
}
