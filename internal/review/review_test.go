package review

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/design-review/internal/checks"
	"github.com/raysh454/design-review/internal/interfaces"
	"github.com/raysh454/design-review/internal/model"
	"github.com/raysh454/design-review/internal/session"
	"github.com/raysh454/design-review/internal/specloader"
)

const testSpec = `---
name: test-spec
version: "1.0"
---

## Accessibility

#### alt-text
- **Severity**: blocking
- **Description**: Images must have alt text.

#### color-contrast
- **Severity**: major
- **Description**: Text must meet contrast ratios.
`

// fakeBrowser returns a fixed capture without touching chromedp,
// standing in for internal/browser.Driver in orchestrator tests.
type fakeBrowser struct {
	capture *model.Capture
}

func (f *fakeBrowser) Capture(ctx context.Context, url string, viewport model.Viewport, screenshotDir string) (*model.Capture, error) {
	path := filepath.Join(screenshotDir, "screenshot.png")
	if err := os.WriteFile(path, []byte("fake-png"), 0o644); err != nil {
		return nil, err
	}
	c := *f.capture
	c.ScreenshotPath = path
	return &c, nil
}

func (f *fakeBrowser) Close() error { return nil }

func testCapture() *model.Capture {
	return &model.Capture{
		URL:      "https://example.com",
		Viewport: model.Viewport{Width: 1280, Height: 800},
		Elements: map[model.ElementHandle]model.ElementInfo{
			"e1": {
				Handle:      "e1",
				Tag:         "p",
				Text:        "low contrast text",
				BoundingBox: model.Box{X: 10, Y: 10, Width: 100, Height: 20},
				ComputedCSS: map[string]string{"color": "#777777", "background-color": "#888888"},
			},
		},
	}
}

func newTestOrchestrator(t *testing.T, capture *model.Capture) (*Orchestrator, *session.Store) {
	t.Helper()
	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)

	factory := func(ctx context.Context, logger interfaces.Logger) (interfaces.Browser, error) {
		return &fakeBrowser{capture: capture}, nil
	}

	return NewOrchestrator(store, factory, nil), store
}

func TestReviewProducesIssueWithSelectorAndGrade(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test-spec.md"), []byte(testSpec), 0o644))

	loader := specloader.NewLoader(dir)
	registry := checks.NewRegistry()

	orch, store := newTestOrchestrator(t, testCapture())

	result, err := orch.Review(context.Background(), loader, registry, "https://example.com", "test-spec", DefaultOptions())
	require.NoError(t, err)
	require.True(t, result.OK)

	require.NotEmpty(t, result.Issues)
	for _, issue := range result.Issues {
		assert.NotEmpty(t, issue.CSSSelector, "invariant 1: resolved issues must carry a non-empty selector")
		assert.Equal(t, "Accessibility", issue.Pillar, "§3.3: issues carry the name of their owning pillar")
	}
	assert.NotEmpty(t, result.PillarGrades)

	manifest, err := store.Load(result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionSchemaVersion, manifest.SchemaVersion)
}

func TestReviewIssueIDsAreSequentialAndOrdered(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test-spec.md"), []byte(testSpec), 0o644))

	loader := specloader.NewLoader(dir)
	registry := checks.NewRegistry()
	orch, _ := newTestOrchestrator(t, testCapture())

	result, err := orch.Review(context.Background(), loader, registry, "https://example.com", "test-spec", DefaultOptions())
	require.NoError(t, err)

	seen := make(map[int]bool)
	for i, issue := range result.Issues {
		assert.False(t, seen[issue.ID], "invariant 2: issue ids must be distinct")
		seen[issue.ID] = true
		if i > 0 {
			assert.Greater(t, issue.ID, result.Issues[i-1].ID, "invariant 3: ordering by emission order")
		}
	}
}

func TestReviewWithUnknownSpecReturnsSpecNotFound(t *testing.T) {
	dir := t.TempDir()
	loader := specloader.NewLoader(dir)
	registry := checks.NewRegistry()
	orch, _ := newTestOrchestrator(t, testCapture())

	result, err := orch.Review(context.Background(), loader, registry, "https://example.com", "missing-spec", DefaultOptions())
	require.Error(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, string(model.ErrSpecNotFound), result.ErrorKind)
}

func TestGradeForMatchesSpecRule(t *testing.T) {
	assert.Equal(t, "A", gradeFor(false, false, false))
	assert.Equal(t, "B", gradeFor(false, false, true))
	assert.Equal(t, "C", gradeFor(false, true, false))
	assert.Equal(t, "F", gradeFor(true, false, false))
	assert.Equal(t, "F", gradeFor(true, true, true))
}
