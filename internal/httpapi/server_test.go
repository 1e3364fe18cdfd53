package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/design-review/internal/checks"
	"github.com/raysh454/design-review/internal/interfaces"
	"github.com/raysh454/design-review/internal/model"
	"github.com/raysh454/design-review/internal/review"
	"github.com/raysh454/design-review/internal/session"
	"github.com/raysh454/design-review/internal/specloader"
)

const httpapiTestSpec = `---
name: test-spec
version: "1.0"
---

## Accessibility

#### alt-text
- **Severity**: blocking
- **Description**: Images must have alt text.
`

// fakeBrowser returns a fixed capture without touching chromedp.
type fakeBrowser struct{}

func (f *fakeBrowser) Capture(ctx context.Context, url string, viewport model.Viewport, screenshotDir string) (*model.Capture, error) {
	path := filepath.Join(screenshotDir, "screenshot.png")
	if err := os.WriteFile(path, []byte("fake-png"), 0o644); err != nil {
		return nil, err
	}
	return &model.Capture{URL: url, ScreenshotPath: path, Elements: map[model.ElementHandle]model.ElementInfo{}}, nil
}

func (f *fakeBrowser) Close() error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	specDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(specDir, "test-spec.md"), []byte(httpapiTestSpec), 0o644))

	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)

	factory := func(ctx context.Context, logger interfaces.Logger) (interfaces.Browser, error) {
		return &fakeBrowser{}, nil
	}

	orch := review.NewOrchestrator(store, factory, nil)
	t.Cleanup(orch.Close)

	s, err := NewServer(Config{
		ListenAddr:   ":0",
		Orchestrator: orch,
		Loader:       specloader.NewLoader(specDir),
		Registry:     checks.NewRegistry(),
		Store:        store,
	})
	require.NoError(t, err)
	return s
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestServerCORSHeaderPresent(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, "GET", "/sessions?url=https://example.com", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleReviewReturnsSessionResult(t *testing.T) {
	s := newTestServer(t)

	body := `{"url":"https://example.com","spec":"test-spec"}`
	rec := doJSON(t, s, "POST", "/review", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var result review.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.True(t, result.OK)
	assert.NotEmpty(t, result.SessionID)
}

func TestHandleReviewMissingFieldsReturnsBadRequest(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, "POST", "/review", `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleReviewUnknownSpecReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, "POST", "/review", `{"url":"https://example.com","spec":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetSessionRoundTrips(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/review", `{"url":"https://example.com","spec":"test-spec"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var result review.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))

	rec2 := doJSON(t, s, "GET", "/sessions/"+result.SessionID, "")
	require.Equal(t, http.StatusOK, rec2.Code)

	var manifest model.SessionManifest
	require.NoError(t, json.NewDecoder(rec2.Body).Decode(&manifest))
	assert.Equal(t, result.SessionID, manifest.SessionID)
}

func TestHandleGetJobNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, "GET", "/jobs/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDiffSessionsRoundTrips(t *testing.T) {
	s := newTestServer(t)

	rec1 := doJSON(t, s, "POST", "/review", `{"url":"https://example.com","spec":"test-spec"}`)
	require.Equal(t, http.StatusOK, rec1.Code)
	var first review.Result
	require.NoError(t, json.NewDecoder(rec1.Body).Decode(&first))

	rec2 := doJSON(t, s, "POST", "/review", `{"url":"https://example.com","spec":"test-spec"}`)
	require.Equal(t, http.StatusOK, rec2.Code)
	var second review.Result
	require.NoError(t, json.NewDecoder(rec2.Body).Decode(&second))

	rec3 := doJSON(t, s, "GET", "/sessions/diff?old="+first.SessionID+"&new="+second.SessionID, "")
	require.Equal(t, http.StatusOK, rec3.Code)

	var diff model.SessionDiff
	require.NoError(t, json.NewDecoder(rec3.Body).Decode(&diff))
	assert.Equal(t, first.SessionID, diff.OldSessionID)
	assert.Equal(t, second.SessionID, diff.NewSessionID)
}

func TestHandleDiffSessionsMissingParamsReturnsBadRequest(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, "GET", "/sessions/diff?old=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
