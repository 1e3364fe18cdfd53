// Package session is the durable on-disk artifact store for review and
// compare jobs: session.json/report.json/screenshot.png/annotated.png/
// diff.png/issues.md under a per-job directory (§6.2).
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/design-review/internal/model"
)

// Store manages session directories rooted at Root (".canvas/reviews"
// by convention, per §6.2).
type Store struct {
	root string
	mu   sync.Mutex
	seq  int
}

// NewStore returns a Store rooted at root, creating it if absent.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("session: creating root %q: %w", root, err)
	}
	return &Store{root: root}, nil
}

// NewReviewSessionID returns a review_YYYYMMDDHHMMSS### id, per the
// resolved Open Question on session-id formats (§9): review() jobs use
// a timestamp+counter form, never the compare() uuid form.
func (s *Store) NewReviewSessionID(now time.Time) string {
	s.mu.Lock()
	s.seq = (s.seq + 1) % 1000
	n := s.seq
	s.mu.Unlock()
	return fmt.Sprintf("review_%s%03d", now.Format("20060102150405"), n)
}

// NewCompareSessionID returns a ses-<12 hex> id, the compare() half of
// the session-id format split (§9).
func NewCompareSessionID() string {
	return "ses-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// Dir returns the on-disk path for sessionID, without creating it.
func (s *Store) Dir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

// Create makes sessionID's directory and returns its path.
func (s *Store) Create(sessionID string) (string, error) {
	if err := validateSessionID(sessionID); err != nil {
		return "", err
	}
	dir := s.Dir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", model.NewEngineError(model.ErrArtifactWriteError, "session.Create", err)
	}
	return dir, nil
}

// Abort removes a partially-written session directory on cancellation
// or fatal failure (§5, §7 "partial session directories are removed on
// fatal failure").
func (s *Store) Abort(sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	if err := os.RemoveAll(s.Dir(sessionID)); err != nil {
		return model.NewEngineError(model.ErrArtifactWriteError, "session.Abort", err)
	}
	return nil
}

// WriteManifest atomically writes session.json.
func (s *Store) WriteManifest(sessionID string, manifest model.SessionManifest) error {
	return s.writeJSON(sessionID, "session.json", manifest)
}

// WriteCompactManifest atomically writes a compact-mode projection of
// manifest per §4.7.
func (s *Store) WriteCompactManifest(sessionID string, manifest model.SessionManifest) error {
	return s.writeJSON(sessionID, "session.json", manifest.Compact())
}

// WriteReport atomically writes report.json.
func (s *Store) WriteReport(sessionID string, report model.ReviewReport) error {
	return s.writeJSON(sessionID, "report.json", report)
}

// WriteIssuesMarkdown writes issues.md when generateMarkdown is set.
func (s *Store) WriteIssuesMarkdown(sessionID, markdown string) error {
	return s.writeFile(sessionID, "issues.md", []byte(markdown))
}

// ScreenshotPath returns the canonical path for a session's
// screenshot.png, creating parent directories as needed.
func (s *Store) ScreenshotPath(sessionID string) (string, error) {
	return s.artifactPath(sessionID, "screenshot.png")
}

// AnnotatedPath returns the canonical path for annotated.png.
func (s *Store) AnnotatedPath(sessionID string) (string, error) {
	return s.artifactPath(sessionID, "annotated.png")
}

// DiffPath returns the canonical path for diff.png (compare mode).
func (s *Store) DiffPath(sessionID string) (string, error) {
	return s.artifactPath(sessionID, "diff.png")
}

// Load reads back a session's session.json.
func (s *Store) Load(sessionID string) (*model.SessionManifest, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	path := filepath.Join(s.Dir(sessionID), "session.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewEngineError(model.ErrArtifactWriteError, "session.Load", err)
	}
	var manifest model.SessionManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, model.NewEngineError(model.ErrArtifactWriteError, "session.Load", err)
	}
	return &manifest, nil
}

func (s *Store) artifactPath(sessionID, name string) (string, error) {
	if err := validateSessionID(sessionID); err != nil {
		return "", err
	}
	dir := s.Dir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", model.NewEngineError(model.ErrArtifactWriteError, "session.artifactPath", err)
	}
	return filepath.Join(dir, name), nil
}

func (s *Store) writeJSON(sessionID, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return model.NewEngineError(model.ErrArtifactWriteError, "session.writeJSON", err)
	}
	return s.writeFile(sessionID, name, data)
}

func (s *Store) writeFile(sessionID, name string, data []byte) error {
	path, err := s.artifactPath(sessionID, name)
	if err != nil {
		return err
	}
	if err := atomicWriteFile(path, data, 0o644); err != nil {
		return model.NewEngineError(model.ErrArtifactWriteError, "session.writeFile", err)
	}
	return nil
}

func validateSessionID(id string) error {
	if id == "" || strings.Contains(id, "..") || strings.ContainsAny(id, "/\\") {
		return model.NewEngineError(model.ErrArtifactWriteError, "session.validateSessionID",
			fmt.Errorf("invalid session id %q", id))
	}
	return nil
}
