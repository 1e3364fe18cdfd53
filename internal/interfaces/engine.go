package interfaces

import (
	"context"

	"github.com/raysh454/design-review/internal/model"
)

// Browser drives a headless browser for one review or compare job. A
// fresh scoped instance is acquired per job; implementations own exactly
// one page at a time (§5 concurrency model).
type Browser interface {
	// Capture navigates to url, waits for network idle, and gathers the
	// bounded DOM snapshot, accessibility report, element table and a
	// PNG screenshot written to screenshotDir.
	Capture(ctx context.Context, url string, viewport model.Viewport, screenshotDir string) (*model.Capture, error)

	Close() error
}

// Evaluator is one check implementation. Evaluators are pure over a
// Capture: no network I/O, no mutation (§4.3).
type Evaluator func(ctx context.Context, capture *model.Capture, check model.Check) ([]model.ProtoIssue, error)
