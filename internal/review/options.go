package review

import "github.com/raysh454/design-review/internal/compare"

// Options configures one review() invocation (§4.2 "Public operations").
type Options struct {
	// Selector optionally scopes the review to elements matching this
	// CSS selector and its descendants.
	Selector string
	Annotate bool
	Compact  bool
	GenerateTasks    bool
	GenerateMarkdown bool
	// SessionID overrides the generated session id when non-empty.
	SessionID string
	Viewport  struct {
		Width  int
		Height int
	}
}

// DefaultOptions returns review() defaults: no scoping selector,
// annotation on, full (non-compact) output.
func DefaultOptions() Options {
	opts := Options{Annotate: true}
	opts.Viewport.Width = 1280
	opts.Viewport.Height = 800
	return opts
}

// CompareOptions configures one compare() invocation (§4.2 "Public
// operations").
type CompareOptions struct {
	PixelThreshold float64
	SSIMThreshold  float64
	DiffStyle      compare.DiffStyle
	Method         compare.Method
	ViewportOnly   bool
	SessionID      string
}

// DefaultCompareOptions returns the §9 open-question tunable defaults
// (5% pixel, 0.95 SSIM), hybrid method, overlay visualization.
func DefaultCompareOptions() CompareOptions {
	d := compare.DefaultOptions()
	return CompareOptions{
		PixelThreshold: d.PixelThreshold,
		SSIMThreshold:  d.SSIMThreshold,
		DiffStyle:      d.DiffStyle,
		Method:         d.Method,
	}
}
