// Package browser drives a headless Chrome instance via chromedp to
// gather everything one review needs in a single page visit: a
// screenshot, a bounded DOM snapshot, an accessibility scan, and a
// per-element computed-style table (§4.2 step 3, §9 "Browser
// ownership").
package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/design-review/internal/interfaces"
	"github.com/raysh454/design-review/internal/model"
)

//go:embed a11y.js
var a11yScript string

//go:embed snapshot.js
var snapshotScript string

// Bounds controls the §3.2 capture caps. Open uses FullBounds unless
// WithBounds selects another set; compact reviews do not switch to
// CompactBounds.
type Bounds struct {
	MaxDepth    int
	MaxChildren int
	MaxText     int
}

var CompactBounds = Bounds{MaxDepth: 3, MaxChildren: 10, MaxText: 50}
var FullBounds = Bounds{MaxDepth: 5, MaxChildren: 20, MaxText: 100}

// Driver is a scoped chromedp-backed browser.Browser. One Driver owns
// exactly one page at a time; concurrent reviews each acquire their own
// Driver over a fresh allocator context (§5).
type Driver struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc

	idleAfter time.Duration
	navTimeout time.Duration
	bounds    Bounds

	logger interfaces.Logger
}

// Option configures a Driver at construction time.
type Option func(*Driver)

func WithNavigationTimeout(d time.Duration) Option { return func(drv *Driver) { drv.navTimeout = d } }
func WithIdleWindow(d time.Duration) Option        { return func(drv *Driver) { drv.idleAfter = d } }
func WithBounds(b Bounds) Option                   { return func(drv *Driver) { drv.bounds = b } }

// Open acquires a fresh browser allocator context, mirroring the
// scoped-acquisition pattern from §9: open, run the pipeline, close on
// every exit path.
func Open(ctx context.Context, logger interfaces.Logger, opts ...Option) (*Driver, error) {
	allocCtx, allocCancel := chromedp.NewContext(ctx)

	drv := &Driver{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		idleAfter:   2 * time.Second,
		navTimeout:  30 * time.Second,
		bounds:      FullBounds,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(drv)
	}

	if err := chromedp.Run(allocCtx); err != nil {
		allocCancel()
		return nil, model.NewEngineError(model.ErrNavigationError, "browser.Open", err)
	}

	return drv, nil
}

func (d *Driver) Close() error {
	d.allocCancel()
	return nil
}

// Capture implements interfaces.Browser: navigate, wait for network
// idle, then gather screenshot + DOM snapshot + a11y scan in that order
// (§4.2 step 3 — capture is once per review; all checks read from it).
func (d *Driver) Capture(ctx context.Context, url string, viewport model.Viewport, screenshotDir string) (*model.Capture, error) {
	taskCtx, taskCancel := context.WithTimeout(d.allocCtx, d.navTimeout)
	defer taskCancel()

	go func() {
		select {
		case <-ctx.Done():
			taskCancel()
		case <-taskCtx.Done():
		}
	}()

	if viewport.Width == 0 {
		viewport = model.Viewport{Width: 1280, Height: 800}
	}

	if err := chromedp.Run(taskCtx, network.Enable()); err != nil {
		return nil, model.NewEngineError(model.ErrNavigationError, "browser.Capture", err)
	}

	idleChan := d.waitNetworkIdle(taskCtx)

	if err := chromedp.Run(taskCtx,
		chromedp.EmulateViewport(int64(viewport.Width), int64(viewport.Height)),
		chromedp.Navigate(url),
	); err != nil {
		if taskCtx.Err() != nil {
			return nil, model.NewEngineError(model.ErrNavigationTimeout, "browser.Capture", err)
		}
		return nil, model.NewEngineError(model.ErrNavigationError, "browser.Capture", err)
	}

	select {
	case <-idleChan:
	case <-taskCtx.Done():
		return nil, model.NewEngineError(model.ErrNavigationTimeout, "browser.Capture", taskCtx.Err())
	}

	capture := &model.Capture{
		URL:       url,
		Viewport:  viewport,
		Timestamp: time.Now().UTC(),
	}

	screenshotPath, err := d.captureScreenshot(taskCtx, screenshotDir)
	if err != nil {
		return nil, model.NewEngineError(model.ErrNavigationError, "browser.Capture.screenshot", err)
	}
	capture.ScreenshotPath = screenshotPath

	tree, elements, err := d.captureSnapshot(taskCtx)
	if err != nil {
		d.logger.Warn("dom snapshot failed", interfaces.Field{Key: "error", Value: err.Error()})
	} else {
		capture.DOMTree = tree
		capture.Elements = elements
	}

	a11yReport, err := d.captureA11y(taskCtx)
	if err != nil {
		d.logger.Warn("a11y scan failed, a11y-dependent checks will be skipped", interfaces.Field{Key: "error", Value: err.Error()})
	} else {
		capture.A11y = a11yReport
	}

	return capture, nil
}

func (d *Driver) captureScreenshot(ctx context.Context, dir string) (string, error) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return "", fmt.Errorf("capturing screenshot: %w", err)
	}

	path := filepath.Join(dir, "screenshot.png")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("writing screenshot: %w", err)
	}
	return path, nil
}

func (d *Driver) captureSnapshot(ctx context.Context) (model.DOMNode, map[model.ElementHandle]model.ElementInfo, error) {
	expr := fmt.Sprintf("(%s)(%d, %d, %d)", snapshotScript, d.bounds.MaxDepth, d.bounds.MaxChildren, d.bounds.MaxText)

	var raw string
	if err := chromedp.Run(ctx, chromedp.Evaluate(expr, &raw)); err != nil {
		return model.DOMNode{}, nil, fmt.Errorf("evaluating snapshot script: %w", err)
	}

	var parsed struct {
		Tree     jsonDOMNode                         `json:"tree"`
		Elements map[model.ElementHandle]jsonElement `json:"elements"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return model.DOMNode{}, nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	elements := make(map[model.ElementHandle]model.ElementInfo, len(parsed.Elements))
	for h, e := range parsed.Elements {
		elements[h] = e.toModel()
	}

	return parsed.Tree.toModel(), elements, nil
}

func (d *Driver) captureA11y(ctx context.Context) (model.A11yReport, error) {
	var raw string
	if err := chromedp.Run(ctx, chromedp.Evaluate(a11yScript, &raw)); err != nil {
		return model.A11yReport{}, fmt.Errorf("evaluating a11y script: %w", err)
	}

	var report model.A11yReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return model.A11yReport{}, fmt.Errorf("decoding a11y report: %w", err)
	}
	return report, nil
}

// waitNetworkIdle mirrors the teacher's debounced idle-detection: listen
// for in-flight requests, fire once idleAfter elapses with zero
// outstanding requests.
func (d *Driver) waitNetworkIdle(ctx context.Context) chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMu sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d.idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() { close(idleChan) })
			}
		})
	}

	startTimer()

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) == 0 {
				startTimer()
			}
		}
	})

	return idleChan
}

type jsonDOMNode struct {
	Tag       string        `json:"tag"`
	Handle    string        `json:"handle"`
	Text      string        `json:"text"`
	Children  []jsonDOMNode `json:"children"`
	Truncated bool          `json:"truncated"`
}

func (n jsonDOMNode) toModel() model.DOMNode {
	out := model.DOMNode{
		Tag:       n.Tag,
		Handle:    model.ElementHandle(n.Handle),
		Text:      n.Text,
		Truncated: n.Truncated,
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, c.toModel())
	}
	return out
}

type jsonElement struct {
	Handle       string            `json:"handle"`
	Tag          string            `json:"tag"`
	ID           string            `json:"id"`
	Classes      []string          `json:"classes"`
	Attrs        map[string]string `json:"attrs"`
	Text         string            `json:"text"`
	BoundingBox  model.Box         `json:"boundingBox"`
	ComputedCSS  map[string]string `json:"computedCss"`
	ParentHandle string            `json:"parentHandle"`
	NthChild     int               `json:"nthChild"`
}

func (e jsonElement) toModel() model.ElementInfo {
	return model.ElementInfo{
		Handle:       model.ElementHandle(e.Handle),
		Tag:          e.Tag,
		ID:           e.ID,
		Classes:      e.Classes,
		Attrs:        e.Attrs,
		Text:         e.Text,
		BoundingBox:  e.BoundingBox,
		ComputedCSS:  e.ComputedCSS,
		ParentHandle: model.ElementHandle(e.ParentHandle),
		NthChild:     e.NthChild,
	}
}

var _ interfaces.Browser = (*Driver)(nil)
