package model

import "time"

// Viewport is the emulated browser window size used for a capture.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ElementHandle identifies a captured element for later lookup without
// re-querying the live page.
type ElementHandle string

// ElementInfo is everything a check or the selector synthesizer needs
// about one element, captured once per review.
type ElementInfo struct {
	Handle       ElementHandle     `json:"handle"`
	Tag          string            `json:"tag"`
	ID           string            `json:"id,omitempty"`
	Classes      []string          `json:"classes,omitempty"`
	Attrs        map[string]string `json:"attrs,omitempty"`
	Text         string            `json:"text,omitempty"`
	BoundingBox  Box               `json:"boundingBox"`
	ComputedCSS  map[string]string `json:"computedCss,omitempty"`
	ParentHandle ElementHandle     `json:"parentHandle,omitempty"`
	NthChild     int               `json:"nthChild"`
}

// Box is a pixel rectangle in page coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DOMNode is one bounded node of the captured DOM snapshot tree (§3.2:
// depth and children capped, text truncated).
type DOMNode struct {
	Tag      string     `json:"tag"`
	Handle   ElementHandle `json:"handle,omitempty"`
	Text     string     `json:"text,omitempty"`
	Children []DOMNode  `json:"children,omitempty"`
	Truncated bool      `json:"truncated,omitempty"`
}

// A11yViolation mirrors the axe-core wire schema the embedded scan
// script produces: {violations[].{id,impact,description,nodes[].{html}}}.
type A11yViolation struct {
	ID          string          `json:"id"`
	Impact      string          `json:"impact"`
	Description string          `json:"description"`
	Nodes       []A11yNode      `json:"nodes"`
}

type A11yNode struct {
	HTML    string `json:"html"`
	Handle  ElementHandle `json:"handle,omitempty"`
}

// A11yReport is the full set of violations found during one capture.
type A11yReport struct {
	Violations []A11yViolation `json:"violations"`
}

// Capture is everything gathered from one browser visit to one URL,
// shared across every check evaluator and the annotator (§3.2, §4.2).
type Capture struct {
	URL            string                          `json:"url"`
	Viewport       Viewport                        `json:"viewport"`
	Timestamp      time.Time                       `json:"timestamp"`
	ScreenshotPath string                          `json:"screenshotPath"`
	DOMTree        DOMNode                         `json:"domTree"`
	A11y           A11yReport                      `json:"a11y"`
	Elements       map[ElementHandle]ElementInfo   `json:"elements"`
}
