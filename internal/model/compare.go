package model

// DiffRegion is one connected component of changed pixels between a
// live capture and a reference image (§4.6).
type DiffRegion struct {
	Box        Box     `json:"box"`
	PixelCount int     `json:"pixelCount"`
	Severity   Severity `json:"severity"`
}

// CompareResult is the outcome of diffing a live page screenshot against
// a reference image (§3.4, §4.6).
type CompareResult struct {
	URL            string       `json:"url"`
	ReferencePath  string       `json:"referencePath"`
	CurrentPath    string       `json:"currentPath"`
	DiffImagePath  string       `json:"diffImagePath"`
	PixelDiffRatio float64      `json:"pixelDiffRatio"`
	SSIM           float64      `json:"ssim"`
	Match          bool         `json:"match"`
	Regions        []DiffRegion `json:"regions"`
}

// SessionDiff is the SPEC_FULL §12 supplemented feature: an offline
// comparison of two previously-persisted review sessions of the same
// page.
type SessionDiff struct {
	OldSessionID   string   `json:"oldSessionId"`
	NewSessionID   string   `json:"newSessionId"`
	IssuesAdded    []Issue  `json:"issuesAdded"`
	IssuesResolved []Issue  `json:"issuesResolved"`
	PillarDeltas   map[string]int `json:"pillarDeltas"`
	DOMTextDiff    string   `json:"domTextDiff"`
}
