package model

// SessionKind distinguishes the two top-level job types (§4.2).
type SessionKind string

const (
	SessionKindReview  SessionKind = "review"
	SessionKindCompare SessionKind = "compare"
)

// SessionSchemaVersion is the session.json schema version (§6.4).
const SessionSchemaVersion = "1.1"

// SpecRef identifies the spec a review was run against.
type SpecRef struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	ResolvedFrom string `json:"resolvedFrom"`
}

// IssueSummary is session.json's severity rollup.
type IssueSummary struct {
	Blocking int `json:"blocking"`
	Major    int `json:"major"`
	Minor    int `json:"minor"`
	Passing  int `json:"passing"`
}

// PillarGradeSummary is one entry of session.json's pillarGrades map.
type PillarGradeSummary struct {
	Grade     string `json:"grade"`
	Passing   int    `json:"passing"`
	Attention int    `json:"attention"`
	Blocking  int    `json:"blocking"`
}

// Artifacts lists the on-disk paths a session wrote (§6.2), as the
// session store builds them: the store root joined with the session id
// and file name. They are not relative to the session directory.
type Artifacts struct {
	Screenshot string `json:"screenshot,omitempty"`
	Annotated  string `json:"annotated,omitempty"`
	Report     string `json:"report,omitempty"`
	Markdown   string `json:"markdown,omitempty"`
	Diff       string `json:"diff,omitempty"`
}

// SessionManifest is session.json, the essential persisted fields from
// §6.4 verbatim.
type SessionManifest struct {
	SchemaVersion string                        `json:"schemaVersion"`
	SessionID     string                        `json:"sessionId"`
	URL           string                        `json:"url"`
	StartTime     string                        `json:"startTime"`
	EndTime       string                        `json:"endTime,omitempty"`
	Spec          *SpecRef                      `json:"spec,omitempty"`
	Summary       IssueSummary                  `json:"summary"`
	PillarGrades  map[string]PillarGradeSummary `json:"pillarGrades,omitempty"`
	Issues        []Issue                       `json:"issues"`
	Artifacts     Artifacts                     `json:"artifacts"`
}

// Compact returns a stripped projection of m per §4.7 "Compact mode":
// issue detail fields narrowed, DOM/a11y/evidence omitted entirely
// (those never lived on SessionManifest to begin with), keeping only
// what a caller needs to see severity and location at a glance.
func (m SessionManifest) Compact() SessionManifest {
	compact := m
	compact.Issues = make([]Issue, len(m.Issues))
	for i, issue := range m.Issues {
		compact.Issues[i] = Issue{
			ID:          issue.ID,
			CheckID:     issue.CheckID,
			Pillar:      issue.Pillar,
			Severity:    issue.Severity,
			Description: issue.Description,
			CSSSelector: issue.CSSSelector,
		}
	}
	return compact
}
