package review

import (
	"context"
	"errors"
	"time"

	"github.com/raysh454/design-review/internal/annotate"
	"github.com/raysh454/design-review/internal/checks"
	"github.com/raysh454/design-review/internal/model"
	"github.com/raysh454/design-review/internal/selector"
	"github.com/raysh454/design-review/internal/specloader"
)

// Result is the outcome of one review() invocation: summary counts,
// pillar grades, the issue list, and artifact paths (§4.2 step 8).
type Result struct {
	OK           bool                 `json:"ok"`
	ErrorKind    string               `json:"errorKind,omitempty"`
	Message      string               `json:"message,omitempty"`
	SessionID    string               `json:"sessionId,omitempty"`
	URL          string               `json:"url,omitempty"`
	Summary      model.IssueSummary   `json:"summary,omitempty"`
	PillarGrades []model.PillarScore  `json:"pillarGrades,omitempty"`
	OverallGrade string               `json:"overallGrade,omitempty"`
	Issues       []model.Issue        `json:"issues,omitempty"`
	Diagnostics  []model.Diagnostic   `json:"diagnostics,omitempty"`
	Manifest     *model.SessionManifest `json:"-"`
}

// Review runs the full review() pipeline (§4.2 "Algorithm (review)")
// against loader/registry for one URL and spec name.
func (o *Orchestrator) Review(ctx context.Context, loader *specloader.Loader, registry *checks.Registry, url, specName string, opts Options) (*Result, error) {
	job := o.newJob("review", url)
	o.setJob(job)
	jobCtx, cancel := context.WithCancel(ctx)
	o.setCancel(job.ID, cancel)
	defer o.finishJob(job.ID)
	o.setStatus(job.ID, JobRunning, nil)

	result, err := o.runReview(jobCtx, loader, registry, url, specName, opts, job.ID)
	select {
	case <-jobCtx.Done():
		o.setStatus(job.ID, JobCanceled, jobCtx.Err())
	default:
		if err != nil {
			o.setStatus(job.ID, JobFailed, err)
		} else {
			o.setStatus(job.ID, JobDone, nil)
		}
	}
	return result, err
}

func (o *Orchestrator) runReview(ctx context.Context, loader *specloader.Loader, registry *checks.Registry, url, specName string, opts Options, jobID string) (*Result, error) {
	// Step 1: resolve spec.
	spec, err := loader.Resolve(specName)
	if err != nil {
		return &Result{OK: false, ErrorKind: string(engineErrorKind(err)), Message: err.Error()}, err
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = o.store.NewReviewSessionID(time.Now().UTC())
	}

	o.emit(jobID, JobEvent{JobID: jobID, Type: JobEventStarted, URL: url, SessionID: sessionID, SpecName: spec.Name})

	// Step 2 + 3: acquire a scoped browser, navigate, capture once.
	viewport := model.Viewport{Width: opts.Viewport.Width, Height: opts.Viewport.Height}
	if viewport.Width == 0 {
		viewport = model.Viewport{Width: 1280, Height: 800}
	}

	browser, err := o.openBrowser(ctx, o.logger)
	if err != nil {
		return &Result{OK: false, ErrorKind: string(model.ErrNavigationError), Message: err.Error()}, err
	}
	defer browser.Close()

	screenshotDir, err := o.store.Create(sessionID)
	if err != nil {
		return &Result{OK: false, ErrorKind: string(model.ErrArtifactWriteError), Message: err.Error()}, err
	}

	capture, err := browser.Capture(ctx, url, viewport, screenshotDir)
	if err != nil {
		_ = o.store.Abort(sessionID)
		return &Result{OK: false, ErrorKind: string(engineErrorKind(err)), Message: err.Error()}, err
	}

	if opts.Selector != "" {
		capture = scopeCapture(capture, opts.Selector)
	}

	// Step 4: run every check in spec order.
	allChecks := spec.AllPillarChecks()
	protoIssues, diagnostics := checks.Evaluate(ctx, registry, capture, allChecks)

	// Step 5: assign sequential ids in (check-position, emission-order),
	// resolve element handles to CSS selectors.
	issues := resolveIssues(protoIssues, capture)
	for _, issue := range issues {
		o.emit(jobID, JobEvent{JobID: jobID, Type: JobEventIssueFound, SessionID: sessionID, Issue: issue})
	}

	// Step 6: pillar grades.
	pillarScores := gradePillars(spec, issues)
	overallGrade := OverallGrade(pillarScores)

	summary := summarize(issues)

	// Step 7: annotate if requested.
	var annotatedPath string
	if opts.Annotate {
		annotatedPath, err = o.store.AnnotatedPath(sessionID)
		if err == nil {
			if _, aerr := annotate.Annotate(capture.ScreenshotPath, issues, annotatedPath); aerr != nil {
				o.logger.Warn("annotation failed, review still succeeds without annotated.png")
				annotatedPath = ""
			}
		}
	}

	// Step 8: persist.
	modelDiagnostics := make([]model.Diagnostic, len(diagnostics))
	for i, d := range diagnostics {
		modelDiagnostics[i] = model.Diagnostic{CheckID: d.CheckID, Kind: d.Kind, Message: d.Message}
	}

	report := model.ReviewReport{
		URL:            url,
		SpecName:       spec.Name,
		SpecVersion:    spec.Version,
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
		Issues:         issues,
		PillarScores:   pillarScores,
		OverallGrade:   overallGrade,
		AnnotatedImage: annotatedPath,
		Diagnostics:    modelDiagnostics,
	}
	if err := o.store.WriteReport(sessionID, report); err != nil {
		_ = o.store.Abort(sessionID)
		return &Result{OK: false, ErrorKind: string(model.ErrArtifactWriteError), Message: err.Error()}, err
	}

	manifest := buildManifest(sessionID, url, spec, summary, pillarScores, issues, capture.ScreenshotPath, annotatedPath)

	if opts.Compact {
		err = o.store.WriteCompactManifest(sessionID, manifest)
	} else {
		err = o.store.WriteManifest(sessionID, manifest)
	}
	if err != nil {
		_ = o.store.Abort(sessionID)
		return &Result{OK: false, ErrorKind: string(model.ErrArtifactWriteError), Message: err.Error()}, err
	}

	o.emit(jobID, JobEvent{JobID: jobID, Type: JobEventCompleted, SessionID: sessionID, Summary: summary, PillarGrades: pillarScores})

	return &Result{
		OK:           true,
		SessionID:    sessionID,
		URL:          url,
		Summary:      summary,
		PillarGrades: pillarScores,
		OverallGrade: overallGrade,
		Issues:       issues,
		Diagnostics:  modelDiagnostics,
		Manifest:     &manifest,
	}, nil
}

// resolveIssues implements §4.2 step 5: sequential ids in
// (check-position, emission-order), then selector synthesis (§4.4).
func resolveIssues(proto []model.ProtoIssue, capture *model.Capture) []model.Issue {
	issues := make([]model.Issue, 0, len(proto))
	for i, p := range proto {
		issue := model.Issue{
			ID:             i + 1,
			CheckID:        p.CheckID,
			Pillar:         p.Pillar,
			Severity:       p.Severity,
			Description:    p.Description,
			Recommendation: p.Recommendation,
			Evidence:       p.Evidence,
		}
		if p.Element != "" {
			if el, ok := capture.Elements[p.Element]; ok {
				issue.CSSSelector = selector.Synthesize(el, capture.Elements)
				box := el.BoundingBox
				issue.BoundingBox = &box
			}
		}
		issues = append(issues, issue)
	}
	return issues
}

// scopeCapture restricts capture to a selector-scoped subtree: an element
// is kept when it or one of its captured ancestors matches sel. Since
// selector matching against a captured element table (rather than a
// live DOM) is necessarily approximate, a match is either equality with
// the element's synthesized selector or sel being its #id, .class or tag.
func scopeCapture(capture *model.Capture, sel string) *model.Capture {
	scoped := *capture
	scoped.Elements = make(map[model.ElementHandle]model.ElementInfo, len(capture.Elements))
	for handle, el := range capture.Elements {
		for cur, ok := el, true; ok; cur, ok = capture.Elements[cur.ParentHandle] {
			if selector.Synthesize(cur, capture.Elements) == sel || matchesScope(cur, sel) {
				scoped.Elements[handle] = el
				break
			}
		}
	}
	return &scoped
}

func matchesScope(el model.ElementInfo, sel string) bool {
	if sel == "" {
		return true
	}
	if sel == "#"+el.ID {
		return true
	}
	for _, c := range el.Classes {
		if sel == "."+c {
			return true
		}
	}
	return sel == el.Tag
}

func summarize(issues []model.Issue) model.IssueSummary {
	var s model.IssueSummary
	for _, issue := range issues {
		switch issue.Severity {
		case model.SeverityBlocking:
			s.Blocking++
		case model.SeverityMajor:
			s.Major++
		default:
			s.Minor++
		}
	}
	return s
}

func buildManifest(sessionID, url string, spec *model.Spec, summary model.IssueSummary, scores []model.PillarScore, issues []model.Issue, screenshotPath, annotatedPath string) model.SessionManifest {
	grades := make(map[string]model.PillarGradeSummary, len(scores))
	for _, s := range scores {
		grades[s.Pillar] = model.PillarGradeSummary{
			Grade:     s.Grade,
			Passing:   s.PassingChecks,
			Attention: s.AttentionChecks,
			Blocking:  s.BlockingCount,
		}
	}

	return model.SessionManifest{
		SchemaVersion: model.SessionSchemaVersion,
		SessionID:     sessionID,
		URL:           url,
		StartTime:     time.Now().UTC().Format(time.RFC3339),
		EndTime:       time.Now().UTC().Format(time.RFC3339),
		Spec:          &model.SpecRef{Name: spec.Name, Version: spec.Version, ResolvedFrom: spec.SourcePath},
		Summary:       summary,
		PillarGrades:  grades,
		Issues:        issues,
		Artifacts: model.Artifacts{
			Screenshot: screenshotPath,
			Annotated:  annotatedPath,
		},
	}
}

func engineErrorKind(err error) model.ErrorKind {
	var ee *model.EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return model.ErrNavigationError
}
