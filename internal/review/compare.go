package review

import (
	"context"

	"github.com/raysh454/design-review/internal/compare"
	"github.com/raysh454/design-review/internal/model"
	"github.com/raysh454/design-review/internal/session"
)

// Compare runs the compare() pipeline: capture the live page, diff it
// against referencePath, and persist diff.png + session.json (§4.2
// "Public operations", §4.6).
func (o *Orchestrator) Compare(ctx context.Context, url, referencePath string, opts CompareOptions) (*model.CompareResult, error) {
	job := o.newJob("compare", url)
	o.setJob(job)
	jobCtx, cancel := context.WithCancel(ctx)
	o.setCancel(job.ID, cancel)
	defer o.finishJob(job.ID)
	o.setStatus(job.ID, JobRunning, nil)

	result, err := o.runCompare(jobCtx, url, referencePath, opts, job.ID)
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

func (o *Orchestrator) runCompare(ctx context.Context, url, referencePath string, opts CompareOptions, jobID string) (*model.CompareResult, error) {
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = session.NewCompareSessionID()
	}

	o.emit(jobID, JobEvent{JobID: jobID, Type: JobEventStarted, URL: url, SessionID: sessionID})

	browserDriver, err := o.openBrowser(ctx, o.logger)
	if err != nil {
		return nil, model.NewEngineError(model.ErrNavigationError, "review.Compare", err)
	}
	defer browserDriver.Close()

	screenshotDir, err := o.store.Create(sessionID)
	if err != nil {
		return nil, err
	}

	viewport := model.Viewport{Width: 1280, Height: 800}
	capture, err := browserDriver.Capture(ctx, url, viewport, screenshotDir)
	if err != nil {
		_ = o.store.Abort(sessionID)
		return nil, err
	}

	diffPath, err := o.store.DiffPath(sessionID)
	if err != nil {
		_ = o.store.Abort(sessionID)
		return nil, err
	}

	compareOpts := compare.Options{
		Method:         opts.Method,
		DiffStyle:      opts.DiffStyle,
		PixelThreshold: opts.PixelThreshold,
		SSIMThreshold:  opts.SSIMThreshold,
	}
	result, err := compare.Compare(referencePath, capture.ScreenshotPath, diffPath, compareOpts)
	if err != nil {
		_ = o.store.Abort(sessionID)
		return nil, err
	}
	result.URL = url

	manifest := model.SessionManifest{
		SchemaVersion: model.SessionSchemaVersion,
		SessionID:     sessionID,
		URL:           url,
		Artifacts: model.Artifacts{
			Screenshot: capture.ScreenshotPath,
			Diff:       diffPath,
		},
	}
	if err := o.store.WriteManifest(sessionID, manifest); err != nil {
		_ = o.store.Abort(sessionID)
		return nil, err
	}

	o.emit(jobID, JobEvent{JobID: jobID, Type: JobEventCompleted, SessionID: sessionID})
	return result, nil
}
