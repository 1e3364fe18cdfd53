// Package review is the orchestrator tying together spec resolution,
// browser capture, check evaluation, selector synthesis, annotation,
// image comparison, and session persistence into the two public
// operations review() and compare() (§4.2).
package review

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/design-review/internal/interfaces"
	"github.com/raysh454/design-review/internal/logging"
	"github.com/raysh454/design-review/internal/session"
)

// JobEventType distinguishes the shapes an event-bus subscriber may
// receive (§6.3).
type JobEventType string

const (
	JobEventStarted     JobEventType = "review.started"
	JobEventIssueFound  JobEventType = "review.issue_found"
	JobEventCompleted   JobEventType = "review.completed"
	JobEventModeChanged JobEventType = "capture_mode.changed"
)

// JobEvent is one spec-order event emitted for a running job (§6.3).
// Events are sent without blocking; an event that finds the job's
// channel buffer full is dropped, so delivery is not at-least-once.
type JobEvent struct {
	JobID string       `json:"jobId"`
	Type  JobEventType `json:"type"`

	URL          string `json:"url,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
	SpecName     string `json:"spec,omitempty"`
	Issue        any    `json:"issue,omitempty"`
	Summary      any    `json:"summary,omitempty"`
	PillarGrades any    `json:"pillarGrades,omitempty"`
	Enabled      bool   `json:"enabled,omitempty"`
}

// JobStatus is a job's lifecycle state.
type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

// Job tracks one review() or compare() invocation in flight.
type Job struct {
	ID        string       `json:"id"`
	Kind      string       `json:"kind"` // "review" | "compare"
	URL       string       `json:"url"`
	Status    JobStatus    `json:"status"`
	Error     string       `json:"error,omitempty"`
	StartedAt time.Time    `json:"startedAt"`
	EndedAt   time.Time    `json:"endedAt"`
	Events    chan JobEvent `json:"-"`
}

// BrowserFactory opens a fresh scoped browser for one job (§9 "Browser
// ownership"). The default wraps internal/browser.Open; tests substitute
// a fake.
type BrowserFactory func(ctx context.Context, logger interfaces.Logger) (interfaces.Browser, error)

// Orchestrator runs review()/compare() jobs and tracks their lifecycle,
// adapted directly from the teacher's internal/app.Orchestrator
// (per-job context.CancelFunc map, non-blocking buffered event channel,
// retention-based cleanup of finished jobs).
type Orchestrator struct {
	logger  interfaces.Logger
	store   *session.Store
	openBrowser BrowserFactory

	jobsMu           sync.Mutex
	jobs             map[string]*Job
	jobCancels       map[string]context.CancelFunc
	jobRetentionTime time.Duration

	closedMu sync.Mutex
	closed   bool
}

// NewOrchestrator builds an Orchestrator. logger may be nil, in which
// case a no-op logger is used.
func NewOrchestrator(store *session.Store, openBrowser BrowserFactory, logger interfaces.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		logger:           logger,
		store:            store,
		openBrowser:      openBrowser,
		jobs:             make(map[string]*Job),
		jobCancels:       make(map[string]context.CancelFunc),
		jobRetentionTime: 10 * time.Minute,
	}
}

func (o *Orchestrator) newJob(kind, url string) *Job {
	return &Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		URL:       url,
		Status:    JobPending,
		StartedAt: time.Now().UTC(),
		Events:    make(chan JobEvent, 16),
	}
}

func (o *Orchestrator) setJob(job *Job) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	o.jobs[job.ID] = job
}

func (o *Orchestrator) setCancel(jobID string, cancel context.CancelFunc) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	o.jobCancels[jobID] = cancel
}

func (o *Orchestrator) getCancel(jobID string) context.CancelFunc {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	return o.jobCancels[jobID]
}

func (o *Orchestrator) deleteCancel(jobID string) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	delete(o.jobCancels, jobID)
}

func (o *Orchestrator) emit(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}
	// Non-blocking send; a slow/stuck subscriber never blocks the review
	// itself (§6.3 "Subscribers are best-effort").
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) setStatus(jobID string, status JobStatus, err error) {
	o.jobsMu.Lock()
	if j, ok := o.jobs[jobID]; ok {
		j.Status = status
		if err != nil {
			j.Error = err.Error()
		}
	}
	o.jobsMu.Unlock()
}

func (o *Orchestrator) finishJob(jobID string) {
	o.jobsMu.Lock()
	if j, ok := o.jobs[jobID]; ok {
		j.EndedAt = time.Now().UTC()
	}
	o.cleanupFinishedLocked()
	var events chan JobEvent
	if j, ok := o.jobs[jobID]; ok && j != nil {
		events = j.Events
	}
	o.jobsMu.Unlock()

	o.deleteCancel(jobID)
	if events != nil {
		close(events)
	}
}

func (o *Orchestrator) cleanupFinishedLocked() {
	if o.jobRetentionTime <= 0 {
		return
	}
	now := time.Now().UTC()
	for id, job := range o.jobs {
		if job == nil {
			delete(o.jobs, id)
			continue
		}
		if job.Status != JobDone && job.Status != JobFailed && job.Status != JobCanceled {
			continue
		}
		if job.EndedAt.IsZero() {
			continue
		}
		if now.Sub(job.EndedAt) > o.jobRetentionTime {
			delete(o.jobs, id)
		}
	}
}

// CancelJob cancels a running job's context, if any. Cancellation aborts
// the browser context and removes any partially-written session
// directory (§5).
func (o *Orchestrator) CancelJob(jobID string) {
	if cancel := o.getCancel(jobID); cancel != nil {
		cancel()
	}
}

// GetJob returns a tracked job by id, or nil.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	return o.jobs[jobID]
}

// Close cancels every in-flight job. Safe to call multiple times.
func (o *Orchestrator) Close() {
	o.closedMu.Lock()
	if o.closed {
		o.closedMu.Unlock()
		return
	}
	o.closed = true
	o.closedMu.Unlock()

	o.jobsMu.Lock()
	for id, cancel := range o.jobCancels {
		if cancel != nil {
			cancel()
		}
		delete(o.jobCancels, id)
	}
	o.jobsMu.Unlock()
}
