// Package checks implements the built-in check evaluators and the
// extensible id → evaluator registry (§4.3).
package checks

import (
	"context"
	"sort"
	"sync"

	"github.com/raysh454/design-review/internal/interfaces"
	"github.com/raysh454/design-review/internal/model"
)

// Registry maps check ids to evaluator functions. Unknown ids are not an
// error: the orchestrator treats them as human-check items and records a
// Skipped diagnostic (§4.3 "Model").
type Registry struct {
	mu         sync.RWMutex
	evaluators map[string]interfaces.Evaluator
}

// NewRegistry builds a registry pre-populated with the built-in
// evaluators from §4.3.
func NewRegistry() *Registry {
	r := &Registry{evaluators: make(map[string]interfaces.Evaluator)}
	r.Register("color-contrast", ColorContrast)
	r.Register("touch-targets", TouchTargets)
	r.Register("focus-indicators", FocusIndicators)
	r.Register("alt-text", AltText)
	r.Register("accessibility-grade", AccessibilityGrade)
	return r
}

// Register adds or replaces the evaluator for id. Consumers add checks
// by registering before invoking the orchestrator (§9 "Check
// extensibility") — there is no dynamic-dispatch hierarchy.
func (r *Registry) Register(id string, eval interfaces.Evaluator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluators[id] = eval
}

// Lookup returns the evaluator for id, if any is registered.
func (r *Registry) Lookup(id string) (interfaces.Evaluator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eval, ok := r.evaluators[id]
	return eval, ok
}

// IDs returns every registered check id, sorted for deterministic
// listing (e.g. in a CLI `--list-checks` style surface).
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.evaluators))
	for id := range r.evaluators {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Diagnostic records a check that could not run: either because no
// evaluator is registered for its id, or because the evaluator itself
// returned an error (§4.2 "Failure semantics", §7 EvaluatorError).
type Diagnostic struct {
	CheckID string `json:"checkId"`
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// Evaluate runs every check in spec order against capture, returning
// proto-issues in (check-position, emission-order) and any diagnostics
// for unregistered or failing checks. Evaluator failures are demoted to
// diagnostics, never fatal (§4.2, §7). Each returned proto-issue is
// stamped with the name of the pillar its check belongs to (§3.3).
func Evaluate(ctx context.Context, reg *Registry, capture *model.Capture, checks []model.PillarCheck) ([]model.ProtoIssue, []Diagnostic) {
	var issues []model.ProtoIssue
	var diagnostics []Diagnostic

	for _, pc := range checks {
		check := pc.Check
		eval, ok := reg.Lookup(check.ID)
		if !ok {
			diagnostics = append(diagnostics, Diagnostic{CheckID: check.ID, Kind: "Skipped", Message: "no evaluator registered"})
			continue
		}

		found, err := eval(ctx, capture, check)
		if err != nil {
			diagnostics = append(diagnostics, Diagnostic{
				CheckID: check.ID,
				Kind:    string(model.ErrEvaluatorError),
				Message: err.Error(),
			})
			continue
		}

		for i := range found {
			found[i].Pillar = pc.Pillar
		}
		issues = append(issues, found...)
	}

	return issues, diagnostics
}
