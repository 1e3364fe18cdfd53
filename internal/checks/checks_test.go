package checks

import (
	"context"
	"testing"

	"github.com/raysh454/design-review/internal/model"
)

func TestColorContrastScenarioA(t *testing.T) {
	capture := &model.Capture{
		Elements: map[model.ElementHandle]model.ElementInfo{
			"e1": {
				Handle: "e1",
				Tag:    "p",
				Text:   "hi",
				ComputedCSS: map[string]string{
					"color":            "#bbbbbb",
					"background-color": "#ffffff",
				},
			},
		},
	}
	check := model.Check{ID: "color-contrast", Severity: model.SeverityMajor, Config: map[string]any{"minimum_ratio": 4.5}}

	issues, err := ColorContrast(context.Background(), capture, check)
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	ratio := issues[0].Evidence["ratio"].(float64)
	if ratio < 1.85 || ratio > 2.0 {
		t.Fatalf("expected ratio near 1.92, got %v", ratio)
	}
	if issues[0].Severity != model.SeverityMajor {
		t.Fatalf("severity = %v", issues[0].Severity)
	}
}

func TestTouchTargetsScenarioB(t *testing.T) {
	capture := &model.Capture{
		Elements: map[model.ElementHandle]model.ElementInfo{
			"e1": {Handle: "e1", Tag: "button", BoundingBox: model.Box{Width: 24, Height: 24}},
		},
	}
	check := model.Check{ID: "touch-targets", Severity: model.SeverityMajor, Config: map[string]any{"minimum_size": 44}}

	issues, err := TouchTargets(context.Background(), capture, check)
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	ev := issues[0].Evidence
	if ev["width"].(float64) != 24 || ev["height"].(float64) != 24 || ev["minimum"].(float64) != 44 {
		t.Fatalf("unexpected evidence: %+v", ev)
	}
}

func TestAltTextMissingIsBlocking(t *testing.T) {
	capture := &model.Capture{
		Elements: map[model.ElementHandle]model.ElementInfo{
			"e1": {Handle: "e1", Tag: "img", Attrs: map[string]string{"src": "a.png"}},
		},
	}
	check := model.Check{ID: "alt-text", Severity: model.SeverityMinor}

	issues, err := AltText(context.Background(), capture, check)
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 1 || issues[0].Severity != model.SeverityBlocking {
		t.Fatalf("expected one blocking issue, got %+v", issues)
	}
}

func TestAccessibilityGradeMonotonic(t *testing.T) {
	// §8 invariant 10: if B's violations are a strict subset of A's by
	// impact, grade(B) >= grade(A).
	captureA := &model.Capture{A11y: model.A11yReport{Violations: []model.A11yViolation{
		{Impact: "critical"}, {Impact: "serious"}, {Impact: "moderate"},
	}}}
	captureB := &model.Capture{A11y: model.A11yReport{Violations: []model.A11yViolation{
		{Impact: "serious"},
	}}}

	gradeA := GradeForWeight(ViolationWeight(captureA.A11y))
	gradeB := GradeForWeight(ViolationWeight(captureB.A11y))

	if gradeRank[gradeB] < gradeRank[gradeA] {
		t.Fatalf("expected grade(B)=%s >= grade(A)=%s", gradeB, gradeA)
	}
}

func TestRegistryUnknownCheckIsDiagnosticNotError(t *testing.T) {
	reg := NewRegistry()
	capture := &model.Capture{Elements: map[model.ElementHandle]model.ElementInfo{}}
	checks := []model.PillarCheck{{Pillar: "Misc", Check: model.Check{ID: "nonexistent-check", Severity: model.SeverityMinor}}}

	issues, diags := Evaluate(context.Background(), reg, capture, checks)
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %d", len(issues))
	}
	if len(diags) != 1 || diags[0].Kind != "Skipped" {
		t.Fatalf("expected one Skipped diagnostic, got %+v", diags)
	}
}

func TestEvaluateStampsPillarOnIssues(t *testing.T) {
	reg := NewRegistry()
	capture := &model.Capture{
		Elements: map[model.ElementHandle]model.ElementInfo{
			"e1": {Handle: "e1", Tag: "img", Attrs: map[string]string{"src": "a.png"}},
		},
	}
	checks := []model.PillarCheck{{Pillar: "Accessibility", Check: model.Check{ID: "alt-text", Severity: model.SeverityMinor}}}

	issues, _ := Evaluate(context.Background(), reg, capture, checks)
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	if issues[0].Pillar != "Accessibility" {
		t.Fatalf("pillar = %q, want Accessibility", issues[0].Pillar)
	}
}
