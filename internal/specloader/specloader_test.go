package specloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/raysh454/design-review/internal/model"
)

const baseSpec = `---
name: base-spec
version: "1.0"
---

## Accessibility

#### alt-text
- **Severity**: blocking
- **Description**: Images must have alt text.

#### color-contrast
- **Severity**: major
- **Description**: Text must meet contrast ratios.
`

const childSpec = `---
name: child-spec
version: "1.0"
extends: base-spec
---

## Layout

#### touch-targets
- **Severity**: major
- **Description**: Tap targets must be 44x44 minimum.

## Overrides

#### color-contrast
- **Severity**: minor
`

func writeSpec(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveExtendsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "base-spec", baseSpec)
	writeSpec(t, dir, "child-spec", childSpec)

	loader := NewLoader(dir)
	spec, err := loader.Resolve("child-spec")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if spec.Name != "child-spec" {
		t.Fatalf("name = %q", spec.Name)
	}
	if len(spec.Pillars) != 2 {
		t.Fatalf("expected 2 pillars, got %d", len(spec.Pillars))
	}

	checks := spec.AllChecks()
	var contrastSeverity model.Severity
	for _, c := range checks {
		if c.ID == "color-contrast" {
			contrastSeverity = c.Severity
		}
	}
	if contrastSeverity != model.SeverityMinor {
		t.Fatalf("expected override to downgrade color-contrast to minor, got %q", contrastSeverity)
	}
}

const configParentSpec = `---
name: config-parent
version: "1.0"
---

## Accessibility

#### accessibility-grade
- **Severity**: major
- **Description**: Overall accessibility grade must clear a minimum.
- **Config**: minimum_grade: C

#### color-contrast
- **Severity**: major
- **Description**: Text must meet contrast ratios.
- **Config**: minimum_ratio: 4.5, approved_fonts: [Arial, Helvetica]
`

const configChildSpec = `---
name: config-child
version: "1.0"
extends: config-parent
---

## Overrides

#### accessibility-grade
- **Config**: minimum_grade: B
`

func TestParseCheckConfigBullet(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "config-parent", configParentSpec)

	loader := NewLoader(dir)
	spec, err := loader.Resolve("config-parent")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	checks := spec.AllChecks()
	var contrast, grade model.Check
	for _, c := range checks {
		switch c.ID {
		case "color-contrast":
			contrast = c
		case "accessibility-grade":
			grade = c
		}
	}

	if ratio, _ := contrast.Config["minimum_ratio"].(float64); ratio != 4.5 {
		t.Fatalf("minimum_ratio = %v, want 4.5", contrast.Config["minimum_ratio"])
	}
	fonts, ok := contrast.Config["approved_fonts"].([]string)
	if !ok || len(fonts) != 2 || fonts[0] != "Arial" || fonts[1] != "Helvetica" {
		t.Fatalf("approved_fonts = %v", contrast.Config["approved_fonts"])
	}
	if gradeMin, _ := grade.Config["minimum_grade"].(string); gradeMin != "C" {
		t.Fatalf("minimum_grade = %v, want C", grade.Config["minimum_grade"])
	}
}

// TestResolveOverrideConfig is spec.md §8 Scenario C: child overrides
// accessibility-grade.config.minimum_grade from C to B while severity
// is inherited unchanged from the parent.
func TestResolveOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "config-parent", configParentSpec)
	writeSpec(t, dir, "config-child", configChildSpec)

	loader := NewLoader(dir)
	spec, err := loader.Resolve("config-child")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	var grade model.Check
	var found int
	for _, c := range spec.AllChecks() {
		if c.ID == "accessibility-grade" {
			grade = c
			found++
		}
	}
	if found != 1 {
		t.Fatalf("expected a single accessibility-grade check, got %d", found)
	}
	if grade.Severity != model.SeverityMajor {
		t.Fatalf("severity = %q, want inherited %q", grade.Severity, model.SeverityMajor)
	}
	if minGrade, _ := grade.Config["minimum_grade"].(string); minGrade != "B" {
		t.Fatalf("minimum_grade = %v, want B", grade.Config["minimum_grade"])
	}
}

func TestResolveCycle(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "a", "---\nname: a\nextends: b\n---\n## X\n")
	writeSpec(t, dir, "b", "---\nname: b\nextends: a\n---\n## Y\n")

	loader := NewLoader(dir)
	_, err := loader.Resolve("a")
	if err == nil {
		t.Fatal("expected cycle error")
	}

	var engErr *model.EngineError
	if !errorsAs(err, &engErr) || engErr.Kind != model.ErrSpecCycle {
		t.Fatalf("expected ErrSpecCycle, got %v", err)
	}
}

func TestResolveInvalidSeverity(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "bad", "---\nname: bad\n---\n## P\n\n#### check-one\n- **Severity**: catastrophic\n")

	loader := NewLoader(dir)
	_, err := loader.Resolve("bad")
	if err == nil {
		t.Fatal("expected parse error for invalid severity")
	}
}

func errorsAs(err error, target **model.EngineError) bool {
	for err != nil {
		if e, ok := err.(*model.EngineError); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
