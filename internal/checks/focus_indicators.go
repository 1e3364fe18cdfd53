package checks

import (
	"context"
	"strings"

	"github.com/raysh454/design-review/internal/model"
)

var focusableTags = map[string]bool{
	"A": true, "BUTTON": true, "INPUT": true, "SELECT": true, "TEXTAREA": true,
}

func isFocusable(el model.ElementInfo) bool {
	if focusableTags[strings.ToUpper(el.Tag)] {
		return true
	}
	if _, ok := el.Attrs["tabindex"]; ok {
		return true
	}
	return false
}

// FocusIndicators is the §4.3 focus-indicators evaluator: fails an
// element when both computed outlineStyle and boxShadow on
// :focus-visible are "none".
func FocusIndicators(ctx context.Context, capture *model.Capture, check model.Check) ([]model.ProtoIssue, error) {
	var issues []model.ProtoIssue
	for _, handle := range orderedHandles(capture) {
		el := capture.Elements[handle]
		if !isFocusable(el) {
			continue
		}

		outline := strings.ToLower(strings.TrimSpace(el.ComputedCSS["outline-style:focus-visible"]))
		shadow := strings.ToLower(strings.TrimSpace(el.ComputedCSS["box-shadow:focus-visible"]))

		if outline != "none" && outline != "" {
			continue
		}
		if shadow != "none" && shadow != "" {
			continue
		}

		issues = append(issues, model.ProtoIssue{
			CheckID:     check.ID,
			Severity:    check.Severity,
			Description: "focusable element has no visible :focus-visible outline or box-shadow",
			Element:     handle,
			Evidence: map[string]any{
				"outlineStyle": el.ComputedCSS["outline-style:focus-visible"],
				"boxShadow":    el.ComputedCSS["box-shadow:focus-visible"],
			},
		})
	}

	return issues, nil
}
