package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/raysh454/design-review/internal/model"
)

var touchTargetTags = map[string]bool{
	"BUTTON": true, "A": true, "SELECT": true,
}

var touchTargetRoles = map[string]bool{
	"button": true, "link": true, "menuitem": true,
}

// TouchTargets is the §4.3 touch-targets evaluator.
func TouchTargets(ctx context.Context, capture *model.Capture, check model.Check) ([]model.ProtoIssue, error) {
	minSize := floatConfig(check.Config, "minimum_size", 44)

	var issues []model.ProtoIssue
	for _, handle := range orderedHandles(capture) {
		el := capture.Elements[handle]
		tag := strings.ToUpper(el.Tag)

		isTarget := touchTargetTags[tag]
		if tag == "INPUT" {
			t := strings.ToLower(el.Attrs["type"])
			if t == "button" || t == "submit" {
				isTarget = true
			}
		}
		if role := strings.ToLower(el.Attrs["role"]); touchTargetRoles[role] {
			isTarget = true
		}
		if !isTarget {
			continue
		}

		w, h := el.BoundingBox.Width, el.BoundingBox.Height
		min := w
		if h < min {
			min = h
		}
		if min >= minSize {
			continue
		}

		issues = append(issues, model.ProtoIssue{
			CheckID:     check.ID,
			Severity:    check.Severity,
			Description: fmt.Sprintf("touch target is %.0fx%.0fpx, below the required %.0fpx minimum", w, h, minSize),
			Element:     handle,
			Evidence: map[string]any{
				"width":   w,
				"height":  h,
				"minimum": minSize,
			},
		})
	}

	return issues, nil
}
