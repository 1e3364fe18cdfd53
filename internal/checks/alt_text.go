package checks

import (
	"context"
	"strings"

	"github.com/raysh454/design-review/internal/model"
)

const minAltLength = 5

// AltText is the §4.3 alt-text evaluator: blocking if alt is missing
// entirely, minor ("warning") if present but under minAltLength chars.
func AltText(ctx context.Context, capture *model.Capture, check model.Check) ([]model.ProtoIssue, error) {
	var issues []model.ProtoIssue
	for _, handle := range orderedHandles(capture) {
		el := capture.Elements[handle]
		if strings.ToUpper(el.Tag) != "IMG" {
			continue
		}

		alt, present := el.Attrs["alt"]
		switch {
		case !present:
			issues = append(issues, model.ProtoIssue{
				CheckID:     check.ID,
				Severity:    model.SeverityBlocking,
				Description: "image is missing an alt attribute",
				Element:     handle,
			})
		case len(strings.TrimSpace(alt)) < minAltLength:
			issues = append(issues, model.ProtoIssue{
				CheckID:     check.ID,
				Severity:    model.SeverityMinor,
				Description: "image alt text is present but very short",
				Element:     handle,
				Evidence:    map[string]any{"alt": alt},
			})
		}
	}

	return issues, nil
}
