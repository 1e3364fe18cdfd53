package checks

import (
	"context"
	"fmt"

	"github.com/raysh454/design-review/internal/model"
)

// gradeRank orders letter grades worst-to-best for comparison; used both
// to enforce config.minimum_grade and to support the monotonicity
// property tested in §8 invariant 10.
var gradeRank = map[string]int{"F": 0, "C": 1, "B": 2, "A": 3}

// ViolationWeight aggregates an a11y report into the §4.3 weighted
// score: critical*4 + serious*2 + moderate*1 (minor contributes 0).
func ViolationWeight(report model.A11yReport) int {
	weight := 0
	for _, v := range report.Violations {
		switch v.Impact {
		case "critical":
			weight += 4
		case "serious":
			weight += 2
		case "moderate":
			weight += 1
		}
	}
	return weight
}

// GradeForWeight maps a weighted violation score to a letter grade.
func GradeForWeight(weight int) string {
	switch {
	case weight <= 0:
		return "A"
	case weight <= 3:
		return "B"
	case weight <= 10:
		return "C"
	default:
		return "F"
	}
}

// AccessibilityGrade is the §4.3 accessibility-grade evaluator.
func AccessibilityGrade(ctx context.Context, capture *model.Capture, check model.Check) ([]model.ProtoIssue, error) {
	weight := ViolationWeight(capture.A11y)
	grade := GradeForWeight(weight)

	minGrade, _ := check.Config["minimum_grade"].(string)
	if minGrade == "" {
		minGrade = "C"
	}

	if gradeRank[grade] >= gradeRank[minGrade] {
		return nil, nil
	}

	return []model.ProtoIssue{{
		CheckID:     check.ID,
		Severity:    check.Severity,
		Description: fmt.Sprintf("accessibility grade %s is below the required minimum %s", grade, minGrade),
		Evidence: map[string]any{
			"grade":        grade,
			"minimumGrade": minGrade,
			"weight":       weight,
			"violations":   len(capture.A11y.Violations),
		},
	}}, nil
}
