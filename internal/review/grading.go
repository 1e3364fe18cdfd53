package review

import "github.com/raysh454/design-review/internal/model"

// checkOutcome is a check's worst observed issue severity within one
// pillar (§4.2 step 6).
type checkOutcome int

const (
	outcomePass checkOutcome = iota
	outcomeMinorOnly
	outcomeMajor
	outcomeBlocking
)

// gradePillars computes §4.2 step 6's per-pillar letter grades: for
// every pillar, classify each of its checks by outcome (worst severity
// among issues it raised, or pass if it raised none), then grade as "no
// blocking + no major → A if all pass else B; any major without
// blocking → C; any blocking → F".
func gradePillars(spec *model.Spec, issues []model.Issue) []model.PillarScore {
	issuesByCheck := make(map[string][]model.Issue, len(issues))
	for _, issue := range issues {
		issuesByCheck[issue.CheckID] = append(issuesByCheck[issue.CheckID], issue)
	}

	var scores []model.PillarScore
	for _, pillar := range spec.Pillars {
		var anyBlocking, anyMajor, anyMinorOnly bool
		var blockingIssues, majorIssues, minorIssues int
		var passingChecks, attentionChecks int

		for _, check := range pillar.Checks {
			outcome := outcomePass
			for _, issue := range issuesByCheck[check.ID] {
				switch issue.Severity {
				case model.SeverityBlocking:
					blockingIssues++
					outcome = outcomeBlocking
				case model.SeverityMajor:
					majorIssues++
					if outcome < outcomeMajor {
						outcome = outcomeMajor
					}
				default:
					minorIssues++
					if outcome < outcomeMinorOnly {
						outcome = outcomeMinorOnly
					}
				}
			}
			switch outcome {
			case outcomeBlocking:
				anyBlocking = true
				attentionChecks++
			case outcomeMajor:
				anyMajor = true
				attentionChecks++
			case outcomeMinorOnly:
				anyMinorOnly = true
				attentionChecks++
			default:
				passingChecks++
			}
		}

		scores = append(scores, model.PillarScore{
			Pillar:          pillar.Name,
			Grade:           gradeFor(anyBlocking, anyMajor, anyMinorOnly),
			BlockingCount:   blockingIssues,
			MajorCount:      majorIssues,
			MinorCount:      minorIssues,
			PassingChecks:   passingChecks,
			AttentionChecks: attentionChecks,
		})
	}
	return scores
}

// gradeFor implements §4.2 step 6 verbatim: no blocking + no major → A
// if all pass else B; any major without blocking → C; any blocking → F.
func gradeFor(anyBlocking, anyMajor, anyMinorOnly bool) string {
	switch {
	case anyBlocking:
		return "F"
	case anyMajor:
		return "C"
	case anyMinorOnly:
		return "B"
	default:
		return "A"
	}
}

// OverallGrade reduces a set of pillar scores to one letter grade: the
// worst grade across all pillars (F worst, A best).
func OverallGrade(scores []model.PillarScore) string {
	rank := map[string]int{"F": 0, "C": 1, "B": 2, "A": 3}
	best := "A"
	for _, s := range scores {
		if rank[s.Grade] < rank[best] {
			best = s.Grade
		}
	}
	if len(scores) == 0 {
		return "A"
	}
	return best
}
