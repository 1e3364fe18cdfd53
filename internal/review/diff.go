package review

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/raysh454/design-review/internal/model"
	"github.com/raysh454/design-review/internal/session"
)

// DiffSessions implements the §12 supplemented feature: an offline
// comparison of two previously-persisted review sessions for the same
// page, without re-driving the browser. Grounded on the teacher's
// diffmatchpatch-based body-diff helper (internal/tracker/helpers.go),
// applied here to the two sessions' issue lists rather than to DOM text.
func (o *Orchestrator) DiffSessions(store *session.Store, oldID, newID string) (*model.SessionDiff, error) {
	oldManifest, err := store.Load(oldID)
	if err != nil {
		return nil, err
	}
	newManifest, err := store.Load(newID)
	if err != nil {
		return nil, err
	}

	added, resolved := diffIssues(oldManifest.Issues, newManifest.Issues)

	deltas := make(map[string]int)
	oldByPillar := countByPillar(oldManifest.Issues)
	newByPillar := countByPillar(newManifest.Issues)
	for pillar, count := range newByPillar {
		deltas[pillar] = count - oldByPillar[pillar]
	}
	for pillar, count := range oldByPillar {
		if _, ok := newByPillar[pillar]; !ok {
			deltas[pillar] = -count
		}
	}

	return &model.SessionDiff{
		OldSessionID:   oldID,
		NewSessionID:   newID,
		IssuesAdded:    added,
		IssuesResolved: resolved,
		PillarDeltas:   deltas,
		DOMTextDiff:    textDiff(issuesText(oldManifest.Issues), issuesText(newManifest.Issues)),
	}, nil
}

// diffIssues compares two issue sets by (checkId, cssSelector) identity
// — ids are session-local and not comparable across sessions.
func diffIssues(oldIssues, newIssues []model.Issue) (added, resolved []model.Issue) {
	oldKeys := make(map[string]bool, len(oldIssues))
	for _, issue := range oldIssues {
		oldKeys[issueKey(issue)] = true
	}
	newKeys := make(map[string]bool, len(newIssues))
	for _, issue := range newIssues {
		newKeys[issueKey(issue)] = true
		if !oldKeys[issueKey(issue)] {
			added = append(added, issue)
		}
	}
	for _, issue := range oldIssues {
		if !newKeys[issueKey(issue)] {
			resolved = append(resolved, issue)
		}
	}
	return added, resolved
}

func issueKey(issue model.Issue) string {
	return issue.CheckID + "|" + issue.CSSSelector
}

func countByPillar(issues []model.Issue) map[string]int {
	counts := make(map[string]int)
	for _, issue := range issues {
		counts[issue.Pillar]++
	}
	return counts
}

func issuesText(issues []model.Issue) string {
	var b strings.Builder
	for _, issue := range issues {
		b.WriteString(issue.CSSSelector)
		b.WriteString(": ")
		b.WriteString(issue.Description)
		b.WriteString("\n")
	}
	return b.String()
}

// textDiff renders a character-level diff between two session's issue
// descriptions as an inline, human-readable string (not unified diff
// format), using the same
// diffmatchpatch semantic-cleanup pipeline the teacher uses for body
// diffs.
func textDiff(oldText, newText string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, true)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.DiffPrettyText(diffs)
}
