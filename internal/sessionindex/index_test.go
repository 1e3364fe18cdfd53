package sessionindex

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raysh454/design-review/internal/model"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	idx, err := Open(db)
	require.NoError(t, err)
	return idx
}

func TestRecordAndLatest(t *testing.T) {
	idx := openTestIndex(t)

	m1 := model.SessionManifest{
		SessionID: "review_20260730120000001",
		URL:       "https://example.com",
		StartTime: "2026-07-30T12:00:00Z",
		Summary:   model.IssueSummary{Blocking: 2, Passing: 5},
	}
	m2 := model.SessionManifest{
		SessionID: "review_20260730130000001",
		URL:       "https://example.com",
		StartTime: "2026-07-30T13:00:00Z",
		Summary:   model.IssueSummary{Blocking: 0, Passing: 7},
	}

	require.NoError(t, idx.Record(m1, model.SessionKindReview, "/sessions/m1"))
	require.NoError(t, idx.Record(m2, model.SessionKindReview, "/sessions/m2"))

	latest, err := idx.Latest("https://example.com")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, m2.SessionID, latest.SessionID)
	assert.Equal(t, 0, latest.Blocking)
}

func TestLatestReturnsNilWhenNoSessions(t *testing.T) {
	idx := openTestIndex(t)
	latest, err := idx.Latest("https://nowhere.example")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestHistoryOrdersMostRecentFirst(t *testing.T) {
	idx := openTestIndex(t)
	require.NoError(t, idx.Record(model.SessionManifest{
		SessionID: "review_1", URL: "https://example.com", StartTime: "2026-07-30T10:00:00Z",
	}, model.SessionKindReview, "/a"))
	require.NoError(t, idx.Record(model.SessionManifest{
		SessionID: "review_2", URL: "https://example.com", StartTime: "2026-07-30T11:00:00Z",
	}, model.SessionKindReview, "/b"))

	history, err := idx.History("https://example.com")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "review_2", history[0].SessionID)
}
