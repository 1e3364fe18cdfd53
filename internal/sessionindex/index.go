// Package sessionindex is a SQLite-backed lookup over persisted session
// directories, letting callers find the most recent session for a URL
// without scanning the filesystem (the HTTP API records each review here
// and lists session history from it).
package sessionindex

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/raysh454/design-review/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

// Index wraps a *sql.DB (modernc.org/sqlite) holding one row per
// session, mirroring the essential fields of session.json.
type Index struct {
	db *sql.DB
}

// Open applies the schema to db and returns an Index.
func Open(db *sql.DB) (*Index, error) {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("sessionindex: pragma %q: %w", p, err)
		}
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("sessionindex: reading schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		return nil, fmt.Errorf("sessionindex: applying schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Record upserts manifest's rollup fields into the index, keyed by
// session id.
func (idx *Index) Record(manifest model.SessionManifest, kind model.SessionKind, dir string) error {
	_, err := idx.db.Exec(`
		INSERT INTO sessions (id, kind, url, spec_name, blocking, major, minor, passing, started_at, completed_at, dir)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			blocking=excluded.blocking, major=excluded.major, minor=excluded.minor,
			passing=excluded.passing, completed_at=excluded.completed_at`,
		manifest.SessionID, string(kind), manifest.URL, specName(manifest),
		manifest.Summary.Blocking, manifest.Summary.Major, manifest.Summary.Minor, manifest.Summary.Passing,
		manifest.StartTime, manifest.EndTime, dir,
	)
	if err != nil {
		return fmt.Errorf("sessionindex: recording %s: %w", manifest.SessionID, err)
	}
	return nil
}

func specName(m model.SessionManifest) string {
	if m.Spec == nil {
		return ""
	}
	return m.Spec.Name
}

// Entry is one row of the session index.
type Entry struct {
	SessionID string
	Kind      string
	URL       string
	SpecName  string
	Blocking  int
	Major     int
	Minor     int
	Passing   int
	StartedAt string
	Dir       string
}

// Latest returns the most recently started session for url, ordered by
// started_at descending, or nil if none exist.
func (idx *Index) Latest(url string) (*Entry, error) {
	row := idx.db.QueryRow(`
		SELECT id, kind, url, spec_name, blocking, major, minor, passing, started_at, dir
		FROM sessions WHERE url = ? ORDER BY started_at DESC LIMIT 1`, url)

	var e Entry
	if err := row.Scan(&e.SessionID, &e.Kind, &e.URL, &e.SpecName, &e.Blocking, &e.Major, &e.Minor, &e.Passing, &e.StartedAt, &e.Dir); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sessionindex: Latest(%q): %w", url, err)
	}
	return &e, nil
}

// ByID returns a specific session's indexed row, or nil if not found.
func (idx *Index) ByID(sessionID string) (*Entry, error) {
	row := idx.db.QueryRow(`
		SELECT id, kind, url, spec_name, blocking, major, minor, passing, started_at, dir
		FROM sessions WHERE id = ?`, sessionID)

	var e Entry
	if err := row.Scan(&e.SessionID, &e.Kind, &e.URL, &e.SpecName, &e.Blocking, &e.Major, &e.Minor, &e.Passing, &e.StartedAt, &e.Dir); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sessionindex: ByID(%q): %w", sessionID, err)
	}
	return &e, nil
}

// History returns every indexed session for url, most recent first.
func (idx *Index) History(url string) ([]Entry, error) {
	rows, err := idx.db.Query(`
		SELECT id, kind, url, spec_name, blocking, major, minor, passing, started_at, dir
		FROM sessions WHERE url = ? ORDER BY started_at DESC`, url)
	if err != nil {
		return nil, fmt.Errorf("sessionindex: History(%q): %w", url, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.SessionID, &e.Kind, &e.URL, &e.SpecName, &e.Blocking, &e.Major, &e.Minor, &e.Passing, &e.StartedAt, &e.Dir); err != nil {
			return nil, fmt.Errorf("sessionindex: scanning row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
