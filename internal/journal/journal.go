// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal records build runs and the pages each run wrote in an
// SQLite database kept alongside the staged pages.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pagemill/pkg/types"
)

// DBFile is the journal filename inside the staging directory.
const DBFile = ".pagemill.db"

// DefaultLimit bounds Recent when the caller passes no limit.
const DefaultLimit = 10

// Journal is an open render journal.
type Journal struct {
	db   *sql.DB
	path string
}

// Run is one recorded build.
type Run struct {
	ID         string
	Project    string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress or if it aborted
	Force      bool
	PDFOnly    bool
	Rendered   int
	Assembled  bool
	Pages      []PageRecord
}

// PageRecord is one staged page written during a run.
type PageRecord struct {
	Index      int
	Kind       string
	Source     string
	Staged     string
	Digest     string
	RenderedAt time.Time
}

// Open opens or creates the journal in stagingDir, creating the directory
// and schema as needed.
func Open(stagingDir string) (*Journal, error) {
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	path := filepath.Join(stagingDir, DBFile)
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	j := &Journal{db: db, path: path}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return j, nil
}

// Path returns the database file path.
func (j *Journal) Path() string { return j.path }

// Close releases the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			project TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			forced INTEGER NOT NULL DEFAULT 0,
			pdf_only INTEGER NOT NULL DEFAULT 0,
			rendered INTEGER NOT NULL DEFAULT 0,
			assembled INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			page_index INTEGER NOT NULL,
			kind TEXT NOT NULL,
			source TEXT,
			staged TEXT NOT NULL,
			digest TEXT NOT NULL,
			rendered_at TEXT NOT NULL,
			PRIMARY KEY (run_id, page_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_staged ON pages(staged)`,
	}
	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun records the start of a build and returns its id.
func (j *Journal) BeginRun(ctx context.Context, project string, opts types.RunOptions) (string, error) {
	id := uuid.NewString()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, project, started_at, forced, pdf_only) VALUES (?, ?, ?, ?, ?)`,
		id, project, stamp(time.Now()), opts.Force, opts.PDFOnly,
	)
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

// RecordPage records a page written during run runID.
func (j *Journal) RecordPage(ctx context.Context, runID string, rec PageRecord) error {
	if rec.RenderedAt.IsZero() {
		rec.RenderedAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO pages (run_id, page_index, kind, source, staged, digest, rendered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, page_index) DO UPDATE SET
			kind=excluded.kind, source=excluded.source, staged=excluded.staged,
			digest=excluded.digest, rendered_at=excluded.rendered_at`,
		runID, rec.Index, rec.Kind, rec.Source, rec.Staged, rec.Digest, stamp(rec.RenderedAt),
	)
	if err != nil {
		return fmt.Errorf("recording page %d: %w", rec.Index, err)
	}
	return nil
}

// FinishRun records the outcome of run runID.
func (j *Journal) FinishRun(ctx context.Context, runID string, rendered int, assembled bool) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, rendered = ?, assembled = ? WHERE id = ?`,
		stamp(time.Now()), rendered, assembled, runID,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run: unknown run %s", runID)
	}
	return nil
}

// Recent returns up to limit runs, newest first, each with its pages in
// index order.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, project, started_at, COALESCE(finished_at, ''), forced, pdf_only, rendered, assembled
		 FROM runs ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Project, &started, &finished, &r.Force, &r.PDFOnly, &r.Rendered, &r.Assembled); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = parseStamp(started)
		r.FinishedAt = parseStamp(finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	for i := range runs {
		pages, err := j.pages(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Pages = pages
	}
	return runs, nil
}

func (j *Journal) pages(ctx context.Context, runID string) ([]PageRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT page_index, kind, COALESCE(source, ''), staged, digest, rendered_at
		 FROM pages WHERE run_id = ? ORDER BY page_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var p PageRecord
		var at string
		if err := rows.Scan(&p.Index, &p.Kind, &p.Source, &p.Staged, &p.Digest, &at); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		p.RenderedAt = parseStamp(at)
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseStamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
