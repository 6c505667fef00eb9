// Package sqlite persists posting history, so past runs against a pull
// request can be inspected after the CI logs are gone.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
	"github.com/bkyoung/clang-tidy-reviewer/internal/usecase/post"
)

// Store records posting runs in SQLite. It implements post.HistoryStore.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database in tests.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	-- One row per posting run against a pull request
	CREATE TABLE IF NOT EXISTS runs (
		run_id INTEGER PRIMARY KEY AUTOINCREMENT,
		repository TEXT NOT NULL,
		pull_number INTEGER NOT NULL,
		started_at INTEGER NOT NULL
	);

	-- Comments posted during a run
	CREATE TABLE IF NOT EXISTS comments (
		comment_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		path TEXT NOT NULL,
		line INTEGER NOT NULL,
		side TEXT NOT NULL,
		start_line INTEGER,
		body TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_repo_pull ON runs(repository, pull_number);
	CREATE INDEX IF NOT EXISTS idx_comments_run ON comments(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores one posting run and its comments in a single transaction.
func (s *Store) SaveRun(ctx context.Context, run post.RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (repository, pull_number, started_at) VALUES (?, ?, ?)`,
		run.Repository, run.PullNumber, run.StartedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO comments (run_id, path, line, side, start_line, body)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range run.Comments {
		var startLine sql.NullInt64
		if c.StartLine != nil {
			startLine = sql.NullInt64{Int64: int64(*c.StartLine), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, runID, c.Path, c.Line, c.Side, startLine, c.Body); err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Run is one stored posting run.
type Run struct {
	RunID      int64
	Repository string
	PullNumber int
	StartedAt  time.Time
	Comments   int
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT r.run_id, r.repository, r.pull_number, r.started_at, COUNT(c.comment_id)
		FROM runs r
		LEFT JOIN comments c ON c.run_id = r.run_id
		GROUP BY r.run_id
		ORDER BY r.started_at DESC, r.run_id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt int64
		if err := rows.Scan(&run.RunID, &run.Repository, &run.PullNumber, &startedAt, &run.Comments); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.Unix(startedAt, 0).UTC()
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// GetRunComments returns the comments recorded for one run, in posting order.
func (s *Store) GetRunComments(ctx context.Context, runID int64) ([]domain.ReviewComment, error) {
	query := `
		SELECT path, line, side, start_line, body
		FROM comments
		WHERE run_id = ?
		ORDER BY comment_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get run comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.ReviewComment
	for rows.Next() {
		var c domain.ReviewComment
		var startLine sql.NullInt64
		if err := rows.Scan(&c.Path, &c.Line, &c.Side, &startLine, &c.Body); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		if startLine.Valid {
			line := int(startLine.Int64)
			c.StartLine = &line
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
