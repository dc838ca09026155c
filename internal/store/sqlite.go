package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS verdicts (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT    NOT NULL,
	repo           TEXT    NOT NULL,
	commit_sha     TEXT    NOT NULL DEFAULT '',
	total_score    REAL    NOT NULL,
	recommendation TEXT    NOT NULL,
	result_json    TEXT    NOT NULL,
	analyzed_at    TEXT    NOT NULL,
	superseded_by  INTEGER
);
CREATE INDEX IF NOT EXISTS idx_verdicts_repo_current ON verdicts(repo, superseded_by);
`

// Record is a stored verdict together with its bookkeeping columns.
type Record struct {
	ID           int64
	RunID        string
	Result       models.AnalysisResult
	SupersededBy int64
}

// Current reports whether no later verdict replaced this one.
func (r Record) Current() bool {
	return r.SupersededBy == 0
}

// SQLiteStore keeps every verdict. Saving a verdict supersedes the current one
// of the same repository, so each repository has at most one current verdict.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates the database file and its directory when missing.
func Open(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, domainErrors.ErrStore.WithError(fmt.Errorf("failed to create directory: %w", err))
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, domainErrors.ErrStore.WithError(fmt.Errorf("failed to open database: %w", err))
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, domainErrors.ErrStore.WithError(fmt.Errorf("failed to ping database: %w", err))
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, domainErrors.ErrStore.WithError(fmt.Errorf("failed to initialize schema: %w", err))
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts the verdict and marks the previous current verdict of the
// repository as superseded by it.
func (s *SQLiteStore) Save(ctx context.Context, runID string, result models.AnalysisResult) (int64, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return 0, domainErrors.ErrStore.WithError(fmt.Errorf("failed to encode verdict: %w", err)).WithContext("repo", result.Repo)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, domainErrors.ErrStore.WithError(err).WithContext("repo", result.Repo)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO verdicts (run_id, repo, commit_sha, total_score, recommendation, result_json, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, result.Repo, result.CommitSHA, result.TotalScore, string(result.Recommendation),
		string(data), result.AnalyzedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, domainErrors.ErrStore.WithError(fmt.Errorf("failed to insert verdict: %w", err)).WithContext("repo", result.Repo)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domainErrors.ErrStore.WithError(err).WithContext("repo", result.Repo)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE verdicts SET superseded_by = ?
		WHERE repo = ? AND id <> ? AND superseded_by IS NULL`,
		id, result.Repo, id); err != nil {
		return 0, domainErrors.ErrStore.WithError(fmt.Errorf("failed to supersede verdicts: %w", err)).WithContext("repo", result.Repo)
	}

	if err := tx.Commit(); err != nil {
		return 0, domainErrors.ErrStore.WithError(err).WithContext("repo", result.Repo)
	}
	return id, nil
}

// Latest returns the current verdict of a repository.
func (s *SQLiteStore) Latest(ctx context.Context, repo string) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, run_id, result_json, superseded_by FROM verdicts
		WHERE repo = ? AND superseded_by IS NULL
		ORDER BY id DESC LIMIT 1`, repo)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, domainErrors.ErrStore.WithError(err).WithContext("repo", repo)
	}
	return rec, true, nil
}

// Reusable returns the current verdict when it was computed for the given
// head commit under the same reuse key. An empty sha never matches.
func (s *SQLiteStore) Reusable(ctx context.Context, repo, sha, key string) (models.AnalysisResult, bool, error) {
	if sha == "" {
		return models.AnalysisResult{}, false, nil
	}
	rec, found, err := s.Latest(ctx, repo)
	if err != nil || !found {
		return models.AnalysisResult{}, false, err
	}
	if rec.Result.CommitSHA != sha || rec.Result.ReuseKey != key {
		return models.AnalysisResult{}, false, nil
	}
	return rec.Result, true, nil
}

// History lists verdicts newest first. An empty repo lists every repository.
func (s *SQLiteStore) History(ctx context.Context, repo string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, run_id, result_json, superseded_by FROM verdicts`
	args := []any{}
	if repo != "" {
		query += ` WHERE repo = ?`
		args = append(args, repo)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domainErrors.ErrStore.WithError(err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, domainErrors.ErrStore.WithError(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domainErrors.ErrStore.WithError(err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec          Record
		data         string
		supersededBy sql.NullInt64
	)
	if err := row.Scan(&rec.ID, &rec.RunID, &data, &supersededBy); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(data), &rec.Result); err != nil {
		return Record{}, fmt.Errorf("failed to decode verdict %d: %w", rec.ID, err)
	}
	rec.SupersededBy = supersededBy.Int64
	return rec, nil
}
