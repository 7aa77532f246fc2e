// Package history persists finished analyses to a local SQLite database so
// past extractions can be listed and re-exported.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/caredocs-labs/medextract/constants"
	"github.com/caredocs-labs/medextract/internal/pipeline"
	"github.com/caredocs-labs/medextract/internal/record"
)

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id            TEXT PRIMARY KEY,
	created_at    TEXT NOT NULL,
	source_path   TEXT NOT NULL,
	status        TEXT NOT NULL,
	method        TEXT NOT NULL,
	pages         INTEGER NOT NULL,
	chunks        INTEGER NOT NULL,
	failed_chunks TEXT NOT NULL,
	text_length   INTEGER NOT NULL,
	confidence    TEXT NOT NULL,
	completeness  REAL NOT NULL,
	record_json   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses (created_at DESC);
`

// Entry is one stored analysis, as listed by Recent.
type Entry struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	SourcePath   string    `json:"source_path"`
	Status       string    `json:"status"`
	Method       string    `json:"method"`
	Pages        int       `json:"pages"`
	Chunks       int       `json:"chunks"`
	FailedChunks []int     `json:"failed_chunks"`
	TextLength   int       `json:"text_length"`
	Confidence   string    `json:"confidence"`
	Completeness float64   `json:"completeness"`
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Append stores one finished analysis. Implements pipeline.Recorder.
func (s *Store) Append(ctx context.Context, res *pipeline.Result) error {
	recJSON, err := json.Marshal(res.Record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	failed := res.FailedChunks
	if failed == nil {
		failed = []int{}
	}
	failedJSON, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("marshal failed chunks: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses
			(id, created_at, source_path, status, method, pages, chunks,
			 failed_chunks, text_length, confidence, completeness, record_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID,
		time.Now().UTC().Format(time.RFC3339),
		res.SourcePath,
		string(res.Status),
		res.Method,
		res.Pages,
		res.Chunks,
		string(failedJSON),
		res.TextLength,
		string(res.Record.DocumentMetadata.AnalysisConfidence),
		res.Summary.OverallCompleteness,
		string(recJSON),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// Recent lists the newest analyses, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, source_path, status, method, pages, chunks,
		       failed_chunks, text_length, confidence, completeness
		FROM analyses
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created, failed string
		if err := rows.Scan(&e.ID, &created, &e.SourcePath, &e.Status, &e.Method,
			&e.Pages, &e.Chunks, &failed, &e.TextLength,
			&e.Confidence, &e.Completeness); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		if err := json.Unmarshal([]byte(failed), &e.FailedChunks); err != nil {
			return nil, fmt.Errorf("unmarshal failed chunks: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns the full stored record for one analysis.
func (s *Store) Get(ctx context.Context, id string) (*pipeline.Result, error) {
	var (
		res     pipeline.Result
		status  string
		created string
		failed  string
		recJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, source_path, status, method, pages, chunks,
		       failed_chunks, text_length, record_json
		FROM analyses WHERE id = ?`, id).
		Scan(&res.ID, &created, &res.SourcePath, &status, &res.Method,
			&res.Pages, &res.Chunks, &failed, &res.TextLength, &recJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis %s: not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query analysis: %w", err)
	}
	res.Status = constants.AnalysisStatus(status)
	if err := json.Unmarshal([]byte(failed), &res.FailedChunks); err != nil {
		return nil, fmt.Errorf("unmarshal failed chunks: %w", err)
	}
	if err := json.Unmarshal([]byte(recJSON), &res.Record); err != nil {
		return nil, fmt.Errorf("unmarshal stored record: %w", err)
	}
	res.Summary = record.Summarize(res.Record)
	return &res, nil
}
