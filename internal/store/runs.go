package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a pipeline run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// SourceKind distinguishes local subtitle files from YouTube videos.
type SourceKind string

const (
	SourceLocal   SourceKind = "local"
	SourceYouTube SourceKind = "youtube"
)

// Run is one pipeline invocation.
type Run struct {
	ID            string
	Source        string
	SourceKind    SourceKind
	Title         string
	OutputDir     string
	Status        Status
	SentenceCount int
	AnalyzedCount int
	Model         string
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Duration is the wall time between creation and the last update.
func (r Run) Duration() time.Duration {
	if r.CreatedAt.IsZero() || r.UpdatedAt.IsZero() {
		return 0
	}
	return r.UpdatedAt.Sub(r.CreatedAt)
}

const runColumns = `id, source, source_kind, title, output_dir, status, sentence_count,
    analyzed_count, model, error_message, created_at, updated_at`

// ErrRunNotFound is returned when updating a run that does not exist.
var ErrRunNotFound = errors.New("run not found")

// CreateRun inserts run with status running. ID, Source and OutputDir are required.
func (s *Store) CreateRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("create run: id required")
	}
	if strings.TrimSpace(run.Source) == "" || strings.TrimSpace(run.OutputDir) == "" {
		return errors.New("create run: source and output dir required")
	}
	now := time.Now().UTC()
	run.Status = StatusRunning
	run.CreatedAt = now
	run.UpdatedAt = now
	if run.SourceKind == "" {
		run.SourceKind = SourceLocal
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Source,
		string(run.SourceKind),
		nullableString(run.Title),
		run.OutputDir,
		string(run.Status),
		run.SentenceCount,
		run.AnalyzedCount,
		nullableString(run.Model),
		nil,
		formatTime(run.CreatedAt),
		formatTime(run.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun marks a run completed with its final title and counts.
func (s *Store) FinishRun(ctx context.Context, id, title string, sentenceCount, analyzedCount int) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, title = COALESCE(?, title), sentence_count = ?, analyzed_count = ?,
            error_message = NULL, updated_at = ? WHERE id = ?`,
		string(StatusCompleted),
		nullableString(title),
		sentenceCount,
		analyzedCount,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return requireAffected(res, id)
}

// FailRun marks a run failed and records the error text.
func (s *Store) FailRun(ctx context.Context, id string, cause error) error {
	message := "unknown error"
	if cause != nil {
		message = cause.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(StatusFailed),
		message,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return requireAffected(res, id)
}

// GetRun fetches a run by ID. It returns nil, nil when no run matches.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run       Run
		kind      string
		status    string
		title     sql.NullString
		model     sql.NullString
		errorMsg  sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&run.ID,
		&run.Source,
		&kind,
		&title,
		&run.OutputDir,
		&status,
		&run.SentenceCount,
		&run.AnalyzedCount,
		&model,
		&errorMsg,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	run.SourceKind = SourceKind(kind)
	run.Status = Status(status)
	run.Title = title.String
	run.Model = model.String
	run.Error = errorMsg.String
	run.CreatedAt = parseTime(createdAt)
	run.UpdatedAt = parseTime(updatedAt)
	return &run, nil
}

func requireAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
